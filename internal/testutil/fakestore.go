// Package testutil provides testing utilities.
package testutil

import (
	"sync"

	"simpletodo/internal/repository"
	"simpletodo/internal/service"
	"simpletodo/internal/storage"
)

// TB is the part of testing.TB the helpers need. *rapid.T satisfies it too.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// FakeStore wraps a MemoryStore with error injection and write counting.
type FakeStore struct {
	*storage.MemoryStore

	mu     sync.Mutex
	puts   int
	GetErr error
	PutErr error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{MemoryStore: storage.NewMemoryStore()}
}

// Get implements storage.Store.
func (f *FakeStore) Get(key string) ([]byte, error) {
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	return f.MemoryStore.Get(key)
}

// Put implements storage.Store.
func (f *FakeStore) Put(key string, value []byte) error {
	f.mu.Lock()
	err := f.PutErr
	if err == nil {
		f.puts++
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.MemoryStore.Put(key, value)
}

// Puts returns the number of successful writes.
func (f *FakeStore) Puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

// Seed writes raw persisted data under the default namespace.
func (f *FakeStore) Seed(t TB, data string) {
	t.Helper()
	if err := f.MemoryStore.Put(repository.DefaultNamespace, []byte(data)); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

// Raw returns the persisted data under the default namespace.
func (f *FakeStore) Raw(t TB) string {
	t.Helper()
	data, err := f.MemoryStore.Get(repository.DefaultNamespace)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	return string(data)
}

// NewRepository opens a repository over store, failing the test on error.
func NewRepository(t TB, store storage.Store) *repository.Repository {
	t.Helper()
	repo, err := repository.New(store, repository.Options{})
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	return repo
}

// SeedTasks adds tasks with the given texts, marking those listed in done.
func SeedTasks(t TB, svc service.Service, texts []string, done ...int) []service.Task {
	t.Helper()
	isDone := make(map[int]bool, len(done))
	for _, i := range done {
		isDone[i] = true
	}
	out := make([]service.Task, 0, len(texts))
	for i, text := range texts {
		task, err := svc.Add(text, isDone[i])
		if err != nil {
			t.Fatalf("seed task %q: %v", text, err)
		}
		out = append(out, task)
	}
	return out
}

// Package repository implements service.Service over a storage slot.
//
// The repository owns the ordered task collection. Every mutation rewrites the
// whole collection under one key, then notifies observers. If the write fails
// the in-memory change is rolled back, so the list and the slot never diverge.
package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"simpletodo/internal/logging"
	"simpletodo/internal/service"
	"simpletodo/internal/storage"
)

// DefaultNamespace is the storage key used when none is configured.
const DefaultNamespace = "simpleDB"

// Repository is the authoritative task collection.
type Repository struct {
	mu        sync.Mutex
	store     storage.Store
	namespace string
	log       *logging.Logger

	tasks  []service.Task
	nextID service.ID

	obsMu     sync.Mutex
	observers map[int]func(service.Event)
	nextObs   int
}

var _ service.Service = (*Repository)(nil)

// Options configures a Repository.
type Options struct {
	// Namespace is the storage key. Empty means DefaultNamespace.
	Namespace string

	// Logger receives debug output. Nil discards it.
	Logger *logging.Logger
}

// New loads the collection stored under opts.Namespace.
// A missing slot starts an empty collection; an unreadable one is an error.
func New(store storage.Store, opts Options) (*Repository, error) {
	if store == nil {
		return nil, errors.New("repository: store required")
	}
	ns := opts.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	if err := storage.ValidateKey(ns); err != nil {
		return nil, fmt.Errorf("%w: namespace: %v", service.ErrInvalidArgument, err)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	r := &Repository{
		store:     store,
		namespace: ns,
		log:       log.WithComponent("repository"),
		observers: make(map[int]func(service.Event)),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// load reads the slot and assigns ids. Stored ids are kept unless missing or
// already taken; the counter resumes after the largest id seen.
func (r *Repository) load() error {
	data, err := r.store.Get(r.namespace)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			r.log.Debug("load", logging.Fields{"namespace": r.namespace, "tasks": 0})
			return nil
		}
		return fmt.Errorf("%w: load %s: %v", service.ErrStorage, r.namespace, err)
	}

	records, err := Decode(data)
	if err != nil {
		return fmt.Errorf("%w: %v", service.ErrStorage, err)
	}

	for _, rec := range records {
		if rec.ID != nil && *rec.ID >= r.nextID {
			r.nextID = *rec.ID + 1
		}
	}

	taken := make(map[service.ID]bool, len(records))
	r.tasks = make([]service.Task, 0, len(records))
	for _, rec := range records {
		var id service.ID
		if rec.ID != nil && !taken[*rec.ID] {
			id = *rec.ID
		} else {
			id = r.allocID()
		}
		taken[id] = true
		r.tasks = append(r.tasks, service.Task{ID: id, Text: rec.Text, IsDone: rec.IsDone})
	}

	r.log.Debug("load", logging.Fields{"namespace": r.namespace, "tasks": len(r.tasks), "next_id": r.nextID})
	return nil
}

// allocID hands out the next id. Must be called with mu held (or during load).
func (r *Repository) allocID() service.ID {
	id := r.nextID
	r.nextID++
	return id
}

// persist writes the whole collection. Must be called with mu held.
func (r *Repository) persist() error {
	data, err := Encode(r.tasks)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", service.ErrStorage, err)
	}
	if err := r.store.Put(r.namespace, data); err != nil {
		r.log.Error("persist failed", logging.Fields{"namespace": r.namespace, "error": err})
		return fmt.Errorf("%w: save %s: %v", service.ErrStorage, r.namespace, err)
	}
	r.log.Debug("persist", logging.Fields{"namespace": r.namespace, "tasks": len(r.tasks), "bytes": len(data)})
	return nil
}

// indexOf returns the position of id, or -1. Must be called with mu held.
func (r *Repository) indexOf(id service.ID) int {
	for i, t := range r.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Namespace returns the storage key the collection is kept under.
func (r *Repository) Namespace() string {
	return r.namespace
}

// List returns all tasks in insertion order.
func (r *Repository) List() []service.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]service.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

// Get returns the task with the given id.
func (r *Repository) Get(id service.ID) (service.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return service.Task{}, service.NotFound(id)
	}
	return r.tasks[i], nil
}

// Add appends a task with the next id and persists the collection.
func (r *Repository) Add(text string, isDone bool) (service.Task, error) {
	if strings.TrimSpace(text) == "" {
		return service.Task{}, fmt.Errorf("%w: task text required", service.ErrInvalidArgument)
	}

	r.mu.Lock()
	prevNext := r.nextID
	task := service.Task{ID: r.allocID(), Text: text, IsDone: isDone}
	r.tasks = append(r.tasks, task)
	if err := r.persist(); err != nil {
		r.tasks = r.tasks[:len(r.tasks)-1]
		r.nextID = prevNext
		r.mu.Unlock()
		return service.Task{}, err
	}
	r.mu.Unlock()

	r.notify(service.Event{Kind: service.EventAdded, Task: task})
	return task, nil
}

// Update applies the fields of p that differ from the stored task.
// A patch that changes nothing is not persisted and not announced.
func (r *Repository) Update(id service.ID, p service.Patch) error {
	if p.Text != nil && strings.TrimSpace(*p.Text) == "" {
		return fmt.Errorf("%w: task text required", service.ErrInvalidArgument)
	}

	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return service.NotFound(id)
	}

	before := r.tasks[i]
	after := before
	if p.Text != nil && *p.Text != before.Text {
		after.Text = *p.Text
	}
	if p.IsDone != nil && *p.IsDone != before.IsDone {
		after.IsDone = *p.IsDone
	}
	if after == before {
		r.mu.Unlock()
		return nil
	}

	r.tasks[i] = after
	if err := r.persist(); err != nil {
		r.tasks[i] = before
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.notify(service.Event{Kind: service.EventUpdated, Task: after})
	return nil
}

// Delete removes a task and persists the remaining collection.
func (r *Repository) Delete(id service.ID) error {
	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return service.NotFound(id)
	}

	prev := r.tasks
	removed := prev[i]
	next := make([]service.Task, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	next = append(next, prev[i+1:]...)
	r.tasks = next
	if err := r.persist(); err != nil {
		r.tasks = prev
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.notify(service.Event{Kind: service.EventDeleted, Task: removed})
	return nil
}

// Subscribe registers fn for every persisted mutation.
// Observers run synchronously on the mutating goroutine, after the
// repository lock is released, in registration order.
func (r *Repository) Subscribe(fn func(service.Event)) (cancel func()) {
	r.obsMu.Lock()
	key := r.nextObs
	r.nextObs++
	r.observers[key] = fn
	r.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.obsMu.Lock()
			delete(r.observers, key)
			r.obsMu.Unlock()
		})
	}
}

func (r *Repository) notify(ev service.Event) {
	r.obsMu.Lock()
	keys := make([]int, 0, len(r.observers))
	for k := range r.observers {
		keys = append(keys, k)
	}
	fns := make([]func(service.Event), 0, len(keys))
	sort.Ints(keys)
	for _, k := range keys {
		fns = append(fns, r.observers[k])
	}
	r.obsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close releases the storage slot.
func (r *Repository) Close() error {
	return r.store.Close()
}

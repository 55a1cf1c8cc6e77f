package repository_test

import (
	"errors"
	"reflect"
	"testing"

	"pgregory.net/rapid"

	"simpletodo/internal/repository"
	"simpletodo/internal/service"
	"simpletodo/internal/testutil"
)

func textGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9 ]{0,30}`)
}

// Ids from any sequence of adds are pairwise distinct and strictly increasing,
// including across deletes.
func TestProperty_IDsStrictlyIncrease(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo := testutil.NewRepository(t, testutil.NewFakeStore())
		texts := rapid.SliceOfN(textGenerator(), 1, 40).Draw(t, "texts")

		last := service.ID(-1)
		for _, text := range texts {
			task, err := repo.Add(text, false)
			if err != nil {
				t.Fatalf("add %q: %v", text, err)
			}
			if task.ID <= last {
				t.Fatalf("id %d not greater than %d", task.ID, last)
			}
			last = task.ID
			if rapid.Bool().Draw(t, "delete") {
				if err := repo.Delete(task.ID); err != nil {
					t.Fatalf("delete: %v", err)
				}
			}
		}
	})
}

// Reloading from the slot after any operation sequence yields an element-wise
// equal collection.
func TestProperty_PersistRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		store := testutil.NewFakeStore()
		repo := testutil.NewRepository(t, store)

		steps := rapid.IntRange(0, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			list := repo.List()
			op := rapid.IntRange(0, 2).Draw(t, "op")
			if op == 0 || len(list) == 0 {
				repo.Add(textGenerator().Draw(t, "text"), rapid.Bool().Draw(t, "done"))
				continue
			}
			target := rapid.SampledFrom(list).Draw(t, "target")
			if op == 1 {
				repo.Update(target.ID, service.SetDone(!target.IsDone))
			} else {
				repo.Delete(target.ID)
			}
		}

		reloaded, err := repository.New(store, repository.Options{})
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if !reflect.DeepEqual(repo.List(), reloaded.List()) {
			t.Fatalf("reload mismatch:\n%+v\n%+v", repo.List(), reloaded.List())
		}
	})
}

// A failed lookup never changes the collection.
func TestProperty_NotFoundIsSideEffectFree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo := testutil.NewRepository(t, testutil.NewFakeStore())
		n := rapid.IntRange(0, 10).Draw(t, "n")
		for i := 0; i < n; i++ {
			repo.Add("task", false)
		}
		before := repo.List()
		missing := service.ID(rapid.IntRange(n, 1000).Draw(t, "missing"))

		if err := repo.Update(missing, service.SetText("x")); !errors.Is(err, service.ErrNotFound) {
			t.Fatalf("update: expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete(missing); !errors.Is(err, service.ErrNotFound) {
			t.Fatalf("delete: expected ErrNotFound, got %v", err)
		}
		if !reflect.DeepEqual(before, repo.List()) {
			t.Fatal("collection changed")
		}
	})
}

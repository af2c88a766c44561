package users

import (
	"errors"
	"sync"
	"testing"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/models"
)

func user(id int, name string) models.User {
	return models.User{UserID: id, Name: name, Email: name + "@x.com"}
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry()
	want := models.User{UserID: 1, Name: "A", Email: "a@x.com"}

	got, err := r.Create(want)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got != want {
		t.Errorf("Create returned %+v, want %+v", got, want)
	}

	got, err = r.Get(1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Errorf("Get returned %+v, want %+v", got, want)
	}
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create(user(1, "a")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := r.Create(user(1, "b")); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 user, got %d", r.Len())
	}
	if got, _ := r.Get(1); got.Name != "a" {
		t.Errorf("original record was modified: %+v", got)
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_ListInsertionOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []int{3, 1, 2} {
		if _, err := r.Create(user(id, "u")); err != nil {
			t.Fatalf("Create(%d): %v", id, err)
		}
	}

	if _, err := r.Update(1, user(1, "renamed")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	list := r.List()
	ids := [3]int{list[0].UserID, list[1].UserID, list[2].UserID}
	if ids != [3]int{3, 1, 2} {
		t.Errorf("unexpected order: %v", ids)
	}
	if list[1].Name != "renamed" {
		t.Errorf("update did not happen in place: %+v", list[1])
	}

	if err := r.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list = r.List()
	if len(list) != 2 || list[0].UserID != 3 || list[1].UserID != 2 {
		t.Errorf("unexpected list after delete: %+v", list)
	}
}

func TestRegistry_ListIsACopy(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create(user(1, "a"))

	list := r.List()
	list[0].Name = "mutated"

	if got, _ := r.Get(1); got.Name != "a" {
		t.Errorf("List exposed internal state: %+v", got)
	}
}

func TestRegistry_UpdateIDMismatch(t *testing.T) {
	r := NewRegistry()
	_, _ = r.Create(user(5, "five"))

	if _, err := r.Update(5, user(6, "six")); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if got, _ := r.Get(5); got.Name != "five" {
		t.Errorf("record changed on failed update: %+v", got)
	}
}

func TestRegistry_UpdateNotFound(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Update(7, user(7, "x")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("update must not insert, got %d users", r.Len())
	}
}

func TestRegistry_DeleteNotFound(t *testing.T) {
	r := NewRegistry()
	if err := r.Delete(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_ConcurrentCreateSameID(t *testing.T) {
	r := NewRegistry()
	const workers = 50

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Create(user(1, "race")); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("expected exactly one successful create, got %d", created)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 user, got %d", r.Len())
	}
}

package users

import (
	"errors"
	"slices"
	"sync"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/models"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrConflict        = errors.New("user_id already exists")
	ErrInvalidArgument = errors.New("user_id in body must match URL")
)

// Registry is the volatile, in-memory user store. Users are kept in
// insertion order; every operation runs under a single lock so check-then-act
// sequences are atomic.
type Registry struct {
	mu    sync.RWMutex
	users []models.User
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make([]models.User, 0)}
}

// List returns a copy of all users in insertion order.
func (r *Registry) List() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.User, len(r.users))
	copy(result, r.users)
	return result
}

func (r *Registry) Get(id int) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.User{}, ErrNotFound
	}
	return r.users[i], nil
}

// Create appends user, failing with ErrConflict if its id is taken.
func (r *Registry) Create(user models.User) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(user.UserID) >= 0 {
		return models.User{}, ErrConflict
	}
	r.users = append(r.users, user)
	return user, nil
}

// Update replaces the stored record for id in place.
func (r *Registry) Update(id int, user models.User) (models.User, error) {
	if user.UserID != id {
		return models.User{}, ErrInvalidArgument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.User{}, ErrNotFound
	}
	r.users[i] = user
	return user, nil
}

func (r *Registry) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	r.users = slices.Delete(r.users, i, i+1)
	return nil
}

// Len returns the number of stored users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *Registry) indexOf(id int) int {
	return slices.IndexFunc(r.users, func(u models.User) bool { return u.UserID == id })
}

package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists user accounts.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
}

// InMemoryRepository is a thread-safe map-backed store for tests and
// local development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]*User
}

// NewInMemoryRepository initializes an empty in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

var _ Repository = (*InMemoryRepository)(nil)

func (r *InMemoryRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *InMemoryRepository) Create(_ context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(user.Email)
	if _, exists := r.byEmail[email]; exists {
		return nil, ErrEmailTaken
	}

	clone := *user
	clone.Email = email
	if clone.ID == "" {
		clone.ID = uuid.NewString()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	r.byID[clone.ID] = &clone
	r.byEmail[email] = &clone

	out := clone
	return &out, nil
}

// Package memory provides an in-process user store for local runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
	"github.com/oksasatya/go-ddd-user-service/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User
	order []string
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[string]entity.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source used for timestamps
func (r *UserRepository) WithClock(now func() time.Time) *UserRepository {
	r.now = now
	return r
}

func (r *UserRepository) FindAll(_ context.Context) ([]entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entity.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id])
	}
	return out, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(func(u entity.User) bool { return u.Email == email }), nil
}

func (r *UserRepository) FindByName(_ context.Context, name string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findLocked(func(u entity.User) bool { return u.Name == name }), nil
}

func (r *UserRepository) Create(_ context.Context, in entity.NewUser) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in.Age < 0 {
		return nil, repository.ErrNegativeAge
	}
	if err := r.checkUniqueLocked("", &in.Email, &in.Name); err != nil {
		return nil, err
	}
	now := r.now()
	u := entity.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Age:       in.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.users[u.ID] = u
	r.order = append(r.order, u.ID)
	return &u, nil
}

func (r *UserRepository) Update(_ context.Context, id string, patch entity.UserPatch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	if patch.IsEmpty() {
		return 1, nil
	}
	if patch.Age != nil && *patch.Age < 0 {
		return 0, repository.ErrNegativeAge
	}
	if err := r.checkUniqueLocked(id, patch.Email, patch.Name); err != nil {
		return 0, err
	}
	patch.Apply(&u)
	if now := r.now(); now.After(u.UpdatedAt) {
		u.UpdatedAt = now
	}
	r.users[id] = u
	return 1, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (r *UserRepository) findLocked(match func(entity.User) bool) *entity.User {
	for _, id := range r.order {
		if u := r.users[id]; match(u) {
			return &u
		}
	}
	return nil
}

// checkUniqueLocked mirrors the unique indexes of the postgres schema.
func (r *UserRepository) checkUniqueLocked(selfID string, email, name *string) error {
	for id, u := range r.users {
		if id == selfID {
			continue
		}
		if email != nil && u.Email == *email {
			return repository.ErrDuplicateEmail
		}
		if name != nil && u.Name == *name {
			return repository.ErrDuplicateName
		}
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)

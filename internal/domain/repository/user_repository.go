package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/go-ddd-user-service/internal/domain/entity"
)

// Errors a store reports when its own constraints reject a write.
var (
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrDuplicateName  = errors.New("duplicate name")
	ErrNegativeAge    = errors.New("age must not be negative")
)

// UserRepository defines the interface for user-related store operations.
// Lookups return (nil, nil) when nothing matches; any other error comes
// from the store and is passed through untouched.
type UserRepository interface {
	FindAll(ctx context.Context) ([]entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByName(ctx context.Context, name string) (*entity.User, error)
	Create(ctx context.Context, in entity.NewUser) (*entity.User, error)
	// Update applies the patch and returns the number of affected records (0 or 1).
	Update(ctx context.Context, id string, patch entity.UserPatch) (int64, error)
	// Delete removes the record and returns the number of affected records (0 or 1).
	Delete(ctx context.Context, id string) (int64, error)
}

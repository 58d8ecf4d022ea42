package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/bmi-tracker/internal/domain/entity"
)

var (
	// ErrNotFound is returned by adapters when a lookup matches no row
	// visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique key (user email) already exists.
	ErrDuplicate = errors.New("duplicate")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
}

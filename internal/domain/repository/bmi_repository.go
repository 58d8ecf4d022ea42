package repository

import (
	"context"

	"github.com/oksasatya/bmi-tracker/internal/domain/entity"
)

// BMIRepository persists BMI records. Every method is scoped to the owning
// user; a record owned by someone else behaves exactly like a missing one.
type BMIRepository interface {
	// Create assigns ID and CreatedAt and stores the record.
	Create(ctx context.Context, r *entity.BMIRecord) error
	// ListRecent returns up to limit records, newest first. A negative limit
	// returns all of them.
	ListRecent(ctx context.Context, userID string, limit int) ([]entity.BMIRecord, error)
	// GetLatest returns ErrNotFound when the user has no records.
	GetLatest(ctx context.Context, userID string) (*entity.BMIRecord, error)
	// DeleteByID returns ErrNotFound when no record with id belongs to userID.
	DeleteByID(ctx context.Context, userID, id string) error
}

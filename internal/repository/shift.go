package repository

import (
	"context"
	"time"

	"taxi/internal/domain"
)

// ShiftRepository defines the persistence operations for shifts.
type ShiftRepository interface {
	// Create persists a new shift. Returns ErrActiveShiftExists if the shift
	// is active and another active shift is already stored.
	Create(ctx context.Context, shift *domain.Shift) error

	// GetByID retrieves a shift by ID.
	GetByID(ctx context.Context, id string) (*domain.Shift, error)

	// GetActive retrieves the active shift.
	// Returns nil if no shift is active.
	GetActive(ctx context.Context) (*domain.Shift, error)

	// CountByDate counts the shifts stored for a calendar date.
	CountByDate(ctx context.Context, date time.Time) (int, error)

	// ListByDateRange retrieves the shifts whose date falls in the range,
	// ordered by date and start time.
	ListByDateRange(ctx context.Context, r domain.DateRange) ([]*domain.Shift, error)

	// Update updates an existing shift.
	Update(ctx context.Context, shift *domain.Shift) error

	// Delete removes a shift. Rides must be removed first or cascade.
	Delete(ctx context.Context, id string) error
}

package repository

import (
	"context"

	"taxi/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride and assigns its Sequence.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// ListByShift retrieves the rides of a shift ordered by time, then
	// insertion order.
	ListByShift(ctx context.Context, shiftID string) ([]*domain.Ride, error)

	// ListByShiftDateRange retrieves the rides of every shift whose date falls
	// in the range.
	ListByShiftDateRange(ctx context.Context, r domain.DateRange) ([]*domain.Ride, error)

	// Update updates an existing ride.
	Update(ctx context.Context, ride *domain.Ride) error

	// Delete removes a ride.
	Delete(ctx context.Context, id string) error

	// DeleteByShift removes every ride of a shift and returns how many went.
	DeleteByShift(ctx context.Context, shiftID string) (int, error)
}

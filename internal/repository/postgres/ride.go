package postgres

import (
	"context"
	"database/sql"
	"errors"

	"taxi/internal/domain"
	"taxi/internal/repository"
)

const rideColumns = `r.id, r.shift_id, r.ride_time, r.meter_amount, r.actual_amount, r.tip, r.payment_method, r.dispatch, r.airport, r.seq`

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride and reads back its sequence number.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, shift_id, ride_time, meter_amount, actual_amount, tip, payment_method, dispatch, airport)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq
	`

	return r.q.QueryRowContext(ctx, query,
		ride.ID,
		ride.ShiftID,
		ride.Time,
		ride.MeterAmount,
		ride.ActualAmount,
		ride.Tip,
		ride.PaymentMethod,
		ride.Dispatch,
		ride.Airport,
	).Scan(&ride.Sequence)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides r WHERE r.id = $1`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return ride, nil
}

// ListByShift retrieves the rides of a shift in display order.
func (r *RideRepository) ListByShift(ctx context.Context, shiftID string) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides r
		WHERE r.shift_id = $1
		ORDER BY r.ride_time, r.seq
	`

	return r.list(ctx, query, shiftID)
}

// ListByShiftDateRange retrieves the rides of every shift dated inside the range.
func (r *RideRepository) ListByShiftDateRange(ctx context.Context, dr domain.DateRange) ([]*domain.Ride, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM rides r
		JOIN shifts s ON s.id = r.shift_id
		WHERE s.shift_date BETWEEN $1 AND $2
		ORDER BY s.shift_date, r.ride_time, r.seq
	`

	return r.list(ctx, query, dr.From.Format(domain.DateLayout), dr.To.Format(domain.DateLayout))
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Ride, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// Update updates an existing ride.
func (r *RideRepository) Update(ctx context.Context, ride *domain.Ride) error {
	query := `
		UPDATE rides
		SET ride_time = $1, meter_amount = $2, actual_amount = $3, tip = $4, payment_method = $5, dispatch = $6, airport = $7
		WHERE id = $8
	`

	result, err := r.q.ExecContext(ctx, query,
		ride.Time,
		ride.MeterAmount,
		ride.ActualAmount,
		ride.Tip,
		ride.PaymentMethod,
		ride.Dispatch,
		ride.Airport,
		ride.ID,
	)
	if err != nil {
		return err
	}

	return affectedOne(result)
}

// Delete removes a ride.
func (r *RideRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM rides WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return affectedOne(result)
}

// DeleteByShift removes every ride of a shift.
func (r *RideRepository) DeleteByShift(ctx context.Context, shiftID string) (int, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM rides WHERE shift_id = $1`, shiftID)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	return int(n), err
}

func scanRide(row scanner) (*domain.Ride, error) {
	var ride domain.Ride
	if err := row.Scan(
		&ride.ID,
		&ride.ShiftID,
		&ride.Time,
		&ride.MeterAmount,
		&ride.ActualAmount,
		&ride.Tip,
		&ride.PaymentMethod,
		&ride.Dispatch,
		&ride.Airport,
		&ride.Sequence,
	); err != nil {
		return nil, err
	}
	return &ride, nil
}

// Ensure RideRepository implements repository.RideRepository.
var _ repository.RideRepository = (*RideRepository)(nil)

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"taxi/internal/domain"
	"taxi/internal/repository"
)

const shiftColumns = `id, shift_number, shift_date, start_time, end_time, start_odometer, end_odometer, is_active`

// ShiftRepository is a PostgreSQL implementation of repository.ShiftRepository.
type ShiftRepository struct {
	q Querier
}

// NewShiftRepository creates a new PostgreSQL shift repository.
func NewShiftRepository(db *sql.DB) *ShiftRepository {
	return &ShiftRepository{q: db}
}

// NewShiftRepositoryWithTx creates a shift repository using a transaction.
func NewShiftRepositoryWithTx(tx *sql.Tx) *ShiftRepository {
	return &ShiftRepository{q: tx}
}

// Create persists a new shift.
func (r *ShiftRepository) Create(ctx context.Context, shift *domain.Shift) error {
	query := `
		INSERT INTO shifts (` + shiftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	endTime, endOdometer := shiftCloseArgs(shift)

	_, err := r.q.ExecContext(ctx, query,
		shift.ID,
		shift.ShiftNumber,
		shift.Date.Format(domain.DateLayout),
		shift.StartTime,
		endTime,
		shift.StartOdometer,
		endOdometer,
		shift.IsActive,
	)
	if isUniqueViolation(err, "shifts_single_active") {
		return repository.ErrActiveShiftExists
	}

	return err
}

// GetByID retrieves a shift by ID.
func (r *ShiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id = $1`

	shift, err := scanShift(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return shift, nil
}

// GetActive retrieves the active shift.
// Returns nil if no shift is active.
func (r *ShiftRepository) GetActive(ctx context.Context) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE is_active LIMIT 1`

	shift, err := scanShift(r.q.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return shift, nil
}

// CountByDate counts the shifts stored for a calendar date.
func (r *ShiftRepository) CountByDate(ctx context.Context, date time.Time) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM shifts WHERE shift_date = $1`,
		date.Format(domain.DateLayout),
	).Scan(&count)
	return count, err
}

// ListByDateRange retrieves the shifts whose date falls in the range.
func (r *ShiftRepository) ListByDateRange(ctx context.Context, dr domain.DateRange) ([]*domain.Shift, error) {
	query := `
		SELECT ` + shiftColumns + `
		FROM shifts
		WHERE shift_date BETWEEN $1 AND $2
		ORDER BY shift_date, start_time
	`

	rows, err := r.q.QueryContext(ctx, query, dr.From.Format(domain.DateLayout), dr.To.Format(domain.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []*domain.Shift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

// Update updates an existing shift.
func (r *ShiftRepository) Update(ctx context.Context, shift *domain.Shift) error {
	query := `
		UPDATE shifts
		SET shift_number = $1, shift_date = $2, start_time = $3, end_time = $4, start_odometer = $5, end_odometer = $6, is_active = $7
		WHERE id = $8
	`

	endTime, endOdometer := shiftCloseArgs(shift)

	result, err := r.q.ExecContext(ctx, query,
		shift.ShiftNumber,
		shift.Date.Format(domain.DateLayout),
		shift.StartTime,
		endTime,
		shift.StartOdometer,
		endOdometer,
		shift.IsActive,
		shift.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "shifts_single_active") {
			return repository.ErrActiveShiftExists
		}
		return err
	}

	return affectedOne(result)
}

// Delete removes a shift. Its rides go with it through the foreign key.
func (r *ShiftRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return affectedOne(result)
}

func shiftCloseArgs(shift *domain.Shift) (sql.NullTime, sql.NullInt64) {
	var endTime sql.NullTime
	if !shift.EndTime.IsZero() {
		endTime = sql.NullTime{Time: shift.EndTime, Valid: true}
	}

	var endOdometer sql.NullInt64
	if shift.EndOdometer != nil {
		endOdometer = sql.NullInt64{Int64: *shift.EndOdometer, Valid: true}
	}

	return endTime, endOdometer
}

func scanShift(row scanner) (*domain.Shift, error) {
	var shift domain.Shift
	var endTime sql.NullTime
	var endOdometer sql.NullInt64

	if err := row.Scan(
		&shift.ID,
		&shift.ShiftNumber,
		&shift.Date,
		&shift.StartTime,
		&endTime,
		&shift.StartOdometer,
		&endOdometer,
		&shift.IsActive,
	); err != nil {
		return nil, err
	}

	shift.Date = domain.DateOf(shift.Date)
	if endTime.Valid {
		shift.EndTime = endTime.Time
	}
	if endOdometer.Valid {
		v := endOdometer.Int64
		shift.EndOdometer = &v
	}

	return &shift, nil
}

// Ensure ShiftRepository implements repository.ShiftRepository.
var _ repository.ShiftRepository = (*ShiftRepository)(nil)

package service

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

// Error kinds. Every error returned by a service unwraps to exactly one of
// them, so callers can branch on the kind with errors.Is.
const (
	// ErrValidation reports malformed or out-of-range input.
	ErrValidation = errors.ConstError("validation failed")

	// ErrPrecondition reports an operation against an entity in the wrong
	// state.
	ErrPrecondition = errors.ConstError("precondition failed")

	// ErrNotFound reports a reference to an id that does not exist.
	ErrNotFound = errors.ConstError("not found")

	// ErrConcurrencyConflict reports a lost race, such as two concurrent
	// shift starts.
	ErrConcurrencyConflict = errors.ConstError("concurrency conflict")

	// ErrStorage reports a failure of the persistence collaborator.
	ErrStorage = errors.ConstError("storage unavailable")
)

// kindError is a specific error that unwraps to its kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

var (
	// ErrShiftAlreadyActive is returned when starting a shift while another
	// one is active.
	ErrShiftAlreadyActive = newKindError(ErrPrecondition, "a shift is already active")

	// ErrShiftStartInProgress is returned when a concurrent start won the race.
	ErrShiftStartInProgress = newKindError(ErrConcurrencyConflict, "another shift start is in progress")

	// ErrShiftNotFound is returned when a shift id does not exist.
	ErrShiftNotFound = newKindError(ErrNotFound, "shift not found")

	// ErrShiftClosed is returned when an operation needs an active shift.
	ErrShiftClosed = newKindError(ErrPrecondition, "shift is closed")

	// ErrShiftActive is returned when an amend targets a shift still in progress.
	ErrShiftActive = newKindError(ErrPrecondition, "shift is still active")

	// ErrShiftMissing is returned when a ride references a shift that does not exist.
	ErrShiftMissing = newKindError(ErrPrecondition, "referenced shift does not exist")

	// ErrRideNotFound is returned when a ride id does not exist.
	ErrRideNotFound = newKindError(ErrNotFound, "ride not found")

	// ErrExpenseNotFound is returned when an expense id does not exist.
	ErrExpenseNotFound = newKindError(ErrNotFound, "expense not found")

	ErrInvalidID            = newKindError(ErrValidation, "id must be a UUID")
	ErrMissingOdometer      = newKindError(ErrValidation, "odometer reading is required")
	ErrNegativeOdometer     = newKindError(ErrValidation, "odometer reading must not be negative")
	ErrInvalidOdometer      = newKindError(ErrValidation, "end odometer must be greater than start odometer")
	ErrInvalidShiftTimes    = newKindError(ErrValidation, "shift must end after it starts")
	ErrInvalidAmount        = newKindError(ErrValidation, "amount must be non-negative, below 10000000000 and have at most two decimals")
	ErrInvalidPaymentMethod = newKindError(ErrValidation, "invalid payment method")
	ErrMissingDate          = newKindError(ErrValidation, "date is required")
	ErrInvalidCategory      = newKindError(ErrValidation, "invalid expense category")
	ErrInvalidSubtype       = newKindError(ErrValidation, "subtype is not valid for the category")
	ErrNegativeMileage      = newKindError(ErrValidation, "mileage must not be negative")
	ErrInvalidDateRange     = newKindError(ErrValidation, "invalid date range")
	ErrInvalidTarget        = newKindError(ErrValidation, "target amount must not be negative")
)

// kinds lists every error kind.
var kinds = []error{ErrValidation, ErrPrecondition, ErrNotFound, ErrConcurrencyConflict, ErrStorage}

// hasKind reports whether err already carries one of the error kinds.
func hasKind(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// storageError tags a persistence failure with ErrStorage, leaving errors
// that already carry a kind untouched.
func storageError(err error) error {
	if err == nil || hasKind(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// invalidRange wraps a date range validation failure.
func invalidRange(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidDateRange, err)
}

// checkID rejects ids that are not UUIDs before they reach storage.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"taxi/internal/domain"
	"taxi/internal/redis"
	"taxi/internal/repository"
)

var shiftLogger = loggo.GetLogger("taxi.service.shift")

// ShiftService drives the shift lifecycle: NONE -> ACTIVE -> CLOSED.
type ShiftService struct {
	tx                  repository.Transactor
	shiftRepo           repository.ShiftRepository
	rideRepo            repository.RideRepository
	lockStore           redis.LockStoreInterface
	notificationService *NotificationService
	clock               clock.Clock
	location            *time.Location
	lockTTL             time.Duration
}

// NewShiftService creates a new ShiftService. lockStore and
// notificationService may be nil.
func NewShiftService(
	tx repository.Transactor,
	shiftRepo repository.ShiftRepository,
	rideRepo repository.RideRepository,
	lockStore redis.LockStoreInterface,
	notificationService *NotificationService,
	clk clock.Clock,
	location *time.Location,
	lockTTL time.Duration,
) *ShiftService {
	if location == nil {
		location = time.UTC
	}
	return &ShiftService{
		tx:                  tx,
		shiftRepo:           shiftRepo,
		rideRepo:            rideRepo,
		lockStore:           lockStore,
		notificationService: notificationService,
		clock:               clk,
		location:            location,
		lockTTL:             lockTTL,
	}
}

// StartShiftRequest contains the parameters for starting a shift.
type StartShiftRequest struct {
	StartOdometer *int64
	Date          time.Time // Optional: zero means today
}

// StartShift opens a new shift. At most one shift is active at any time; the
// check and the insert run in one transaction, and storage rejects a second
// active row if two starts race past the check.
func (s *ShiftService) StartShift(ctx context.Context, req StartShiftRequest) (*domain.Shift, error) {
	if req.StartOdometer == nil {
		return nil, ErrMissingOdometer
	}
	if *req.StartOdometer < 0 {
		return nil, ErrNegativeOdometer
	}

	now := s.clock.Now()
	date := domain.DateOf(now.In(s.location))
	if !req.Date.IsZero() {
		date = domain.DateOf(req.Date)
	}

	if s.lockStore != nil {
		token, acquired, err := s.lockStore.AcquireShiftStartLock(ctx, s.lockTTL)
		switch {
		case err != nil:
			// The unique index still guards the invariant.
			shiftLogger.Warningf("acquiring shift start lock: %v", err)
		case !acquired:
			return nil, ErrShiftStartInProgress
		default:
			defer func() {
				if err := s.lockStore.ReleaseShiftStartLock(context.WithoutCancel(ctx), token); err != nil {
					shiftLogger.Warningf("releasing shift start lock: %v", err)
				}
			}()
		}
	}

	shift := &domain.Shift{
		ID:            uuid.New().String(),
		Date:          date,
		StartTime:     now,
		StartOdometer: *req.StartOdometer,
		IsActive:      true,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		active, err := repos.Shifts.GetActive(ctx)
		if err != nil {
			return storageError(err)
		}
		if active != nil {
			return ErrShiftAlreadyActive
		}

		count, err := repos.Shifts.CountByDate(ctx, date)
		if err != nil {
			return storageError(err)
		}
		shift.ShiftNumber = count + 1

		if err := repos.Shifts.Create(ctx, shift); err != nil {
			if errors.Is(err, repository.ErrActiveShiftExists) {
				return ErrShiftStartInProgress
			}
			return storageError(err)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Annotate(storageError(err), "starting shift")
	}

	shiftLogger.Infof("shift %s started: date=%s number=%d odometer=%d",
		shift.ID, date.Format(domain.DateLayout), shift.ShiftNumber, shift.StartOdometer)
	s.notificationService.NotifyShiftStarted(ctx, shift)

	return shift, nil
}

// CloseShift closes an active shift and returns its receipt.
func (s *ShiftService) CloseShift(ctx context.Context, shiftID string, endOdometer *int64) (*domain.ShiftReceipt, error) {
	if err := checkID(shiftID); err != nil {
		return nil, err
	}
	if endOdometer == nil {
		return nil, ErrMissingOdometer
	}

	var receipt *domain.ShiftReceipt
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		shift, err := getShift(ctx, repos.Shifts, shiftID)
		if err != nil {
			return err
		}
		if !shift.IsActive {
			return ErrShiftClosed
		}
		if *endOdometer <= shift.StartOdometer {
			return ErrInvalidOdometer
		}

		now := s.clock.Now()
		end := *endOdometer
		shift.EndTime = now
		shift.EndOdometer = &end
		shift.IsActive = false
		if err := repos.Shifts.Update(ctx, shift); err != nil {
			return storageError(err)
		}

		rides, err := repos.Rides.ListByShift(ctx, shift.ID)
		if err != nil {
			return storageError(err)
		}
		receipt = buildShiftReceipt(shift, rides, now)
		return nil
	})
	if err != nil {
		return nil, errors.Annotatef(storageError(err), "closing shift %s", shiftID)
	}

	shiftLogger.Infof("shift %s closed: %s", shiftID, FormatReceiptLine(receipt))
	s.notificationService.NotifyShiftClosed(ctx, receipt)

	return receipt, nil
}

// GetActiveShift returns the active shift, or nil when none is active.
func (s *ShiftService) GetActiveShift(ctx context.Context) (*domain.Shift, error) {
	shift, err := s.shiftRepo.GetActive(ctx)
	if err != nil {
		return nil, errors.Annotate(storageError(err), "reading active shift")
	}
	return shift, nil
}

// GetShift retrieves a shift by ID.
func (s *ShiftService) GetShift(ctx context.Context, shiftID string) (*domain.Shift, error) {
	if err := checkID(shiftID); err != nil {
		return nil, err
	}
	shift, err := getShift(ctx, s.shiftRepo, shiftID)
	if err != nil {
		return nil, errors.Annotatef(err, "reading shift %s", shiftID)
	}
	return shift, nil
}

// ListShifts lists the shifts dated inside r.
func (s *ShiftService) ListShifts(ctx context.Context, r domain.DateRange) ([]*domain.Shift, error) {
	if err := r.Validate(); err != nil {
		return nil, invalidRange(err)
	}
	shifts, err := s.shiftRepo.ListByDateRange(ctx, r)
	if err != nil {
		return nil, errors.Annotate(storageError(err), "listing shifts")
	}
	return shifts, nil
}

// WorkedTime returns the time spent on the shift so far.
func (s *ShiftService) WorkedTime(shift *domain.Shift) time.Duration {
	return shift.WorkedTime(s.clock.Now())
}

// AmendShiftRequest contains the fields of a manual correction to a closed
// shift. Nil fields are left unchanged.
type AmendShiftRequest struct {
	Date          *time.Time
	StartTime     *time.Time
	EndTime       *time.Time
	StartOdometer *int64
	EndOdometer   *int64
}

// AmendShift applies a manual correction to a closed shift.
func (s *ShiftService) AmendShift(ctx context.Context, shiftID string, req AmendShiftRequest) (*domain.Shift, error) {
	if err := checkID(shiftID); err != nil {
		return nil, err
	}

	var amended *domain.Shift
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		shift, err := getShift(ctx, repos.Shifts, shiftID)
		if err != nil {
			return err
		}
		if shift.IsActive {
			return ErrShiftActive
		}

		if req.Date != nil {
			date := domain.DateOf(*req.Date)
			if !date.Equal(shift.Date) {
				// The shift joins the new day after the ones already there.
				count, err := repos.Shifts.CountByDate(ctx, date)
				if err != nil {
					return storageError(err)
				}
				shift.Date = date
				shift.ShiftNumber = count + 1
			}
		}
		if req.StartTime != nil {
			shift.StartTime = *req.StartTime
		}
		if req.EndTime != nil {
			shift.EndTime = *req.EndTime
		}
		if req.StartOdometer != nil {
			shift.StartOdometer = *req.StartOdometer
		}
		if req.EndOdometer != nil {
			end := *req.EndOdometer
			shift.EndOdometer = &end
		}

		if shift.StartOdometer < 0 {
			return ErrNegativeOdometer
		}
		if shift.EndOdometer == nil || *shift.EndOdometer <= shift.StartOdometer {
			return ErrInvalidOdometer
		}
		if !shift.EndTime.After(shift.StartTime) {
			return ErrInvalidShiftTimes
		}

		if err := repos.Shifts.Update(ctx, shift); err != nil {
			return storageError(err)
		}
		amended = shift
		return nil
	})
	if err != nil {
		return nil, errors.Annotatef(storageError(err), "amending shift %s", shiftID)
	}

	shiftLogger.Infof("shift %s amended", shiftID)
	return amended, nil
}

// DeleteShift removes a shift and every ride it owns in one transaction.
func (s *ShiftService) DeleteShift(ctx context.Context, shiftID string) error {
	if err := checkID(shiftID); err != nil {
		return err
	}

	var removed int
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := getShift(ctx, repos.Shifts, shiftID); err != nil {
			return err
		}

		n, err := repos.Rides.DeleteByShift(ctx, shiftID)
		if err != nil {
			return storageError(err)
		}
		removed = n

		if err := repos.Shifts.Delete(ctx, shiftID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrShiftNotFound
			}
			return storageError(err)
		}
		return nil
	})
	if err != nil {
		return errors.Annotatef(storageError(err), "deleting shift %s", shiftID)
	}

	shiftLogger.Infof("shift %s deleted with %d rides", shiftID, removed)
	return nil
}

// getShift loads a shift and maps a missing row to ErrShiftNotFound.
func getShift(ctx context.Context, repo repository.ShiftRepository, id string) (*domain.Shift, error) {
	shift, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, storageError(err)
	}
	return shift, nil
}

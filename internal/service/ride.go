package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"taxi/internal/domain"
	"taxi/internal/repository"
)

var rideLogger = loggo.GetLogger("taxi.service.ride")

// RideService records the paid rides of a shift.
type RideService struct {
	shiftRepo           repository.ShiftRepository
	rideRepo            repository.RideRepository
	settingsService     *SettingsService
	notificationService *NotificationService
	clock               clock.Clock
}

// NewRideService creates a new RideService. settingsService and
// notificationService may be nil, which disables target notifications.
func NewRideService(
	shiftRepo repository.ShiftRepository,
	rideRepo repository.RideRepository,
	settingsService *SettingsService,
	notificationService *NotificationService,
	clk clock.Clock,
) *RideService {
	return &RideService{
		shiftRepo:           shiftRepo,
		rideRepo:            rideRepo,
		settingsService:     settingsService,
		notificationService: notificationService,
		clock:               clk,
	}
}

// RideRequest contains the editable fields of a ride.
type RideRequest struct {
	MeterAmount   domain.Money
	ActualAmount  domain.Money
	PaymentMethod domain.PaymentMethod
	Dispatch      bool
	Airport       bool
	Time          time.Time // Optional: zero means now on record, unchanged on edit
}

func (req RideRequest) validate() error {
	if !domain.ValidAmount(req.MeterAmount) || !domain.ValidAmount(req.ActualAmount) {
		return ErrInvalidAmount
	}
	if !req.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

func (req RideRequest) apply(ride *domain.Ride) {
	ride.ApplyAmounts(req.MeterAmount, req.ActualAmount)
	ride.PaymentMethod = req.PaymentMethod
	ride.Dispatch = req.Dispatch
	ride.Airport = req.Airport
	if !req.Time.IsZero() {
		ride.Time = req.Time
	}
}

// RecordRide appends a ride to an active shift.
func (s *RideService) RecordRide(ctx context.Context, shiftID string, req RideRequest) (*domain.Ride, error) {
	if err := checkID(shiftID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	shift, err := s.owningShift(ctx, shiftID)
	if err != nil {
		return nil, errors.Annotatef(err, "recording ride on shift %s", shiftID)
	}
	if !shift.IsActive {
		return nil, errors.Annotatef(ErrShiftClosed, "recording ride on shift %s", shiftID)
	}

	ride := &domain.Ride{
		ID:      uuid.New().String(),
		ShiftID: shiftID,
		Time:    s.clock.Now(),
	}
	req.apply(ride)

	// Income of the day before this ride, for the target notification.
	notify := s.settingsService != nil && s.notificationService != nil
	var before domain.Money
	var beforeErr error
	if notify {
		before, beforeErr = s.dayIncome(ctx, shift.Date)
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, errors.Annotatef(storageError(err), "recording ride on shift %s", shiftID)
	}

	rideLogger.Debugf("ride %s recorded on shift %s: actual=%s tip=%s method=%s",
		ride.ID, shiftID, ride.ActualAmount.StringFixed(2), ride.Tip.StringFixed(2), ride.PaymentMethod)

	switch {
	case !notify:
	case beforeErr != nil:
		rideLogger.Warningf("skipping target check for %s: %v", shift.Date.Format(domain.DateLayout), beforeErr)
	default:
		s.checkTarget(ctx, shift.Date, before, before.Add(ride.ActualAmount))
	}

	return ride, nil
}

// UpdateRide edits a ride whose shift is still active.
func (s *RideService) UpdateRide(ctx context.Context, rideID string, req RideRequest) (*domain.Ride, error) {
	ride, err := s.editRide(ctx, rideID, req, true)
	if err != nil {
		return nil, errors.Annotatef(err, "updating ride %s", rideID)
	}
	return ride, nil
}

// AmendClosedRide edits a ride of a closed shift. It is the explicit path for
// corrections after the shift has ended.
func (s *RideService) AmendClosedRide(ctx context.Context, rideID string, req RideRequest) (*domain.Ride, error) {
	ride, err := s.editRide(ctx, rideID, req, false)
	if err != nil {
		return nil, errors.Annotatef(err, "amending ride %s", rideID)
	}
	rideLogger.Infof("ride %s of closed shift %s amended", ride.ID, ride.ShiftID)
	return ride, nil
}

// DeleteRide removes a ride whose shift is still active. The shift's odometer
// readings are not touched.
func (s *RideService) DeleteRide(ctx context.Context, rideID string) error {
	return errors.Annotatef(s.removeRide(ctx, rideID, true), "deleting ride %s", rideID)
}

// DeleteClosedRide removes a ride of a closed shift.
func (s *RideService) DeleteClosedRide(ctx context.Context, rideID string) error {
	if err := s.removeRide(ctx, rideID, false); err != nil {
		return errors.Annotatef(err, "deleting ride %s", rideID)
	}
	rideLogger.Infof("ride %s of closed shift deleted", rideID)
	return nil
}

// ListRides lists the rides of a shift ordered by time, ties in insertion
// order.
func (s *RideService) ListRides(ctx context.Context, shiftID string) ([]*domain.Ride, error) {
	if err := checkID(shiftID); err != nil {
		return nil, err
	}
	if _, err := getShift(ctx, s.shiftRepo, shiftID); err != nil {
		return nil, errors.Annotatef(err, "listing rides of shift %s", shiftID)
	}
	rides, err := s.rideRepo.ListByShift(ctx, shiftID)
	if err != nil {
		return nil, errors.Annotatef(storageError(err), "listing rides of shift %s", shiftID)
	}
	return rides, nil
}

// editRide applies req to a ride whose shift is in the wanted state.
func (s *RideService) editRide(ctx context.Context, rideID string, req RideRequest, wantActive bool) (*domain.Ride, error) {
	if err := checkID(rideID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if err := s.checkShiftState(ctx, ride.ShiftID, wantActive); err != nil {
		return nil, err
	}

	req.apply(ride)
	if err := s.rideRepo.Update(ctx, ride); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, storageError(err)
	}
	return ride, nil
}

func (s *RideService) removeRide(ctx context.Context, rideID string, wantActive bool) error {
	if err := checkID(rideID); err != nil {
		return err
	}

	ride, err := s.getRide(ctx, rideID)
	if err != nil {
		return err
	}
	if err := s.checkShiftState(ctx, ride.ShiftID, wantActive); err != nil {
		return err
	}

	if err := s.rideRepo.Delete(ctx, rideID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRideNotFound
		}
		return storageError(err)
	}
	return nil
}

func (s *RideService) checkShiftState(ctx context.Context, shiftID string, wantActive bool) error {
	shift, err := s.owningShift(ctx, shiftID)
	if err != nil {
		return err
	}
	switch {
	case wantActive && !shift.IsActive:
		return ErrShiftClosed
	case !wantActive && shift.IsActive:
		return ErrShiftActive
	}
	return nil
}

// owningShift loads the shift a ride refers to. A missing shift is a
// precondition failure rather than a lookup miss.
func (s *RideService) owningShift(ctx context.Context, shiftID string) (*domain.Shift, error) {
	shift, err := getShift(ctx, s.shiftRepo, shiftID)
	if errors.Is(err, ErrShiftNotFound) {
		return nil, ErrShiftMissing
	}
	return shift, err
}

func (s *RideService) getRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, storageError(err)
	}
	return ride, nil
}

func (s *RideService) dayIncome(ctx context.Context, date time.Time) (domain.Money, error) {
	rides, err := s.rideRepo.ListByShiftDateRange(ctx, domain.DayRange(date))
	if err != nil {
		return domain.Zero, err
	}
	income := domain.Zero
	for _, r := range rides {
		income = income.Add(r.ActualAmount)
	}
	return income, nil
}

// checkTarget notifies when a ride takes the day's income from below the
// target to at least the target.
func (s *RideService) checkTarget(ctx context.Context, date time.Time, before, after domain.Money) {
	target := s.settingsService.TargetAmount(ctx)
	if !target.IsPositive() {
		return
	}
	if before.LessThan(target) && !after.LessThan(target) {
		rideLogger.Infof("daily target %s reached on %s", target.StringFixed(2), date.Format(domain.DateLayout))
		s.notificationService.NotifyTargetReached(ctx, date, target, after, s.clock.Now())
	}
}

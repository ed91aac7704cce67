package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/juju/clock/testclock"

	"taxi/internal/domain"
	"taxi/internal/redis"
	"taxi/internal/repository"
	"taxi/internal/service"
)

// ──────────────────────────────────────────────
// 1. SHIFT LIFECYCLE
// ──────────────────────────────────────────────

func TestShift_StartSetsActiveState(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	shift := l.startShift(t, 1000)

	if !shift.IsActive {
		t.Error("expected shift to be active")
	}
	if !shift.StartTime.Equal(shiftStart) {
		t.Errorf("expected start time %v, got %v", shiftStart, shift.StartTime)
	}
	if !shift.Date.Equal(domain.NewDate(2024, time.May, 10)) {
		t.Errorf("expected date 2024-05-10, got %s", shift.Date.Format(domain.DateLayout))
	}
	if shift.ShiftNumber != 1 {
		t.Errorf("expected shift number 1, got %d", shift.ShiftNumber)
	}

	active, err := l.shiftService.GetActiveShift(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active == nil || active.ID != shift.ID {
		t.Errorf("expected active shift %s, got %+v", shift.ID, active)
	}
	if l.locks.IsLocked() {
		t.Error("expected shift start lock to be released")
	}
	if got := l.sender.Sent(); len(got) != 1 || got[0] != string(service.NotificationShiftStarted) {
		t.Errorf("expected one SHIFT_STARTED notification, got %v", got)
	}
}

func TestShift_StartUsesRequestedDate(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	date := domain.NewDate(2024, time.May, 9)
	shift, err := l.shiftService.StartShift(context.Background(), service.StartShiftRequest{
		StartOdometer: int64p(500),
		Date:          date,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shift.Date.Equal(date) {
		t.Errorf("expected date %s, got %s", date.Format(domain.DateLayout), shift.Date.Format(domain.DateLayout))
	}
}

func TestShift_StartDefaultsToTodayInConfiguredZone(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	// 23:30 UTC on the 10th is already the 11th two hours east.
	clk := testclock.NewClock(time.Date(2024, 5, 10, 23, 30, 0, 0, time.UTC))
	east := time.FixedZone("UTC+2", 2*60*60)
	svc := service.NewShiftService(l.tx, l.shifts, l.rides, nil, nil, clk, east, time.Second)

	shift, err := svc.StartShift(context.Background(), service.StartShiftRequest{StartOdometer: int64p(10)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := domain.NewDate(2024, time.May, 11); !shift.Date.Equal(want) {
		t.Errorf("expected date %s, got %s", want.Format(domain.DateLayout), shift.Date.Format(domain.DateLayout))
	}
}

func TestShift_StartRejectsMissingOrNegativeOdometer(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	ctx := context.Background()

	_, err := l.shiftService.StartShift(ctx, service.StartShiftRequest{})
	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected validation error for missing odometer, got %v", err)
	}

	_, err = l.shiftService.StartShift(ctx, service.StartShiftRequest{StartOdometer: int64p(-1)})
	if !errors.Is(err, service.ErrNegativeOdometer) {
		t.Errorf("expected ErrNegativeOdometer, got %v", err)
	}

	if l.shifts.CountActive() != 0 {
		t.Error("expected no shift to be stored")
	}
}

func TestShift_SecondStartWhileActive_Fails(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	first := l.startShift(t, 1000)

	_, err := l.shiftService.StartShift(context.Background(), service.StartShiftRequest{StartOdometer: int64p(2000)})
	if !errors.Is(err, service.ErrShiftAlreadyActive) {
		t.Fatalf("expected ErrShiftAlreadyActive, got %v", err)
	}
	if !errors.Is(err, service.ErrPrecondition) {
		t.Errorf("expected precondition kind, got %v", err)
	}

	stored := l.shifts.GetShift(first.ID)
	if !stored.IsActive || stored.StartOdometer != 1000 || stored.EndOdometer != nil {
		t.Errorf("first shift was modified: %+v", stored)
	}
	if l.shifts.CountActive() != 1 {
		t.Errorf("expected 1 active shift, got %d", l.shifts.CountActive())
	}
}

func TestShift_ConcurrentStarts_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	for _, withLock := range []bool{false, true} {
		l := newLedger(t)
		var locks redis.LockStoreInterface
		if withLock {
			locks = l.locks
		}
		svc := service.NewShiftService(l.tx, l.shifts, l.rides, locks, nil, l.clock, time.UTC, time.Minute)

		const callers = 20
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes int
			failures  []error
		)
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(odometer int64) {
				defer wg.Done()
				<-start
				_, err := svc.StartShift(context.Background(), service.StartShiftRequest{StartOdometer: int64p(odometer)})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					successes++
					return
				}
				failures = append(failures, err)
			}(int64(1000 + i))
		}
		close(start)
		wg.Wait()

		if successes != 1 {
			t.Errorf("lock=%v: expected exactly 1 successful start, got %d", withLock, successes)
		}
		for _, err := range failures {
			if !errors.Is(err, service.ErrPrecondition) && !errors.Is(err, service.ErrConcurrencyConflict) {
				t.Errorf("lock=%v: unexpected error kind: %v", withLock, err)
			}
		}
		if l.shifts.CountActive() != 1 {
			t.Errorf("lock=%v: expected 1 active shift, got %d", withLock, l.shifts.CountActive())
		}
	}
}

// staleReadShifts never sees the active shift, as if another process
// inserted it after the check.
type staleReadShifts struct {
	*MockShiftRepository
}

func (staleReadShifts) GetActive(ctx context.Context) (*domain.Shift, error) {
	return nil, nil
}

type staleReadTransactor struct {
	inner *MockTransactor
}

func (s staleReadTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return s.inner.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Shifts = staleReadShifts{s.inner.shifts}
		return fn(ctx, repos)
	})
}

func TestShift_StartRaceLostAtInsert_IsConcurrencyConflict(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.shifts.AddShift(&domain.Shift{
		ID:            "racer",
		ShiftNumber:   1,
		Date:          domain.DateOf(shiftStart),
		StartTime:     shiftStart,
		StartOdometer: 900,
		IsActive:      true,
	})
	svc := service.NewShiftService(staleReadTransactor{inner: l.tx}, l.shifts, l.rides, nil, nil, l.clock, time.UTC, time.Second)

	_, err := svc.StartShift(context.Background(), service.StartShiftRequest{StartOdometer: int64p(1000)})
	if !errors.Is(err, service.ErrConcurrencyConflict) {
		t.Fatalf("expected concurrency conflict, got %v", err)
	}
	if l.shifts.CountActive() != 1 {
		t.Errorf("expected only the racing shift to be active, got %d", l.shifts.CountActive())
	}
}

func TestShift_StartLockHeld_IsConcurrencyConflict(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.locks.ForceAcquireFailure = true

	_, err := l.shiftService.StartShift(context.Background(), service.StartShiftRequest{StartOdometer: int64p(1000)})
	if !errors.Is(err, service.ErrShiftStartInProgress) {
		t.Fatalf("expected ErrShiftStartInProgress, got %v", err)
	}
	if l.shifts.CountActive() != 0 {
		t.Error("expected no shift to be stored")
	}
}

func TestShift_StartLockStoreDown_FallsBackToStorage(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.locks.AcquireError = ErrMockRedis

	if _, err := l.shiftService.StartShift(context.Background(), service.StartShiftRequest{StartOdometer: int64p(1000)}); err != nil {
		t.Fatalf("expected start to succeed without the lock, got %v", err)
	}
	if l.shifts.CountActive() != 1 {
		t.Errorf("expected 1 active shift, got %d", l.shifts.CountActive())
	}
}

func TestShift_StartStorageFailure_IsStorageError(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.shifts.GetActiveError = ErrMockDBConnection

	_, err := l.shiftService.StartShift(context.Background(), service.StartShiftRequest{StartOdometer: int64p(1000)})
	if !errors.Is(err, service.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if errors.Is(err, service.ErrValidation) {
		t.Error("storage failure must not be reported as validation")
	}
	if !errors.Is(err, ErrMockDBConnection) {
		t.Error("expected the storage cause to be kept")
	}
}

func TestShift_CloseProducesReceipt(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	shift := l.startShift(t, 1000)
	l.recordRide(t, shift.ID, ride("10", "12", domain.PaymentMethodCash))
	l.recordRide(t, shift.ID, ride("8", "8", domain.PaymentMethodCard))

	l.clock.Advance(8*time.Hour + 30*time.Minute)

	receipt, err := l.shiftService.CloseShift(context.Background(), shift.ID, int64p(1180))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receipt.RideCount != 2 {
		t.Errorf("expected 2 rides, got %d", receipt.RideCount)
	}
	if !receipt.Income.Equal(dec("20")) {
		t.Errorf("expected income 20, got %s", receipt.Income)
	}
	if !receipt.Tips.Equal(dec("2")) {
		t.Errorf("expected tips 2, got %s", receipt.Tips)
	}
	if receipt.Distance != 180 {
		t.Errorf("expected distance 180, got %d", receipt.Distance)
	}
	if got := domain.FormatWorkedTime(receipt.WorkedTime); got != "08:30" {
		t.Errorf("expected worked time 08:30, got %s", got)
	}

	stored := l.shifts.GetShift(shift.ID)
	if stored.IsActive {
		t.Error("expected shift to be closed")
	}
	if stored.EndOdometer == nil || *stored.EndOdometer != 1180 {
		t.Errorf("expected end odometer 1180, got %v", stored.EndOdometer)
	}
	if !stored.EndTime.Equal(shiftStart.Add(8*time.Hour + 30*time.Minute)) {
		t.Errorf("unexpected end time %v", stored.EndTime)
	}

	active, err := l.shiftService.GetActiveShift(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active != nil {
		t.Errorf("expected no active shift, got %s", active.ID)
	}

	sent := l.sender.Sent()
	if sent[len(sent)-1] != string(service.NotificationShiftClosed) {
		t.Errorf("expected SHIFT_CLOSED last, got %v", sent)
	}
}

func TestShift_CloseWithLowerOrEqualOdometer_Fails(t *testing.T) {
	t.Parallel()

	for _, end := range []int64{999, 1000, 0, -5} {
		l := newLedger(t)
		shift := l.startShift(t, 1000)

		_, err := l.shiftService.CloseShift(context.Background(), shift.ID, int64p(end))
		if !errors.Is(err, service.ErrInvalidOdometer) {
			t.Errorf("end=%d: expected ErrInvalidOdometer, got %v", end, err)
		}
		if !errors.Is(err, service.ErrValidation) {
			t.Errorf("end=%d: expected validation kind, got %v", end, err)
		}
		if !l.shifts.GetShift(shift.ID).IsActive {
			t.Errorf("end=%d: shift must remain active", end)
		}
	}
}

func TestShift_CloseTwice_Fails(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	shift := l.startShift(t, 1000)
	if _, err := l.shiftService.CloseShift(context.Background(), shift.ID, int64p(1100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := l.shiftService.CloseShift(context.Background(), shift.ID, int64p(1200))
	if !errors.Is(err, service.ErrShiftClosed) {
		t.Fatalf("expected ErrShiftClosed, got %v", err)
	}
	if end := l.shifts.GetShift(shift.ID).EndOdometer; *end != 1100 {
		t.Errorf("expected end odometer to stay 1100, got %d", *end)
	}
}

func TestShift_CloseNonexistent_NotFound(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	_, err := l.shiftService.CloseShift(context.Background(), unknownID, int64p(10))
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	_, err = l.shiftService.CloseShift(context.Background(), unknownID, nil)
	if !errors.Is(err, service.ErrMissingOdometer) {
		t.Errorf("expected ErrMissingOdometer, got %v", err)
	}
}

func TestShift_MalformedID_IsValidationError(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	ctx := context.Background()

	_, err := l.shiftService.GetShift(ctx, "abc")
	if !errors.Is(err, service.ErrInvalidID) {
		t.Errorf("get: expected ErrInvalidID, got %v", err)
	}
	_, err = l.shiftService.CloseShift(ctx, "abc", int64p(10))
	if !errors.Is(err, service.ErrInvalidID) {
		t.Errorf("close: expected ErrInvalidID, got %v", err)
	}
	if err := l.shiftService.DeleteShift(ctx, "abc"); !errors.Is(err, service.ErrValidation) {
		t.Errorf("delete: expected validation kind, got %v", err)
	}
}

func TestShift_NumbersCountShiftsOfTheDay(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	first := l.startShift(t, 1000)
	l.clock.Advance(4 * time.Hour)
	if _, err := l.shiftService.CloseShift(context.Background(), first.ID, int64p(1100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.clock.Advance(time.Hour)
	second := l.startShift(t, 1100)
	if second.ShiftNumber != 2 {
		t.Errorf("expected shift number 2, got %d", second.ShiftNumber)
	}
}

func TestShift_WorkedTimeAcrossMidnight(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	l.clock.Advance(14 * time.Hour) // 22:00
	shift := l.startShift(t, 1000)

	l.clock.Advance(3*time.Hour + 15*time.Minute) // 01:15 next day
	if got := domain.FormatWorkedTime(l.shiftService.WorkedTime(shift)); got != "03:15" {
		t.Errorf("expected 03:15, got %s", got)
	}
}

func TestShift_DeleteCascadesToRides(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	shift := l.startShift(t, 1000)
	l.recordRide(t, shift.ID, ride("10", "10", domain.PaymentMethodCash))
	l.recordRide(t, shift.ID, ride("5", "6", domain.PaymentMethodVoucher))

	if err := l.shiftService.DeleteShift(context.Background(), shift.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if l.shifts.GetShift(shift.ID) != nil {
		t.Error("expected shift to be deleted")
	}
	if l.rides.CountRides() != 0 {
		t.Errorf("expected rides to be deleted, %d remain", l.rides.CountRides())
	}

	err := l.shiftService.DeleteShift(context.Background(), shift.ID)
	if !errors.Is(err, service.ErrShiftNotFound) {
		t.Errorf("expected ErrShiftNotFound on second delete, got %v", err)
	}
}

func TestShift_DeleteRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	shift := l.startShift(t, 1000)
	l.recordRide(t, shift.ID, ride("10", "10", domain.PaymentMethodCash))

	l.shifts.DeleteError = ErrMockDBConnection
	err := l.shiftService.DeleteShift(context.Background(), shift.ID)
	if !errors.Is(err, service.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	if l.rides.CountRides() != 1 {
		t.Errorf("expected rides to be restored, got %d", l.rides.CountRides())
	}
	if l.tx.RollbackCount != 1 {
		t.Errorf("expected 1 rollback, got %d", l.tx.RollbackCount)
	}
}

func TestShift_AmendClosedShift(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	ctx := context.Background()
	shift := l.startShift(t, 1000)
	l.clock.Advance(6 * time.Hour)
	if _, err := l.shiftService.CloseShift(ctx, shift.ID, int64p(1150)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	end := shiftStart.Add(7 * time.Hour)
	amended, err := l.shiftService.AmendShift(ctx, shift.ID, service.AmendShiftRequest{
		EndTime:     &end,
		EndOdometer: int64p(1175),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amended.Distance() != 175 {
		t.Errorf("expected distance 175, got %d", amended.Distance())
	}
	if got := amended.WorkedTime(l.clock.Now()); got != 7*time.Hour {
		t.Errorf("expected worked time 7h, got %v", got)
	}

	_, err = l.shiftService.AmendShift(ctx, shift.ID, service.AmendShiftRequest{EndOdometer: int64p(900)})
	if !errors.Is(err, service.ErrInvalidOdometer) {
		t.Errorf("expected ErrInvalidOdometer, got %v", err)
	}

	early := shiftStart.Add(-time.Hour)
	_, err = l.shiftService.AmendShift(ctx, shift.ID, service.AmendShiftRequest{EndTime: &early})
	if !errors.Is(err, service.ErrInvalidShiftTimes) {
		t.Errorf("expected ErrInvalidShiftTimes, got %v", err)
	}

	if end := l.shifts.GetShift(shift.ID).EndOdometer; *end != 1175 {
		t.Errorf("rejected amend must not change the shift, end odometer %d", *end)
	}
}

func TestShift_AmendDateRenumbersShift(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	ctx := context.Background()

	first := l.startShift(t, 1000)
	l.clock.Advance(time.Hour)
	if _, err := l.shiftService.CloseShift(ctx, first.ID, int64p(1100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nextDay := domain.NewDate(2024, time.May, 11)
	second, err := l.shiftService.StartShift(ctx, service.StartShiftRequest{StartOdometer: int64p(1100), Date: nextDay})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ShiftNumber != 1 {
		t.Fatalf("expected shift #1 on its own day, got #%d", second.ShiftNumber)
	}
	l.clock.Advance(time.Hour)
	if _, err := l.shiftService.CloseShift(ctx, second.ID, int64p(1200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sameDay := second.Date
	amended, err := l.shiftService.AmendShift(ctx, second.ID, service.AmendShiftRequest{Date: &sameDay})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if amended.ShiftNumber != 1 {
		t.Errorf("unchanged date must keep shift #1, got #%d", amended.ShiftNumber)
	}

	moved := first.Date
	amended, err = l.shiftService.AmendShift(ctx, second.ID, service.AmendShiftRequest{Date: &moved})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amended.Date.Equal(first.Date) {
		t.Errorf("expected date %s, got %s", first.Date.Format(domain.DateLayout), amended.Date.Format(domain.DateLayout))
	}
	if amended.ShiftNumber != 2 {
		t.Errorf("expected shift #2 after moving onto a day with one shift, got #%d", amended.ShiftNumber)
	}
	if got := l.shifts.GetShift(second.ID).ShiftNumber; got != 2 {
		t.Errorf("expected stored shift #2, got #%d", got)
	}
}

func TestShift_AmendActiveShift_Refused(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	shift := l.startShift(t, 1000)

	_, err := l.shiftService.AmendShift(context.Background(), shift.ID, service.AmendShiftRequest{StartOdometer: int64p(900)})
	if !errors.Is(err, service.ErrShiftActive) {
		t.Fatalf("expected ErrShiftActive, got %v", err)
	}
	if l.shifts.GetShift(shift.ID).StartOdometer != 1000 {
		t.Error("active shift must not be amended")
	}
}

func TestShift_ListByRange(t *testing.T) {
	t.Parallel()

	l := newLedger(t)
	ctx := context.Background()
	shift := l.startShift(t, 1000)

	shifts, err := l.shiftService.ListShifts(ctx, domain.DayRange(shiftStart))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shifts) != 1 || shifts[0].ID != shift.ID {
		t.Errorf("expected the started shift, got %v", shifts)
	}

	_, err = l.shiftService.ListShifts(ctx, domain.DateRange{From: shiftStart, To: shiftStart.AddDate(0, 0, -1)})
	if !errors.Is(err, service.ErrValidation) {
		t.Errorf("expected validation error for inverted range, got %v", err)
	}
}

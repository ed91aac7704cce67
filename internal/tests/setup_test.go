package tests

import (
	"context"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/shopspring/decimal"

	"taxi/internal/domain"
	"taxi/internal/service"
)

// shiftStart is the wall clock at the beginning of every test.
var shiftStart = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

var defaultTarget = decimal.NewFromInt(100)

// unknownID is a well-formed id that no record carries.
const unknownID = "0b9e3c57-5d1f-4f4e-9d43-2f7f3c1a8e11"

// ledger wires the services to in-memory collaborators.
type ledger struct {
	clock    *testclock.Clock
	shifts   *MockShiftRepository
	rides    *MockRideRepository
	expenses *MockExpenseRepository
	tx       *MockTransactor
	locks    *MockLockStore
	settings *MockSettingsStore
	sender   *RecordingSender

	shiftService    *service.ShiftService
	rideService     *service.RideService
	expenseService  *service.ExpenseService
	settingsService *service.SettingsService
	summaryService  *service.SummaryService
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	l := &ledger{
		clock:    testclock.NewClock(shiftStart),
		shifts:   NewMockShiftRepository(),
		expenses: NewMockExpenseRepository(),
		locks:    NewMockLockStore(),
		settings: NewMockSettingsStore(),
		sender:   NewRecordingSender(),
	}
	l.rides = NewMockRideRepository(l.shifts)
	l.tx = NewMockTransactor(l.shifts, l.rides, l.expenses)

	notifications := service.NewNotificationService(l.sender)
	l.settingsService = service.NewSettingsService(l.settings, defaultTarget)
	l.shiftService = service.NewShiftService(l.tx, l.shifts, l.rides, l.locks, notifications, l.clock, time.UTC, 5*time.Second)
	l.rideService = service.NewRideService(l.shifts, l.rides, l.settingsService, notifications, l.clock)
	l.expenseService = service.NewExpenseService(l.expenses)
	l.summaryService = service.NewSummaryService(l.shifts, l.rides, l.expenses, l.settingsService, l.clock)
	return l
}

func int64p(v int64) *int64 {
	return &v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ride(meter, actual string, method domain.PaymentMethod) service.RideRequest {
	return service.RideRequest{
		MeterAmount:   dec(meter),
		ActualAmount:  dec(actual),
		PaymentMethod: method,
	}
}

// startShift starts a shift at odometer and fails the test on error.
func (l *ledger) startShift(t *testing.T, odometer int64) *domain.Shift {
	t.Helper()
	shift, err := l.shiftService.StartShift(context.Background(), service.StartShiftRequest{StartOdometer: int64p(odometer)})
	if err != nil {
		t.Fatalf("unexpected error starting shift: %v", err)
	}
	return shift
}

// recordRide records a ride and fails the test on error.
func (l *ledger) recordRide(t *testing.T, shiftID string, req service.RideRequest) *domain.Ride {
	t.Helper()
	r, err := l.rideService.RecordRide(context.Background(), shiftID, req)
	if err != nil {
		t.Fatalf("unexpected error recording ride: %v", err)
	}
	return r
}

package service

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"golang.org/x/sync/errgroup"

	"taxi/internal/domain"
	"taxi/internal/repository"
	"taxi/internal/summary"
)

// BreakdownKind selects the grouping of an expense breakdown.
type BreakdownKind string

const (
	BreakdownByCategory BreakdownKind = "category"
	BreakdownBySubtype  BreakdownKind = "subtype"
)

// SummaryService loads the records of a window and hands them to the
// aggregation engine. Nothing is cached; every call re-reads storage.
type SummaryService struct {
	shiftRepo       repository.ShiftRepository
	rideRepo        repository.RideRepository
	expenseRepo     repository.ExpenseRepository
	settingsService *SettingsService
	clock           clock.Clock
}

// NewSummaryService creates a new SummaryService.
func NewSummaryService(
	shiftRepo repository.ShiftRepository,
	rideRepo repository.RideRepository,
	expenseRepo repository.ExpenseRepository,
	settingsService *SettingsService,
	clk clock.Clock,
) *SummaryService {
	return &SummaryService{
		shiftRepo:       shiftRepo,
		rideRepo:        rideRepo,
		expenseRepo:     expenseRepo,
		settingsService: settingsService,
		clock:           clk,
	}
}

// load reads the shifts, rides and expenses of window concurrently. The
// reads are abandoned as soon as ctx is cancelled or one of them fails.
func (s *SummaryService) load(ctx context.Context, window domain.DateRange) (summary.Input, error) {
	if err := window.Validate(); err != nil {
		return summary.Input{}, invalidRange(err)
	}

	defer newrelic.FromContext(ctx).StartSegment("summary/load").End()

	var in summary.Input
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer newrelic.FromContext(gctx).StartSegment("summary/load/shifts").End()
		shifts, err := s.shiftRepo.ListByDateRange(gctx, window)
		in.Shifts = shifts
		return err
	})
	g.Go(func() error {
		defer newrelic.FromContext(gctx).StartSegment("summary/load/rides").End()
		rides, err := s.rideRepo.ListByShiftDateRange(gctx, window)
		in.Rides = rides
		return err
	})
	g.Go(func() error {
		defer newrelic.FromContext(gctx).StartSegment("summary/load/expenses").End()
		expenses, err := s.expenseRepo.ListByDateRange(gctx, window)
		in.Expenses = expenses
		return err
	})
	if err := g.Wait(); err != nil {
		return summary.Input{}, errors.Annotatef(storageError(err), "loading %s..%s",
			window.From.Format(domain.DateLayout), window.To.Format(domain.DateLayout))
	}
	return in, nil
}

// DailySummary reports one day. A nil target uses the stored or configured
// daily target.
func (s *SummaryService) DailySummary(ctx context.Context, date time.Time, target *domain.Money) (*summary.DailySummary, error) {
	if date.IsZero() {
		return nil, ErrMissingDate
	}
	if target != nil && target.IsNegative() {
		return nil, ErrInvalidTarget
	}

	in, err := s.load(ctx, domain.DayRange(date))
	if err != nil {
		return nil, err
	}

	t := domain.Zero
	switch {
	case target != nil:
		t = *target
	case s.settingsService != nil:
		t = s.settingsService.TargetAmount(ctx)
	}

	daily := summary.Daily(date, t, in, s.clock.Now())
	return &daily, nil
}

// MonthlySummary reports the active days of a month.
func (s *SummaryService) MonthlySummary(ctx context.Context, year int, month time.Month) (*summary.MonthlySummary, error) {
	if month < time.January || month > time.December {
		return nil, errors.Annotatef(ErrInvalidDateRange, "month %d", month)
	}
	in, err := s.load(ctx, domain.MonthRange(year, month))
	if err != nil {
		return nil, err
	}
	monthly := summary.Monthly(year, month, in)
	return &monthly, nil
}

// AnnualSummary reports the twelve months of a year.
func (s *SummaryService) AnnualSummary(ctx context.Context, year int) (*summary.AnnualSummary, error) {
	in, err := s.load(ctx, domain.YearRange(year))
	if err != nil {
		return nil, err
	}
	annual := summary.Annual(year, in)
	return &annual, nil
}

// ExpenseBreakdown splits the expenses of r by category or subtype.
func (s *SummaryService) ExpenseBreakdown(ctx context.Context, r domain.DateRange, by BreakdownKind) ([]summary.ShareRow, error) {
	if err := r.Validate(); err != nil {
		return nil, invalidRange(err)
	}

	expenses, err := s.expenseRepo.ListByDateRange(ctx, r)
	if err != nil {
		return nil, errors.Annotate(storageError(err), "loading expenses")
	}

	switch by {
	case BreakdownByCategory, "":
		return summary.ExpenseBreakdownByCategory(expenses, r), nil
	case BreakdownBySubtype:
		return summary.ExpenseBreakdownBySubtype(expenses, r), nil
	}
	return nil, errors.Annotatef(ErrValidation, "unknown breakdown %q", by)
}

// IncomeByPaymentMethod splits the ride income of r by payment method.
func (s *SummaryService) IncomeByPaymentMethod(ctx context.Context, r domain.DateRange) ([]summary.ShareRow, error) {
	in, err := s.load(ctx, r)
	if err != nil {
		return nil, err
	}
	return summary.IncomeByPaymentMethod(in, r), nil
}

// Stats computes the headline figures of r.
func (s *SummaryService) Stats(ctx context.Context, r domain.DateRange) (*summary.RangeStats, error) {
	in, err := s.load(ctx, r)
	if err != nil {
		return nil, err
	}
	stats := summary.Stats(in, r)
	return &stats, nil
}

// AverageIncome is the mean income over the days of r with a shift.
func (s *SummaryService) AverageIncome(ctx context.Context, r domain.DateRange) (domain.Money, error) {
	in, err := s.load(ctx, r)
	if err != nil {
		return domain.Zero, err
	}
	return summary.AverageIncome(in, r), nil
}

// AverageExpense is the mean expense over the days of r with an expense.
func (s *SummaryService) AverageExpense(ctx context.Context, r domain.DateRange) (domain.Money, error) {
	in, err := s.load(ctx, r)
	if err != nil {
		return domain.Zero, err
	}
	return summary.AverageExpense(in, r), nil
}

// BestDay returns the day of r with the highest income, or nil when no shift
// falls inside r.
func (s *SummaryService) BestDay(ctx context.Context, r domain.DateRange) (*summary.DayIncome, error) {
	in, err := s.load(ctx, r)
	if err != nil {
		return nil, err
	}
	best, ok := summary.BestDay(in, r)
	if !ok {
		return nil, nil
	}
	return &best, nil
}

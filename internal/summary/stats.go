package summary

import (
	"time"

	"github.com/shopspring/decimal"

	"taxi/internal/domain"
)

// DayIncome is the income of one day.
type DayIncome struct {
	Date   time.Time
	Income domain.Money
}

// RangeStats gathers the headline figures of a window.
type RangeStats struct {
	From           time.Time
	To             time.Time
	TotalIncome    domain.Money
	TotalExpenses  domain.Money
	Net            domain.Money
	TotalTips      domain.Money
	RideCount      int
	Distance       int64
	WorkedDays     int // Days with at least one shift
	ExpenseDays    int // Days with at least one expense
	AverageIncome  domain.Money
	AverageExpense domain.Money
	BestDay        *DayIncome
}

func average(total domain.Money, n int) domain.Money {
	if n == 0 {
		return domain.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

// AverageIncome is the mean income over the days of window with at least one
// shift.
func AverageIncome(in Input, window domain.DateRange) domain.Money {
	total, days := domain.Zero, 0
	for _, b := range Rollup(in, window, ByDay) {
		if b.ShiftCount == 0 {
			continue
		}
		total = total.Add(b.Income)
		days++
	}
	return average(total, days)
}

// AverageExpense is the mean expense over the days of window with at least
// one expense.
func AverageExpense(in Input, window domain.DateRange) domain.Money {
	total, days := domain.Zero, 0
	for _, b := range Rollup(in, window, ByDay) {
		if b.ExpenseCount == 0 {
			continue
		}
		total = total.Add(b.Expenses)
		days++
	}
	return average(total, days)
}

// BestDay returns the day of window with the highest income; the earliest
// wins a tie. ok is false when no shift falls inside window.
func BestDay(in Input, window domain.DateRange) (best DayIncome, ok bool) {
	for _, b := range sortedBuckets(Rollup(in, window, ByDay)) {
		if b.ShiftCount == 0 {
			continue
		}
		if !ok || b.Income.GreaterThan(best.Income) {
			best = DayIncome{Date: b.Key, Income: b.Income}
			ok = true
		}
	}
	return best, ok
}

// Stats computes the headline figures of window.
func Stats(in Input, window domain.DateRange) RangeStats {
	total := Total(in, window)

	stats := RangeStats{
		From:           window.From,
		To:             window.To,
		TotalIncome:    total.Income,
		TotalExpenses:  total.Expenses,
		Net:            total.Net(),
		TotalTips:      total.Tips,
		RideCount:      total.RideCount,
		Distance:       total.Distance,
		AverageIncome:  AverageIncome(in, window),
		AverageExpense: AverageExpense(in, window),
	}

	for _, b := range Rollup(in, window, ByDay) {
		if b.ShiftCount > 0 {
			stats.WorkedDays++
		}
		if b.ExpenseCount > 0 {
			stats.ExpenseDays++
		}
	}

	if best, ok := BestDay(in, window); ok {
		stats.BestDay = &best
	}
	return stats
}

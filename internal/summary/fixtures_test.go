package summary

import (
	"fmt"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/shopspring/decimal"

	"taxi/internal/domain"
)

func money(s string) domain.Money {
	return decimal.RequireFromString(s)
}

func assertMoney(c *qt.C, got domain.Money, want string) {
	c.Helper()
	c.Assert(got.Equal(money(want)), qt.IsTrue, qt.Commentf("got %s, want %s", got, want))
}

type fixture struct {
	in  Input
	seq int
}

func (f *fixture) shift(date time.Time, startOdometer int64, endOdometer *int64, start time.Time) *domain.Shift {
	f.seq++
	s := &domain.Shift{
		ID:            fmt.Sprintf("shift-%d", f.seq),
		ShiftNumber:   1,
		Date:          date,
		StartTime:     start,
		StartOdometer: startOdometer,
		EndOdometer:   endOdometer,
		IsActive:      endOdometer == nil,
	}
	if endOdometer != nil {
		s.EndTime = start.Add(8 * time.Hour)
	}
	f.in.Shifts = append(f.in.Shifts, s)
	return s
}

func (f *fixture) ride(shift *domain.Shift, meter, actual string, method domain.PaymentMethod) *domain.Ride {
	f.seq++
	r := &domain.Ride{
		ID:            fmt.Sprintf("ride-%d", f.seq),
		ShiftID:       shift.ID,
		Time:          shift.StartTime.Add(time.Duration(f.seq) * time.Minute),
		PaymentMethod: method,
		Sequence:      int64(f.seq),
	}
	r.ApplyAmounts(money(meter), money(actual))
	f.in.Rides = append(f.in.Rides, r)
	return r
}

func (f *fixture) expense(date time.Time, category domain.ExpenseCategory, subtype domain.ExpenseSubtype, total string) *domain.Expense {
	f.seq++
	e := &domain.Expense{
		ID:       fmt.Sprintf("expense-%d", f.seq),
		Date:     date,
		Category: category,
		Subtype:  subtype,
	}
	e.ApplyTotal(money(total), false)
	f.in.Expenses = append(f.in.Expenses, e)
	return e
}

func odometer(km int64) *int64 {
	return &km
}

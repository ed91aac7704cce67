package domain

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/shopspring/decimal"
)

func TestTip(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		meter, actual, want string
	}{
		{"10", "12", "2"},
		{"12.50", "12.50", "0"},
		{"15", "10", "0"},
		{"0", "3.40", "3.4"},
	}
	for _, test := range tests {
		got := Tip(decimal.RequireFromString(test.meter), decimal.RequireFromString(test.actual))
		c.Check(got.Equal(decimal.RequireFromString(test.want)), qt.IsTrue,
			qt.Commentf("meter %s actual %s: got %s", test.meter, test.actual, got))
	}
}

func TestApplyAmountsRecomputesTip(t *testing.T) {
	c := qt.New(t)

	r := &Ride{}
	r.ApplyAmounts(decimal.NewFromInt(10), decimal.NewFromInt(13))
	c.Assert(r.Tip.Equal(decimal.NewFromInt(3)), qt.IsTrue)

	r.ApplyAmounts(decimal.NewFromInt(10), decimal.NewFromInt(9))
	c.Assert(r.Tip.IsZero(), qt.IsTrue)
}

func TestVAT(t *testing.T) {
	c := qt.New(t)

	c.Assert(VAT(decimal.NewFromInt(100)).String(), qt.Equals, "21")
	c.Assert(VAT(decimal.RequireFromString("12.34")).String(), qt.Equals, "2.59")

	e := &Expense{}
	e.ApplyTotal(decimal.NewFromInt(100), true)
	c.Assert(e.VATAmount.Equal(decimal.RequireFromString("21.00")), qt.IsTrue)
	e.ApplyTotal(decimal.NewFromInt(100), false)
	c.Assert(e.VATAmount.IsZero(), qt.IsTrue)
}

func TestExpenseSubtypes(t *testing.T) {
	c := qt.New(t)

	c.Assert(ExpenseCategoryVehicle.Allows(SubtypeFuel), qt.IsTrue)
	c.Assert(ExpenseCategoryVehicle.Allows(SubtypeLicenseFee), qt.IsFalse)
	c.Assert(ExpenseCategoryActivity.Allows(SubtypeLicenseFee), qt.IsTrue)
	c.Assert(ExpenseCategoryActivity.Allows(SubtypeTyres), qt.IsFalse)
	c.Assert(ExpenseCategoryVehicle.Allows(SubtypeOther), qt.IsTrue)
	c.Assert(ExpenseCategoryActivity.Allows(SubtypeOther), qt.IsTrue)

	c.Assert(ExpenseCategory("FOOD").Valid(), qt.IsFalse)
	c.Assert(ExpenseCategory("FOOD").Allows(SubtypeOther), qt.IsFalse)

	subtypes := ExpenseCategoryVehicle.Subtypes()
	c.Assert(subtypes, qt.HasLen, 9)
	subtypes[0] = "MUTATED"
	c.Assert(ExpenseCategoryVehicle.Allows(SubtypeFuel), qt.IsTrue)
}

func TestWorkedTimeAcrossMidnight(t *testing.T) {
	c := qt.New(t)

	start := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)
	s := &Shift{StartTime: start, IsActive: true}

	now := time.Date(2024, 3, 2, 1, 30, 0, 0, time.UTC)
	c.Assert(s.WorkedTime(now), qt.Equals, 3*time.Hour+30*time.Minute)
	c.Assert(FormatWorkedTime(s.WorkedTime(now)), qt.Equals, "03:30")

	endOdometer := int64(10)
	s.IsActive = false
	s.EndTime = time.Date(2024, 3, 2, 4, 15, 0, 0, time.UTC)
	s.EndOdometer = &endOdometer
	c.Assert(s.WorkedTime(now.Add(10*time.Hour)), qt.Equals, 6*time.Hour+15*time.Minute)
	c.Assert(s.State(), qt.Equals, ShiftStateClosed)
}

func TestWorkedTimeNeverNegative(t *testing.T) {
	c := qt.New(t)

	s := &Shift{StartTime: time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC), IsActive: true}
	c.Assert(s.WorkedTime(s.StartTime.Add(-time.Minute)), qt.Equals, time.Duration(0))
}

func TestFormatWorkedTime(t *testing.T) {
	c := qt.New(t)

	c.Assert(FormatWorkedTime(0), qt.Equals, "00:00")
	c.Assert(FormatWorkedTime(59*time.Second), qt.Equals, "00:00")
	c.Assert(FormatWorkedTime(9*time.Hour+5*time.Minute), qt.Equals, "09:05")
	c.Assert(FormatWorkedTime(26*time.Hour+1*time.Minute), qt.Equals, "26:01")
	c.Assert(FormatWorkedTime(-time.Hour), qt.Equals, "00:00")
}

func TestShiftDistance(t *testing.T) {
	c := qt.New(t)

	s := &Shift{StartOdometer: 1000}
	c.Assert(s.Distance(), qt.Equals, int64(0))

	end := int64(1180)
	s.EndOdometer = &end
	c.Assert(s.Distance(), qt.Equals, int64(180))
}

func TestDateRange(t *testing.T) {
	c := qt.New(t)

	feb := MonthRange(2024, time.February)
	c.Assert(feb.To, qt.Equals, NewDate(2024, time.February, 29))
	c.Assert(feb.Days(), qt.HasLen, 29)
	c.Assert(feb.Contains(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)), qt.IsTrue)
	c.Assert(feb.Contains(NewDate(2024, time.March, 1)), qt.IsFalse)
	c.Assert(feb.Validate(), qt.IsNil)

	c.Assert(YearRange(2023).Days(), qt.HasLen, 365)

	backwards := DateRange{From: NewDate(2024, 3, 2), To: NewDate(2024, 3, 1)}
	c.Assert(backwards.Validate(), qt.ErrorMatches, "date range ends 2024-03-01 before it starts 2024-03-02")
	c.Assert(DateRange{}.Validate(), qt.Not(qt.IsNil))

	clipped := NewDateRange(time.Date(2024, 3, 1, 17, 30, 0, 0, time.UTC), time.Date(2024, 3, 2, 6, 0, 0, 0, time.UTC))
	c.Assert(clipped.From, qt.Equals, NewDate(2024, time.March, 1))
	c.Assert(clipped.To, qt.Equals, NewDate(2024, time.March, 2))

	d, err := ParseDate("2024-07-14")
	c.Assert(err, qt.IsNil)
	c.Assert(d, qt.Equals, NewDate(2024, time.July, 14))
	_, err = ParseDate("14/07/2024")
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestValidAmount(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		amount string
		want   bool
	}{
		{"0", true},
		{"12.5", true},
		{"12.500", true},
		{"9999999999.99", true},
		{"0.025", false},
		{"10.004", false},
		{"10000000000", false},
		{"-0.01", false},
	}
	for _, test := range tests {
		c.Check(ValidAmount(decimal.RequireFromString(test.amount)), qt.Equals, test.want, qt.Commentf("amount %s", test.amount))
	}
}

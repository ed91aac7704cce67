// Package summary derives financial summaries from shift, ride and expense
// records. Every function is a pure projection of its input: nothing is
// cached between calls.
//
// All views are built on Rollup, which groups ride income by the date of the
// owning shift and expenses by their own date.
package summary

import (
	"sort"
	"time"

	"taxi/internal/domain"
)

// Input is the record set an aggregation runs over.
type Input struct {
	Shifts   []*domain.Shift
	Rides    []*domain.Ride
	Expenses []*domain.Expense
}

// Bucket holds the additive totals of one group.
type Bucket struct {
	Key          time.Time
	Income       domain.Money
	Tips         domain.Money
	Expenses     domain.Money
	RideCount    int
	ShiftCount   int
	ExpenseCount int
	Distance     int64
}

// Net returns income minus expenses.
func (b Bucket) Net() domain.Money {
	return b.Income.Sub(b.Expenses)
}

// Active reports whether the bucket saw any shift or expense.
func (b Bucket) Active() bool {
	return b.ShiftCount > 0 || b.ExpenseCount > 0
}

func (b *Bucket) add(o Bucket) {
	b.Income = b.Income.Add(o.Income)
	b.Tips = b.Tips.Add(o.Tips)
	b.Expenses = b.Expenses.Add(o.Expenses)
	b.RideCount += o.RideCount
	b.ShiftCount += o.ShiftCount
	b.ExpenseCount += o.ExpenseCount
	b.Distance += o.Distance
}

// KeyFunc maps a calendar date to the key of its group.
type KeyFunc func(date time.Time) time.Time

// ByDay groups by calendar date.
func ByDay(date time.Time) time.Time {
	return domain.DateOf(date)
}

// ByMonth groups by the first day of the month.
func ByMonth(date time.Time) time.Time {
	return domain.NewDate(date.Year(), date.Month(), 1)
}

// ByWindow puts everything in a single group keyed by the zero time.
func ByWindow(time.Time) time.Time {
	return time.Time{}
}

// Rollup groups the records falling inside window by key. Rides count towards
// the date of their shift; rides whose shift is not part of the input are
// ignored.
func Rollup(in Input, window domain.DateRange, key KeyFunc) map[time.Time]*Bucket {
	buckets := make(map[time.Time]*Bucket)
	bucket := func(date time.Time) *Bucket {
		k := key(date)
		b, ok := buckets[k]
		if !ok {
			b = &Bucket{
				Key:      k,
				Income:   domain.Zero,
				Tips:     domain.Zero,
				Expenses: domain.Zero,
			}
			buckets[k] = b
		}
		return b
	}

	shiftDates := make(map[string]time.Time, len(in.Shifts))
	for _, s := range in.Shifts {
		if !window.Contains(s.Date) {
			continue
		}
		shiftDates[s.ID] = s.Date
		b := bucket(s.Date)
		b.ShiftCount++
		b.Distance += s.Distance()
	}

	for _, r := range in.Rides {
		date, ok := shiftDates[r.ShiftID]
		if !ok {
			continue
		}
		b := bucket(date)
		b.Income = b.Income.Add(r.ActualAmount)
		b.Tips = b.Tips.Add(r.Tip)
		b.RideCount++
	}

	for _, e := range in.Expenses {
		if !window.Contains(e.Date) {
			continue
		}
		b := bucket(e.Date)
		b.Expenses = b.Expenses.Add(e.TotalAmount)
		b.ExpenseCount++
	}

	return buckets
}

// Total collapses the window into a single bucket.
func Total(in Input, window domain.DateRange) Bucket {
	total := Bucket{Income: domain.Zero, Tips: domain.Zero, Expenses: domain.Zero}
	for _, b := range Rollup(in, window, ByWindow) {
		total.add(*b)
	}
	return total
}

// sortedBuckets returns the buckets ordered by key.
func sortedBuckets(buckets map[time.Time]*Bucket) []*Bucket {
	out := make([]*Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Before(out[j].Key) })
	return out
}

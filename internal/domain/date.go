package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's location, as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewDate builds a calendar date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange normalises both ends to calendar dates.
func NewDateRange(from, to time.Time) DateRange {
	return DateRange{From: DateOf(from), To: DateOf(to)}
}

// DayRange returns the range holding a single date.
func DayRange(date time.Time) DateRange {
	d := DateOf(date)
	return DateRange{From: d, To: d}
}

// MonthRange returns the range covering a calendar month.
func MonthRange(year int, month time.Month) DateRange {
	first := NewDate(year, month, 1)
	return DateRange{From: first, To: first.AddDate(0, 1, -1)}
}

// YearRange returns the range covering a calendar year.
func YearRange(year int) DateRange {
	return DateRange{From: NewDate(year, time.January, 1), To: NewDate(year, time.December, 31)}
}

// Validate checks that both ends are set and ordered.
func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return fmt.Errorf("date range requires both ends")
	}
	if r.To.Before(r.From) {
		return fmt.Errorf("date range ends %s before it starts %s", r.To.Format(DateLayout), r.From.Format(DateLayout))
	}
	return nil
}

// Contains reports whether the calendar date of t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(r.From) && !d.After(r.To)
}

// Days returns every date in the range, in order.
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// FormatWorkedTime renders a duration as HH:mm. Hours are not wrapped at 24.
func FormatWorkedTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

package summary

import (
	"time"

	"taxi/internal/domain"
)

// PeriodRow is one line of a monthly or annual report.
type PeriodRow struct {
	Date       time.Time // The day, or the first day of the month
	Income     domain.Money
	Expenses   domain.Money
	Net        domain.Money
	Tips       domain.Money
	RideCount  int
	ShiftCount int
}

func rowFromBucket(date time.Time, b *Bucket) PeriodRow {
	if b == nil {
		return PeriodRow{Date: date, Income: domain.Zero, Expenses: domain.Zero, Net: domain.Zero, Tips: domain.Zero}
	}
	return PeriodRow{
		Date:       date,
		Income:     b.Income,
		Expenses:   b.Expenses,
		Net:        b.Net(),
		Tips:       b.Tips,
		RideCount:  b.RideCount,
		ShiftCount: b.ShiftCount,
	}
}

// sumRows adds the rows column by column.
func sumRows(rows []PeriodRow) PeriodRow {
	total := PeriodRow{Income: domain.Zero, Expenses: domain.Zero, Net: domain.Zero, Tips: domain.Zero}
	for _, r := range rows {
		total.Income = total.Income.Add(r.Income)
		total.Expenses = total.Expenses.Add(r.Expenses)
		total.Net = total.Net.Add(r.Net)
		total.Tips = total.Tips.Add(r.Tips)
		total.RideCount += r.RideCount
		total.ShiftCount += r.ShiftCount
	}
	return total
}

// MonthlySummary lists the active days of a month.
type MonthlySummary struct {
	Year   int
	Month  time.Month
	Days   []PeriodRow // Only days with at least one shift or expense
	Totals PeriodRow   // Column-wise sum of Days
}

// TotalIncome returns the income of the month.
func (m MonthlySummary) TotalIncome() domain.Money {
	return m.Totals.Income
}

// Monthly builds the report of a month.
func Monthly(year int, month time.Month, in Input) MonthlySummary {
	window := domain.MonthRange(year, month)

	var days []PeriodRow
	for _, b := range sortedBuckets(Rollup(in, window, ByDay)) {
		if !b.Active() {
			continue
		}
		days = append(days, rowFromBucket(b.Key, b))
	}

	return MonthlySummary{
		Year:   year,
		Month:  month,
		Days:   days,
		Totals: sumRows(days),
	}
}

// AnnualSummary lists the twelve months of a year.
type AnnualSummary struct {
	Year   int
	Months []PeriodRow // January to December, empty months included
	Totals PeriodRow   // Column-wise sum of Months
}

// TotalIncome returns the income of the year.
func (a AnnualSummary) TotalIncome() domain.Money {
	return a.Totals.Income
}

// Annual builds the report of a year.
func Annual(year int, in Input) AnnualSummary {
	buckets := Rollup(in, domain.YearRange(year), ByMonth)

	months := make([]PeriodRow, 0, 12)
	for m := time.January; m <= time.December; m++ {
		key := domain.NewDate(year, m, 1)
		months = append(months, rowFromBucket(key, buckets[key]))
	}

	return AnnualSummary{
		Year:   year,
		Months: months,
		Totals: sumRows(months),
	}
}

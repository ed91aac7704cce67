package summary

import (
	"sort"

	"github.com/shopspring/decimal"

	"taxi/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// ShareRow is one slice of a breakdown.
type ShareRow struct {
	Key        string
	Amount     domain.Money
	Count      int
	Percentage float64 // Of the breakdown total, 0..100
}

// shares turns grouped amounts into rows sorted by amount descending, then
// key ascending. It returns nil when the total is zero.
func shares(amounts map[string]domain.Money, counts map[string]int) []ShareRow {
	total := domain.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	if total.IsZero() {
		return nil
	}

	rows := make([]ShareRow, 0, len(amounts))
	for key, amount := range amounts {
		rows = append(rows, ShareRow{
			Key:        key,
			Amount:     amount,
			Count:      counts[key],
			Percentage: amount.Mul(hundred).Div(total).InexactFloat64(),
		})
	}

	// Percentages are proportional to amounts, so ordering by the exact
	// amount keeps ties exact.
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Amount.Cmp(rows[j].Amount); c != 0 {
			return c > 0
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

func expenseShares(expenses []*domain.Expense, window domain.DateRange, key func(*domain.Expense) string) []ShareRow {
	amounts := make(map[string]domain.Money)
	counts := make(map[string]int)
	for _, e := range expenses {
		if !window.Contains(e.Date) {
			continue
		}
		k := key(e)
		amounts[k] = amounts[k].Add(e.TotalAmount)
		counts[k]++
	}
	return shares(amounts, counts)
}

// ExpenseBreakdownByCategory splits the expenses of window by category.
func ExpenseBreakdownByCategory(expenses []*domain.Expense, window domain.DateRange) []ShareRow {
	return expenseShares(expenses, window, func(e *domain.Expense) string { return string(e.Category) })
}

// ExpenseBreakdownBySubtype splits the expenses of window by category and
// subtype, keyed "CATEGORY/SUBTYPE".
func ExpenseBreakdownBySubtype(expenses []*domain.Expense, window domain.DateRange) []ShareRow {
	return expenseShares(expenses, window, func(e *domain.Expense) string {
		return string(e.Category) + "/" + string(e.Subtype)
	})
}

// IncomeByPaymentMethod splits the ride income of window by payment method.
func IncomeByPaymentMethod(in Input, window domain.DateRange) []ShareRow {
	inWindow := make(map[string]bool, len(in.Shifts))
	for _, s := range in.Shifts {
		if window.Contains(s.Date) {
			inWindow[s.ID] = true
		}
	}

	amounts := make(map[string]domain.Money)
	counts := make(map[string]int)
	for _, r := range in.Rides {
		if !inWindow[r.ShiftID] {
			continue
		}
		k := string(r.PaymentMethod)
		amounts[k] = amounts[k].Add(r.ActualAmount)
		counts[k]++
	}
	return shares(amounts, counts)
}

package service

import (
	"fmt"
	"strconv"
	"time"

	"taxi/internal/domain"
)

// buildShiftReceipt totals the rides of a shift that has just been closed.
func buildShiftReceipt(shift *domain.Shift, rides []*domain.Ride, closedAt time.Time) *domain.ShiftReceipt {
	receipt := &domain.ShiftReceipt{
		Shift:      shift,
		RideCount:  len(rides),
		Income:     domain.Zero,
		Tips:       domain.Zero,
		Distance:   shift.Distance(),
		WorkedTime: shift.WorkedTime(closedAt),
		ClosedAt:   closedAt,
	}
	for _, r := range rides {
		receipt.Income = receipt.Income.Add(r.ActualAmount)
		receipt.Tips = receipt.Tips.Add(r.Tip)
	}
	return receipt
}

// FormatReceiptLine renders a receipt on a single line.
func FormatReceiptLine(r *domain.ShiftReceipt) string {
	return fmt.Sprintf("%d rides, income %s, tips %s, %s km, worked %s",
		r.RideCount,
		r.Income.StringFixed(2),
		r.Tips.StringFixed(2),
		formatKm(r.Distance),
		domain.FormatWorkedTime(r.WorkedTime),
	)
}

func formatKm(km int64) string {
	return strconv.FormatInt(km, 10)
}

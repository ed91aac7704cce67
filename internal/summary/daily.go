package summary

import (
	"sort"
	"time"

	"taxi/internal/domain"
)

// TargetStatus tells whether the daily target has been reached.
type TargetStatus string

const (
	TargetPending  TargetStatus = "PENDING"
	TargetExceeded TargetStatus = "EXCEEDED"
)

// MethodTotals counts and sums the rides paid with one method.
type MethodTotals struct {
	Count  int
	Amount domain.Money
}

// ShiftRow is the breakdown of one shift, or of all shifts of a day combined.
type ShiftRow struct {
	ShiftID       string // Empty on the combined row
	ShiftNumber   int
	Active        bool
	RideCount     int
	ByMethod      map[domain.PaymentMethod]MethodTotals
	Income        domain.Money
	Tips          domain.Money
	DispatchCount int
	AirportCount  int
	StartOdometer int64
	EndOdometer   *int64
	Distance      int64
	StartTime     time.Time
	EndTime       time.Time // Zero while any shift of the row is open
	WorkedTime    time.Duration
}

func newShiftRow() ShiftRow {
	byMethod := make(map[domain.PaymentMethod]MethodTotals, len(domain.PaymentMethods))
	for _, m := range domain.PaymentMethods {
		byMethod[m] = MethodTotals{Amount: domain.Zero}
	}
	return ShiftRow{ByMethod: byMethod, Income: domain.Zero, Tips: domain.Zero}
}

func (r *ShiftRow) addRide(ride *domain.Ride) {
	r.RideCount++
	r.Income = r.Income.Add(ride.ActualAmount)
	r.Tips = r.Tips.Add(ride.Tip)
	mt := r.ByMethod[ride.PaymentMethod]
	mt.Count++
	mt.Amount = mt.Amount.Add(ride.ActualAmount)
	r.ByMethod[ride.PaymentMethod] = mt
	if ride.Dispatch {
		r.DispatchCount++
	}
	if ride.Airport {
		r.AirportCount++
	}
}

// DailySummary is the report of one calendar day.
type DailySummary struct {
	Date              time.Time
	Shifts            []ShiftRow
	Combined          ShiftRow
	TotalIncome       domain.Money
	TotalTips         domain.Money
	TotalExpenses     domain.Money
	Net               domain.Money
	Target            domain.Money
	RemainingToTarget domain.Money // Positive while short of target, negative once exceeded
	TargetStatus      TargetStatus
	WorkedTime        time.Duration
}

// RemainingMagnitude returns the unsigned distance to the target for display
// next to TargetStatus.
func (d DailySummary) RemainingMagnitude() domain.Money {
	return d.RemainingToTarget.Abs()
}

// Daily builds the report of date. Open shifts are measured up to now.
func Daily(date time.Time, target domain.Money, in Input, now time.Time) DailySummary {
	window := domain.DayRange(date)

	var shifts []*domain.Shift
	for _, s := range in.Shifts {
		if window.Contains(s.Date) {
			shifts = append(shifts, s)
		}
	}
	sort.SliceStable(shifts, func(i, j int) bool { return shifts[i].StartTime.Before(shifts[j].StartTime) })

	ridesByShift := make(map[string][]*domain.Ride)
	for _, r := range in.Rides {
		ridesByShift[r.ShiftID] = append(ridesByShift[r.ShiftID], r)
	}

	rows := make([]ShiftRow, 0, len(shifts))
	for _, s := range shifts {
		row := newShiftRow()
		row.ShiftID = s.ID
		row.ShiftNumber = s.ShiftNumber
		row.Active = s.IsActive
		row.StartOdometer = s.StartOdometer
		row.EndOdometer = s.EndOdometer
		row.Distance = s.Distance()
		row.StartTime = s.StartTime
		row.EndTime = s.EndTime
		row.WorkedTime = s.WorkedTime(now)
		for _, r := range ridesByShift[s.ID] {
			row.addRide(r)
		}
		rows = append(rows, row)
	}

	total := Total(in, window)
	remaining := target.Sub(total.Income)
	status := TargetPending
	if !remaining.IsPositive() {
		status = TargetExceeded
	}

	combined := combine(rows)
	return DailySummary{
		Date:              window.From,
		Shifts:            rows,
		Combined:          combined,
		TotalIncome:       total.Income,
		TotalTips:         total.Tips,
		TotalExpenses:     total.Expenses,
		Net:               total.Net(),
		Target:            target,
		RemainingToTarget: remaining,
		TargetStatus:      status,
		WorkedTime:        combined.WorkedTime,
	}
}

// combine folds shift rows, already ordered by start time, into one row.
func combine(rows []ShiftRow) ShiftRow {
	combined := newShiftRow()
	for i, row := range rows {
		combined.RideCount += row.RideCount
		combined.Income = combined.Income.Add(row.Income)
		combined.Tips = combined.Tips.Add(row.Tips)
		combined.DispatchCount += row.DispatchCount
		combined.AirportCount += row.AirportCount
		combined.Distance += row.Distance
		combined.WorkedTime += row.WorkedTime
		for m, mt := range row.ByMethod {
			acc := combined.ByMethod[m]
			acc.Count += mt.Count
			acc.Amount = acc.Amount.Add(mt.Amount)
			combined.ByMethod[m] = acc
		}
		if row.Active {
			combined.Active = true
		}
		if i == 0 {
			combined.StartOdometer = row.StartOdometer
			combined.StartTime = row.StartTime
		}
		if i == len(rows)-1 {
			combined.EndOdometer = row.EndOdometer
			combined.EndTime = row.EndTime
		}
	}
	if combined.Active {
		combined.EndOdometer = nil
		combined.EndTime = time.Time{}
	}
	return combined
}

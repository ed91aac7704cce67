package domain

import "time"

// ShiftState represents the lifecycle state of a shift.
type ShiftState string

const (
	ShiftStateActive ShiftState = "ACTIVE"
	ShiftStateClosed ShiftState = "CLOSED"
)

// Shift represents one continuous period of driving (a turno).
type Shift struct {
	ID            string
	ShiftNumber   int       // Ordinal among the shifts sharing Date, starting at 1
	Date          time.Time // Calendar date, midnight UTC
	StartTime     time.Time
	EndTime       time.Time // Zero until the shift is closed
	StartOdometer int64     // Kilometres
	EndOdometer   *int64    // Nil until the shift is closed
	IsActive      bool
}

// State returns the lifecycle state of the shift.
func (s *Shift) State() ShiftState {
	if s.IsActive {
		return ShiftStateActive
	}
	return ShiftStateClosed
}

// Distance returns the kilometres driven, or zero while the shift is open.
func (s *Shift) Distance() int64 {
	if s.EndOdometer == nil {
		return 0
	}
	return *s.EndOdometer - s.StartOdometer
}

// WorkedTime returns the time spent on the shift. Open shifts are measured up
// to now.
func (s *Shift) WorkedTime(now time.Time) time.Duration {
	end := s.EndTime
	if s.IsActive || end.IsZero() {
		end = now
	}
	d := end.Sub(s.StartTime)
	if d < 0 {
		return 0
	}
	return d
}

// ShiftReceipt summarises a shift at the moment it is closed.
type ShiftReceipt struct {
	Shift      *Shift
	RideCount  int
	Income     Money
	Tips       Money
	Distance   int64
	WorkedTime time.Duration
	ClosedAt   time.Time
}

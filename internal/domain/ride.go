package domain

import "time"

// PaymentMethod represents how a ride was paid.
type PaymentMethod string

const (
	PaymentMethodCash           PaymentMethod = "CASH"
	PaymentMethodCard           PaymentMethod = "CARD"
	PaymentMethodVoucher        PaymentMethod = "VOUCHER"
	PaymentMethodMobileTransfer PaymentMethod = "MOBILE_TRANSFER"
)

// PaymentMethods lists every accepted payment method in display order.
var PaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodCard,
	PaymentMethodVoucher,
	PaymentMethodMobileTransfer,
}

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodVoucher, PaymentMethodMobileTransfer:
		return true
	}
	return false
}

// Ride represents one completed paid trip within a shift (a carrera).
type Ride struct {
	ID            string
	ShiftID       string
	Time          time.Time
	MeterAmount   Money // Taxi-meter reading
	ActualAmount  Money // Amount actually charged
	Tip           Money // Always max(0, ActualAmount - MeterAmount)
	PaymentMethod PaymentMethod
	Dispatch      bool  // Came from a radio dispatch
	Airport       bool
	Sequence      int64 // Insertion order, assigned by storage
}

// Tip derives the tip for a ride: the positive part of actual minus meter.
func Tip(meter, actual Money) Money {
	diff := actual.Sub(meter)
	if diff.IsNegative() {
		return Zero
	}
	return diff
}

// ApplyAmounts sets both amounts on the ride and recomputes the tip.
func (r *Ride) ApplyAmounts(meter, actual Money) {
	r.MeterAmount = meter
	r.ActualAmount = actual
	r.Tip = Tip(meter, actual)
}

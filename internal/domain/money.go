package domain

import "github.com/shopspring/decimal"

// Money is an exact decimal amount in the driver's currency.
type Money = decimal.Decimal

// Zero is the zero amount.
var Zero = decimal.Zero

// VATRate is the flat rate tagged on expenses entered with VAT included.
var VATRate = decimal.RequireFromString("0.21")

// VAT returns the VAT tag for a total, rounded to cents.
func VAT(total Money) Money {
	return total.Mul(VATRate).Round(2)
}

// MaxAmount is the first amount that no longer fits a NUMERIC(12,2) column.
var MaxAmount = decimal.New(1, 10)

// ValidAmount reports whether m is a storable amount: not negative, below
// MaxAmount and with at most two decimals.
func ValidAmount(m Money) bool {
	return !m.IsNegative() && m.LessThan(MaxAmount) && m.Equal(m.Truncate(2))
}

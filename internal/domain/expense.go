package domain

import "time"

// ExpenseCategory groups expenses for reporting.
type ExpenseCategory string

const (
	ExpenseCategoryVehicle  ExpenseCategory = "VEHICLE"
	ExpenseCategoryActivity ExpenseCategory = "ACTIVITY"
)

// ExpenseSubtype refines a category. Each category accepts a closed list.
type ExpenseSubtype string

const (
	SubtypeFuel         ExpenseSubtype = "FUEL"
	SubtypeMaintenance  ExpenseSubtype = "MAINTENANCE"
	SubtypeRepair       ExpenseSubtype = "REPAIR"
	SubtypeTyres        ExpenseSubtype = "TYRES"
	SubtypeInsurance    ExpenseSubtype = "INSURANCE"
	SubtypeInspection   ExpenseSubtype = "INSPECTION"
	SubtypeCleaning     ExpenseSubtype = "CLEANING"
	SubtypeParkingTolls ExpenseSubtype = "PARKING_TOLLS"

	SubtypeLicenseFee       ExpenseSubtype = "LICENSE_FEE"
	SubtypeRadioDispatchFee ExpenseSubtype = "RADIO_DISPATCH_FEE"
	SubtypeTaximeter        ExpenseSubtype = "TAXIMETER"
	SubtypeAdvisory         ExpenseSubtype = "ADVISORY"
	SubtypeSocialSecurity   ExpenseSubtype = "SOCIAL_SECURITY"
	SubtypePhone            ExpenseSubtype = "PHONE"
	SubtypeBankFees         ExpenseSubtype = "BANK_FEES"

	SubtypeOther ExpenseSubtype = "OTHER"
)

var subtypesByCategory = map[ExpenseCategory][]ExpenseSubtype{
	ExpenseCategoryVehicle: {
		SubtypeFuel, SubtypeMaintenance, SubtypeRepair, SubtypeTyres, SubtypeInsurance,
		SubtypeInspection, SubtypeCleaning, SubtypeParkingTolls, SubtypeOther,
	},
	ExpenseCategoryActivity: {
		SubtypeLicenseFee, SubtypeRadioDispatchFee, SubtypeTaximeter, SubtypeAdvisory,
		SubtypeSocialSecurity, SubtypePhone, SubtypeBankFees, SubtypeOther,
	},
}

// Valid reports whether c is a known category.
func (c ExpenseCategory) Valid() bool {
	_, ok := subtypesByCategory[c]
	return ok
}

// Subtypes returns the subtypes accepted for the category.
func (c ExpenseCategory) Subtypes() []ExpenseSubtype {
	return append([]ExpenseSubtype(nil), subtypesByCategory[c]...)
}

// Allows reports whether subtype belongs to the category's list.
func (c ExpenseCategory) Allows(subtype ExpenseSubtype) bool {
	for _, s := range subtypesByCategory[c] {
		if s == subtype {
			return true
		}
	}
	return false
}

// Expense represents a cost entry independent of shifts (a gasto).
type Expense struct {
	ID            string
	Date          time.Time // Calendar date, midnight UTC
	Category      ExpenseCategory
	Subtype       ExpenseSubtype
	InvoiceNumber string
	Supplier      string
	TotalAmount   Money
	VATIncluded   bool
	VATAmount     Money  // VAT(TotalAmount) when VATIncluded, zero otherwise
	Mileage       *int64 // Odometer reading at the time of the expense
	Notes         string
}

// ApplyTotal sets the total and derives the VAT tag from it.
func (e *Expense) ApplyTotal(total Money, vatIncluded bool) {
	e.TotalAmount = total
	e.VATIncluded = vatIncluded
	if vatIncluded {
		e.VATAmount = VAT(total)
		return
	}
	e.VATAmount = Zero
}

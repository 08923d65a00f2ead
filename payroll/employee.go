package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EMPLOYEE - Read-only input to the engine
// =============================================================================

// EmploymentStatus gates payability. Only ACTIVE employees may be paid.
type EmploymentStatus string

const (
	EmploymentActive   EmploymentStatus = "ACTIVE"
	EmploymentInactive EmploymentStatus = "INACTIVE"
)

// Withholding is the employee's tax withholding configuration. The bracket
// engine consumes the actual per-employee values; defaults live in taxdata,
// not here.
type Withholding struct {
	FilingStatus     FilingStatus
	Allowances       int
	ExtraWithholding decimal.Decimal // flat extra amount withheld per period
	ExemptFICA       bool
	ExemptFederal    bool
}

// Employee is created and updated externally; the engine only reads it.
type Employee struct {
	ID         EmployeeID
	EmployerID EmployerID
	Name       string

	CompensationType CompensationType
	// Rate is dollars per hour for HOURLY, the fixed salary per period for
	// WEEKLY/BIWEEKLY/MONTHLY, and the annual salary for YEARLY.
	Rate decimal.Decimal

	// PayFrequency drives tax annualization and YEARLY proration. Optional;
	// when empty the day-span fallback in period.go applies.
	PayFrequency PayFrequency

	Status      EmploymentStatus
	Withholding Withholding

	HireDate time.Time
}

// Payable returns the inactive-employee error unless the employee is ACTIVE.
func (e *Employee) Payable() error {
	if e.Status != EmploymentActive {
		return &InactiveEmployeeError{EmployeeID: e.ID, Status: e.Status}
	}
	return nil
}

// =============================================================================
// YTD TOTALS - Derived, never stored
// =============================================================================

// YTDTotals are the year-to-date accumulators for one employee, summed from
// PAID records strictly before the period being calculated. They reset at the
// calendar year boundary and are monotonically non-decreasing within a year.
type YTDTotals struct {
	Gross             decimal.Decimal
	SocialSecurityTax decimal.Decimal // informational: tax already withheld
	MedicareTax       decimal.Decimal
}

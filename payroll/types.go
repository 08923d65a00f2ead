/*
Package payroll provides the core payroll calculation and run lifecycle engine.

PURPOSE:
  This package contains the types and algorithms for computing one employee's
  pay for one period (gross pay, withheld taxes, deductions, net pay) and for
  orchestrating batches of such computations into payroll runs that move
  through a strict DRAFT → APPROVED → PAID lifecycle.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money helpers: all amounts are decimal.Decimal, rounded to cents only
    when a deduction item or pay total is materialized
  - PayrollRecord / DeductionItem: the persisted result of one calculation
  - PayrollRun: first-class aggregate grouping the records of one batch
  - PayBreakdown: the full in-memory result returned to callers

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal everywhere, never float64 for money
  2. Purity: calculators read inputs and return results, no hidden state
  3. Immutability: a record that reached PAID is never mutated again
  4. Type safety: strong typing for IDs prevents mixing employee/record IDs

SEE ALSO:
  - brackets.go: progressive federal withholding
  - fica.go: wage-base-capped social security, medicare, unemployment
  - calculator.go: composition into one employee's breakdown
  - run.go: batch orchestration
  - lifecycle.go: status transitions
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type EmployerID string
type RecordID string
type RunID string

// =============================================================================
// ENUMS
// =============================================================================

// CompensationType describes how an employee's base rate is interpreted.
type CompensationType string

const (
	CompHourly   CompensationType = "HOURLY"   // Rate is dollars per hour
	CompWeekly   CompensationType = "WEEKLY"   // Rate is a fixed weekly salary
	CompBiweekly CompensationType = "BIWEEKLY" // Rate is a fixed biweekly salary
	CompMonthly  CompensationType = "MONTHLY"  // Rate is a fixed monthly salary
	CompYearly   CompensationType = "YEARLY"   // Rate is an annual salary, prorated per period
)

// PayFrequency drives annualization and proration. Stored explicitly on the
// employee; the day-span heuristic in period.go is only a fallback.
type PayFrequency string

const (
	FreqWeekly      PayFrequency = "WEEKLY"
	FreqBiweekly    PayFrequency = "BI_WEEKLY"
	FreqSemiMonthly PayFrequency = "SEMI_MONTHLY"
	FreqMonthly     PayFrequency = "MONTHLY"
)

// FilingStatus selects a bracket table and standard deduction.
type FilingStatus string

const (
	FilingSingle          FilingStatus = "SINGLE"
	FilingMarriedJoint    FilingStatus = "MARRIED_JOINT"
	FilingHeadOfHousehold FilingStatus = "HEAD_OF_HOUSEHOLD"
)

// RecordStatus is the lifecycle state of a payroll record.
type RecordStatus string

const (
	StatusDraft    RecordStatus = "DRAFT"
	StatusApproved RecordStatus = "APPROVED"
	StatusPaid     RecordStatus = "PAID"
	StatusVoid     RecordStatus = "VOID"
)

// Terminal reports whether no further transitions are permitted.
func (s RecordStatus) Terminal() bool { return s == StatusPaid || s == StatusVoid }

// RunStatus summarizes a payroll run. A run stays OPEN (and blocks
// overlapping runs) while any of its records is DRAFT or APPROVED.
type RunStatus string

const (
	RunOpen    RunStatus = "OPEN"
	RunSettled RunStatus = "SETTLED"
)

// DeductionType classifies deduction items; YTD accumulators are derived by
// summing items of these types across PAID records.
type DeductionType string

const (
	DeductionFederalTax     DeductionType = "federal_tax"
	DeductionSocialSecurity DeductionType = "social_security"
	DeductionMedicare       DeductionType = "medicare"
)

// =============================================================================
// PERSISTED SHAPES
// =============================================================================

// DeductionItem belongs to exactly one PayrollRecord. Created atomically with
// its parent record; immutable afterward.
type DeductionItem struct {
	RecordID    RecordID
	Type        DeductionType
	Description string
	Amount      decimal.Decimal
}

// PayrollRecord is one employee's result for one pay period.
// Only the Status field (and VoidReason) may change after creation, and only
// through the state machine.
type PayrollRecord struct {
	ID          RecordID
	RunID       RunID
	EmployerID  EmployerID
	EmployeeID  EmployeeID
	PeriodStart time.Time
	PeriodEnd   time.Time
	PaymentDate time.Time

	GrossPay        decimal.Decimal
	Bonuses         decimal.Decimal
	Commissions     decimal.Decimal
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal

	Status     RecordStatus
	VoidReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PayrollRun groups the records created together by one orchestrator
// invocation for one employer and period.
type PayrollRun struct {
	ID          RunID
	EmployerID  EmployerID
	PeriodStart time.Time
	PeriodEnd   time.Time
	PaymentDate time.Time
	Status      RunStatus
	Created     int
	Failed      int
	CreatedAt   time.Time
}

// =============================================================================
// CALCULATION INPUTS AND OUTPUTS
// =============================================================================

// HoursInput carries worked hours for hourly employees.
type HoursInput struct {
	Regular    decimal.Decimal
	Overtime   decimal.Decimal
	DoubleTime decimal.Decimal
}

// PayInput is the optional per-period input to a calculation.
type PayInput struct {
	Hours       HoursInput
	Bonuses     decimal.Decimal
	Commissions decimal.Decimal
}

// GrossPay is the gross pay breakdown before any withholding.
type GrossPay struct {
	BasePay       decimal.Decimal // salary portion or regular hourly pay
	OvertimePay   decimal.Decimal
	DoubleTimePay decimal.Decimal
	Bonuses       decimal.Decimal
	Commissions   decimal.Decimal
	Total         decimal.Decimal
}

// FICAResult holds the employee-withheld FICA components for one payment.
type FICAResult struct {
	SocialSecurity     decimal.Decimal
	Medicare           decimal.Decimal
	AdditionalMedicare decimal.Decimal
}

// Total returns all FICA withholding for the payment.
func (f FICAResult) Total() decimal.Decimal {
	return f.SocialSecurity.Add(f.Medicare).Add(f.AdditionalMedicare)
}

// EmployerTaxes is the employer's own cost for the same period. Not withheld
// from the employee.
type EmployerTaxes struct {
	SocialSecurity      decimal.Decimal
	Medicare            decimal.Decimal
	FederalUnemployment decimal.Decimal
	StateUnemployment   decimal.Decimal
}

// Total returns the employer's full liability for the period.
func (e EmployerTaxes) Total() decimal.Decimal {
	return e.SocialSecurity.Add(e.Medicare).Add(e.FederalUnemployment).Add(e.StateUnemployment)
}

// PayBreakdown is one employee's complete pay picture for one period.
type PayBreakdown struct {
	EmployeeID  EmployeeID
	PeriodStart time.Time
	PeriodEnd   time.Time

	Gross      GrossPay
	FederalTax decimal.Decimal
	FICA       FICAResult

	Deductions      []DeductionItem
	TotalDeductions decimal.Decimal
	NetPay          decimal.Decimal

	Employer EmployerTaxes
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// Cents rounds a money amount to currency precision.
func Cents(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// MustDecimal parses a decimal literal; used for configuration data.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic("payroll: bad decimal literal " + s)
	}
	return d
}

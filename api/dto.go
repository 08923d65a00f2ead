/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Amounts are decimal.Decimal end to end. shopspring's MarshalJSON emits an
  exact JSON number, so nothing is lost in transit.

DATES:
  Pay period dates use "2006-01-02"; timestamps use RFC3339.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - payroll/types.go: Domain shapes these map onto
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// WithholdingDTO is the employee's tax withholding configuration.
type WithholdingDTO struct {
	FilingStatus     string          `json:"filing_status"`
	Allowances       int             `json:"allowances"`
	ExtraWithholding decimal.Decimal `json:"extra_withholding"`
	ExemptFICA       bool            `json:"exempt_fica"`
	ExemptFederal    bool            `json:"exempt_federal"`
}

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID               string          `json:"id"`
	EmployerID       string          `json:"employer_id"`
	Name             string          `json:"name"`
	CompensationType string          `json:"compensation_type"`
	Rate             decimal.Decimal `json:"rate"`
	PayFrequency     string          `json:"pay_frequency,omitempty"`
	Status           string          `json:"status"`
	Withholding      WithholdingDTO  `json:"withholding"`
	HireDate         string          `json:"hire_date"`
}

// CreateEmployeeRequest creates or replaces an employee.
type CreateEmployeeRequest struct {
	ID               string          `json:"id"`
	EmployerID       string          `json:"employer_id"`
	Name             string          `json:"name"`
	CompensationType string          `json:"compensation_type"`
	Rate             decimal.Decimal `json:"rate"`
	PayFrequency     string          `json:"pay_frequency"`
	Status           string          `json:"status"`
	Withholding      WithholdingDTO  `json:"withholding"`
	HireDate         string          `json:"hire_date"`
}

// =============================================================================
// CALCULATION TYPES
// =============================================================================

// HoursDTO carries worked hours for hourly employees.
type HoursDTO struct {
	Regular    decimal.Decimal `json:"regular"`
	Overtime   decimal.Decimal `json:"overtime"`
	DoubleTime decimal.Decimal `json:"double_time"`
}

// CalculateRequest previews one employee's pay for one period without
// persisting anything.
type CalculateRequest struct {
	PeriodStart string          `json:"period_start"`
	PeriodEnd   string          `json:"period_end"`
	PaymentDate string          `json:"payment_date"`
	Hours       HoursDTO        `json:"hours"`
	Bonuses     decimal.Decimal `json:"bonuses"`
	Commissions decimal.Decimal `json:"commissions"`
}

// GrossPayDTO is the gross pay breakdown before withholding.
type GrossPayDTO struct {
	BasePay       decimal.Decimal `json:"base_pay"`
	OvertimePay   decimal.Decimal `json:"overtime_pay"`
	DoubleTimePay decimal.Decimal `json:"double_time_pay"`
	Bonuses       decimal.Decimal `json:"bonuses"`
	Commissions   decimal.Decimal `json:"commissions"`
	Total         decimal.Decimal `json:"total"`
}

// EmployerTaxesDTO is the employer's own liability, not withheld from pay.
type EmployerTaxesDTO struct {
	SocialSecurity      decimal.Decimal `json:"social_security"`
	Medicare            decimal.Decimal `json:"medicare"`
	FederalUnemployment decimal.Decimal `json:"federal_unemployment"`
	StateUnemployment   decimal.Decimal `json:"state_unemployment"`
	Total               decimal.Decimal `json:"total"`
}

// PayBreakdownDTO is the full calculation result for one employee and period.
type PayBreakdownDTO struct {
	EmployeeID      string             `json:"employee_id"`
	PeriodStart     string             `json:"period_start"`
	PeriodEnd       string             `json:"period_end"`
	Gross           GrossPayDTO        `json:"gross"`
	Deductions      []DeductionItemDTO `json:"deductions"`
	TotalDeductions decimal.Decimal    `json:"total_deductions"`
	NetPay          decimal.Decimal    `json:"net_pay"`
	EmployerTaxes   EmployerTaxesDTO   `json:"employer_taxes"`
}

// DeductionItemDTO is one withheld line item.
type DeductionItemDTO struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// =============================================================================
// RUN TYPES
// =============================================================================

// CreateRunRequest starts a payroll run for an employer. EmployeeIDs
// optionally restricts the run; omitted means every active employee.
type CreateRunRequest struct {
	PeriodStart string   `json:"period_start"`
	PeriodEnd   string   `json:"period_end"`
	PaymentDate string   `json:"payment_date"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

// RunFailureDTO names one employee a run could not pay.
type RunFailureDTO struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

// RunResultDTO reports what a run created and what it skipped.
type RunResultDTO struct {
	RunID     string          `json:"run_id"`
	Created   int             `json:"created"`
	Failed    int             `json:"failed"`
	RecordIDs []string        `json:"record_ids"`
	Failures  []RunFailureDTO `json:"failures,omitempty"`
}

// RunDTO represents a payroll run in API responses.
type RunDTO struct {
	ID          string `json:"id"`
	EmployerID  string `json:"employer_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	PaymentDate string `json:"payment_date"`
	Status      string `json:"status"`
	Created     int    `json:"created"`
	Failed      int    `json:"failed"`
	CreatedAt   string `json:"created_at"`
}

// RunDetailDTO is a run together with its records.
type RunDetailDTO struct {
	RunDTO
	Records []RecordDTO `json:"records"`
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// RecordDTO represents a payroll record in API responses.
type RecordDTO struct {
	ID              string          `json:"id"`
	RunID           string          `json:"run_id"`
	EmployerID      string          `json:"employer_id"`
	EmployeeID      string          `json:"employee_id"`
	PeriodStart     string          `json:"period_start"`
	PeriodEnd       string          `json:"period_end"`
	PaymentDate     string          `json:"payment_date"`
	GrossPay        decimal.Decimal `json:"gross_pay"`
	Bonuses         decimal.Decimal `json:"bonuses"`
	Commissions     decimal.Decimal `json:"commissions"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetPay          decimal.Decimal `json:"net_pay"`
	Status          string          `json:"status"`
	VoidReason      string          `json:"void_reason,omitempty"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

// RecordDetailDTO is a record together with its deduction items.
type RecordDetailDTO struct {
	RecordDTO
	Deductions []DeductionItemDTO `json:"deductions"`
}

// VoidRequest cancels a DRAFT or APPROVED record.
type VoidRequest struct {
	Reason string `json:"reason"`
}

// GrantAdminRequest marks a user as payroll administrator for an employer.
type GrantAdminRequest struct {
	UserID     string `json:"user_id"`
	EmployerID string `json:"employer_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toEmployeeDTO(emp *payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:               string(emp.ID),
		EmployerID:       string(emp.EmployerID),
		Name:             emp.Name,
		CompensationType: string(emp.CompensationType),
		Rate:             emp.Rate,
		PayFrequency:     string(emp.PayFrequency),
		Status:           string(emp.Status),
		Withholding: WithholdingDTO{
			FilingStatus:     string(emp.Withholding.FilingStatus),
			Allowances:       emp.Withholding.Allowances,
			ExtraWithholding: emp.Withholding.ExtraWithholding,
			ExemptFICA:       emp.Withholding.ExemptFICA,
			ExemptFederal:    emp.Withholding.ExemptFederal,
		},
		HireDate: emp.HireDate.Format(dateLayout),
	}
}

func toBreakdownDTO(b *payroll.PayBreakdown) PayBreakdownDTO {
	return PayBreakdownDTO{
		EmployeeID:  string(b.EmployeeID),
		PeriodStart: b.PeriodStart.Format(dateLayout),
		PeriodEnd:   b.PeriodEnd.Format(dateLayout),
		Gross: GrossPayDTO{
			BasePay:       b.Gross.BasePay,
			OvertimePay:   b.Gross.OvertimePay,
			DoubleTimePay: b.Gross.DoubleTimePay,
			Bonuses:       b.Gross.Bonuses,
			Commissions:   b.Gross.Commissions,
			Total:         b.Gross.Total,
		},
		Deductions:      toDeductionItemDTOs(b.Deductions),
		TotalDeductions: b.TotalDeductions,
		NetPay:          b.NetPay,
		EmployerTaxes: EmployerTaxesDTO{
			SocialSecurity:      b.Employer.SocialSecurity,
			Medicare:            b.Employer.Medicare,
			FederalUnemployment: b.Employer.FederalUnemployment,
			StateUnemployment:   b.Employer.StateUnemployment,
			Total:               b.Employer.Total(),
		},
	}
}

func toDeductionItemDTOs(items []payroll.DeductionItem) []DeductionItemDTO {
	out := make([]DeductionItemDTO, len(items))
	for i, item := range items {
		out[i] = DeductionItemDTO{
			Type:        string(item.Type),
			Description: item.Description,
			Amount:      item.Amount,
		}
	}
	return out
}

func toRunDTO(run *payroll.PayrollRun) RunDTO {
	return RunDTO{
		ID:          string(run.ID),
		EmployerID:  string(run.EmployerID),
		PeriodStart: run.PeriodStart.Format(dateLayout),
		PeriodEnd:   run.PeriodEnd.Format(dateLayout),
		PaymentDate: run.PaymentDate.Format(dateLayout),
		Status:      string(run.Status),
		Created:     run.Created,
		Failed:      run.Failed,
		CreatedAt:   run.CreatedAt.Format(timeLayout),
	}
}

func toRecordDTO(rec *payroll.PayrollRecord) RecordDTO {
	return RecordDTO{
		ID:              string(rec.ID),
		RunID:           string(rec.RunID),
		EmployerID:      string(rec.EmployerID),
		EmployeeID:      string(rec.EmployeeID),
		PeriodStart:     rec.PeriodStart.Format(dateLayout),
		PeriodEnd:       rec.PeriodEnd.Format(dateLayout),
		PaymentDate:     rec.PaymentDate.Format(dateLayout),
		GrossPay:        rec.GrossPay,
		Bonuses:         rec.Bonuses,
		Commissions:     rec.Commissions,
		TotalDeductions: rec.TotalDeductions,
		NetPay:          rec.NetPay,
		Status:          string(rec.Status),
		VoidReason:      rec.VoidReason,
		CreatedAt:       rec.CreatedAt.Format(timeLayout),
		UpdatedAt:       rec.UpdatedAt.Format(timeLayout),
	}
}

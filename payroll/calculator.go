/*
calculator.go - One employee's complete pay breakdown for one period

PURPOSE:
  Composes the pure calculators into the full pipeline:
  YTD from PAID history -> gross pay -> federal withholding (annualized by
  pay frequency) -> FICA -> deduction list -> net pay -> employer liability.

CONTRACT:
  The employee must exist and be ACTIVE, otherwise the calculation fails with
  no partial result. Exemption flags bypass the respective taxes entirely.

WITHHOLDING INPUTS:
  Federal withholding uses the employee's actual filing status, allowances,
  and extra withholding. Defaults for employees without a configuration come
  from taxdata, not from hardcoded values here.
*/
package payroll

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// PayCalculator produces a PayBreakdown for one employee and period.
type PayCalculator struct {
	Employees EmployeeStore
	Records   RecordStore
	Tax       *TaxConfig

	Gross    GrossPayCalculator
	Brackets TaxBracketEngine
	FICA     FICACalculator
	Employer EmployerTaxCalculator
}

// NewPayCalculator wires the calculators around one tax configuration.
func NewPayCalculator(employees EmployeeStore, records RecordStore, tax *TaxConfig) *PayCalculator {
	return &PayCalculator{
		Employees: employees,
		Records:   records,
		Tax:       tax,
		Brackets:  TaxBracketEngine{Config: tax},
		FICA:      FICACalculator{Config: tax},
		Employer:  EmployerTaxCalculator{Config: tax},
	}
}

// CalculatePay computes the full breakdown. Fatal on inactive or missing
// employees; no partial results.
func (pc *PayCalculator) CalculatePay(ctx context.Context, employeeID EmployeeID, period PayPeriod, input PayInput) (*PayBreakdown, error) {
	emp, err := pc.Employees.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if err := emp.Payable(); err != nil {
		return nil, err
	}

	ytd, err := pc.Records.YearToDate(ctx, employeeID, period.Year(), period.Start)
	if err != nil {
		return nil, fmt.Errorf("year-to-date for %s: %w", employeeID, err)
	}

	return pc.breakdown(emp, period, input, ytd)
}

// breakdown is the pure tail of the pipeline once employee and YTD are known.
func (pc *PayCalculator) breakdown(emp *Employee, period PayPeriod, input PayInput, ytd YTDTotals) (*PayBreakdown, error) {
	gross, err := pc.Gross.Calculate(emp, period, input)
	if err != nil {
		return nil, err
	}

	freq := FrequencyFor(emp, period)

	var federal decimal.Decimal
	if !emp.Withholding.ExemptFederal {
		// The same frequency bucket annualizes gross for the bracket lookup
		// even for non-yearly compensation types.
		annualTax := pc.Brackets.AnnualWithholding(Annualize(gross.Total, freq), emp.Withholding)
		federal = Cents(Periodize(annualTax, freq)).Add(emp.Withholding.ExtraWithholding)
	}

	var fica FICAResult
	if !emp.Withholding.ExemptFICA {
		fica = pc.FICA.Calculate(gross.Total, ytd.Gross)
	}

	items := deductionItems(federal, fica)
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}

	return &PayBreakdown{
		EmployeeID:      emp.ID,
		PeriodStart:     period.Start,
		PeriodEnd:       period.End,
		Gross:           gross,
		FederalTax:      federal,
		FICA:            fica,
		Deductions:      items,
		TotalDeductions: total,
		NetPay:          gross.Total.Sub(total),
		Employer:        pc.Employer.Calculate(gross.Total, ytd.Gross, emp.Withholding.ExemptFICA),
	}, nil
}

// deductionItems assembles the withholding list. Zero-amount items are kept
// out so exempt employees produce no empty lines.
func deductionItems(federal decimal.Decimal, fica FICAResult) []DeductionItem {
	var items []DeductionItem
	if federal.IsPositive() {
		items = append(items, DeductionItem{
			Type:        DeductionFederalTax,
			Description: "Federal income tax withholding",
			Amount:      federal,
		})
	}
	if fica.SocialSecurity.IsPositive() {
		items = append(items, DeductionItem{
			Type:        DeductionSocialSecurity,
			Description: "Social security",
			Amount:      fica.SocialSecurity,
		})
	}
	medicare := fica.Medicare.Add(fica.AdditionalMedicare)
	if medicare.IsPositive() {
		desc := "Medicare"
		if fica.AdditionalMedicare.IsPositive() {
			desc = "Medicare incl. additional medicare"
		}
		items = append(items, DeductionItem{
			Type:        DeductionMedicare,
			Description: desc,
			Amount:      medicare,
		})
	}
	return items
}

// =============================================================================
// EMPLOYER TAX LIABILITY - The employer's own cost
// =============================================================================

// EmployerTaxCalculator computes the employer-paid match and unemployment
// taxes for a period. Pure function of (totalGross, ytdGross).
type EmployerTaxCalculator struct {
	Config *TaxConfig
}

// Calculate returns the employer liability. FICA-exempt employees generate
// no employer match either.
func (ec *EmployerTaxCalculator) Calculate(totalGross, ytdGross decimal.Decimal, exemptFICA bool) EmployerTaxes {
	unemployment := UnemploymentTaxCalculator{Config: ec.Config}
	taxes := EmployerTaxes{
		FederalUnemployment: unemployment.Federal(totalGross, ytdGross),
		StateUnemployment:   unemployment.State(totalGross, ytdGross),
	}
	if !exemptFICA {
		match := (&FICACalculator{Config: ec.Config}).Calculate(totalGross, ytdGross)
		taxes.SocialSecurity = match.SocialSecurity
		taxes.Medicare = match.Medicare // no additional-medicare match
	}
	return taxes
}

/*
fica.go - Wage-base-capped payroll taxes

PURPOSE:
  Social security (capped at an annual wage base), medicare (flat, uncapped),
  additional medicare (only above an annual income threshold), and the
  employer-side unemployment taxes that share the same proration rule.

BOUNDARY BEHAVIOR:
  Total FICA is continuous across the wage-base and threshold boundaries
  regardless of how pay is chunked into periods: a single payment that
  straddles the cap is prorated, and splitting one payment into two smaller
  ones summing to the same total never changes the total tax (up to
  currency rounding).
*/
package payroll

import "github.com/shopspring/decimal"

// FICACalculator computes employee-withheld FICA for one payment given the
// employee's year-to-date gross before this payment.
type FICACalculator struct {
	Config *TaxConfig
}

// Calculate returns the FICA components for a payment. ytdGross is the gross
// pay already PAID this calendar year, excluding the current payment.
func (c *FICACalculator) Calculate(pay, ytdGross decimal.Decimal) FICAResult {
	return FICAResult{
		SocialSecurity:     cappedTax(pay, ytdGross, c.Config.SocialSecurityWageBase, c.Config.SocialSecurityRate),
		Medicare:           Cents(pay.Mul(c.Config.MedicareRate)),
		AdditionalMedicare: c.additionalMedicare(pay, ytdGross),
	}
}

// additionalMedicare taxes only the portion of ytdGross+pay above the
// threshold. Three cases: already above (whole payment taxed), crossing
// (only the excess taxed), below (zero).
func (c *FICACalculator) additionalMedicare(pay, ytdGross decimal.Decimal) decimal.Decimal {
	threshold := c.Config.AdditionalMedicareThreshold
	if threshold.IsZero() {
		return decimal.Zero
	}
	over := ytdGross.Add(pay).Sub(threshold)
	if !over.IsPositive() {
		return decimal.Zero
	}
	if over.GreaterThan(pay) {
		over = pay // ytd alone already exceeded the threshold
	}
	return Cents(over.Mul(c.Config.AdditionalMedicareRate))
}

// =============================================================================
// UNEMPLOYMENT TAXES - Employer-side, small wage bases
// =============================================================================

// UnemploymentTaxCalculator computes the employer-paid unemployment taxes.
// Never withheld from the employee.
type UnemploymentTaxCalculator struct {
	Config *TaxConfig
}

// Federal returns the federal unemployment tax for a payment at the reduced
// effective rate, capped at the federal wage base.
func (c *UnemploymentTaxCalculator) Federal(pay, ytdGross decimal.Decimal) decimal.Decimal {
	return cappedTax(pay, ytdGross, c.Config.FederalUnemploymentWageBase, c.Config.FederalUnemploymentRate)
}

// State returns the state-style unemployment tax for a payment, capped at
// the state wage base.
func (c *UnemploymentTaxCalculator) State(pay, ytdGross decimal.Decimal) decimal.Decimal {
	return cappedTax(pay, ytdGross, c.Config.StateUnemploymentWageBase, c.Config.StateUnemploymentRate)
}

// cappedTax taxes only the portion of pay that still fits under the annual
// wage base: min(pay, base - ytd) * rate, zero once ytd reached the base.
// This prorates correctly when a single payment straddles the cap.
func cappedTax(pay, ytdGross, wageBase, rate decimal.Decimal) decimal.Decimal {
	if ytdGross.GreaterThanOrEqual(wageBase) {
		return decimal.Zero
	}
	taxable := decimal.Min(pay, wageBase.Sub(ytdGross))
	if taxable.IsNegative() {
		return decimal.Zero
	}
	return Cents(taxable.Mul(rate))
}

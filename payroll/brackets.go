/*
brackets.go - Progressive federal income tax from a bracket table

PURPOSE:
  Computes annual federal withholding from an ordered bracket table. Each row
  carries the cumulative tax owed at its floor, so the lookup is a single
  scan plus one multiply: tax = cumulativeAtFloor + (income - floor) * rate.

TABLE CONTRACT:
  Rows are ordered by floor, cover [0, +inf) with no gaps, and the final row
  is open-ended (its ceiling is ignored). Tables are configuration data and
  live in the taxdata package, versioned by year.

GUARANTEES:
  - Monotonic non-decreasing tax in income
  - Deterministic, O(number of brackets)
  - Taxable income floors at zero after deductions

Exempt employees never reach this code; the caller skips it.
*/
package payroll

import "github.com/shopspring/decimal"

// TaxBracket is one row of a progressive bracket table.
type TaxBracket struct {
	Floor             decimal.Decimal
	Ceiling           decimal.Decimal // ignored on the final, open-ended row
	CumulativeAtFloor decimal.Decimal // total tax owed on income equal to Floor
	Rate              decimal.Decimal // marginal rate within [Floor, Ceiling)
}

// TaxBracketEngine evaluates annual withholding against versioned tax
// configuration.
type TaxBracketEngine struct {
	Config *TaxConfig
}

// TaxOnAnnualIncome returns the tax owed on annualized taxable income
// (after deductions) for a filing status. Negative input is treated as zero.
func (e *TaxBracketEngine) TaxOnAnnualIncome(taxable decimal.Decimal, filing FilingStatus) decimal.Decimal {
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	table := e.Config.BracketsFor(filing)
	if len(table) == 0 {
		return decimal.Zero
	}

	// Locate the bracket whose [floor, ceiling) contains the income; income
	// beyond every finite ceiling lands in the final open-ended row.
	bracket := table[len(table)-1]
	for i, b := range table {
		last := i == len(table)-1
		if last || taxable.LessThan(b.Ceiling) {
			bracket = b
			break
		}
	}

	return bracket.CumulativeAtFloor.Add(taxable.Sub(bracket.Floor).Mul(bracket.Rate))
}

// AnnualWithholding applies the standard deduction and allowance-based
// deduction to annualized gross income, then evaluates the bracket table.
func (e *TaxBracketEngine) AnnualWithholding(annualGross decimal.Decimal, w Withholding) decimal.Decimal {
	taxable := annualGross.
		Sub(e.Config.StandardDeductionFor(w.FilingStatus)).
		Sub(e.Config.AllowanceAmount.Mul(decimal.NewFromInt(int64(w.Allowances))))
	return e.TaxOnAnnualIncome(taxable, w.FilingStatus)
}

// =============================================================================
// TAX CONFIG - Versioned data, not logic
// =============================================================================

// TaxConfig bundles every jurisdiction/year-dependent number the engine
// needs. Concrete values are constructed in the taxdata package.
type TaxConfig struct {
	Year int

	Brackets          map[FilingStatus][]TaxBracket
	StandardDeduction map[FilingStatus]decimal.Decimal
	AllowanceAmount   decimal.Decimal

	SocialSecurityWageBase decimal.Decimal
	SocialSecurityRate     decimal.Decimal

	MedicareRate                decimal.Decimal
	AdditionalMedicareRate      decimal.Decimal
	AdditionalMedicareThreshold decimal.Decimal

	// Employer-side unemployment taxes. Federal uses the reduced effective
	// rate (assuming full state credit); state defaults are configurable.
	FederalUnemploymentWageBase decimal.Decimal
	FederalUnemploymentRate     decimal.Decimal
	StateUnemploymentWageBase   decimal.Decimal
	StateUnemploymentRate       decimal.Decimal
}

// BracketsFor returns the bracket table for a filing status, falling back to
// SINGLE when the status has no table of its own.
func (c *TaxConfig) BracketsFor(filing FilingStatus) []TaxBracket {
	if t, ok := c.Brackets[filing]; ok {
		return t
	}
	return c.Brackets[FilingSingle]
}

// StandardDeductionFor mirrors BracketsFor for the standard deduction.
func (c *TaxConfig) StandardDeductionFor(filing FilingStatus) decimal.Decimal {
	if d, ok := c.StandardDeduction[filing]; ok {
		return d
	}
	return c.StandardDeduction[FilingSingle]
}

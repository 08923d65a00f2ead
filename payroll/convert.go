package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// PAY PERIOD CONVERTER - Annualization and periodization by frequency
// =============================================================================

// PeriodsPerYear returns the fixed multiplier for a frequency.
func (f PayFrequency) PeriodsPerYear() decimal.Decimal {
	switch f {
	case FreqWeekly:
		return decimal.NewFromInt(52)
	case FreqBiweekly:
		return decimal.NewFromInt(26)
	case FreqSemiMonthly:
		return decimal.NewFromInt(24)
	case FreqMonthly:
		return decimal.NewFromInt(12)
	default:
		// Unknown frequencies behave as monthly, the widest bucket.
		return decimal.NewFromInt(12)
	}
}

// Annualize converts a per-period amount to its annual equivalent.
func Annualize(periodAmount decimal.Decimal, f PayFrequency) decimal.Decimal {
	return periodAmount.Mul(f.PeriodsPerYear())
}

// Periodize converts an annual amount to a per-period equivalent.
func Periodize(annualAmount decimal.Decimal, f PayFrequency) decimal.Decimal {
	return annualAmount.Div(f.PeriodsPerYear())
}

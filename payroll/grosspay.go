package payroll

import "fmt"

// =============================================================================
// GROSS PAY - Per compensation type
// =============================================================================

var (
	overtimeMultiplier   = MustDecimal("1.5")
	doubleTimeMultiplier = MustDecimal("2.0")
)

// GrossPayCalculator computes gross pay for one period, polymorphic over the
// employee's compensation type. Bonuses and commissions are always added on
// top of the computed gross.
type GrossPayCalculator struct{}

// Calculate returns the gross pay breakdown for the period.
//
// HOURLY pays rate x hours with 1.5x overtime and 2.0x double-time.
// WEEKLY/BIWEEKLY/MONTHLY use the stored periodic amount as-is.
// YEARLY prorates the annual salary by the resolved pay frequency.
func (g *GrossPayCalculator) Calculate(emp *Employee, period PayPeriod, input PayInput) (GrossPay, error) {
	gross := GrossPay{
		Bonuses:     input.Bonuses,
		Commissions: input.Commissions,
	}

	switch emp.CompensationType {
	case CompHourly:
		gross.BasePay = Cents(emp.Rate.Mul(input.Hours.Regular))
		gross.OvertimePay = Cents(emp.Rate.Mul(overtimeMultiplier).Mul(input.Hours.Overtime))
		gross.DoubleTimePay = Cents(emp.Rate.Mul(doubleTimeMultiplier).Mul(input.Hours.DoubleTime))

	case CompWeekly, CompBiweekly, CompMonthly:
		// Fixed-period salary: no proration against the period's day span.
		gross.BasePay = Cents(emp.Rate)

	case CompYearly:
		gross.BasePay = Cents(Periodize(emp.Rate, FrequencyFor(emp, period)))

	default:
		// Ambiguous compensation data must fail loudly rather than guess.
		return GrossPay{}, fmt.Errorf("employee %s: unknown compensation type %q", emp.ID, emp.CompensationType)
	}

	gross.Total = gross.BasePay.
		Add(gross.OvertimePay).
		Add(gross.DoubleTimePay).
		Add(gross.Bonuses).
		Add(gross.Commissions)
	return gross, nil
}

package payroll_test

import (
	"testing"

	"github.com/warp/payroll-engine/payroll"
)

func TestPeriodsPerYear(t *testing.T) {
	cases := []struct {
		freq payroll.PayFrequency
		want string
	}{
		{payroll.FreqWeekly, "52"},
		{payroll.FreqBiweekly, "26"},
		{payroll.FreqSemiMonthly, "24"},
		{payroll.FreqMonthly, "12"},
		{payroll.PayFrequency("QUARTERLY"), "12"}, // unknown acts as monthly
	}
	for _, c := range cases {
		assertDecimal(t, dec(c.want), c.freq.PeriodsPerYear(), string(c.freq))
	}
}

func TestAnnualizePeriodize_RoundTrip(t *testing.T) {
	// Cent-precision amounts divide exactly by every period count, so the
	// round trip is the identity.
	freqs := []payroll.PayFrequency{
		payroll.FreqWeekly, payroll.FreqBiweekly, payroll.FreqSemiMonthly, payroll.FreqMonthly,
	}
	for _, f := range freqs {
		for _, amount := range []string{"3000", "1234.56", "0"} {
			a := dec(amount)
			back := payroll.Periodize(payroll.Annualize(a, f), f)
			assertDecimal(t, a, back, string(f)+" round trip of "+amount)
		}
	}
}

func TestAnnualize_Biweekly(t *testing.T) {
	assertDecimal(t, dec("78000"), payroll.Annualize(dec("3000"), payroll.FreqBiweekly), "3000 biweekly")
}

func TestPeriodize_Yearly(t *testing.T) {
	assertDecimal(t, dec("2000"), payroll.Periodize(dec("52000"), payroll.FreqBiweekly), "52000 / 26")
	assertDecimal(t, dec("1000"), payroll.Periodize(dec("52000"), payroll.FreqWeekly), "52000 / 52")
}

package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/taxdata"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func engine2024() *payroll.TaxBracketEngine {
	return &payroll.TaxBracketEngine{Config: taxdata.US2024()}
}

func dec(s string) decimal.Decimal { return payroll.MustDecimal(s) }

func assertDecimal(t *testing.T, want, got decimal.Decimal, msg string) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s: want %s, got %s", msg, want, got)
	}
}

// =============================================================================
// BRACKET TABLE TESTS
// =============================================================================

func TestTaxOnAnnualIncome_ZeroAndNegative(t *testing.T) {
	e := engine2024()

	assertDecimal(t, decimal.Zero, e.TaxOnAnnualIncome(decimal.Zero, payroll.FilingSingle), "zero income")
	assertDecimal(t, decimal.Zero, e.TaxOnAnnualIncome(dec("-5000"), payroll.FilingSingle), "negative income")
}

func TestTaxOnAnnualIncome_FirstBracket(t *testing.T) {
	e := engine2024()

	// 10% flat within the first bracket
	assertDecimal(t, dec("1000"), e.TaxOnAnnualIncome(dec("10000"), payroll.FilingSingle), "10k single")
}

func TestTaxOnAnnualIncome_MiddleBracket(t *testing.T) {
	e := engine2024()

	// 1160 + 4266 at the 22% floor, plus (50000-47150)*0.22 = 627
	assertDecimal(t, dec("6053"), e.TaxOnAnnualIncome(dec("50000"), payroll.FilingSingle), "50k single")
}

func TestTaxOnAnnualIncome_TopBracket(t *testing.T) {
	e := engine2024()

	// The final row is open-ended; income far beyond every ceiling still works.
	got := e.TaxOnAnnualIncome(dec("1000000"), payroll.FilingSingle)
	if !got.GreaterThan(dec("300000")) {
		t.Errorf("1M single: expected top-bracket tax, got %s", got)
	}
}

func TestTaxOnAnnualIncome_ContinuousAtBoundaries(t *testing.T) {
	// GIVEN: Incomes one cent either side of each bracket boundary
	// THEN: The tax difference is at most one cent times the marginal rate
	e := engine2024()
	cfg := taxdata.US2024()

	for filing, table := range cfg.Brackets {
		for _, b := range table[1:] {
			below := e.TaxOnAnnualIncome(b.Floor.Sub(dec("0.01")), filing)
			at := e.TaxOnAnnualIncome(b.Floor, filing)
			diff := at.Sub(below)
			if diff.IsNegative() || diff.GreaterThan(dec("0.01")) {
				t.Errorf("%s: discontinuity at floor %s: below=%s at=%s", filing, b.Floor, below, at)
			}
		}
	}
}

func TestTaxOnAnnualIncome_Monotonic(t *testing.T) {
	e := engine2024()

	prev := decimal.Zero
	for _, income := range []string{"0", "11600", "20000", "47150", "100525", "191950", "243725", "609350", "700000"} {
		tax := e.TaxOnAnnualIncome(dec(income), payroll.FilingSingle)
		if tax.LessThan(prev) {
			t.Errorf("tax decreased at income %s: %s < %s", income, tax, prev)
		}
		prev = tax
	}
}

func TestTaxOnAnnualIncome_UnknownFilingFallsBackToSingle(t *testing.T) {
	e := engine2024()

	got := e.TaxOnAnnualIncome(dec("50000"), payroll.FilingStatus("QUALIFYING_WIDOW"))
	want := e.TaxOnAnnualIncome(dec("50000"), payroll.FilingSingle)
	assertDecimal(t, want, got, "unknown filing status")
}

// =============================================================================
// ANNUAL WITHHOLDING TESTS
// =============================================================================

func TestAnnualWithholding_StandardDeduction(t *testing.T) {
	e := engine2024()

	// 60000 - 14600 = 45400 taxable: 1160 + (45400-11600)*0.12 = 5216
	got := e.AnnualWithholding(dec("60000"), payroll.Withholding{FilingStatus: payroll.FilingSingle})
	assertDecimal(t, dec("5216"), got, "60k single, no allowances")
}

func TestAnnualWithholding_AllowancesReduceTaxable(t *testing.T) {
	e := engine2024()

	none := e.AnnualWithholding(dec("60000"), payroll.Withholding{FilingStatus: payroll.FilingSingle})
	two := e.AnnualWithholding(dec("60000"), payroll.Withholding{FilingStatus: payroll.FilingSingle, Allowances: 2})

	// Two allowances remove 8600 of taxable income, all inside the 12% bracket.
	assertDecimal(t, none.Sub(dec("1032")), two, "two allowances")
}

func TestAnnualWithholding_DeductionsFloorAtZero(t *testing.T) {
	e := engine2024()

	got := e.AnnualWithholding(dec("10000"), payroll.Withholding{FilingStatus: payroll.FilingSingle, Allowances: 5})
	assertDecimal(t, decimal.Zero, got, "income below deductions")
}

func TestAnnualWithholding_MarriedJointUsesOwnTable(t *testing.T) {
	e := engine2024()

	single := e.AnnualWithholding(dec("80000"), payroll.Withholding{FilingStatus: payroll.FilingSingle})
	married := e.AnnualWithholding(dec("80000"), payroll.Withholding{FilingStatus: payroll.FilingMarriedJoint})
	if !married.LessThan(single) {
		t.Errorf("married joint should owe less than single on the same income: %s vs %s", married, single)
	}
}

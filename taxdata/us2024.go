package taxdata

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// US2024 returns the United States federal payroll configuration for tax
// year 2024. State unemployment defaults to a common new-employer setup and
// can be overridden after construction.
func US2024() *payroll.TaxConfig {
	return &payroll.TaxConfig{
		Year: 2024,

		Brackets: map[payroll.FilingStatus][]payroll.TaxBracket{
			payroll.FilingSingle: table(
				row{"0", "11600", "0.10"},
				row{"11600", "47150", "0.12"},
				row{"47150", "100525", "0.22"},
				row{"100525", "191950", "0.24"},
				row{"191950", "243725", "0.32"},
				row{"243725", "609350", "0.35"},
				row{"609350", "", "0.37"},
			),
			payroll.FilingMarriedJoint: table(
				row{"0", "23200", "0.10"},
				row{"23200", "94300", "0.12"},
				row{"94300", "201050", "0.22"},
				row{"201050", "383900", "0.24"},
				row{"383900", "487450", "0.32"},
				row{"487450", "731200", "0.35"},
				row{"731200", "", "0.37"},
			),
			payroll.FilingHeadOfHousehold: table(
				row{"0", "16550", "0.10"},
				row{"16550", "63100", "0.12"},
				row{"63100", "100500", "0.22"},
				row{"100500", "191950", "0.24"},
				row{"191950", "243700", "0.32"},
				row{"243700", "609350", "0.35"},
				row{"609350", "", "0.37"},
			),
		},

		StandardDeduction: map[payroll.FilingStatus]decimal.Decimal{
			payroll.FilingSingle:          d("14600"),
			payroll.FilingMarriedJoint:    d("29200"),
			payroll.FilingHeadOfHousehold: d("21900"),
		},
		AllowanceAmount: d("4300"),

		SocialSecurityWageBase: d("168600"),
		SocialSecurityRate:     d("0.062"),

		MedicareRate:                d("0.0145"),
		AdditionalMedicareRate:      d("0.009"),
		AdditionalMedicareThreshold: d("200000"),

		// Effective FUTA rate assuming the full state credit.
		FederalUnemploymentWageBase: d("7000"),
		FederalUnemploymentRate:     d("0.006"),

		StateUnemploymentWageBase: d("7000"),
		StateUnemploymentRate:     d("0.027"),
	}
}

/*
Package taxdata holds versioned tax configuration: bracket tables, standard
deductions, wage bases, and rates, keyed by year.

This package is DATA, not logic. The payroll engine never hardcodes a tax
number; everything jurisdiction- or year-dependent is constructed here so a
new tax year is a new constructor, not a code change in the engine.

Bracket rows are written as (floor, ceiling, rate); the cumulative tax at
each floor is derived by the table builder so the numbers cannot drift out
of sync with each other.
*/
package taxdata

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// row is the human-maintained shape of one bracket.
type row struct {
	floor   string
	ceiling string // "" on the final, open-ended row
	rate    string
}

// table derives cumulative-at-floor values and builds the engine's shape.
func table(rows ...row) []payroll.TaxBracket {
	out := make([]payroll.TaxBracket, len(rows))
	cumulative := decimal.Zero
	for i, r := range rows {
		floor := payroll.MustDecimal(r.floor)
		rate := payroll.MustDecimal(r.rate)
		ceiling := decimal.Zero
		if r.ceiling != "" {
			ceiling = payroll.MustDecimal(r.ceiling)
		}
		out[i] = payroll.TaxBracket{
			Floor:             floor,
			Ceiling:           ceiling,
			CumulativeAtFloor: cumulative,
			Rate:              rate,
		}
		if r.ceiling != "" {
			cumulative = cumulative.Add(ceiling.Sub(floor).Mul(rate))
		}
	}
	return out
}

func d(s string) decimal.Decimal { return payroll.MustDecimal(s) }

/*
finance.go - Financial primitives

PURPOSE:
  Pure functions over decimals: ROI, payback, savings percentage and the
  two trend classifiers. No I/O, no clock.

ZERO DIVISORS:
  Nothing here returns an error. A ratio whose divisor is not positive
  degrades to 0; a payback that never happens is Unbounded.
*/
package finance

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// ROI annualizes one month of savings plus revenue against the investment,
// as a percentage. Returns 0 when investment <= 0.
func ROI(investment, monthlySavings, monthlyRevenue decimal.Decimal) decimal.Decimal {
	if !investment.IsPositive() {
		return decimal.Zero
	}
	annual := monthlySavings.Add(monthlyRevenue).Mul(twelve)
	return annual.Div(investment).Mul(hundred)
}

// =============================================================================
// PAYBACK
// =============================================================================

// Payback is the number of months until savings plus revenue cover the
// investment. Unbounded payback has Months = +Inf.
type Payback struct {
	Months    float64
	Unbounded bool
}

func NewPayback(investment, monthlySavings, monthlyRevenue decimal.Decimal) Payback {
	monthly := monthlySavings.Add(monthlyRevenue)
	if !monthly.IsPositive() {
		return Payback{Months: math.Inf(1), Unbounded: true}
	}
	months := investment.Div(monthly).InexactFloat64()
	if months < 0 {
		// Nothing left to recover.
		months = 0
	}
	return Payback{Months: months}
}

// MarshalJSON renders an unbounded payback as null.
func (p Payback) MarshalJSON() ([]byte, error) {
	if p.Unbounded {
		return []byte("null"), nil
	}
	return json.Marshal(p.Months)
}

// =============================================================================
// SAVINGS
// =============================================================================

// MonthlySavings is (utility - plant) x kWh. It may be negative.
func MonthlySavings(utilityRate, plantRate, kwh decimal.Decimal) decimal.Decimal {
	return utilityRate.Sub(plantRate).Mul(kwh)
}

// SavingsPercentage is how much cheaper the plant is than the utility, in
// percent of the utility rate. Returns 0 when the utility rate is not positive.
func SavingsPercentage(utilityRate, plantRate decimal.Decimal) decimal.Decimal {
	if !utilityRate.IsPositive() {
		return decimal.Zero
	}
	return utilityRate.Sub(plantRate).Div(utilityRate).Mul(hundred)
}

package finance

import "github.com/shopspring/decimal"

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendImproving  Trend = "improving"
	TrendDeclining  Trend = "declining"
	TrendStable     Trend = "stable"
)

var (
	growthFactor  = decimal.RequireFromString("1.05")
	declineFactor = decimal.RequireFromString("0.95")
	// Efficiency moves are compared in percentage points.
	efficiencyBand = decimal.NewFromInt(2)
)

// halves averages the first n/2 values and the remaining ones.
func halves(values []decimal.Decimal) (first, second decimal.Decimal) {
	mid := len(values) / 2
	return decimal.Avg(values[0], values[1:mid]...), decimal.Avg(values[mid], values[mid+1:]...)
}

// ClassifyProduction compares the later half of chronologically ordered
// values with the earlier half: increasing above +5%, decreasing below -5%.
func ClassifyProduction(values []decimal.Decimal) Trend {
	if len(values) < 2 {
		return TrendStable
	}
	first, second := halves(values)
	switch {
	case second.GreaterThan(first.Mul(growthFactor)):
		return TrendIncreasing
	case second.LessThan(first.Mul(declineFactor)):
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// ClassifyEfficiency is improving or declining when the later half moves
// more than two percentage points.
func ClassifyEfficiency(values []decimal.Decimal) Trend {
	if len(values) < 2 {
		return TrendStable
	}
	first, second := halves(values)
	switch {
	case second.GreaterThan(first.Add(efficiencyBand)):
		return TrendImproving
	case second.LessThan(first.Sub(efficiencyBand)):
		return TrendDeclining
	default:
		return TrendStable
	}
}

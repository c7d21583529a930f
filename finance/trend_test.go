package finance_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/solar-engine/finance"
)

func series(values ...float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.NewFromFloat(v)
	}
	return out
}

func TestClassifyProduction(t *testing.T) {
	tests := []struct {
		name   string
		values []decimal.Decimal
		want   finance.Trend
	}{
		{"rising 10 to 100", series(10, 20, 30, 40, 50, 60, 70, 80, 90, 100), finance.TrendIncreasing},
		{"falling", series(100, 90, 80, 70), finance.TrendDecreasing},
		{"flat", series(50, 50, 50, 50), finance.TrendStable},
		{"within 5 percent", series(100, 100, 104, 104), finance.TrendStable},
		{"exactly 5 percent is stable", series(100, 105), finance.TrendStable},
		{"odd count puts extra in second half", series(10, 10, 10), finance.TrendStable},
		{"two samples", series(10, 20), finance.TrendIncreasing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, finance.ClassifyProduction(tt.values))
		})
	}
}

func TestClassifyEfficiency(t *testing.T) {
	tests := []struct {
		name   string
		values []decimal.Decimal
		want   finance.Trend
	}{
		{"improving", series(80, 80, 83, 83), finance.TrendImproving},
		{"declining", series(80, 80, 77, 77), finance.TrendDeclining},
		{"exactly two points is stable", series(80, 82), finance.TrendStable},
		{"small drift", series(80, 81, 80, 81), finance.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, finance.ClassifyEfficiency(tt.values))
		})
	}
}

func TestClassify_FewerThanTwoSamplesIsStable(t *testing.T) {
	for _, values := range [][]decimal.Decimal{nil, {}, series(0), series(1000)} {
		assert.Equal(t, finance.TrendStable, finance.ClassifyProduction(values))
		assert.Equal(t, finance.TrendStable, finance.ClassifyEfficiency(values))
	}
}

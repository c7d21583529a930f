/*
analytics.go - BI summary and utility comparison

PURPOSE:
  Composes the metrics snapshot with lookback reads into the BI response.
  Introduces no stored state; every figure is recomputed per call.

BI COMPOSITION (period = week|month|quarter|year, default month):
  - lookback start = period.Since(now); samples read oldest first
  - averageDailyKWH   = sum of kWh in [start, now) / days in lookback
  - averageMonthlyKWH = averageDailyKWH * 30
  - production and efficiency trends over the lookback samples
  - active contract count and revenue (sum of MonthlyKWH * PricePerKWH)
  - ROI and payback on (savingsVsUtility, contract revenue)
  - utility comparison on the plant's own resolved rate

  Metrics ROI and BI ROI use different revenue terms: metrics values
  contracted volume at the plant's own cost; BI uses the contract price.

UTILITY COMPARISON:
  Same savings math, but the utility rate comes from an explicit region
  code (region table or default). The plant's override is not applied to
  a preview, and the plant is never written.
*/
package analytics

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/distribution"
	"github.com/warp/solar-engine/finance"
	"github.com/warp/solar-engine/metrics"
	"github.com/warp/solar-engine/production"
	"github.com/warp/solar-engine/rates"
	"github.com/warp/solar-engine/solar"
)

const daysPerMonth = 30

var (
	twelve  = decimal.NewFromInt(12)
	perDay  = decimal.NewFromInt(24)
	monthly = decimal.NewFromInt(daysPerMonth)
)

// Comparison prices the plant against a utility rate.
type Comparison struct {
	State             string
	UtilityCostPerKWH decimal.Decimal
	UtilityRateSource rates.Source
	PlantCostPerKWH   decimal.Decimal
	MonthlyKWH        decimal.Decimal
	MonthlySavings    decimal.Decimal
	YearlySavings     decimal.Decimal
	SavingsPercentage decimal.Decimal
}

// BIMetrics is the BI summary for one period.
type BIMetrics struct {
	TenantID solar.TenantID
	Period   solar.Period
	From     time.Time
	AsOf     time.Time

	ROIPercentage decimal.Decimal
	Payback       finance.Payback

	AverageDailyKWH   decimal.Decimal
	AverageMonthlyKWH decimal.Decimal
	SampleCount       int
	ProductionTrend   finance.Trend
	EfficiencyTrend   finance.Trend

	ActiveContracts int
	ContractRevenue decimal.Decimal

	Utility Comparison
	Metrics *metrics.Metrics
}

type Service struct {
	engine  *metrics.Engine
	samples *production.Ledger
}

func NewService(engine *metrics.Engine, samples *production.Ledger) *Service {
	return &Service{engine: engine, samples: samples}
}

// GetBIMetrics builds the summary for period. Unknown periods are rejected
// with solar.ErrInvalidPeriod before any read.
func (s *Service) GetBIMetrics(ctx context.Context, t solar.TenantID, period string) (*BIMetrics, error) {
	p, err := solar.ParsePeriod(period)
	if err != nil {
		return nil, err
	}

	ctx, err = s.engine.Admit(ctx, t)
	if err != nil {
		return nil, err
	}
	m, err := s.engine.Compute(ctx, t)
	if err != nil {
		return nil, err
	}

	now := m.AsOf
	from := p.Since(now)
	since, err := s.samples.Since(ctx, t, from)
	if err != nil {
		return nil, err
	}
	// Samples stamped after now are not part of the period yet.
	samples := make([]solar.Sample, 0, len(since))
	for _, smp := range since {
		if smp.Timestamp.Before(now) {
			samples = append(samples, smp)
		}
	}

	bi := &BIMetrics{
		TenantID:    t,
		Period:      p,
		From:        from,
		AsOf:        now,
		SampleCount: len(samples),
		Metrics:     m,
	}

	energy := make([]decimal.Decimal, 0, len(samples))
	efficiency := make([]decimal.Decimal, 0, len(samples))
	total := decimal.Zero
	for _, smp := range samples {
		energy = append(energy, smp.EnergyKWH)
		efficiency = append(efficiency, smp.Efficiency)
		total = total.Add(smp.EnergyKWH)
	}
	bi.AverageDailyKWH = averagePerDay(total, from, now)
	bi.AverageMonthlyKWH = bi.AverageDailyKWH.Mul(monthly)
	bi.ProductionTrend = finance.ClassifyProduction(energy)
	bi.EfficiencyTrend = finance.ClassifyEfficiency(efficiency)

	bi.ActiveContracts = len(m.ActiveContracts)
	bi.ContractRevenue = distribution.MonthlyRevenue(m.ActiveContracts)

	investment := m.Plant.TotalInvestment
	bi.ROIPercentage = finance.ROI(investment, m.SavingsVsUtility, bi.ContractRevenue)
	bi.Payback = finance.NewPayback(investment, m.SavingsVsUtility, bi.ContractRevenue)

	bi.Utility = compare(m.Plant.Location.State, m.UtilityCostPerKWH, m.UtilityRateSource, m)
	return bi, nil
}

// GetUtilityComparison previews the plant's savings under state's utility
// rate. An empty state uses the plant's own resolved rate.
func (s *Service) GetUtilityComparison(ctx context.Context, t solar.TenantID, state string) (*Comparison, error) {
	m, err := s.engine.Compute(ctx, t)
	if err != nil {
		return nil, err
	}

	state = strings.ToUpper(strings.TrimSpace(state))
	if state == "" {
		c := compare(m.Plant.Location.State, m.UtilityCostPerKWH, m.UtilityRateSource, m)
		return &c, nil
	}

	rate, found := s.engine.Rates().Lookup(state)
	source := rates.SourceRegion
	if !found {
		source = rates.SourceDefault
	}
	c := compare(state, rate, source, m)
	return &c, nil
}

func compare(state string, utility decimal.Decimal, source rates.Source, m *metrics.Metrics) Comparison {
	savings := finance.MonthlySavings(utility, m.CostPerKWH, m.MonthlyKWH)
	return Comparison{
		State:             state,
		UtilityCostPerKWH: utility,
		UtilityRateSource: source,
		PlantCostPerKWH:   m.CostPerKWH,
		MonthlyKWH:        m.MonthlyKWH,
		MonthlySavings:    savings,
		YearlySavings:     savings.Mul(twelve),
		SavingsPercentage: finance.SavingsPercentage(utility, m.CostPerKWH),
	}
}

// averagePerDay divides total by the lookback length in (fractional) days.
func averagePerDay(total decimal.Decimal, from, to time.Time) decimal.Decimal {
	hours := decimal.NewFromFloat(to.Sub(from).Hours())
	if !hours.IsPositive() {
		return decimal.Zero
	}
	return total.Div(hours.Div(perDay))
}

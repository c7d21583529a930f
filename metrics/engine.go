/*
engine.go - Metrics aggregation engine

PURPOSE:
  Computes a point-in-time operational snapshot for one plant. Nothing is
  persisted: every call re-reads the ledgers.

FORMULAS (for "now" in the engine's clock location):
  currentPowerKW             = PowerKW of the latest sample, 0 if none
  dailyKWH / monthlyKWH / yearlyKWH
                             = SumEnergy over [startOfDay|Month|Year, now)
  efficiencyPercentage       = clamp(currentPower / capacity * 100, 0, 100),
                               0 unless both are positive
  distributionToAssociations = sum of MonthlyKWH over active contracts
  utilityCostPerKWH          = override, else region, else default
  savingsVsUtility           = (utilityCost - cost) * monthlyKWH
  roiPercentage              = ROI(investment, savings,
                                   distributionToAssociations * cost)

  The tenant guard runs once per call; the component reads below it run
  under the admitted context.

  The three window sums are independent reductions. They run concurrently
  and a sample written mid-call may land in some windows and not others.

SEE ALSO:
  - finance/: ROI
  - analytics/: BI composition on top of this snapshot
*/
package metrics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/warp/solar-engine/distribution"
	"github.com/warp/solar-engine/finance"
	"github.com/warp/solar-engine/lifecycle"
	"github.com/warp/solar-engine/production"
	"github.com/warp/solar-engine/rates"
	"github.com/warp/solar-engine/solar"
)

var hundred = decimal.NewFromInt(100)

// Metrics is one computed snapshot.
type Metrics struct {
	TenantID solar.TenantID
	AsOf     time.Time

	CurrentPowerKW       decimal.Decimal
	DailyKWH             decimal.Decimal
	MonthlyKWH           decimal.Decimal
	YearlyKWH            decimal.Decimal
	EfficiencyPercentage decimal.Decimal

	DistributionToAssociations decimal.Decimal
	ActiveContracts            []solar.Contract

	CostPerKWH        decimal.Decimal
	UtilityCostPerKWH decimal.Decimal
	UtilityRateSource rates.Source
	SavingsVsUtility  decimal.Decimal
	ROIPercentage     decimal.Decimal

	CurrentPhase solar.Phase
	Phases       []solar.PhaseRecord
	Equipment    solar.EquipmentStatus

	// Plant is the document the snapshot was computed from.
	Plant *solar.Plant
}

type Engine struct {
	plants    *lifecycle.Manager
	samples   *production.Ledger
	contracts *distribution.Ledger
	rates     *rates.Table
	clock     solar.Clock
}

func NewEngine(plants *lifecycle.Manager, samples *production.Ledger, contracts *distribution.Ledger, table *rates.Table, clock solar.Clock) *Engine {
	if clock == nil {
		clock = solar.SystemClock(time.UTC)
	}
	return &Engine{plants: plants, samples: samples, contracts: contracts, rates: table, clock: clock}
}

// Now is the engine's notion of the current instant.
func (e *Engine) Now() time.Time { return e.clock() }

// Rates exposes the utility-rate table the engine resolves against.
func (e *Engine) Rates() *rates.Table { return e.rates }

// Admit checks the tenant once. Reads made under the returned context skip
// the per-component directory lookup.
func (e *Engine) Admit(ctx context.Context, t solar.TenantID) (context.Context, error) {
	return e.plants.Admit(ctx, t)
}

// Compute builds the snapshot. Returns solar.ErrNotFound when the tenant
// fails the guard or has no plant.
func (e *Engine) Compute(ctx context.Context, t solar.TenantID) (*Metrics, error) {
	ctx, err := e.Admit(ctx, t)
	if err != nil {
		return nil, err
	}

	plant, err := e.plants.GetPlant(ctx, t)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	m := &Metrics{
		TenantID:     t,
		AsOf:         now,
		CostPerKWH:   plant.CostPerKWH,
		CurrentPhase: plant.CurrentPhase,
		Phases:       plant.Phases,
		Plant:        plant,
	}

	g, gctx := errgroup.WithContext(ctx)
	// Each goroutine writes a distinct field; Wait orders the writes before the reads below.
	g.Go(func() error {
		latest, err := e.samples.Latest(gctx, t)
		if err != nil {
			return err
		}
		m.CurrentPowerKW = decimal.Zero
		if latest != nil {
			m.CurrentPowerKW = latest.PowerKW
		}
		return nil
	})
	windows := []struct {
		w   solar.Window
		dst *decimal.Decimal
	}{
		{solar.Today(now), &m.DailyKWH},
		{solar.MonthToDate(now), &m.MonthlyKWH},
		{solar.YearToDate(now), &m.YearlyKWH},
	}
	for _, win := range windows {
		g.Go(func() error {
			sum, err := e.samples.SumEnergy(gctx, t, win.w.From, win.w.To)
			if err != nil {
				return err
			}
			*win.dst = sum
			return nil
		})
	}
	g.Go(func() error {
		active, err := e.contracts.ListActive(gctx, t)
		if err != nil {
			return err
		}
		m.ActiveContracts = active
		return nil
	})
	g.Go(func() error {
		eq, err := e.plants.Equipment(gctx, t)
		if err != nil {
			return err
		}
		m.Equipment = *eq
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.EfficiencyPercentage = Efficiency(m.CurrentPowerKW, plant.CapacityKW)
	m.DistributionToAssociations = distribution.MonthlyVolume(m.ActiveContracts)
	m.UtilityCostPerKWH, m.UtilityRateSource = e.rates.Resolve(plant)
	m.SavingsVsUtility = finance.MonthlySavings(m.UtilityCostPerKWH, plant.CostPerKWH, m.MonthlyKWH)
	m.ROIPercentage = finance.ROI(
		plant.TotalInvestment,
		m.SavingsVsUtility,
		m.DistributionToAssociations.Mul(plant.CostPerKWH),
	)
	return m, nil
}

// Efficiency is power over capacity as a percentage, clamped to [0, 100].
func Efficiency(powerKW, capacityKW decimal.Decimal) decimal.Decimal {
	if !powerKW.IsPositive() || !capacityKW.IsPositive() {
		return decimal.Zero
	}
	pct := powerKW.Div(capacityKW).Mul(hundred)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

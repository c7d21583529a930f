package demo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/solar-engine/analytics"
	"github.com/warp/solar-engine/demo"
	"github.com/warp/solar-engine/distribution"
	"github.com/warp/solar-engine/finance"
	"github.com/warp/solar-engine/lifecycle"
	"github.com/warp/solar-engine/metrics"
	"github.com/warp/solar-engine/production"
	"github.com/warp/solar-engine/rates"
	"github.com/warp/solar-engine/solar"
	"github.com/warp/solar-engine/store/memory"
	"github.com/warp/solar-engine/tenant"
)

var now = time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)

type fixture struct {
	loader    *demo.Loader
	plants    *lifecycle.Manager
	contracts *distribution.Ledger
	bi        *analytics.Service
}

func newFixture() *fixture {
	store := memory.New()
	clock := solar.FixedClock(now)
	guard := tenant.NewGuard(store, "")
	plants := lifecycle.NewManager(guard, store, lifecycle.WithClock(clock))
	samples := production.NewLedger(guard, store, production.WithClock(clock))
	contracts := distribution.NewLedger(guard, store, clock)
	engine := metrics.NewEngine(plants, samples, contracts, rates.NewTable(0.75, map[string]float64{"CE": 0.65}), clock)
	return &fixture{
		loader:    demo.NewLoader(store, plants, samples, contracts, clock),
		plants:    plants,
		contracts: contracts,
		bi:        analytics.NewService(engine, samples),
	}
}

func TestScenarios_AllLoad(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	for _, s := range demo.Scenarios() {
		t.Run(s.ID, func(t *testing.T) {
			tenantID, err := f.loader.Load(ctx, s.ID)
			require.NoError(t, err)
			assert.Equal(t, demo.TenantFor(s.ID), tenantID)

			plant, err := f.plants.GetPlant(ctx, tenantID)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, plant.ActivePhase(), 0, "plant has an active phase")
		})
	}
}

func TestScenario_OperatingPlantWalksAllPhases(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	tenantID, err := f.loader.Load(ctx, "operating-plant")
	require.NoError(t, err)

	plant, err := f.plants.GetPlant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, solar.PhaseOperation, plant.CurrentPhase)
	require.Len(t, plant.Phases, len(solar.Phases))
	for _, r := range plant.Phases[:len(plant.Phases)-1] {
		assert.Equal(t, solar.PhaseCompleted, r.Status)
	}
}

func TestScenario_ReloadStartsFresh(t *testing.T) {
	// GIVEN: A loaded association-hub scenario
	// WHEN: Loading it again
	// THEN: Contracts are not duplicated

	ctx := context.Background()
	f := newFixture()

	_, err := f.loader.Load(ctx, "association-hub")
	require.NoError(t, err)
	tenantID, err := f.loader.Load(ctx, "association-hub")
	require.NoError(t, err)

	all, err := f.contracts.List(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	active, err := f.contracts.ListActive(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestScenario_RampUpTrends(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	tenantID, err := f.loader.Load(ctx, "ramp-up")
	require.NoError(t, err)

	bi, err := f.bi.GetBIMetrics(ctx, tenantID, "quarter")
	require.NoError(t, err)
	assert.Equal(t, finance.TrendIncreasing, bi.ProductionTrend)
	assert.Equal(t, finance.TrendImproving, bi.EfficiencyTrend)
	assert.False(t, bi.Payback.Unbounded)
}

func TestScenario_Unknown(t *testing.T) {
	_, err := newFixture().loader.Load(context.Background(), "moon-base")
	assert.ErrorIs(t, err, solar.ErrInvalidValue)
}

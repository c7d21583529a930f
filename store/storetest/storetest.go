// Package storetest is the conformance suite every solar.Store
// implementation runs from its own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/solar-engine/solar"
)

// Store is the surface under test: the engine's store plus directory writes.
type Store interface {
	solar.Store
	SaveUnit(ctx context.Context, u solar.Unit) error
}

var base = time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)

// Run executes the suite; newStore must return an empty store per call.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("Units", func(t *testing.T) { testUnits(t, newStore(t)) })
	t.Run("PlantRoundTrip", func(t *testing.T) { testPlantRoundTrip(t, newStore(t)) })
	t.Run("OptimisticSave", func(t *testing.T) { testOptimisticSave(t, newStore(t)) })
	t.Run("Equipment", func(t *testing.T) { testEquipment(t, newStore(t)) })
	t.Run("Samples", func(t *testing.T) { testSamples(t, newStore(t)) })
	t.Run("Contracts", func(t *testing.T) { testContracts(t, newStore(t)) })
	t.Run("DeleteCascade", func(t *testing.T) { testDeleteCascade(t, newStore(t)) })
}

func newPlant(tenant solar.TenantID) solar.Plant {
	installed := base.AddDate(-1, 0, 0)
	override := decimal.RequireFromString("0.71")
	return solar.Plant{
		TenantID:         tenant,
		Name:             "Usina " + string(tenant),
		CapacityKW:       decimal.RequireFromString("100.5"),
		AreaM2:           decimal.NewFromInt(800),
		InstallationDate: &installed,
		CurrentPhase:     solar.PhasePlanning,
		Phases: []solar.PhaseRecord{
			{Phase: solar.PhasePlanning, Status: solar.PhaseInProgress, StartedAt: base, Notes: "kickoff"},
			{Phase: solar.PhaseLicensing, Status: solar.PhasePending, StartedAt: base},
		},
		TotalInvestment:   decimal.NewFromInt(500000),
		CostPerKWH:        decimal.RequireFromString("0.30"),
		UtilityCostPerKWH: &override,
		Location:          solar.Location{Latitude: -3.73, Longitude: -38.52, City: "Fortaleza", State: "CE"},
		Version:           1,
		CreatedAt:         base,
		UpdatedAt:         base,
	}
}

func insertPlant(t *testing.T, s Store, tenant solar.TenantID) solar.Plant {
	t.Helper()
	p := newPlant(tenant)
	require.NoError(t, s.InsertPlant(context.Background(), p, solar.DefaultEquipment(tenant, 200, base)))
	return p
}

func sample(tenant solar.TenantID, id string, at time.Time, kwh string) solar.Sample {
	return solar.Sample{
		ID:         id,
		TenantID:   tenant,
		Timestamp:  at,
		PowerKW:    decimal.RequireFromString(kwh),
		EnergyKWH:  decimal.RequireFromString(kwh),
		Efficiency: decimal.NewFromInt(80),
	}
}

func ids(samples []solar.Sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.ID
	}
	return out
}

// =============================================================================
// CASES
// =============================================================================

func testUnits(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.GetUnit(ctx, "nobody")
	assert.ErrorIs(t, err, solar.ErrNotFound)

	require.NoError(t, s.SaveUnit(ctx, solar.Unit{ID: "u1", Name: "One", Segments: []string{"retail"}}))
	require.NoError(t, s.SaveUnit(ctx, solar.Unit{ID: "u1", Name: "One", Segments: []string{"retail", "solar"}}))

	u, err := s.GetUnit(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "One", u.Name)
	assert.Equal(t, []string{"retail", "solar"}, u.Segments)
}

func testPlantRoundTrip(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.GetPlant(ctx, "t1")
	assert.ErrorIs(t, err, solar.ErrNotFound)

	want := insertPlant(t, s, "t1")
	got, err := s.GetPlant(ctx, "t1")
	require.NoError(t, err)

	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, 1, got.Version)
	assert.True(t, want.CapacityKW.Equal(got.CapacityKW))
	assert.True(t, want.CostPerKWH.Equal(got.CostPerKWH))
	require.NotNil(t, got.UtilityCostPerKWH)
	assert.Equal(t, "0.71", got.UtilityCostPerKWH.String())
	require.NotNil(t, got.InstallationDate)
	assert.True(t, want.InstallationDate.Equal(*got.InstallationDate))
	assert.Equal(t, want.Location, got.Location)
	assert.Equal(t, solar.PhasePlanning, got.CurrentPhase)
	require.Len(t, got.Phases, 2)
	assert.Equal(t, solar.PhaseInProgress, got.Phases[0].Status)
	assert.Equal(t, "kickoff", got.Phases[0].Notes)
	assert.True(t, base.Equal(got.Phases[0].StartedAt))
	assert.Equal(t, solar.PhasePending, got.Phases[1].Status)

	err = s.InsertPlant(ctx, newPlant("t1"), solar.DefaultEquipment("t1", 1, base))
	assert.ErrorIs(t, err, solar.ErrConflict)
}

func testOptimisticSave(t *testing.T, s Store) {
	ctx := context.Background()
	insertPlant(t, s, "t1")

	p, err := s.GetPlant(ctx, "t1")
	require.NoError(t, err)
	stale := p.Clone()

	p.Name = "Renamed"
	saved, err := s.SavePlant(ctx, *p)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)

	stale.Name = "Lost update"
	_, err = s.SavePlant(ctx, stale)
	assert.ErrorIs(t, err, solar.ErrConcurrentModification)

	got, err := s.GetPlant(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, 2, got.Version)

	_, err = s.SavePlant(ctx, newPlant("ghost"))
	assert.ErrorIs(t, err, solar.ErrNotFound)
}

func testEquipment(t *testing.T, s Store) {
	ctx := context.Background()
	insertPlant(t, s, "t1")

	eq, err := s.GetEquipment(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, solar.StateOperational, eq.Inverters)
	assert.Equal(t, 200, eq.ActivePanels)

	eq.Inverters = solar.StateFault
	eq.ActivePanels = 150
	eq.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.SaveEquipment(ctx, *eq))

	got, err := s.GetEquipment(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, solar.StateFault, got.Inverters)
	assert.Equal(t, 150, got.ActivePanels)
	assert.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))

	_, err = s.GetEquipment(ctx, "nobody")
	assert.ErrorIs(t, err, solar.ErrNotFound)
}

func testSamples(t *testing.T, s Store) {
	// GIVEN: Samples appended out of order, two sharing a timestamp
	// WHEN: Reading them back
	// THEN: Ranges are inclusive, sums half-open, ties keep arrival order

	ctx := context.Background()

	latest, err := s.LatestSample(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	h := func(n int) time.Time { return base.Add(time.Duration(n) * time.Hour) }
	for _, smp := range []solar.Sample{
		sample("t1", "c", h(2), "3"),
		sample("t1", "a", h(0), "1"),
		sample("t1", "b", h(1), "2"),
		sample("t1", "d", h(2), "4"),
		sample("t2", "x", h(1), "100"),
	} {
		require.NoError(t, s.AppendSample(ctx, smp))
	}
	withWeather := sample("t1", "e", h(3), "5")
	withWeather.Weather = &solar.Weather{TemperatureC: 31.5, Irradiance: 900, CloudCover: 10}
	require.NoError(t, s.AppendSample(ctx, withWeather))

	all, err := s.LoadSamples(ctx, "t1", solar.SampleQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, ids(all))
	require.NotNil(t, all[0].Weather)
	assert.Equal(t, 31.5, all[0].Weather.TemperatureC)
	assert.Nil(t, all[1].Weather)

	asc, err := s.LoadSamples(ctx, "t1", solar.SampleQuery{Ascending: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(asc))

	from, to := h(1), h(2)
	ranged, err := s.LoadSamples(ctx, "t1", solar.SampleQuery{From: &from, To: &to})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, ids(ranged))

	limited, err := s.LoadSamples(ctx, "t1", solar.SampleQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d"}, ids(limited))

	sum, err := s.SumEnergy(ctx, "t1", h(1), h(3))
	require.NoError(t, err)
	assert.Equal(t, "9", sum.String(), "2 + 3 + 4; the sample at the end bound is excluded")

	latest, err = s.LatestSample(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "e", latest.ID)
	assert.True(t, h(3).Equal(latest.Timestamp))

	other, err := s.LoadSamples(ctx, "t2", solar.SampleQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids(other))
}

func testContracts(t *testing.T, s Store) {
	ctx := context.Background()

	end := base.AddDate(1, 0, 0)
	for i, c := range []solar.Contract{
		{ID: "k1", Counterparty: "Associação A", Status: solar.ContractActive, EndDate: &end},
		{ID: "k2", Counterparty: "Cooperativa B", CounterpartyID: "coop-b", Status: solar.ContractPending},
	} {
		c.TenantID = "t1"
		c.StartDate = base
		c.MonthlyKWH = decimal.NewFromInt(500)
		c.PricePerKWH = decimal.RequireFromString("0.25")
		c.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		c.UpdatedAt = c.CreatedAt
		require.NoError(t, s.InsertContract(ctx, c))
	}

	all, err := s.ListContracts(ctx, "t1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "k1", all[0].ID)
	require.NotNil(t, all[0].EndDate)
	assert.True(t, end.Equal(*all[0].EndDate))
	assert.Equal(t, "coop-b", all[1].CounterpartyID)

	active, err := s.ListContracts(ctx, "t1", solar.ContractActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "0.25", active[0].PricePerKWH.String())

	c, err := s.GetContract(ctx, "t1", "k2")
	require.NoError(t, err)
	c.Status = solar.ContractActive
	require.NoError(t, s.UpdateContract(ctx, *c))

	active, err = s.ListContracts(ctx, "t1", solar.ContractActive)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	_, err = s.GetContract(ctx, "t2", "k1")
	assert.ErrorIs(t, err, solar.ErrNotFound, "contracts are tenant scoped")

	err = s.UpdateContract(ctx, solar.Contract{ID: "missing", TenantID: "t1", Status: solar.ContractActive})
	assert.ErrorIs(t, err, solar.ErrNotFound)
}

func testDeleteCascade(t *testing.T, s Store) {
	ctx := context.Background()
	for _, tenant := range []solar.TenantID{"t1", "t2"} {
		insertPlant(t, s, tenant)
		require.NoError(t, s.AppendSample(ctx, sample(tenant, string(tenant)+"-s", base, "1")))
		require.NoError(t, s.InsertContract(ctx, solar.Contract{
			ID: string(tenant) + "-c", TenantID: tenant, Counterparty: "A",
			StartDate: base, Status: solar.ContractActive, CreatedAt: base, UpdatedAt: base,
		}))
	}

	require.NoError(t, s.DeletePlant(ctx, "t1"))

	_, err := s.GetPlant(ctx, "t1")
	assert.ErrorIs(t, err, solar.ErrNotFound)
	_, err = s.GetEquipment(ctx, "t1")
	assert.ErrorIs(t, err, solar.ErrNotFound)
	samples, err := s.LoadSamples(ctx, "t1", solar.SampleQuery{})
	require.NoError(t, err)
	assert.Empty(t, samples)
	contracts, err := s.ListContracts(ctx, "t1", "")
	require.NoError(t, err)
	assert.Empty(t, contracts)

	samples, err = s.LoadSamples(ctx, "t2", solar.SampleQuery{})
	require.NoError(t, err)
	assert.Len(t, samples, 1, "other tenants are untouched")

	assert.ErrorIs(t, s.DeletePlant(ctx, "t1"), solar.ErrNotFound)

	// The tenant can start over.
	insertPlant(t, s, "t1")
}

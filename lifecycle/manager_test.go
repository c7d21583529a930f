package lifecycle_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/solar-engine/lifecycle"
	"github.com/warp/solar-engine/solar"
	"github.com/warp/solar-engine/store/memory"
	"github.com/warp/solar-engine/tenant"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var t0 = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// steppingClock advances one minute per call so phase timestamps differ.
func steppingClock() solar.Clock {
	now := t0
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

type recordingPurger struct{ purged []solar.TenantID }

func (r *recordingPurger) Purge(_ context.Context, t solar.TenantID) error {
	r.purged = append(r.purged, t)
	return nil
}

func newManager(t *testing.T, opts ...lifecycle.Option) (*lifecycle.Manager, *memory.Memory) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.SaveUnit(context.Background(), solar.Unit{ID: "unit-1", Segments: []string{"solar"}}))
	require.NoError(t, store.SaveUnit(context.Background(), solar.Unit{ID: "unit-retail", Segments: []string{"retail"}}))
	opts = append([]lifecycle.Option{lifecycle.WithClock(steppingClock())}, opts...)
	return lifecycle.NewManager(tenant.NewGuard(store, ""), store, opts...), store
}

func defaultAttrs() lifecycle.PlantAttrs {
	return lifecycle.PlantAttrs{
		Name:            "Usina Fortaleza",
		CapacityKW:      decimal.NewFromInt(100),
		TotalInvestment: decimal.NewFromInt(500000),
		CostPerKWH:      decimal.RequireFromString("0.30"),
		Location:        solar.Location{State: "CE"},
		TotalPanels:     200,
	}
}

func countInProgress(p *solar.Plant) int {
	n := 0
	for _, r := range p.Phases {
		if r.Status == solar.PhaseInProgress {
			n++
		}
	}
	return n
}

// =============================================================================
// CREATE / GET / UPDATE / DELETE
// =============================================================================

func TestCreatePlant_SeedsPlanningAndEquipment(t *testing.T) {
	// GIVEN: An entitled tenant with no plant
	// WHEN: Creating a plant without a declared phase
	// THEN: One planning record is in progress and equipment is operational

	ctx := context.Background()
	m, _ := newManager(t)

	plant, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	assert.Equal(t, solar.PhasePlanning, plant.CurrentPhase)
	require.Len(t, plant.Phases, 1)
	assert.Equal(t, solar.PhaseInProgress, plant.Phases[0].Status)
	assert.Nil(t, plant.Phases[0].EndedAt)

	eq, err := m.Equipment(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, solar.StateOperational, eq.Panels)
	assert.Equal(t, solar.StateOperational, eq.Inverters)
	assert.Equal(t, solar.StateOperational, eq.Monitoring)
	assert.Equal(t, 200, eq.TotalPanels)
	assert.Equal(t, 200, eq.ActivePanels)
}

func TestCreatePlant_DuplicateIsConflict(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	_, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	_, err = m.CreatePlant(ctx, "unit-1", defaultAttrs())
	assert.ErrorIs(t, err, solar.ErrConflict)
	assert.True(t, solar.IsConflict(err))
}

func TestCreatePlant_DeclaredPhaseAndPlannedPhases(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	attrs := defaultAttrs()
	attrs.Phase = solar.PhaseLicensing
	attrs.PlannedPhases = []solar.Phase{solar.PhaseProcurement, solar.PhaseLicensing, solar.PhaseInstallation}

	plant, err := m.CreatePlant(ctx, "unit-1", attrs)
	require.NoError(t, err)

	require.Len(t, plant.Phases, 3)
	assert.Equal(t, solar.PhaseLicensing, plant.Phases[0].Phase)
	assert.Equal(t, solar.PhaseInProgress, plant.Phases[0].Status)
	assert.Equal(t, solar.PhasePending, plant.Phases[1].Status)
	assert.Equal(t, solar.PhasePending, plant.Phases[2].Status)
}

func TestCreatePlant_RejectsInvalidPhase(t *testing.T) {
	m, _ := newManager(t)
	attrs := defaultAttrs()
	attrs.Phase = "demolition"

	_, err := m.CreatePlant(context.Background(), "unit-1", attrs)
	assert.ErrorIs(t, err, solar.ErrInvalidPhase)
	assert.True(t, solar.IsClientError(err))
}

func TestGuardRunsFirst(t *testing.T) {
	// GIVEN: A tenant without the solar segment
	// WHEN: Calling any operation
	// THEN: NotFound, and nothing is written

	ctx := context.Background()
	m, store := newManager(t)

	_, err := m.CreatePlant(ctx, "unit-retail", defaultAttrs())
	assert.ErrorIs(t, err, solar.ErrNotFound)

	_, err = store.GetPlant(ctx, "unit-retail")
	assert.ErrorIs(t, err, solar.ErrNotFound)

	_, err = m.TransitionPhase(ctx, "unit-ghost", solar.PhaseLicensing, nil)
	assert.ErrorIs(t, err, solar.ErrNotFound)
}

func TestUpdatePlant_MergesOnlyProvidedFields(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	_, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	newCost := decimal.RequireFromString("0.28")
	override := decimal.RequireFromString("0.70")
	updated, err := m.UpdatePlant(ctx, "unit-1", lifecycle.PlantPatch{
		CostPerKWH:        &newCost,
		UtilityCostPerKWH: &override,
	})
	require.NoError(t, err)

	assert.True(t, newCost.Equal(updated.CostPerKWH))
	require.NotNil(t, updated.UtilityCostPerKWH)
	assert.True(t, override.Equal(*updated.UtilityCostPerKWH))
	assert.Equal(t, "Usina Fortaleza", updated.Name)
	assert.True(t, decimal.NewFromInt(100).Equal(updated.CapacityKW))
	assert.Equal(t, 2, updated.Version)
}

func TestUpdatePlant_ClearsUtilityOverride(t *testing.T) {
	// GIVEN: A plant with a utility rate override
	// WHEN: A patch clears it, even alongside a new override value
	// THEN: The override is gone and other fields are untouched

	ctx := context.Background()
	m, _ := newManager(t)
	_, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	override := decimal.RequireFromString("0.70")
	set, err := m.UpdatePlant(ctx, "unit-1", lifecycle.PlantPatch{UtilityCostPerKWH: &override})
	require.NoError(t, err)
	require.NotNil(t, set.UtilityCostPerKWH)

	other := decimal.RequireFromString("0.90")
	cleared, err := m.UpdatePlant(ctx, "unit-1", lifecycle.PlantPatch{UtilityCostPerKWH: &other, ClearUtilityCost: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.UtilityCostPerKWH)
	assert.Equal(t, "Usina Fortaleza", cleared.Name)

	// A later empty patch leaves it cleared.
	again, err := m.UpdatePlant(ctx, "unit-1", lifecycle.PlantPatch{})
	require.NoError(t, err)
	assert.Nil(t, again.UtilityCostPerKWH)
}

func TestUpdatePlant_NoPlantIsNotFound(t *testing.T) {
	m, _ := newManager(t)
	name := "x"
	_, err := m.UpdatePlant(context.Background(), "unit-1", lifecycle.PlantPatch{Name: &name})
	assert.ErrorIs(t, err, solar.ErrNotFound)
}

func TestUpdatePlant_StaleVersionIsRejected(t *testing.T) {
	// GIVEN: Two readers holding the same plant version
	// WHEN: Both save
	// THEN: The second save loses with ErrConcurrentModification

	ctx := context.Background()
	m, store := newManager(t)
	_, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	a, err := store.GetPlant(ctx, "unit-1")
	require.NoError(t, err)
	b, err := store.GetPlant(ctx, "unit-1")
	require.NoError(t, err)

	a.Name = "first"
	_, err = store.SavePlant(ctx, *a)
	require.NoError(t, err)

	b.Name = "second"
	_, err = store.SavePlant(ctx, *b)
	assert.ErrorIs(t, err, solar.ErrConcurrentModification)
	assert.True(t, solar.IsConflict(err))

	cur, err := m.GetPlant(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, "first", cur.Name)
}

func TestDeletePlant_CascadesAndPurges(t *testing.T) {
	ctx := context.Background()
	purger := &recordingPurger{}
	m, store := newManager(t, lifecycle.WithPurger(purger))
	_, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	require.NoError(t, store.AppendSample(ctx, solar.Sample{ID: "s1", TenantID: "unit-1", Timestamp: t0, EnergyKWH: decimal.NewFromInt(5)}))
	require.NoError(t, store.InsertContract(ctx, solar.Contract{ID: "c1", TenantID: "unit-1", Status: solar.ContractActive}))

	require.NoError(t, m.DeletePlant(ctx, "unit-1"))

	_, err = m.GetPlant(ctx, "unit-1")
	assert.ErrorIs(t, err, solar.ErrNotFound)
	_, err = m.Equipment(ctx, "unit-1")
	assert.ErrorIs(t, err, solar.ErrNotFound)

	samples, err := store.LoadSamples(ctx, "unit-1", solar.SampleQuery{})
	require.NoError(t, err)
	assert.Empty(t, samples)
	contracts, err := store.ListContracts(ctx, "unit-1", "")
	require.NoError(t, err)
	assert.Empty(t, contracts)

	assert.Equal(t, []solar.TenantID{"unit-1"}, purger.purged)

	// Recreating after delete is allowed.
	_, err = m.CreatePlant(ctx, "unit-1", defaultAttrs())
	assert.NoError(t, err)
}

// =============================================================================
// PHASE TRANSITIONS
// =============================================================================

func TestTransitionPhase_ReturnToEarlierPhase(t *testing.T) {
	// GIVEN: A fresh plant in planning
	// WHEN: Transitioning to licensing, then back to planning
	// THEN: planning(completed), licensing(completed), planning(in_progress)

	ctx := context.Background()
	m, _ := newManager(t)
	_, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	_, err = m.TransitionPhase(ctx, "unit-1", solar.PhaseLicensing, nil)
	require.NoError(t, err)
	plant, err := m.TransitionPhase(ctx, "unit-1", solar.PhasePlanning, nil)
	require.NoError(t, err)

	require.Len(t, plant.Phases, 3)
	assert.Equal(t, solar.PhasePlanning, plant.Phases[0].Phase)
	assert.Equal(t, solar.PhaseCompleted, plant.Phases[0].Status)
	assert.NotNil(t, plant.Phases[0].EndedAt)
	assert.Equal(t, solar.PhaseLicensing, plant.Phases[1].Phase)
	assert.Equal(t, solar.PhaseCompleted, plant.Phases[1].Status)
	assert.NotNil(t, plant.Phases[1].EndedAt)
	assert.Equal(t, solar.PhasePlanning, plant.Phases[2].Phase)
	assert.Equal(t, solar.PhaseInProgress, plant.Phases[2].Status)
	assert.Nil(t, plant.Phases[2].EndedAt)
	assert.Equal(t, solar.PhasePlanning, plant.CurrentPhase)
	assert.Equal(t, 3, plant.Version)
}

func TestTransitionPhase_ReopensPendingRecord(t *testing.T) {
	// GIVEN: A plant with a pending procurement record
	// WHEN: Transitioning to procurement with notes
	// THEN: The pending record is reopened in place and its notes replaced

	ctx := context.Background()
	m, _ := newManager(t)
	attrs := defaultAttrs()
	attrs.PlannedPhases = []solar.Phase{solar.PhaseProcurement}
	created, err := m.CreatePlant(ctx, "unit-1", attrs)
	require.NoError(t, err)
	require.Len(t, created.Phases, 2)

	notes := "supplier chosen"
	plant, err := m.TransitionPhase(ctx, "unit-1", solar.PhaseProcurement, &notes)
	require.NoError(t, err)

	require.Len(t, plant.Phases, 2)
	assert.Equal(t, solar.PhaseCompleted, plant.Phases[0].Status)
	assert.Equal(t, solar.PhaseProcurement, plant.Phases[1].Phase)
	assert.Equal(t, solar.PhaseInProgress, plant.Phases[1].Status)
	assert.Equal(t, "supplier chosen", plant.Phases[1].Notes)
	assert.True(t, created.Phases[1].StartedAt.Equal(plant.Phases[1].StartedAt))
}

func TestTransitionPhase_SamePhaseAppendsNewRecord(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	_, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	plant, err := m.TransitionPhase(ctx, "unit-1", solar.PhasePlanning, nil)
	require.NoError(t, err)

	require.Len(t, plant.Phases, 2)
	assert.Equal(t, solar.PhaseCompleted, plant.Phases[0].Status)
	assert.Equal(t, solar.PhaseInProgress, plant.Phases[1].Status)
	assert.Equal(t, 1, countInProgress(plant))
}

func TestTransitionPhase_InvalidTarget(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	_, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	_, err = m.TransitionPhase(ctx, "unit-1", "decommissioned", nil)
	assert.ErrorIs(t, err, solar.ErrInvalidPhase)
}

func TestTransition_SingleActivePhaseProperty(t *testing.T) {
	// GIVEN: Random sequences of transitions, some starting from
	//        histories with several pending records
	// WHEN: Applying each transition
	// THEN: Exactly one record is in progress after every step

	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		at := t0
		p := &solar.Plant{
			CurrentPhase: solar.PhasePlanning,
			Phases:       []solar.PhaseRecord{{Phase: solar.PhasePlanning, Status: solar.PhaseInProgress, StartedAt: at}},
		}
		for _, ph := range solar.Phases[1:] {
			if rng.Intn(2) == 0 {
				p.Phases = append(p.Phases, solar.PhaseRecord{Phase: ph, Status: solar.PhasePending, StartedAt: at})
			}
		}

		for step := 0; step < 12; step++ {
			at = at.Add(time.Hour)
			target := solar.Phases[rng.Intn(len(solar.Phases))]
			lifecycle.Transition(p, target, nil, at)

			require.Equal(t, 1, countInProgress(p), "run %d step %d", run, step)
			active := p.ActivePhase()
			require.GreaterOrEqual(t, active, 0)
			assert.Equal(t, target, p.Phases[active].Phase)
			assert.Equal(t, target, p.CurrentPhase)
		}
	}
}

// =============================================================================
// EQUIPMENT
// =============================================================================

func TestUpdateEquipment(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	_, err := m.CreatePlant(ctx, "unit-1", defaultAttrs())
	require.NoError(t, err)

	fault := solar.StateFault
	active := 180
	eq, err := m.UpdateEquipment(ctx, "unit-1", lifecycle.EquipmentPatch{Inverters: &fault, ActivePanels: &active})
	require.NoError(t, err)
	assert.Equal(t, solar.StateFault, eq.Inverters)
	assert.Equal(t, solar.StateOperational, eq.Panels)
	assert.Equal(t, 180, eq.ActivePanels)

	bogus := solar.ComponentState("melted")
	_, err = m.UpdateEquipment(ctx, "unit-1", lifecycle.EquipmentPatch{Panels: &bogus})
	assert.ErrorIs(t, err, solar.ErrInvalidStatus)

	tooMany := 500
	_, err = m.UpdateEquipment(ctx, "unit-1", lifecycle.EquipmentPatch{ActivePanels: &tooMany})
	assert.ErrorIs(t, err, solar.ErrInvalidValue)

	stored, err := m.Equipment(ctx, "unit-1")
	require.NoError(t, err)
	assert.Equal(t, 180, stored.ActivePanels)
}

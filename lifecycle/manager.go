/*
manager.go - Project lifecycle manager

PURPOSE:
  Owns the plant document: creation (with equipment status), partial
  updates, phase transitions and the cascading delete.

GUARD:
  Every operation runs the tenant guard before touching the store.

CONCURRENCY:
  UpdatePlant and TransitionPhase are read-modify-write on the plant
  document. Saves carry the version that was read; if another writer saved
  in between, the store returns solar.ErrConcurrentModification and nothing
  is written. No retry happens here.

CASCADE DELETE:
  DeletePlant removes plant, samples, contracts and equipment (the SQLite
  store does this in one transaction) and then purges cached rollups.

SEE ALSO:
  - phase.go: Transition rules
  - solar/store.go: PlantStore
*/
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/logger"
	"github.com/warp/solar-engine/solar"
	"github.com/warp/solar-engine/tenant"
)

// Purger drops derived per-tenant data (rollup caches) after a delete.
type Purger interface {
	Purge(ctx context.Context, tenant solar.TenantID) error
}

type Manager struct {
	guard  *tenant.Guard
	store  solar.PlantStore
	clock  solar.Clock
	purger Purger
	log    *slog.Logger
}

type Option func(*Manager)

func WithPurger(p Purger) Option { return func(m *Manager) { m.purger = p } }

func WithClock(c solar.Clock) Option { return func(m *Manager) { m.clock = c } }

func NewManager(guard *tenant.Guard, store solar.PlantStore, opts ...Option) *Manager {
	m := &Manager{
		guard: guard,
		store: store,
		clock: solar.SystemClock(time.UTC),
		log:   logger.WithComponent("lifecycle"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Admit runs the tenant guard once; see tenant.Guard.Admit.
func (m *Manager) Admit(ctx context.Context, t solar.TenantID) (context.Context, error) {
	return m.guard.Admit(ctx, t)
}

// =============================================================================
// ATTRIBUTES
// =============================================================================

// PlantAttrs are the creation-time fields of a plant.
type PlantAttrs struct {
	Name              string
	CapacityKW        decimal.Decimal
	AreaM2            decimal.Decimal
	InstallationDate  *time.Time
	Phase             solar.Phase // empty means planning
	PlannedPhases     []solar.Phase
	PhaseNotes        string
	TotalInvestment   decimal.Decimal
	CostPerKWH        decimal.Decimal
	UtilityCostPerKWH *decimal.Decimal
	Location          solar.Location
	TotalPanels       int
}

// PlantPatch carries the fields to merge; nil means "leave as is".
// Phases are changed only through TransitionPhase.
type PlantPatch struct {
	Name              *string
	CapacityKW        *decimal.Decimal
	AreaM2            *decimal.Decimal
	InstallationDate  *time.Time
	TotalInvestment   *decimal.Decimal
	CostPerKWH        *decimal.Decimal
	UtilityCostPerKWH *decimal.Decimal
	Location          *solar.Location

	// ClearUtilityCost drops the override so the regional rate applies
	// again. It wins over UtilityCostPerKWH.
	ClearUtilityCost bool
}

type EquipmentPatch struct {
	Panels       *solar.ComponentState
	Inverters    *solar.ComponentState
	Monitoring   *solar.ComponentState
	TotalPanels  *int
	ActivePanels *int
}

// =============================================================================
// OPERATIONS
// =============================================================================

// CreatePlant creates the tenant's plant, its initial phase record and its
// default equipment status. Returns solar.ErrConflict if one exists.
func (m *Manager) CreatePlant(ctx context.Context, t solar.TenantID, attrs PlantAttrs) (*solar.Plant, error) {
	if err := m.guard.Check(ctx, t); err != nil {
		return nil, err
	}

	start := attrs.Phase
	if start == "" {
		start = solar.PhasePlanning
	}
	if !start.Valid() {
		return nil, &solar.InvalidValueError{Field: "phase", Value: string(start), Err: solar.ErrInvalidPhase}
	}
	for _, ph := range attrs.PlannedPhases {
		if !ph.Valid() {
			return nil, &solar.InvalidValueError{Field: "planned_phases", Value: string(ph), Err: solar.ErrInvalidPhase}
		}
	}
	if attrs.TotalPanels < 0 {
		return nil, &solar.InvalidValueError{Field: "total_panels", Value: fmt.Sprint(attrs.TotalPanels), Err: solar.ErrInvalidValue}
	}

	now := m.clock()
	plant := solar.Plant{
		TenantID:          t,
		Name:              attrs.Name,
		CapacityKW:        attrs.CapacityKW,
		AreaM2:            attrs.AreaM2,
		InstallationDate:  attrs.InstallationDate,
		CurrentPhase:      start,
		Phases:            seedPhases(start, attrs.PlannedPhases, attrs.PhaseNotes, now),
		TotalInvestment:   attrs.TotalInvestment,
		CostPerKWH:        attrs.CostPerKWH,
		UtilityCostPerKWH: attrs.UtilityCostPerKWH,
		Location:          attrs.Location,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	eq := solar.DefaultEquipment(t, attrs.TotalPanels, now)

	if err := m.store.InsertPlant(ctx, plant, eq); err != nil {
		return nil, fmt.Errorf("create plant for %s: %w", t, err)
	}

	m.log.Info("plant created", "tenant", t, "phase", start, "capacity_kw", plant.CapacityKW.String())
	return &plant, nil
}

func (m *Manager) GetPlant(ctx context.Context, t solar.TenantID) (*solar.Plant, error) {
	if err := m.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	return m.store.GetPlant(ctx, t)
}

// UpdatePlant merges the non-nil patch fields into the stored plant.
func (m *Manager) UpdatePlant(ctx context.Context, t solar.TenantID, patch PlantPatch) (*solar.Plant, error) {
	if err := m.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	plant, err := m.store.GetPlant(ctx, t)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		plant.Name = *patch.Name
	}
	if patch.CapacityKW != nil {
		plant.CapacityKW = *patch.CapacityKW
	}
	if patch.AreaM2 != nil {
		plant.AreaM2 = *patch.AreaM2
	}
	if patch.InstallationDate != nil {
		d := *patch.InstallationDate
		plant.InstallationDate = &d
	}
	if patch.TotalInvestment != nil {
		plant.TotalInvestment = *patch.TotalInvestment
	}
	if patch.CostPerKWH != nil {
		plant.CostPerKWH = *patch.CostPerKWH
	}
	switch {
	case patch.ClearUtilityCost:
		plant.UtilityCostPerKWH = nil
	case patch.UtilityCostPerKWH != nil:
		d := *patch.UtilityCostPerKWH
		plant.UtilityCostPerKWH = &d
	}
	if patch.Location != nil {
		plant.Location = *patch.Location
	}
	plant.UpdatedAt = m.clock()

	saved, err := m.store.SavePlant(ctx, *plant)
	if err != nil {
		return nil, fmt.Errorf("update plant for %s: %w", t, err)
	}
	return &saved, nil
}

// TransitionPhase closes the active phase and opens target.
func (m *Manager) TransitionPhase(ctx context.Context, t solar.TenantID, target solar.Phase, notes *string) (*solar.Plant, error) {
	if err := m.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, &solar.InvalidValueError{Field: "phase", Value: string(target), Err: solar.ErrInvalidPhase}
	}

	plant, err := m.store.GetPlant(ctx, t)
	if err != nil {
		return nil, err
	}
	from := plant.CurrentPhase

	Transition(plant, target, notes, m.clock())

	saved, err := m.store.SavePlant(ctx, *plant)
	if err != nil {
		return nil, fmt.Errorf("transition %s to %s: %w", t, target, err)
	}

	m.log.Info("phase transitioned", "tenant", t, "from", from, "to", target)
	return &saved, nil
}

// DeletePlant removes the plant and everything the tenant owns with it.
func (m *Manager) DeletePlant(ctx context.Context, t solar.TenantID) error {
	if err := m.guard.Check(ctx, t); err != nil {
		return err
	}
	if err := m.store.DeletePlant(ctx, t); err != nil {
		return fmt.Errorf("delete plant for %s: %w", t, err)
	}
	if m.purger != nil {
		if err := m.purger.Purge(ctx, t); err != nil {
			m.log.Warn("rollup purge failed after delete", "tenant", t, "error", err)
			return fmt.Errorf("plant deleted but rollup purge failed for %s: %w", t, err)
		}
	}
	m.log.Info("plant deleted", "tenant", t)
	return nil
}

// =============================================================================
// EQUIPMENT
// =============================================================================

func (m *Manager) Equipment(ctx context.Context, t solar.TenantID) (*solar.EquipmentStatus, error) {
	if err := m.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	return m.store.GetEquipment(ctx, t)
}

// UpdateEquipment edits the equipment status fields in place.
func (m *Manager) UpdateEquipment(ctx context.Context, t solar.TenantID, patch EquipmentPatch) (*solar.EquipmentStatus, error) {
	if err := m.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	eq, err := m.store.GetEquipment(ctx, t)
	if err != nil {
		return nil, err
	}

	for field, state := range map[string]*solar.ComponentState{
		"panels": patch.Panels, "inverters": patch.Inverters, "monitoring": patch.Monitoring,
	} {
		if state != nil && !state.Valid() {
			return nil, &solar.InvalidValueError{Field: field, Value: string(*state), Err: solar.ErrInvalidStatus}
		}
	}
	if patch.Panels != nil {
		eq.Panels = *patch.Panels
	}
	if patch.Inverters != nil {
		eq.Inverters = *patch.Inverters
	}
	if patch.Monitoring != nil {
		eq.Monitoring = *patch.Monitoring
	}
	if patch.TotalPanels != nil {
		eq.TotalPanels = *patch.TotalPanels
	}
	if patch.ActivePanels != nil {
		eq.ActivePanels = *patch.ActivePanels
	}
	if eq.TotalPanels < 0 || eq.ActivePanels < 0 || eq.ActivePanels > eq.TotalPanels {
		return nil, &solar.InvalidValueError{
			Field: "active_panels",
			Value: fmt.Sprintf("%d/%d", eq.ActivePanels, eq.TotalPanels),
			Err:   solar.ErrInvalidValue,
		}
	}
	eq.UpdatedAt = m.clock()

	if err := m.store.SaveEquipment(ctx, *eq); err != nil {
		return nil, err
	}
	return eq, nil
}

/*
Package solar provides the core types of the plant lifecycle and production engine.

PURPOSE:
  This package holds the entities every other package speaks in: the Plant
  with its phase history, production samples, distribution contracts,
  equipment status and the tenant (unit) record. It also defines the store
  interfaces, the sentinel errors and the time windows used for aggregation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Plant: one solar installation per tenant, with an append-only phase history
  - PhaseRecord: one stage of the build-out lifecycle
  - Sample: an immutable production telemetry reading
  - Contract: a bilateral energy-resale agreement
  - EquipmentStatus: operational state of panels, inverters and monitoring

DESIGN PRINCIPLES:
  1. Derive, don't cache: energy totals are never stored on the Plant
  2. Precision: money and energy use decimal.Decimal
  3. Tenant scoping: every record carries its TenantID

SEE ALSO:
  - store.go: Persistence interfaces
  - errors.go: Sentinel errors
  - time.go: Aggregation windows
*/
package solar

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// TenantID identifies the unit (franchise) that owns a plant.
type TenantID string

// =============================================================================
// PHASES - The project lifecycle state machine
// =============================================================================

type Phase string

const (
	PhasePlanning     Phase = "planning"
	PhaseLicensing    Phase = "licensing"
	PhaseProcurement  Phase = "procurement"
	PhaseInstallation Phase = "installation"
	PhaseOperation    Phase = "operation"
)

// Phases lists every lifecycle phase in build-out order.
// The order is informational; transitions may jump anywhere.
var Phases = []Phase{PhasePlanning, PhaseLicensing, PhaseProcurement, PhaseInstallation, PhaseOperation}

func (p Phase) Valid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePhase normalizes and validates a phase name.
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", &InvalidValueError{Field: "phase", Value: s, Err: ErrInvalidPhase}
	}
	return p, nil
}

type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
)

// PhaseRecord is one entry of a plant's phase history.
type PhaseRecord struct {
	Phase     Phase       `json:"phase"`
	Status    PhaseStatus `json:"status"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
	Notes     string      `json:"notes,omitempty"`
}

// =============================================================================
// PLANT
// =============================================================================

// Location is the plant's geolocation. State is the region code used for
// utility-rate lookups.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
}

type Plant struct {
	TenantID         TenantID
	Name             string
	CapacityKW       decimal.Decimal
	AreaM2           decimal.Decimal
	InstallationDate *time.Time
	CurrentPhase     Phase
	Phases           []PhaseRecord
	TotalInvestment  decimal.Decimal
	CostPerKWH       decimal.Decimal
	// UtilityCostPerKWH overrides the regional rate when set.
	UtilityCostPerKWH *decimal.Decimal
	Location          Location

	// Version is bumped on every save; stores reject stale writes.
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActivePhase returns the index of the in-progress record, or -1.
func (p *Plant) ActivePhase() int {
	for i, r := range p.Phases {
		if r.Status == PhaseInProgress {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (p Plant) Clone() Plant {
	c := p
	c.Phases = make([]PhaseRecord, len(p.Phases))
	for i, r := range p.Phases {
		c.Phases[i] = r
		if r.EndedAt != nil {
			t := *r.EndedAt
			c.Phases[i].EndedAt = &t
		}
	}
	if p.InstallationDate != nil {
		t := *p.InstallationDate
		c.InstallationDate = &t
	}
	if p.UtilityCostPerKWH != nil {
		d := *p.UtilityCostPerKWH
		c.UtilityCostPerKWH = &d
	}
	return c
}

// =============================================================================
// PRODUCTION SAMPLE - Immutable telemetry reading
// =============================================================================

type Weather struct {
	TemperatureC float64 `json:"temperature_c"`
	Irradiance   float64 `json:"irradiance"`
	CloudCover   float64 `json:"cloud_cover"`
}

type Sample struct {
	ID        string
	TenantID  TenantID
	Timestamp time.Time
	PowerKW   decimal.Decimal // instantaneous power
	EnergyKWH decimal.Decimal // energy since the previous sample
	// Efficiency is a percentage in [0, 100] as reported by the inverter.
	Efficiency decimal.Decimal
	Weather    *Weather
}

// =============================================================================
// DISTRIBUTION CONTRACT
// =============================================================================

type ContractStatus string

const (
	ContractActive    ContractStatus = "active"
	ContractPending   ContractStatus = "pending"
	ContractExpired   ContractStatus = "expired"
	ContractCancelled ContractStatus = "cancelled"
)

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractActive, ContractPending, ContractExpired, ContractCancelled:
		return true
	}
	return false
}

type Contract struct {
	ID             string
	TenantID       TenantID
	Counterparty   string
	CounterpartyID string
	StartDate      time.Time
	EndDate        *time.Time
	MonthlyKWH     decimal.Decimal
	PricePerKWH    decimal.Decimal
	Status         ContractStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// =============================================================================
// EQUIPMENT STATUS
// =============================================================================

type ComponentState string

const (
	StateOperational ComponentState = "operational"
	StateMaintenance ComponentState = "maintenance"
	StateFault       ComponentState = "fault"
)

func (s ComponentState) Valid() bool {
	return s == StateOperational || s == StateMaintenance || s == StateFault
}

type EquipmentStatus struct {
	TenantID     TenantID
	Panels       ComponentState
	Inverters    ComponentState
	Monitoring   ComponentState
	TotalPanels  int
	ActivePanels int
	UpdatedAt    time.Time
}

// DefaultEquipment is the status created alongside a new plant.
func DefaultEquipment(tenant TenantID, panels int, at time.Time) EquipmentStatus {
	return EquipmentStatus{
		TenantID:     tenant,
		Panels:       StateOperational,
		Inverters:    StateOperational,
		Monitoring:   StateOperational,
		TotalPanels:  panels,
		ActivePanels: panels,
		UpdatedAt:    at,
	}
}

// =============================================================================
// UNIT - Tenant directory record
// =============================================================================

// Unit is the franchise record owned by the tenant directory.
// Segments lists the market capabilities the unit is entitled to.
type Unit struct {
	ID       TenantID `yaml:"id"`
	Name     string   `yaml:"name"`
	Segments []string `yaml:"segments"`
}

// HasSegment reports whether the unit declares the capability (case-insensitive).
func (u Unit) HasSegment(segment string) bool {
	for _, s := range u.Segments {
		if strings.EqualFold(strings.TrimSpace(s), segment) {
			return true
		}
	}
	return false
}

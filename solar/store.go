/*
store.go - Persistence interfaces for plants, samples, contracts and units

PURPOSE:
  Defines the boundary between the engine and durable storage. All queries
  are scoped by TenantID; tenants never share rows.

KEY INTERFACES:
  PlantStore:    Plant document + equipment status, optimistic saves
  SampleStore:   Append-only production samples with range reads
  ContractStore: Distribution contracts
  UnitDirectory: External tenant directory (read-only here)

APPEND-ONLY CONTRACT:
  SampleStore has no Update method. Samples only leave the store through
  DeletePlant's cascade.

IMPLEMENTATIONS:
  - store/sqlite: SQLite with goose migrations
  - store/memory: In-memory for tests

SEE ALSO:
  - production/ledger.go: Ledger built on SampleStore
  - lifecycle/manager.go: Uses PlantStore
*/
package solar

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PLANT STORE
// =============================================================================

type PlantStore interface {
	// GetPlant returns a *NotFoundError when the tenant has no plant.
	GetPlant(ctx context.Context, tenant TenantID) (*Plant, error)

	// InsertPlant creates the plant and its equipment status together.
	// Returns ErrConflict if the tenant already has a plant.
	InsertPlant(ctx context.Context, p Plant, eq EquipmentStatus) error

	// SavePlant writes p if the stored version still equals p.Version,
	// then bumps the version. Stale writes get ErrConcurrentModification.
	SavePlant(ctx context.Context, p Plant) (Plant, error)

	// DeletePlant removes the plant, its samples, contracts and equipment.
	DeletePlant(ctx context.Context, tenant TenantID) error

	GetEquipment(ctx context.Context, tenant TenantID) (*EquipmentStatus, error)
	SaveEquipment(ctx context.Context, eq EquipmentStatus) error
}

// =============================================================================
// SAMPLE STORE - Append-only
// =============================================================================

// SampleQuery selects samples in the inclusive range [From, To].
// Nil bounds are open. Limit <= 0 means unbounded.
type SampleQuery struct {
	From      *time.Time
	To        *time.Time
	Limit     int
	Ascending bool // default is newest-first
}

type SampleStore interface {
	// AppendSample is the ONLY write. No dedup, no ordering checks.
	AppendSample(ctx context.Context, s Sample) error

	LoadSamples(ctx context.Context, tenant TenantID, q SampleQuery) ([]Sample, error)

	// SumEnergy returns the total EnergyKWH of samples with from <= ts < to.
	SumEnergy(ctx context.Context, tenant TenantID, from, to time.Time) (decimal.Decimal, error)

	// LatestSample returns nil when the tenant has no samples.
	LatestSample(ctx context.Context, tenant TenantID) (*Sample, error)
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

type ContractStore interface {
	InsertContract(ctx context.Context, c Contract) error
	GetContract(ctx context.Context, tenant TenantID, id string) (*Contract, error)
	// ListContracts filters by status when status is non-empty.
	ListContracts(ctx context.Context, tenant TenantID, status ContractStatus) ([]Contract, error)
	UpdateContract(ctx context.Context, c Contract) error
}

// =============================================================================
// UNIT DIRECTORY - External collaborator
// =============================================================================

type UnitDirectory interface {
	// GetUnit returns a *NotFoundError when the tenant is unknown.
	GetUnit(ctx context.Context, tenant TenantID) (*Unit, error)
}

// Store is the full persistence surface.
type Store interface {
	PlantStore
	SampleStore
	ContractStore
	UnitDirectory
}

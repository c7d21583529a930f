// Package memory provides an in-memory solar.Store (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/solar"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	plants    map[solar.TenantID]solar.Plant
	equipment map[solar.TenantID]solar.EquipmentStatus
	samples   map[solar.TenantID][]solar.Sample // sorted by Timestamp ascending
	contracts map[solar.TenantID][]solar.Contract
	units     map[solar.TenantID]solar.Unit
}

var _ solar.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		plants:    make(map[solar.TenantID]solar.Plant),
		equipment: make(map[solar.TenantID]solar.EquipmentStatus),
		samples:   make(map[solar.TenantID][]solar.Sample),
		contracts: make(map[solar.TenantID][]solar.Contract),
		units:     make(map[solar.TenantID]solar.Unit),
	}
}

// =============================================================================
// UNITS
// =============================================================================

// SaveUnit registers or replaces a tenant directory record.
func (m *Memory) SaveUnit(_ context.Context, u solar.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.Segments = append([]string(nil), u.Segments...)
	m.units[u.ID] = u
	return nil
}

func (m *Memory) GetUnit(_ context.Context, tenant solar.TenantID) (*solar.Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[tenant]
	if !ok {
		return nil, &solar.NotFoundError{Kind: "tenant", TenantID: tenant}
	}
	u.Segments = append([]string(nil), u.Segments...)
	return &u, nil
}

// =============================================================================
// PLANTS
// =============================================================================

func (m *Memory) GetPlant(_ context.Context, tenant solar.TenantID) (*solar.Plant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plants[tenant]
	if !ok {
		return nil, &solar.NotFoundError{Kind: "plant", TenantID: tenant}
	}
	c := p.Clone()
	return &c, nil
}

func (m *Memory) InsertPlant(_ context.Context, p solar.Plant, eq solar.EquipmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plants[p.TenantID]; ok {
		return solar.ErrConflict
	}
	p.Version = 1
	m.plants[p.TenantID] = p.Clone()
	m.equipment[p.TenantID] = eq
	return nil
}

func (m *Memory) SavePlant(_ context.Context, p solar.Plant) (solar.Plant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.plants[p.TenantID]
	if !ok {
		return solar.Plant{}, &solar.NotFoundError{Kind: "plant", TenantID: p.TenantID}
	}
	if cur.Version != p.Version {
		return solar.Plant{}, solar.ErrConcurrentModification
	}
	p.Version++
	m.plants[p.TenantID] = p.Clone()
	return p, nil
}

// DeletePlant cascades under one lock, so it is atomic here.
func (m *Memory) DeletePlant(_ context.Context, tenant solar.TenantID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plants[tenant]; !ok {
		return &solar.NotFoundError{Kind: "plant", TenantID: tenant}
	}
	delete(m.plants, tenant)
	delete(m.samples, tenant)
	delete(m.contracts, tenant)
	delete(m.equipment, tenant)
	return nil
}

func (m *Memory) GetEquipment(_ context.Context, tenant solar.TenantID) (*solar.EquipmentStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eq, ok := m.equipment[tenant]
	if !ok {
		return nil, &solar.NotFoundError{Kind: "equipment", TenantID: tenant}
	}
	return &eq, nil
}

func (m *Memory) SaveEquipment(_ context.Context, eq solar.EquipmentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.equipment[eq.TenantID]; !ok {
		return &solar.NotFoundError{Kind: "equipment", TenantID: eq.TenantID}
	}
	m.equipment[eq.TenantID] = eq
	return nil
}

// =============================================================================
// SAMPLES - Append-only
// =============================================================================

func (m *Memory) AppendSample(_ context.Context, s solar.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	samples := m.samples[s.TenantID]

	// Insert after any sample with an equal timestamp to keep arrival order.
	i := sort.Search(len(samples), func(i int) bool {
		return samples[i].Timestamp.After(s.Timestamp)
	})
	samples = append(samples, solar.Sample{})
	copy(samples[i+1:], samples[i:])
	samples[i] = s
	m.samples[s.TenantID] = samples
	return nil
}

func (m *Memory) LoadSamples(_ context.Context, tenant solar.TenantID, q solar.SampleQuery) ([]solar.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []solar.Sample
	for _, s := range m.samples[tenant] {
		if q.From != nil && s.Timestamp.Before(*q.From) {
			continue
		}
		if q.To != nil && s.Timestamp.After(*q.To) {
			continue
		}
		result = append(result, s)
	}
	if !q.Ascending {
		for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
			result[i], result[j] = result[j], result[i]
		}
	}
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

func (m *Memory) SumEnergy(_ context.Context, tenant solar.TenantID, from, to time.Time) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w := solar.Window{From: from, To: to}
	total := decimal.Zero
	for _, s := range m.samples[tenant] {
		if w.Contains(s.Timestamp) {
			total = total.Add(s.EnergyKWH)
		}
	}
	return total, nil
}

func (m *Memory) LatestSample(_ context.Context, tenant solar.TenantID) (*solar.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	samples := m.samples[tenant]
	if len(samples) == 0 {
		return nil, nil
	}
	s := samples[len(samples)-1]
	return &s, nil
}

// =============================================================================
// CONTRACTS
// =============================================================================

func (m *Memory) InsertContract(_ context.Context, c solar.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.TenantID] = append(m.contracts[c.TenantID], c)
	return nil
}

func (m *Memory) GetContract(_ context.Context, tenant solar.TenantID, id string) (*solar.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.contracts[tenant] {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, &solar.NotFoundError{Kind: "contract", TenantID: tenant, ID: id}
}

func (m *Memory) ListContracts(_ context.Context, tenant solar.TenantID, status solar.ContractStatus) ([]solar.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []solar.Contract
	for _, c := range m.contracts[tenant] {
		if status == "" || c.Status == status {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *Memory) UpdateContract(_ context.Context, c solar.Contract) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.contracts[c.TenantID] {
		if existing.ID == c.ID {
			m.contracts[c.TenantID][i] = c
			return nil
		}
	}
	return &solar.NotFoundError{Kind: "contract", TenantID: c.TenantID, ID: c.ID}
}

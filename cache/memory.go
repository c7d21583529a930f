package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/production"
	"github.com/warp/solar-engine/solar"
)

// MemoryRollup is a process-local Rollup for tests and single-node runs.
// Entries never expire.
type MemoryRollup struct {
	mu    sync.RWMutex
	days  map[solar.TenantID]map[string]decimal.Decimal
	gens  map[solar.TenantID]map[string]int64
	epoch map[solar.TenantID]int64
}

var _ production.Rollup = (*MemoryRollup)(nil)

func NewMemoryRollup() *MemoryRollup {
	return &MemoryRollup{
		days:  make(map[solar.TenantID]map[string]decimal.Decimal),
		gens:  make(map[solar.TenantID]map[string]int64),
		epoch: make(map[solar.TenantID]int64),
	}
}

func (m *MemoryRollup) Get(_ context.Context, tenant solar.TenantID, day time.Time) (decimal.Decimal, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total, ok := m.days[tenant][dayField(day)]
	return total, ok, nil
}

func (m *MemoryRollup) Version(_ context.Context, tenant solar.TenantID, day time.Time) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version(tenant, dayField(day)), nil
}

// version must be called with mu held.
func (m *MemoryRollup) version(tenant solar.TenantID, field string) string {
	return formatVersion(strconv.FormatInt(m.epoch[tenant], 10), strconv.FormatInt(m.gens[tenant][field], 10))
}

func (m *MemoryRollup) Put(_ context.Context, tenant solar.TenantID, day time.Time, total decimal.Decimal, version string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	field := dayField(day)
	if m.version(tenant, field) != version {
		return nil
	}
	if m.days[tenant] == nil {
		m.days[tenant] = make(map[string]decimal.Decimal)
	}
	m.days[tenant][field] = total
	return nil
}

func (m *MemoryRollup) Invalidate(_ context.Context, tenant solar.TenantID, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	field := dayField(day)
	delete(m.days[tenant], field)
	if m.gens[tenant] == nil {
		m.gens[tenant] = make(map[string]int64)
	}
	m.gens[tenant][field]++
	return nil
}

func (m *MemoryRollup) Purge(_ context.Context, tenant solar.TenantID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.days, tenant)
	delete(m.gens, tenant)
	m.epoch[tenant]++
	return nil
}

// Len reports how many days are cached for tenant.
func (m *MemoryRollup) Len(tenant solar.TenantID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.days[tenant])
}

/*
ledger.go - Distribution contract ledger

PURPOSE:
  Records bilateral energy-resale agreements. Active contracts are a
  revenue input to metrics and analytics; nothing else reads them.

STATUS:
  A contract's status is whatever was last set. SetStatus is the only
  edit; terms are immutable once created.

VOLUME VS DELIVERY:
  MonthlyVolume is contracted kWh, independent of what the plant actually
  produced. The two numbers are never reconciled here.
*/
package distribution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/logger"
	"github.com/warp/solar-engine/solar"
	"github.com/warp/solar-engine/tenant"
)

// Terms are the caller-supplied fields of a new contract.
type Terms struct {
	Counterparty   string
	CounterpartyID string
	StartDate      time.Time
	EndDate        *time.Time
	MonthlyKWH     decimal.Decimal
	PricePerKWH    decimal.Decimal
	Status         solar.ContractStatus // empty means pending
}

type Ledger struct {
	guard *tenant.Guard
	store solar.ContractStore
	clock solar.Clock
	log   *slog.Logger
}

func NewLedger(guard *tenant.Guard, store solar.ContractStore, clock solar.Clock) *Ledger {
	if clock == nil {
		clock = solar.SystemClock(time.UTC)
	}
	return &Ledger{guard: guard, store: store, clock: clock, log: logger.WithComponent("distribution")}
}

func (l *Ledger) Create(ctx context.Context, t solar.TenantID, terms Terms) (*solar.Contract, error) {
	if err := l.guard.Check(ctx, t); err != nil {
		return nil, err
	}

	status := terms.Status
	if status == "" {
		status = solar.ContractPending
	}
	if !status.Valid() {
		return nil, &solar.InvalidValueError{Field: "status", Value: string(status), Err: solar.ErrInvalidStatus}
	}
	if terms.EndDate != nil && terms.EndDate.Before(terms.StartDate) {
		return nil, &solar.InvalidValueError{Field: "end_date", Value: terms.EndDate.Format(time.DateOnly), Err: solar.ErrInvalidValue}
	}

	now := l.clock()
	c := solar.Contract{
		ID:             uuid.NewString(),
		TenantID:       t,
		Counterparty:   terms.Counterparty,
		CounterpartyID: terms.CounterpartyID,
		StartDate:      terms.StartDate,
		EndDate:        terms.EndDate,
		MonthlyKWH:     terms.MonthlyKWH,
		PricePerKWH:    terms.PricePerKWH,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := l.store.InsertContract(ctx, c); err != nil {
		return nil, fmt.Errorf("create contract for %s: %w", t, err)
	}

	l.log.Info("contract created", "tenant", t, "id", c.ID, "status", c.Status, "monthly_kwh", c.MonthlyKWH.String())
	return &c, nil
}

func (l *Ledger) List(ctx context.Context, t solar.TenantID) ([]solar.Contract, error) {
	if err := l.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	return l.store.ListContracts(ctx, t, "")
}

// ListActive returns the contracts that count toward revenue.
func (l *Ledger) ListActive(ctx context.Context, t solar.TenantID) ([]solar.Contract, error) {
	if err := l.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	return l.store.ListContracts(ctx, t, solar.ContractActive)
}

// SetStatus overwrites a contract's status. Any status may follow any other.
func (l *Ledger) SetStatus(ctx context.Context, t solar.TenantID, id string, status solar.ContractStatus) (*solar.Contract, error) {
	if err := l.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, &solar.InvalidValueError{Field: "status", Value: string(status), Err: solar.ErrInvalidStatus}
	}

	c, err := l.store.GetContract(ctx, t, id)
	if err != nil {
		return nil, err
	}
	from := c.Status
	c.Status = status
	c.UpdatedAt = l.clock()
	if err := l.store.UpdateContract(ctx, *c); err != nil {
		return nil, fmt.Errorf("update contract %s: %w", id, err)
	}

	l.log.Info("contract status changed", "tenant", t, "id", id, "from", from, "to", status)
	return c, nil
}

// =============================================================================
// REDUCTIONS
// =============================================================================

// MonthlyVolume sums contracted kWh per month.
func MonthlyVolume(contracts []solar.Contract) decimal.Decimal {
	total := decimal.Zero
	for _, c := range contracts {
		total = total.Add(c.MonthlyKWH)
	}
	return total
}

// MonthlyRevenue sums MonthlyKWH x PricePerKWH.
func MonthlyRevenue(contracts []solar.Contract) decimal.Decimal {
	total := decimal.Zero
	for _, c := range contracts {
		total = total.Add(c.MonthlyKWH.Mul(c.PricePerKWH))
	}
	return total
}

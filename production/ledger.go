/*
ledger.go - Production ledger (append-only telemetry)

PURPOSE:
  Records production samples and answers the two reads everything else is
  built on: raw sample listings and energy sums over a window.

APPEND-ONLY:
  Samples are never updated or deleted one by one. Out-of-order and
  duplicate timestamps are accepted as-is; no dedup.

DERIVED TOTALS:
  Energy totals are always a reduction over samples. With a Rollup
  attached, whole days that have already ended may be served from the
  cache; partial days and today are always scanned. Either way the result
  equals a raw scan of [from, to).

  The rollup is kept honest by versioned invalidation. Record drops the
  cached total of the sample's day and bumps that day's version. A reader
  takes the version before scanning and its Put is discarded if the
  version moved, so a late reading that lands mid-scan is never hidden
  behind the older total.

SEE ALSO:
  - cache/: Redis and in-memory Rollup implementations
  - metrics/engine.go: Daily, monthly and yearly sums
*/
package production

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

const (
	// DefaultLimit is applied when a listing asks for no limit.
	DefaultLimit = 1000
	// MaxLimit caps any listing.
	MaxLimit = 1000
)

// Rollup caches per-day energy totals keyed by (tenant, local day).
//
// Every day carries an opaque version that Invalidate and Purge change.
// Put stores a total only while the day is still at the version the caller
// read before computing it.
type Rollup interface {
	Get(ctx context.Context, tenant solar.TenantID, day time.Time) (decimal.Decimal, bool, error)
	Version(ctx context.Context, tenant solar.TenantID, day time.Time) (string, error)
	Put(ctx context.Context, tenant solar.TenantID, day time.Time, total decimal.Decimal, version string) error
	Invalidate(ctx context.Context, tenant solar.TenantID, day time.Time) error
	Purge(ctx context.Context, tenant solar.TenantID) error
}

type Ledger struct {
	guard  *tenant.Guard
	store  solar.SampleStore
	clock  solar.Clock
	rollup Rollup
	log    *slog.Logger
}

type Option func(*Ledger)

func WithRollup(r Rollup) Option { return func(l *Ledger) { l.rollup = r } }

func WithClock(c solar.Clock) Option { return func(l *Ledger) { l.clock = c } }

func NewLedger(guard *tenant.Guard, store solar.SampleStore, opts ...Option) *Ledger {
	l := &Ledger{
		guard: guard,
		store: store,
		clock: solar.SystemClock(time.UTC),
		log:   logger.WithComponent("production"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// =============================================================================
// WRITES
// =============================================================================

// Record appends one sample. A zero Timestamp defaults to now.
func (l *Ledger) Record(ctx context.Context, t solar.TenantID, s solar.Sample) (solar.Sample, error) {
	if err := l.guard.Check(ctx, t); err != nil {
		return solar.Sample{}, err
	}

	now := l.clock()
	s.ID = uuid.NewString()
	s.TenantID = t
	if s.Timestamp.IsZero() {
		s.Timestamp = now
	}

	if err := l.store.AppendSample(ctx, s); err != nil {
		return solar.Sample{}, fmt.Errorf("record sample for %s: %w", t, err)
	}

	if l.rollup != nil {
		day := solar.StartOfDay(s.Timestamp.In(now.Location()))
		if err := l.rollup.Invalidate(ctx, t, day); err != nil {
			// The sample is stored; the cached day must not be trusted.
			l.log.Error("rollup invalidation failed", "tenant", t, "day", day.Format(time.DateOnly), "error", err)
			return s, fmt.Errorf("sample recorded but rollup invalidation failed: %w", err)
		}
	}

	l.log.Debug("sample recorded", "tenant", t, "id", s.ID, "energy_kwh", s.EnergyKWH.String())
	return s, nil
}

// Purge drops the tenant's cached rollups. Used after a plant delete.
func (l *Ledger) Purge(ctx context.Context, t solar.TenantID) error {
	if l.rollup == nil {
		return nil
	}
	return l.rollup.Purge(ctx, t)
}

// =============================================================================
// READS
// =============================================================================

// Samples lists samples in the inclusive range [from, to], newest first.
// limit <= 0 means DefaultLimit; anything above MaxLimit is capped.
func (l *Ledger) Samples(ctx context.Context, t solar.TenantID, from, to *time.Time, limit int) ([]solar.Sample, error) {
	if err := l.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return l.store.LoadSamples(ctx, t, solar.SampleQuery{From: from, To: to, Limit: limit})
}

// Since returns every sample at or after from, oldest first.
func (l *Ledger) Since(ctx context.Context, t solar.TenantID, from time.Time) ([]solar.Sample, error) {
	if err := l.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	return l.store.LoadSamples(ctx, t, solar.SampleQuery{From: &from, Ascending: true})
}

// Latest returns the newest sample, or nil when there are none.
func (l *Ledger) Latest(ctx context.Context, t solar.TenantID) (*solar.Sample, error) {
	if err := l.guard.Check(ctx, t); err != nil {
		return nil, err
	}
	return l.store.LatestSample(ctx, t)
}

// SumEnergy returns the total kWh of samples with from <= ts < to.
func (l *Ledger) SumEnergy(ctx context.Context, t solar.TenantID, from, to time.Time) (decimal.Decimal, error) {
	if err := l.guard.Check(ctx, t); err != nil {
		return decimal.Zero, err
	}
	if !from.Before(to) {
		return decimal.Zero, nil
	}
	if l.rollup == nil {
		return l.store.SumEnergy(ctx, t, from, to)
	}

	now := l.clock()
	from, to = from.In(now.Location()), to.In(now.Location())

	total := decimal.Zero
	for _, day := range solar.DaysIn(solar.Window{From: from, To: to}) {
		sum, err := l.sumDay(ctx, t, day, now)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(sum)
	}
	return total, nil
}

// sumDay serves a whole, finished day from the rollup and scans the rest.
func (l *Ledger) sumDay(ctx context.Context, t solar.TenantID, day solar.Window, now time.Time) (decimal.Decimal, error) {
	if !day.IsWholeDay() || day.To.After(now) {
		return l.store.SumEnergy(ctx, t, day.From, day.To)
	}

	if cached, ok, err := l.rollup.Get(ctx, t, day.From); err != nil {
		l.log.Warn("rollup read failed, scanning", "tenant", t, "day", day.From.Format(time.DateOnly), "error", err)
	} else if ok {
		return cached, nil
	}

	// The version must be taken before the scan.
	version, verr := l.rollup.Version(ctx, t, day.From)
	sum, err := l.store.SumEnergy(ctx, t, day.From, day.To)
	if err != nil {
		return decimal.Zero, err
	}
	if verr != nil {
		l.log.Warn("rollup version read failed, not caching", "tenant", t, "day", day.From.Format(time.DateOnly), "error", verr)
		return sum, nil
	}
	if err := l.rollup.Put(ctx, t, day.From, sum, version); err != nil {
		l.log.Warn("rollup write failed", "tenant", t, "day", day.From.Format(time.DateOnly), "error", err)
	}
	return sum, nil
}

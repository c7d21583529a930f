// Package cache holds the per-day energy rollups behind production.Ledger.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/warp/solar-engine/production"
	"github.com/warp/solar-engine/solar"
)

const (
	// Key format: solar:rollup:{tenant}, one hash field per local day.
	rollupKeyPrefix = "solar:rollup:"

	// Key format: solar:rollup-version:{tenant}, one counter per local day
	// plus the tenant's purge epoch.
	versionKeyPrefix = "solar:rollup-version:"
	epochField       = "epoch"

	DefaultRollupTTL = 7 * 24 * time.Hour
)

// putScript writes a day total only when the day's version still matches.
// KEYS: totals, versions. ARGV: day field, total, version, ttl in ms.
var putScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[2], ARGV[1], 'epoch')
if (v[2] or '0') .. '.' .. (v[1] or '0') ~= ARGV[3] then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
redis.call('PEXPIRE', KEYS[2], ARGV[4])
return 1
`)

// RedisRollup stores daily totals in one hash per tenant and their versions
// in a second hash. The TTL is refreshed on every write, so it only
// reclaims tenants that stopped reading and recording; it plays no part in
// keeping totals correct.
type RedisRollup struct {
	client *redis.Client
	ttl    time.Duration
}

var _ production.Rollup = (*RedisRollup)(nil)

func NewRedisRollup(client *redis.Client, ttl time.Duration) *RedisRollup {
	if ttl <= 0 {
		ttl = DefaultRollupTTL
	}
	return &RedisRollup{client: client, ttl: ttl}
}

func rollupKey(tenant solar.TenantID) string {
	return rollupKeyPrefix + string(tenant)
}

func versionKey(tenant solar.TenantID) string {
	return versionKeyPrefix + string(tenant)
}

func dayField(day time.Time) string {
	return day.Format(time.DateOnly)
}

// formatVersion joins a purge epoch and a day generation. Missing counters
// are "0".
func formatVersion(epoch, gen string) string {
	return epoch + "." + gen
}

func (r *RedisRollup) Get(ctx context.Context, tenant solar.TenantID, day time.Time) (decimal.Decimal, bool, error) {
	val, err := r.client.HGet(ctx, rollupKey(tenant), dayField(day)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("rollup get %s/%s: %w", tenant, dayField(day), err)
	}
	total, err := decimal.NewFromString(val)
	if err != nil {
		// Unreadable entry: treat as a miss so the day is rescanned and rewritten.
		return decimal.Zero, false, nil
	}
	return total, true, nil
}

func (r *RedisRollup) Version(ctx context.Context, tenant solar.TenantID, day time.Time) (string, error) {
	vals, err := r.client.HMGet(ctx, versionKey(tenant), dayField(day), epochField).Result()
	if err != nil {
		return "", fmt.Errorf("rollup version %s/%s: %w", tenant, dayField(day), err)
	}
	counter := func(v any) string {
		if s, ok := v.(string); ok {
			return s
		}
		return "0"
	}
	return formatVersion(counter(vals[1]), counter(vals[0])), nil
}

// Put is a no-op when the day was invalidated or the tenant purged since
// version was read.
func (r *RedisRollup) Put(ctx context.Context, tenant solar.TenantID, day time.Time, total decimal.Decimal, version string) error {
	keys := []string{rollupKey(tenant), versionKey(tenant)}
	err := putScript.Run(ctx, r.client, keys, dayField(day), total.String(), version, r.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("rollup put %s/%s: %w", tenant, dayField(day), err)
	}
	return nil
}

func (r *RedisRollup) Invalidate(ctx context.Context, tenant solar.TenantID, day time.Time) error {
	pipe := r.client.TxPipeline()
	pipe.HDel(ctx, rollupKey(tenant), dayField(day))
	pipe.HIncrBy(ctx, versionKey(tenant), dayField(day), 1)
	pipe.Expire(ctx, versionKey(tenant), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rollup invalidate %s/%s: %w", tenant, dayField(day), err)
	}
	return nil
}

// Purge drops every cached day and moves the tenant to a new epoch, which
// voids versions handed out before it.
func (r *RedisRollup) Purge(ctx context.Context, tenant solar.TenantID) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, rollupKey(tenant))
	pipe.HIncrBy(ctx, versionKey(tenant), epochField, 1)
	pipe.Expire(ctx, versionKey(tenant), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("rollup purge %s: %w", tenant, err)
	}
	return nil
}

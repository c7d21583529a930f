package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/warp/solar-engine/analytics"
	"github.com/warp/solar-engine/cache"
	"github.com/warp/solar-engine/config"
	"github.com/warp/solar-engine/demo"
	"github.com/warp/solar-engine/distribution"
	"github.com/warp/solar-engine/lifecycle"
	"github.com/warp/solar-engine/logger"
	"github.com/warp/solar-engine/metrics"
	"github.com/warp/solar-engine/production"
	"github.com/warp/solar-engine/rates"
	"github.com/warp/solar-engine/solar"
	"github.com/warp/solar-engine/store/sqlite"
	"github.com/warp/solar-engine/tenant"
)

// app is the fully wired engine. close releases the store and the Redis
// client (when one was opened).
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	store     *sqlite.Store
	clock     solar.Clock
	plants    *lifecycle.Manager
	samples   *production.Ledger
	contracts *distribution.Ledger
	engine    *metrics.Engine
	bi        *analytics.Service
	demo      *demo.Loader

	closers []func() error
}

// loadConfig reads configuration and installs the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, log: logger.WithComponent("main")}

	loc, err := cfg.Clock.Location()
	if err != nil {
		return nil, err
	}
	a.clock = solar.SystemClock(loc)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)

	guard := tenant.NewGuard(store, cfg.Tenant.Capability)

	ledgerOpts := []production.Option{production.WithClock(a.clock)}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			a.close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, client.Close)
		ledgerOpts = append(ledgerOpts, production.WithRollup(cache.NewRedisRollup(client, cfg.Redis.RollupTTL)))
		a.log.Info("daily rollup cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.RollupTTL)
	}

	a.samples = production.NewLedger(guard, store, ledgerOpts...)
	a.plants = lifecycle.NewManager(guard, store, lifecycle.WithClock(a.clock), lifecycle.WithPurger(a.samples))
	a.contracts = distribution.NewLedger(guard, store, a.clock)
	a.engine = metrics.NewEngine(a.plants, a.samples, a.contracts, rates.NewTable(cfg.Rates.Default, cfg.Rates.Regions), a.clock)
	a.bi = analytics.NewService(a.engine, a.samples)
	a.demo = demo.NewLoader(store, a.plants, a.samples, a.contracts, a.clock)
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

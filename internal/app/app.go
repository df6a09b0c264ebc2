// Package app opens the shared infrastructure named by the configuration and
// assembles the trust and rental modules on top of it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"briq/internal/platform/config"
	"briq/internal/platform/events"
	"briq/internal/platform/postgres"
	"briq/internal/platform/redis"
	"briq/internal/rental"
	rentalmetrics "briq/internal/rental/metrics"
	"briq/internal/trust"
	trustmetrics "briq/internal/trust/metrics"
	"briq/pkg/platform/audit/publishers/ops"
)

// Metrics groups the per-module collectors. Leave nil to run without metrics.
type Metrics struct {
	Trust  *trustmetrics.Metrics
	Rental *rentalmetrics.Metrics
	Events *ops.Metrics
}

// NewMetrics registers every collector with the default registry. Call once
// per process.
func NewMetrics() *Metrics {
	return &Metrics{
		Trust:  trustmetrics.New(),
		Rental: rentalmetrics.New(),
		Events: ops.NewMetrics(),
	}
}

type App struct {
	Config config.Config
	Trust  *trust.Module
	Rental *rental.Module

	closers []func()
}

// Open connects to whatever the configuration selects. On error everything
// opened so far is released.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger, m *Metrics) (_ *App, err error) {
	if m == nil {
		m = &Metrics{}
	}
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	db, pool, err := a.openPostgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
	}

	sink, err := events.Open(ctx, cfg, db, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sink.Close)
	publisher := events.Publisher(sink.Store, cfg.Ledger, m.Events, logger)

	trustDeps := trust.Deps{
		Store:    cfg.Store,
		Ledger:   cfg.Ledger,
		Metadata: cfg.Metadata,
		DB:       db,
		Events:   publisher,
		Metrics:  m.Trust,
		Logger:   logger,
	}
	if redisClient != nil {
		trustDeps.Redis = redisClient.Client
	}
	a.Trust, err = trust.New(ctx, trustDeps)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = a.Trust.Close() })

	a.Rental, err = rental.New(ctx, rental.Deps{
		Config:      cfg.Rental,
		Backend:     cfg.Store.AgreementBackend,
		Pool:        pool,
		Ledger:      a.Trust.Recorder,
		Projections: a.Trust.Refresher,
		Events:      publisher,
		Metrics:     m.Rental,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) openPostgres(ctx context.Context, cfg config.Config) (*sql.DB, *pgxpool.Pool, error) {
	needsDB := cfg.Store.ProfileBackend == config.BackendPostgres || cfg.Ledger.EventSink == config.BackendPostgres
	needsPool := cfg.Store.AgreementBackend == config.BackendPostgres
	if !needsDB && !needsPool {
		return nil, nil, nil
	}
	if cfg.Store.DatabaseURL == "" {
		return nil, nil, errors.New("BRIQ_DATABASE_URL is required")
	}

	var db *sql.DB
	if needsDB {
		var err error
		if db, err = postgres.OpenDB(ctx, cfg.Store.DatabaseURL); err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
	}
	var pool *pgxpool.Pool
	if needsPool {
		var err error
		if pool, err = postgres.OpenPool(ctx, cfg.Store.DatabaseURL); err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, pool.Close)
	}
	return db, pool, nil
}

// Close releases resources in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

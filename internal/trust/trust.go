// Package trust assembles the trust ledger: profile storage, the event
// recorder, the metadata projection and its HTTP handler.
package trust

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"briq/internal/platform/config"
	"briq/internal/platform/middleware"
	"briq/internal/trust/handler"
	"briq/internal/trust/metrics"
	"briq/internal/trust/projection"
	"briq/internal/trust/service"
	"briq/internal/trust/store/profile"
)

// Deps are the shared resources the module may draw on. DB and Redis are
// only required by the backends that use them.
type Deps struct {
	Store    config.Store
	Ledger   config.Ledger
	Metadata config.Metadata
	DB       *sql.DB
	Redis    *goredis.Client
	Events   service.AuditPublisher
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

type Module struct {
	Store     *profile.Store
	Recorder  *service.Recorder
	Refresher *projection.Refresher

	close func() error
}

// New opens the configured profile backend and wires the recorder to it.
func New(ctx context.Context, deps Deps) (*Module, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backend, closeFn, err := openBackend(ctx, deps)
	if err != nil {
		return nil, err
	}
	store := profile.New(backend, profile.WithLogger(logger))

	var cache projection.MetadataStore = projection.NewInMemoryStore()
	if deps.Redis != nil {
		cache = projection.NewRedisStore(deps.Redis, deps.Metadata.CacheTTL)
	}
	refresher := projection.NewRefresher(store, cache,
		projection.WithLogger(logger),
		projection.WithMetrics(deps.Metrics),
	)

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(deps.Metrics),
		service.WithProjectionRefresher(refresher),
	}
	if deps.Events != nil {
		opts = append(opts, service.WithAuditPublisher(deps.Events))
	}
	if deps.Ledger.OptimisticSave {
		opts = append(opts, service.WithOptimisticConcurrency(deps.Ledger.SaveRetries))
	}
	if deps.Ledger.AutoCreate {
		opts = append(opts, service.WithAutoCreate())
	}

	return &Module{
		Store:     store,
		Recorder:  service.New(store, opts...),
		Refresher: refresher,
		close:     closeFn,
	}, nil
}

func openBackend(ctx context.Context, deps Deps) (profile.Backend, func() error, error) {
	noop := func() error { return nil }
	switch deps.Store.ProfileBackend {
	case "", config.BackendMemory:
		return profile.NewInMemoryBackend(), noop, nil
	case config.BackendSQLite:
		b, err := profile.OpenSQLite(deps.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case config.BackendPostgres:
		if deps.DB == nil {
			return nil, nil, fmt.Errorf("postgres profile backend needs a database")
		}
		b := profile.NewPostgresBackend(deps.DB)
		if err := b.EnsureSchema(ctx); err != nil {
			return nil, nil, err
		}
		return b, noop, nil
	case config.BackendRedis:
		if deps.Redis == nil {
			return nil, nil, fmt.Errorf("redis profile backend needs a redis client")
		}
		return profile.NewRedisBackend(deps.Redis), noop, nil
	}
	return nil, nil, fmt.Errorf("unknown profile backend %q", deps.Store.ProfileBackend)
}

// Handler returns the HTTP handler for profile routes.
func (m *Module) Handler(logger *slog.Logger, validator middleware.JWTValidator) *handler.Handler {
	return handler.New(m.Recorder, m.Refresher, logger, validator)
}

// Close releases the backend. Shared clients passed in Deps stay open.
func (m *Module) Close() error {
	if m.close == nil {
		return nil
	}
	return m.close()
}

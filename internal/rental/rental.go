// Package rental assembles the agreement saga: registry, coordinator,
// reconciler and its schedule.
package rental

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"briq/internal/platform/config"
	"briq/internal/platform/middleware"
	"briq/internal/rental/handler"
	"briq/internal/rental/metrics"
	"briq/internal/rental/service"
	"briq/internal/rental/store/agreement"
	"briq/internal/rental/worker"
)

type Deps struct {
	Config      config.Rental
	Backend     string
	Pool        *pgxpool.Pool
	Ledger      service.Ledger
	Projections service.Projections
	Events      service.AuditPublisher
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

type Module struct {
	Coordinator *service.Coordinator
	Reconciler  *service.Reconciler
	Worker      *worker.Worker
}

// New opens the configured registry and wires the coordinator to ledger.
func New(ctx context.Context, deps Deps) (*Module, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry, err := openRegistry(ctx, deps)
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(deps.Metrics),
	}
	if deps.Projections != nil {
		opts = append(opts, service.WithProjections(deps.Projections))
	}
	if deps.Events != nil {
		opts = append(opts, service.WithAuditPublisher(deps.Events))
	}
	if deps.Config.CurrencyUnit != "" {
		opts = append(opts, service.WithCurrencyUnit(deps.Config.CurrencyUnit))
	}
	coordinator := service.New(registry, deps.Ledger, opts...)
	reconciler := service.NewReconciler(coordinator,
		service.WithReconcilerLogger(logger),
		service.WithMaxAttempts(deps.Config.MaxAttempts),
	)
	return &Module{
		Coordinator: coordinator,
		Reconciler:  reconciler,
		Worker:      worker.New(reconciler, deps.Config.ReconcileCron, worker.WithLogger(logger)),
	}, nil
}

func openRegistry(ctx context.Context, deps Deps) (service.Registry, error) {
	switch deps.Backend {
	case "", config.BackendMemory:
		return agreement.NewInMemoryStore(), nil
	case config.BackendPostgres:
		if deps.Pool == nil {
			return nil, fmt.Errorf("postgres agreement backend needs a connection pool")
		}
		s := agreement.NewPostgresStore(deps.Pool)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown agreement backend %q", deps.Backend)
}

// Handler returns the HTTP handler for rental and operator routes.
func (m *Module) Handler(logger *slog.Logger, validator middleware.JWTValidator, adminToken string) *handler.Handler {
	return handler.New(m.Coordinator, m.Reconciler, logger, validator, adminToken)
}

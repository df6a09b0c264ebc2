// Package events opens the configured ledger-event sink behind the
// best-effort publisher.
package events

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"briq/internal/platform/config"
	"briq/internal/platform/kafka"
	audit "briq/pkg/platform/audit"
	"briq/pkg/platform/audit/publishers/ops"
	kafkastore "briq/pkg/platform/audit/store/kafka"
	"briq/pkg/platform/audit/store/memory"
	pgstore "briq/pkg/platform/audit/store/postgres"
)

// Sink is an opened event store and how to release it.
type Sink struct {
	Store audit.Store
	Close func()
}

// Open returns the sink named by cfg.Ledger.EventSink. db is only used by the
// postgres sink.
func Open(ctx context.Context, cfg config.Config, db *sql.DB, logger *slog.Logger) (*Sink, error) {
	switch cfg.Ledger.EventSink {
	case "", config.BackendMemory:
		return &Sink{Store: memory.NewInMemoryStore(), Close: func() {}}, nil
	case config.BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres event sink needs a database")
		}
		s := pgstore.New(db)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return &Sink{Store: s, Close: func() {}}, nil
	case config.BackendKafka:
		client, err := kafka.NewClient(ctx, cfg.Kafka, logger)
		if err != nil {
			return nil, err
		}
		return &Sink{Store: kafkastore.New(client, cfg.Kafka.Topic), Close: client.Close}, nil
	}
	return nil, fmt.Errorf("unknown event sink %q", cfg.Ledger.EventSink)
}

// Publisher wraps store in the best-effort publisher. m may be nil.
func Publisher(store audit.Store, cfg config.Ledger, m *ops.Metrics, logger *slog.Logger) *ops.Publisher {
	return ops.New(store,
		ops.WithLogger(logger),
		ops.WithMetrics(m),
		ops.WithSampler(ops.NewSampler(cfg.OpsSampleRate)),
	)
}

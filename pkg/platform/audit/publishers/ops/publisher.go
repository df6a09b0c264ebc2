// Package ops provides a best-effort ledger event publisher.
//
// Publisher never fails the caller: the profile or agreement change it
// describes has already been persisted. A circuit breaker stops hammering an
// unhealthy sink and operational events may be sampled down.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "briq/pkg/platform/audit"
	"briq/pkg/requestcontext"
)

type Publisher struct {
	store   audit.Store
	breaker *CircuitBreaker
	sampler *Sampler
	metrics *Metrics
	logger  *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(p *Publisher) {
		p.breaker = cb
	}
}

func WithSampler(s *Sampler) Option {
	return func(p *Publisher) {
		p.sampler = s
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		breaker: NewCircuitBreaker(5, 30*time.Second),
		sampler: NewSampler(1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills timestamp, category and request id, then writes the event.
// Ledger events bypass sampling. Failures are logged and counted only.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) {
	if p == nil || p.store == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	event.Category = event.Action.Category()
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Actor == "" {
		event.Actor = requestcontext.Actor(ctx)
	}

	if event.Category == audit.CategoryOperations && !p.sampler.ShouldSample(string(event.Action)) {
		p.metrics.IncSampled()
		return
	}
	if !p.breaker.Allow() {
		p.metrics.IncCircuitBreakerDropped()
		p.metrics.SetCircuitBreakerState(true)
		return
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.breaker.RecordFailure()
		p.metrics.IncPersistFailures()
		p.metrics.SetCircuitBreakerState(p.breaker.IsOpen())
		if p.logger != nil {
			p.logger.WarnContext(ctx, "ledger event dropped",
				"action", event.Action,
				"address", event.Address,
				"error", err,
			)
		}
		return
	}
	p.breaker.RecordSuccess()
	p.metrics.IncTracked()
	p.metrics.SetCircuitBreakerState(false)
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"briq/internal/rental/models"
	dErrors "briq/pkg/domain-errors"
	audit "briq/pkg/platform/audit"
	"briq/pkg/platform/sentinel"
)

// Report summarizes one reconcile pass.
type Report struct {
	Scanned   int `json:"scanned"`
	Repaired  int `json:"repaired"`
	Pending   int `json:"pending"`
	Cancelled int `json:"cancelled"`
	Failed    int `json:"failed"`
}

// Reconciler repairs half-applied agreements. It re-applies the missing
// ledger sides of every pending agreement, joined by agreement hash. Pending
// agreements are never cancelled automatically unless WithMaxAttempts opts in.
type Reconciler struct {
	coordinator *Coordinator
	logger      *slog.Logger
	maxAttempts int
}

type ReconcilerOption func(*Reconciler)

func WithReconcilerLogger(logger *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithMaxAttempts cancels agreements whose ledger writes failed n times.
// Zero, the default, never cancels.
func WithMaxAttempts(n int) ReconcilerOption {
	return func(r *Reconciler) {
		r.maxAttempts = max(n, 0)
	}
}

func NewReconciler(coordinator *Coordinator, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		coordinator: coordinator,
		logger:      coordinator.logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run makes one pass over pending agreements.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	ctx, span := tracer.Start(ctx, "rental.reconcile")
	defer span.End()

	c := r.coordinator
	pending, err := c.registry.ListPending(ctx)
	if err != nil {
		return Report{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending agreements")
	}
	c.metrics.SetPending(len(pending))

	var report Report
	for _, a := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		out := c.apply(ctx, a)
		if !out.Degraded {
			report.Repaired++
			c.metrics.IncReconciled("repaired")
			c.logAudit(ctx, audit.ActionAgreementReconciled, a, "attempts", a.Attempts)
			c.refresh(ctx, a)
			continue
		}
		if r.maxAttempts == 0 || a.Attempts < r.maxAttempts {
			report.Pending++
			c.metrics.IncReconciled("pending")
			continue
		}
		if _, err := c.cancel(ctx, a); err != nil {
			report.Failed++
			c.metrics.IncReconciled("failed")
			r.logger.ErrorContext(ctx, "failed to cancel agreement", "agreement_hash", a.Hash, "error", err)
			continue
		}
		report.Cancelled++
		c.metrics.IncReconciled("cancelled")
	}

	span.SetAttributes(
		attribute.Int("briq.scanned", report.Scanned),
		attribute.Int("briq.repaired", report.Repaired),
		attribute.Int("briq.cancelled", report.Cancelled),
	)
	r.logger.InfoContext(ctx, "reconcile pass finished",
		"scanned", report.Scanned,
		"repaired", report.Repaired,
		"pending", report.Pending,
		"cancelled", report.Cancelled,
		"failed", report.Failed,
	)
	return report, nil
}

// Cancel compensates a pending agreement by hash, removing any ledger entries
// it wrote and freeing its property.
func (r *Reconciler) Cancel(ctx context.Context, hash string) (*models.Agreement, error) {
	c := r.coordinator
	a, err := c.registry.FindByHash(ctx, hash)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "agreement not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agreement")
	}
	if a.Status != models.StatusPending {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "agreement is %s, only pending agreements can be cancelled", a.Status)
	}
	out, err := c.cancel(ctx, a)
	if err != nil {
		return nil, err
	}
	return out.Agreement, nil
}

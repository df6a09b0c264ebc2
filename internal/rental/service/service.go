package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"briq/internal/rental/metrics"
	"briq/internal/rental/models"
	trust "briq/internal/trust/models"
	audit "briq/pkg/platform/audit"
	"briq/pkg/requestcontext"
)

var tracer = otel.Tracer("briq/internal/rental/service")

// Ledger writes one party's copy of an agreement into its trust profile.
// Every method is idempotent by agreement hash.
type Ledger interface {
	ApplyRental(ctx context.Context, address string, side trust.Side, entry trust.RentalEntry) (bool, error)
	EndRental(ctx context.Context, address string, side trust.Side, agreementHash string, term trust.Termination) (bool, error)
	RemoveRental(ctx context.Context, address, agreementHash string) (bool, error)
}

// Registry stores agreements and enforces one holding agreement per property.
type Registry interface {
	Reserve(ctx context.Context, a *models.Agreement) error
	Update(ctx context.Context, a *models.Agreement) error
	FindByHash(ctx context.Context, hash string) (*models.Agreement, error)
	FindHolding(ctx context.Context, propertyID string) (*models.Agreement, error)
	ListPending(ctx context.Context) ([]*models.Agreement, error)
	ListByLandlord(ctx context.Context, landlord string) ([]*models.Agreement, error)
}

// Projections rebuilds the display metadata of an address.
type Projections interface {
	Refresh(ctx context.Context, address string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// DefaultCurrencyUnit is the unit amounts are quoted in by signature messages.
const DefaultCurrencyUnit = "wei"

// Coordinator drives the two-ledger agreement saga:
//
//	reserve (pending) -> landlord ledger -> tenant ledger -> active
//
// A failed ledger write leaves the agreement pending with per-side progress
// recorded; the Reconciler finishes or cancels it later.
type Coordinator struct {
	registry       Registry
	ledger         Ledger
	projections    Projections
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	currencyUnit   string
}

type Option func(*Coordinator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(c *Coordinator) {
		c.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithProjections refreshes both parties' metadata after an agreement changes.
func WithProjections(p Projections) Option {
	return func(c *Coordinator) {
		c.projections = p
	}
}

func WithCurrencyUnit(unit string) Option {
	return func(c *Coordinator) {
		if unit != "" {
			c.currencyUnit = unit
		}
	}
}

func New(registry Registry, ledger Ledger, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:     registry,
		ledger:       ledger,
		logger:       slog.Default(),
		currencyUnit: DefaultCurrencyUnit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// refresh rebuilds metadata for both parties concurrently. Failures are
// logged only.
func (c *Coordinator) refresh(ctx context.Context, a *models.Agreement) {
	if c.projections == nil {
		return
	}
	var g errgroup.Group
	for _, address := range []string{a.Landlord, a.Tenant} {
		g.Go(func() error {
			if err := c.projections.Refresh(ctx, address); err != nil {
				c.logger.WarnContext(ctx, "metadata refresh failed",
					"address", address, "agreement_hash", a.Hash, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (c *Coordinator) now(ctx context.Context) time.Time {
	return trust.StoredTime(requestcontext.Now(ctx))
}

func (c *Coordinator) logAudit(ctx context.Context, action audit.Action, a *models.Agreement, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes,
		"agreement_hash", a.Hash,
		"property_id", a.PropertyID,
		"landlord", a.Landlord,
		"tenant", a.Tenant,
		"event", string(action),
		"log_type", "audit",
	)
	c.logger.InfoContext(ctx, string(action), args...)
	c.emit(ctx, action, a, "")
}

// emit publishes one event per party so each address's stream is complete.
func (c *Coordinator) emit(ctx context.Context, action audit.Action, a *models.Agreement, detail string) {
	if c.auditPublisher == nil {
		return
	}
	for _, address := range []string{a.Landlord, a.Tenant} {
		c.auditPublisher.Emit(ctx, audit.Event{
			Address: address,
			Action:  action,
			Subject: a.Hash,
			Detail:  detail,
		})
	}
}

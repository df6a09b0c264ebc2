package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"briq/internal/trust/metrics"
	"briq/internal/trust/models"
	"briq/internal/trust/score"
	dErrors "briq/pkg/domain-errors"
	audit "briq/pkg/platform/audit"
	"briq/pkg/platform/sentinel"
	"briq/pkg/requestcontext"
)

var tracer = otel.Tracer("briq/internal/trust/service")

// ProfileStore is the persistence port of the recorder.
type ProfileStore interface {
	Get(ctx context.Context, address string) (*models.Profile, error)
	Initialize(ctx context.Context, address string, userType models.UserType) (*models.Profile, error)
	Save(ctx context.Context, p *models.Profile) error
	CompareAndSave(ctx context.Context, p *models.Profile, expected uint64) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// ProjectionRefresher rebuilds the display metadata of an address.
type ProjectionRefresher interface {
	Refresh(ctx context.Context, address string) error
}

// Recorder applies trust events to profiles: read, mutate aggregates,
// recompute scores, persist.
//
// By default writes are last-write-wins: two concurrent mutations of the same
// address can lose one update. WithOptimisticConcurrency switches to
// compare-and-save with bounded retries.
type Recorder struct {
	profiles       ProfileStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	projections    ProjectionRefresher
	optimistic     bool
	retries        int
	autoCreate     bool
}

type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(r *Recorder) {
		r.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// WithProjectionRefresher refreshes display metadata after each recorded event.
func WithProjectionRefresher(p ProjectionRefresher) Option {
	return func(r *Recorder) {
		r.projections = p
	}
}

// WithOptimisticConcurrency makes every mutation a compare-and-save, retried
// up to retries times after a conflict.
func WithOptimisticConcurrency(retries int) Option {
	return func(r *Recorder) {
		r.optimistic = true
		r.retries = max(retries, 0)
	}
}

// WithAutoCreate initializes a missing profile for the side an event needs
// instead of failing with not found.
func WithAutoCreate() Option {
	return func(r *Recorder) {
		r.autoCreate = true
	}
}

func New(profiles ProfileStore, opts ...Option) *Recorder {
	r := &Recorder{profiles: profiles, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// mutation is applied to a freshly loaded profile. Returning false skips the
// write.
type mutation func(p *models.Profile, now time.Time) (bool, error)

// mutate runs one read-modify-write cycle. create names the user type to
// initialize a missing profile with; empty means a missing profile is an error.
func (r *Recorder) mutate(ctx context.Context, kind, address string, create models.UserType, fn mutation) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "trust."+kind)
	defer span.End()
	span.SetAttributes(attribute.String("briq.address", models.NormalizeAddress(address)))
	start := time.Now()
	defer r.metrics.ObserveMutation(kind, start)

	attempts := 1
	if r.optimistic {
		attempts += r.retries
	}
	for attempt := 1; ; attempt++ {
		p, err := r.load(ctx, address, create)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		now := models.StoredTime(requestcontext.Now(ctx))
		changed, err := fn(p, now)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if !changed {
			return p, nil
		}
		p.UpdatedAt = now

		if r.optimistic {
			err = r.profiles.CompareAndSave(ctx, p, p.Revision)
		} else {
			err = r.profiles.Save(ctx, p)
		}
		if err == nil {
			return p, nil
		}
		if errors.Is(err, sentinel.ErrConflict) {
			r.metrics.IncSaveConflict()
			r.emit(ctx, audit.ActionSaveConflict, p.Address, kind, "")
			if attempt < attempts {
				r.logger.DebugContext(ctx, "profile changed underneath, retrying",
					"address", p.Address, "kind", kind, "attempt", attempt)
				continue
			}
			span.SetStatus(codes.Error, "conflict")
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "profile was modified concurrently")
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}
}

func (r *Recorder) load(ctx context.Context, address string, create models.UserType) (*models.Profile, error) {
	if models.NormalizeAddress(address) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "address is required")
	}
	p, err := r.profiles.Get(ctx, address)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	if create == "" {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "profile not found")
	}

	p, err = r.profiles.Initialize(ctx, address, create)
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		// Lost a creation race, or the key holds a record we cannot read.
		p, err = r.profiles.Get(ctx, address)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "stored profile cannot be read")
		}
		return p, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize profile")
	}
	r.metrics.IncProfileCreated(string(create))
	r.logAudit(ctx, audit.ActionProfileInitialized, p.Address, string(create), "auto_created", true)
	return p, nil
}

func (r *Recorder) createFor(side models.Side) models.UserType {
	if !r.autoCreate {
		return ""
	}
	return models.ForSide(side)
}

func (r *Recorder) rescoreTenant(t *models.TenantRecord, now time.Time) {
	t.TrustScore = score.Tenant(t)
	t.LastUpdated = now
	r.metrics.ObserveTrustScore(string(models.SideTenant), t.TrustScore)
}

func (r *Recorder) rescoreLandlord(l *models.LandlordRecord, now time.Time) {
	l.TrustScore = score.Landlord(l)
	l.LastUpdated = now
	r.metrics.ObserveTrustScore(string(models.SideLandlord), l.TrustScore)
}

// recorded finishes a successful public event: audit, metric, projection.
func (r *Recorder) recorded(ctx context.Context, action audit.Action, p *models.Profile, subject string, attrs ...any) {
	r.metrics.IncEventRecorded(string(action))
	r.logAudit(ctx, action, p.Address, subject, attrs...)
	if r.projections == nil {
		return
	}
	if err := r.projections.Refresh(ctx, p.Address); err != nil {
		r.logger.WarnContext(ctx, "metadata refresh failed", "address", p.Address, "error", err)
	}
}

func (r *Recorder) logAudit(ctx context.Context, action audit.Action, address, subject string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "address", address, "subject", subject, "event", string(action), "log_type", "audit")
	r.logger.InfoContext(ctx, string(action), args...)
	r.emit(ctx, action, address, subject, "")
}

func (r *Recorder) emit(ctx context.Context, action audit.Action, address, subject, detail string) {
	if r.auditPublisher == nil {
		return
	}
	r.auditPublisher.Emit(ctx, audit.Event{
		Address: address,
		Action:  action,
		Subject: subject,
		Detail:  detail,
	})
}

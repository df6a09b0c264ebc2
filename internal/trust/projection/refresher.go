package projection

import (
	"context"
	"errors"
	"log/slog"

	"briq/internal/trust/metrics"
	"briq/internal/trust/models"
	dErrors "briq/pkg/domain-errors"
	"briq/pkg/platform/sentinel"
)

type ProfileReader interface {
	Get(ctx context.Context, address string) (*models.Profile, error)
}

type MetadataStore interface {
	Get(ctx context.Context, address string) (*Metadata, error)
	Put(ctx context.Context, address string, m *Metadata) error
}

// Refresher keeps the cached metadata document of each address in step with
// its profile.
type Refresher struct {
	profiles ProfileReader
	store    MetadataStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(*Refresher)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Refresher) {
		r.metrics = m
	}
}

func NewRefresher(profiles ProfileReader, store MetadataStore, opts ...Option) *Refresher {
	r := &Refresher{profiles: profiles, store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh rebuilds and stores the metadata of address. A missing profile is
// not an error: there is nothing to display yet.
func (r *Refresher) Refresh(ctx context.Context, address string) error {
	_, err := r.refresh(ctx, address)
	return err
}

func (r *Refresher) refresh(ctx context.Context, address string) (*Metadata, error) {
	p, err := r.profiles.Get(ctx, address)
	if errors.Is(err, sentinel.ErrNotFound) {
		r.metrics.IncProjectionRefresh("skipped")
		return nil, nil
	}
	if err != nil {
		r.metrics.IncProjectionRefresh("failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile for metadata")
	}

	prev, err := r.store.Get(ctx, p.Address)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		// A broken cache entry is rebuilt from scratch.
		r.logger.WarnContext(ctx, "discarding unreadable metadata", "address", p.Address, "error", err)
		prev = nil
	}
	m := BuildMetadata(p, prev)
	if err := r.store.Put(ctx, p.Address, m); err != nil {
		r.metrics.IncProjectionRefresh("failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store metadata")
	}
	r.metrics.IncProjectionRefresh("ok")
	return m, nil
}

// Metadata returns the cached document, building it on a miss.
func (r *Refresher) Metadata(ctx context.Context, address string) (*Metadata, error) {
	m, err := r.store.Get(ctx, address)
	if err == nil {
		return m, nil
	}
	m, err = r.refresh(ctx, address)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	return m, nil
}

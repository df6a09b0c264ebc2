// Package profile persists one trust profile per wallet address.
//
// Profiles are serialized through a versioned codec and written to a pluggable
// Backend. Save is last-write-wins; CompareAndSave is the optimistic variant
// and fails with sentinel.ErrConflict when the stored revision moved.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"briq/internal/trust/models"
	"briq/pkg/platform/sentinel"
	"briq/pkg/requestcontext"
)

// Record is the raw persisted form of a profile together with its revision.
type Record struct {
	Data     []byte
	Revision uint64
}

// Backend stores opaque profile records by key.
//
// Load returns sentinel.ErrNotFound for unknown keys. Insert fails with
// sentinel.ErrAlreadyUsed if the key exists. CompareAndPut fails with
// sentinel.ErrConflict when the stored revision differs from expected
// (expected 0 means the key must not exist yet).
type Backend interface {
	Load(ctx context.Context, key string) (Record, error)
	Insert(ctx context.Context, key string, data []byte) (uint64, error)
	Put(ctx context.Context, key string, data []byte) (uint64, error)
	CompareAndPut(ctx context.Context, key string, data []byte, expected uint64) (uint64, error)
}

// Store is the typed profile store over a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for corrupt or foreign-version records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New constructs a Store over the backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get loads the profile for address. Absent records and records with a
// mismatched schema version both yield sentinel.ErrNotFound.
func (s *Store) Get(ctx context.Context, address string) (*models.Profile, error) {
	key := Key(address)
	rec, err := s.backend.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	p, err := Decode(rec.Data)
	if err != nil {
		if errors.Is(err, ErrVersionMismatch) {
			s.logger.WarnContext(ctx, "ignoring profile with foreign schema version", "key", key)
		}
		return nil, err
	}
	p.Revision = rec.Revision
	return p, nil
}

// Initialize creates and stores a profile with default sub-records. A readable
// existing record yields sentinel.ErrAlreadyUsed. A record with a foreign
// schema version counts as absent and is replaced, not migrated.
func (s *Store) Initialize(ctx context.Context, address string, userType models.UserType) (*models.Profile, error) {
	p, err := models.NewProfile(address, userType, models.StoredTime(requestcontext.Now(ctx)))
	if err != nil {
		return nil, err
	}
	data, err := Encode(p)
	if err != nil {
		return nil, err
	}
	key := Key(p.Address)
	rev, err := s.backend.Insert(ctx, key, data)
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		rev, err = s.replaceForeign(ctx, key, data)
	}
	if err != nil {
		return nil, err
	}
	p.Revision = rev
	return p, nil
}

// replaceForeign overwrites key with data when the stored record carries a
// foreign schema version. Any other record keeps sentinel.ErrAlreadyUsed.
func (s *Store) replaceForeign(ctx context.Context, key string, data []byte) (uint64, error) {
	rec, err := s.backend.Load(ctx, key)
	if err != nil {
		return 0, sentinel.ErrAlreadyUsed
	}
	if _, err := Decode(rec.Data); !errors.Is(err, ErrVersionMismatch) {
		return 0, sentinel.ErrAlreadyUsed
	}
	rev, err := s.backend.CompareAndPut(ctx, key, data, rec.Revision)
	if errors.Is(err, sentinel.ErrConflict) {
		return 0, sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return 0, fmt.Errorf("replace profile %s: %w", key, err)
	}
	s.logger.WarnContext(ctx, "replaced profile with foreign schema version",
		"key", key, "previous_revision", rec.Revision)
	return rev, nil
}

// Save overwrites the stored profile unconditionally and advances p.Revision.
func (s *Store) Save(ctx context.Context, p *models.Profile) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	rev, err := s.backend.Put(ctx, Key(p.Address), data)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Address, err)
	}
	p.Revision = rev
	return nil
}

// CompareAndSave writes p only if the stored revision still equals expected.
func (s *Store) CompareAndSave(ctx context.Context, p *models.Profile, expected uint64) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	rev, err := s.backend.CompareAndPut(ctx, Key(p.Address), data, expected)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		return fmt.Errorf("compare-and-save profile %s: %w", p.Address, err)
	}
	p.Revision = rev
	return nil
}

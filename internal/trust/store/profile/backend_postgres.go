package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"briq/pkg/platform/sentinel"

	"github.com/lib/pq"
)

// PostgresSchema creates the profile table. Applied by EnsureSchema.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS trust_profiles (
	profile_key TEXT PRIMARY KEY,
	data        JSONB NOT NULL,
	revision    BIGINT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const pgUniqueViolation = "23505"

// PostgresBackend persists profiles as JSONB rows.
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema creates the table if it does not exist.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("apply trust_profiles schema: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Load(ctx context.Context, key string) (Record, error) {
	var rec Record
	err := b.db.QueryRowContext(ctx,
		`SELECT data, revision FROM trust_profiles WHERE profile_key = $1`, key,
	).Scan(&rec.Data, &rec.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load profile record: %w", err)
	}
	return rec, nil
}

func (b *PostgresBackend) Insert(ctx context.Context, key string, data []byte) (uint64, error) {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO trust_profiles (profile_key, data, revision) VALUES ($1, $2, 1)`, key, data)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return 0, sentinel.ErrAlreadyUsed
		}
		return 0, fmt.Errorf("insert profile record: %w", err)
	}
	return 1, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, data []byte) (uint64, error) {
	var rev uint64
	err := b.db.QueryRowContext(ctx,
		`INSERT INTO trust_profiles (profile_key, data, revision) VALUES ($1, $2, 1)
		 ON CONFLICT (profile_key) DO UPDATE
		 SET data = EXCLUDED.data, revision = trust_profiles.revision + 1, updated_at = now()
		 RETURNING revision`, key, data,
	).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("put profile record: %w", err)
	}
	return rev, nil
}

func (b *PostgresBackend) CompareAndPut(ctx context.Context, key string, data []byte, expected uint64) (uint64, error) {
	if expected == 0 {
		rev, err := b.Insert(ctx, key, data)
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return 0, sentinel.ErrConflict
		}
		return rev, err
	}
	var rev uint64
	err := b.db.QueryRowContext(ctx,
		`UPDATE trust_profiles SET data = $1, revision = revision + 1, updated_at = now()
		 WHERE profile_key = $2 AND revision = $3
		 RETURNING revision`, data, key, expected,
	).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, sentinel.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("compare-and-put profile record: %w", err)
	}
	return rev, nil
}

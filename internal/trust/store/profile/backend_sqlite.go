package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"briq/pkg/platform/sentinel"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trust_profiles (
	profile_key TEXT PRIMARY KEY,
	data        BLOB NOT NULL,
	revision    INTEGER NOT NULL
)`

// SQLiteBackend persists profiles in a single-file SQLite database.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *SQLiteBackend) Load(ctx context.Context, key string) (Record, error) {
	var rec Record
	err := b.db.QueryRowContext(ctx,
		`SELECT data, revision FROM trust_profiles WHERE profile_key = ?`, key,
	).Scan(&rec.Data, &rec.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load profile record: %w", err)
	}
	return rec, nil
}

func (b *SQLiteBackend) Insert(ctx context.Context, key string, data []byte) (uint64, error) {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO trust_profiles (profile_key, data, revision) VALUES (?, ?, 1)`, key, data)
	if err != nil {
		if isSQLiteConstraint(err) {
			return 0, sentinel.ErrAlreadyUsed
		}
		return 0, fmt.Errorf("insert profile record: %w", err)
	}
	return 1, nil
}

func (b *SQLiteBackend) Put(ctx context.Context, key string, data []byte) (uint64, error) {
	var rev uint64
	err := b.db.QueryRowContext(ctx,
		`INSERT INTO trust_profiles (profile_key, data, revision) VALUES (?, ?, 1)
		 ON CONFLICT(profile_key) DO UPDATE SET data = excluded.data, revision = trust_profiles.revision + 1
		 RETURNING revision`, key, data,
	).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("put profile record: %w", err)
	}
	return rev, nil
}

func (b *SQLiteBackend) CompareAndPut(ctx context.Context, key string, data []byte, expected uint64) (uint64, error) {
	if expected == 0 {
		rev, err := b.Insert(ctx, key, data)
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return 0, sentinel.ErrConflict
		}
		return rev, err
	}
	res, err := b.db.ExecContext(ctx,
		`UPDATE trust_profiles SET data = ?, revision = revision + 1
		 WHERE profile_key = ? AND revision = ?`, data, key, expected)
	if err != nil {
		return 0, fmt.Errorf("compare-and-put profile record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("compare-and-put profile record: %w", err)
	}
	if n == 0 {
		return 0, sentinel.ErrConflict
	}
	return expected + 1, nil
}

func isSQLiteConstraint(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

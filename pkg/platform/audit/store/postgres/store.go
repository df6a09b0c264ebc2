// Package postgres persists ledger events in a PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	audit "briq/pkg/platform/audit"
)

// Schema creates the ledger_events table.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger_events (
	id         UUID PRIMARY KEY,
	seq        BIGSERIAL,
	address    TEXT NOT NULL,
	action     TEXT NOT NULL,
	category   TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ledger_events_address_seq ON ledger_events (address, seq)`

// Store implements audit.Store and audit.Reader on *sql.DB.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the table and index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply ledger_events schema: %w", err)
	}
	return nil
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID, payload, err := audit.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledger_events (id, address, action, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		eventID, event.Address, string(event.Action), string(event.Action.Category()), payload, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert ledger event: %w", err)
	}
	return nil
}

func (s *Store) ListByAddress(ctx context.Context, address string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM ledger_events WHERE address = $1 ORDER BY seq`, address)
	if err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		event, err := audit.Unmarshal(payload)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger events: %w", err)
	}
	return events, nil
}

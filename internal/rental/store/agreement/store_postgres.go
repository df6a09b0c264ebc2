package agreement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"briq/internal/rental/models"
	trust "briq/internal/trust/models"
	"briq/pkg/platform/sentinel"
)

// PostgresSchema creates the registry table. The partial unique index is what
// enforces one holding agreement per property across processes.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS rental_agreements (
	agreement_hash   TEXT PRIMARY KEY,
	property_id      TEXT NOT NULL,
	landlord         TEXT NOT NULL,
	tenant           TEXT NOT NULL,
	monthly_rent     TEXT NOT NULL,
	deposit          TEXT NOT NULL,
	start_date       TIMESTAMPTZ NOT NULL,
	nonce            TEXT NOT NULL,
	signature        TEXT NOT NULL,
	status           TEXT NOT NULL,
	landlord_applied BOOLEAN NOT NULL DEFAULT FALSE,
	tenant_applied   BOOLEAN NOT NULL DEFAULT FALSE,
	attempts         INTEGER NOT NULL DEFAULT 0,
	last_error       TEXT NOT NULL DEFAULT '',
	end_reason       TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	activated_at     TIMESTAMPTZ,
	ended_at         TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS rental_agreements_holding
	ON rental_agreements (property_id) WHERE status IN ('pending', 'active');
CREATE INDEX IF NOT EXISTS rental_agreements_landlord ON rental_agreements (landlord);
`

const uniqueViolation = "23505"

const selectColumns = `
	agreement_hash, property_id, landlord, tenant, monthly_rent, deposit,
	start_date, nonce, signature, status, landlord_applied, tenant_applied,
	attempts, last_error, end_reason, created_at, updated_at, activated_at, ended_at`

// PostgresStore persists agreements through a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema applies PostgresSchema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("apply rental agreement schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Reserve(ctx context.Context, a *models.Agreement) error {
	query := `
		INSERT INTO rental_agreements (
			agreement_hash, property_id, landlord, tenant, monthly_rent, deposit,
			start_date, nonce, signature, status, landlord_applied, tenant_applied,
			attempts, last_error, end_reason, created_at, updated_at, activated_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := s.pool.Exec(ctx, query,
		a.Hash, a.PropertyID, a.Landlord, a.Tenant, a.MonthlyRent.String(), a.Deposit.String(),
		a.StartDate, a.Nonce, a.Signature, string(a.Status), a.LandlordApplied, a.TenantApplied,
		a.Attempts, a.LastError, string(a.EndReason), a.CreatedAt, a.UpdatedAt,
		nullTime(a.ActivatedAt), nullTime(a.EndedAt),
	)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert rental agreement: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, a *models.Agreement) error {
	query := `
		UPDATE rental_agreements SET
			status = $2, landlord_applied = $3, tenant_applied = $4, attempts = $5,
			last_error = $6, end_reason = $7, updated_at = $8, activated_at = $9, ended_at = $10
		WHERE agreement_hash = $1`
	tag, err := s.pool.Exec(ctx, query,
		a.Hash, string(a.Status), a.LandlordApplied, a.TenantApplied, a.Attempts,
		a.LastError, string(a.EndReason), a.UpdatedAt, nullTime(a.ActivatedAt), nullTime(a.EndedAt),
	)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("update rental agreement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*models.Agreement, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM rental_agreements WHERE agreement_hash = $1`, hash)
	return scanOne(row)
}

func (s *PostgresStore) FindHolding(ctx context.Context, propertyID string) (*models.Agreement, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM rental_agreements
		WHERE property_id = $1 AND status IN ('pending', 'active')`, propertyID)
	return scanOne(row)
}

func (s *PostgresStore) ListPending(ctx context.Context) ([]*models.Agreement, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM rental_agreements
		WHERE status = 'pending' ORDER BY created_at, agreement_hash`)
}

func (s *PostgresStore) ListByLandlord(ctx context.Context, landlord string) ([]*models.Agreement, error) {
	return s.query(ctx, `SELECT `+selectColumns+` FROM rental_agreements
		WHERE landlord = $1 ORDER BY created_at, agreement_hash`, landlord)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Agreement, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rental agreements: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Agreement, 0)
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rental agreements: %w", err)
	}
	return out, nil
}

func scanOne(row pgx.Row) (*models.Agreement, error) {
	a, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return a, err
}

func scan(row pgx.Row) (*models.Agreement, error) {
	var (
		a                       models.Agreement
		rent, deposit, status   string
		endReason               string
		activatedAt, endedAt    *time.Time
		startDate, created, upd time.Time
	)
	err := row.Scan(
		&a.Hash, &a.PropertyID, &a.Landlord, &a.Tenant, &rent, &deposit,
		&startDate, &a.Nonce, &a.Signature, &status, &a.LandlordApplied, &a.TenantApplied,
		&a.Attempts, &a.LastError, &endReason, &created, &upd, &activatedAt, &endedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan rental agreement: %w", err)
	}
	a.MonthlyRent = trust.Amount(rent)
	a.Deposit = trust.Amount(deposit)
	a.Status = models.Status(status)
	a.EndReason = trust.LeaveReason(endReason)
	a.StartDate = trust.StoredTime(startDate)
	a.CreatedAt = trust.StoredTime(created)
	a.UpdatedAt = trust.StoredTime(upd)
	if activatedAt != nil {
		a.ActivatedAt = trust.StoredTime(*activatedAt)
	}
	if endedAt != nil {
		a.EndedAt = trust.StoredTime(*endedAt)
	}
	return &a, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

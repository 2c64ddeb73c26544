package casefile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx connection pool. Schema lives in
// the migrations directory next to this file and is applied with pg.Migrate.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed case store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Case, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, status, created_at, ai_started_at, paid, draft, updated_at
		FROM cases WHERE id = $1`, id)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCaseNotFound
		}
		return nil, errors.Join(ErrFailedToLoadCase, err)
	}
	return c, nil
}

func (s *PostgresStore) Save(ctx context.Context, c *Case) error {
	var draft []byte
	if c.Draft != nil {
		var err error
		draft, err = json.Marshal(c.Draft)
		if err != nil {
			return errors.Join(ErrFailedToStoreCase, err)
		}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO cases (id, tenant_id, status, created_at, ai_started_at, paid, draft, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			ai_started_at = EXCLUDED.ai_started_at,
			paid = EXCLUDED.paid,
			draft = EXCLUDED.draft,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.TenantID, string(c.Status), c.CreatedAt, c.AIStartedAt, c.Paid, draft, c.UpdatedAt)
	if err != nil {
		return errors.Join(ErrFailedToStoreCase, err)
	}
	return nil
}

func (s *PostgresStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Case, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, status, created_at, ai_started_at, paid, draft, updated_at
		FROM cases WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCase, err)
	}
	defer rows.Close()

	var out []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadCase, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrFailedToLoadCase, err)
	}
	return out, nil
}

func (s *PostgresStore) CountByTenantStatus(ctx context.Context, tenantID uuid.UUID, status Status) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM cases WHERE tenant_id = $1 AND status = $2`,
		tenantID, string(status)).Scan(&n)
	if err != nil {
		return 0, errors.Join(ErrFailedToCountCases, err)
	}
	return n, nil
}

func (s *PostgresStore) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cases WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, errors.Join(ErrFailedToStoreCase, err)
	}
	return tag.RowsAffected(), nil
}

func scanCase(row pgx.Row) (*Case, error) {
	var (
		c           Case
		status      string
		aiStartedAt *time.Time
		draft       []byte
	)
	if err := row.Scan(&c.ID, &c.TenantID, &status, &c.CreatedAt, &aiStartedAt, &c.Paid, &draft, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = Status(status)
	c.AIStartedAt = aiStartedAt
	if len(draft) > 0 {
		var d Draft
		if err := json.Unmarshal(draft, &d); err != nil {
			return nil, err
		}
		c.Draft = &d
	}
	return &c, nil
}

package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"techzone-storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a Repository backed by the session_tokens table.
func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Record(ctx context.Context, t Token) error {
	const q = `
INSERT INTO session_tokens (jti, customer_id, kind, expires_at)
VALUES ($1, $2, $3, $4)
`
	if _, err := r.pool.Exec(ctx, q, t.ID, t.CustomerID, t.Kind, t.ExpiresAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: token %s", domain.ErrAlreadyExists, t.ID)
		}
		return fmt.Errorf("record token: %w", err)
	}
	return nil
}

func (r *postgresRepo) Find(ctx context.Context, id string) (*Token, error) {
	const q = `
SELECT jti, customer_id::text, kind, expires_at, created_at
FROM session_tokens
WHERE jti = $1
`
	out := Token{}
	err := r.pool.QueryRow(ctx, q, id).Scan(&out.ID, &out.CustomerID, &out.Kind, &out.ExpiresAt, &out.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &out, nil
}

func (r *postgresRepo) Revoke(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM session_tokens WHERE jti = $1`, id)
	if err != nil {
		return false, fmt.Errorf("revoke token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM session_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

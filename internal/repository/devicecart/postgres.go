package devicecart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"techzone-storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Load(ctx context.Context, deviceID string) ([]byte, error) {
	var payload string
	err := r.pool.QueryRow(ctx, `SELECT payload::text FROM device_carts WHERE device_id = $1`, deviceID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("load device cart: %w", err)
	}
	return []byte(payload), nil
}

func (r *postgresRepo) Save(ctx context.Context, deviceID string, payload []byte) error {
	const q = `
INSERT INTO device_carts (device_id, payload, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (device_id) DO UPDATE
SET payload = EXCLUDED.payload,
    updated_at = now()
`
	if _, err := r.pool.Exec(ctx, q, deviceID, string(payload)); err != nil {
		return fmt.Errorf("save device cart: %w", err)
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, deviceID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM device_carts WHERE device_id = $1`, deviceID); err != nil {
		return fmt.Errorf("delete device cart: %w", err)
	}
	return nil
}

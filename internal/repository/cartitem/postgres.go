package cartitem

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by the cart_items table.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("cartitem")}
}

func (r *postgresRepo) List(ctx context.Context, userID string) ([]domain.Item, error) {
	const q = `
SELECT product_id::text, quantity
FROM cart_items
WHERE user_id = $1
ORDER BY created_at ASC, product_id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ProductID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	r.logger.Debug("listed items", zap.String("user_id", userID), zap.Int("count", len(items)))
	return items, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, userID, productID string, quantity int) domain.WriteOutcome {
	if quantity < 1 {
		return domain.Permanent(fmt.Errorf("%w: quantity %d below 1", domain.ErrInvalidInput, quantity))
	}
	const q = `
INSERT INTO cart_items (user_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, product_id) DO UPDATE
SET quantity = EXCLUDED.quantity,
    updated_at = now()
WHERE cart_items.quantity <> EXCLUDED.quantity
`
	_, err := r.pool.Exec(ctx, q, userID, productID, quantity)
	return Classify(err)
}

func (r *postgresRepo) Delete(ctx context.Context, userID, productID string) domain.WriteOutcome {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	return Classify(err)
}

func (r *postgresRepo) DeleteAll(ctx context.Context, userID string) domain.WriteOutcome {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return Classify(err)
}

// Classify maps a write error to an outcome. Data, integrity and syntax errors
// (SQLSTATE classes 22, 23, 42) fail the same way on every attempt; everything
// else, including timeouts and dropped connections, may succeed later.
func Classify(err error) domain.WriteOutcome {
	if err == nil {
		return domain.Succeeded()
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return domain.Permanent(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22", "23", "42":
			return domain.Permanent(err)
		}
	}
	return domain.Retriable(err)
}

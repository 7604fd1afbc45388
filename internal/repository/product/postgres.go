package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("product")}
}

const selectProducts = `
SELECT p.id::text, p.name, COALESCE(p.description, ''), p.price::text, p.stock, COALESCE(p.image, ''), p.specs, COALESCE(c.name, ''), p.created_at
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	return r.query(ctx, selectProducts+`ORDER BY p.name ASC`)
}

func (r *postgresRepo) ListByCategories(ctx context.Context, categories []string) ([]domain.Product, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	products, err := r.query(ctx, selectProducts+`WHERE c.name = ANY($1) ORDER BY p.name ASC`, categories)
	if err != nil {
		r.logger.Warn("list by categories failed", zap.Strings("categories", categories), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("list by categories", zap.Strings("categories", categories), zap.Int("count", len(products)))
	return products, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	p, err := scanProduct(r.pool.QueryRow(ctx, selectProducts+`WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Warn("get product failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Price.IsNegative() {
		return nil, fmt.Errorf("%w: negative price for %q", domain.ErrInvalidInput, product.Name)
	}
	specs := product.Specs
	if specs == nil {
		specs = map[string]interface{}{}
	}
	const q = `
INSERT INTO products (id, name, description, price, stock, image, specs, category_id)
VALUES (
    COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, NULLIF($3, ''), $4::numeric, $5, NULLIF($6, ''), $7,
    (SELECT id FROM categories WHERE name = NULLIF($8, ''))
)
ON CONFLICT (name) DO UPDATE SET
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock,
    image = EXCLUDED.image,
    specs = EXCLUDED.specs,
    category_id = EXCLUDED.category_id
RETURNING id::text, created_at
`
	res := product
	res.Specs = specs
	err := r.pool.QueryRow(ctx, q,
		product.ID,
		product.Name,
		product.Description,
		product.Price.String(),
		product.Stock,
		product.Image,
		specs,
		product.Category,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Warn("upsert product failed", zap.String("name", product.Name), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("upserted product", zap.String("name", res.Name), zap.String("id", res.ID))
	return &res, nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...interface{}) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Stock, &p.Image, &p.Specs, &p.Category, &p.CreatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q for product %s: %w", price, p.ID, err)
	}
	p.Price = parsed
	return &p, nil
}

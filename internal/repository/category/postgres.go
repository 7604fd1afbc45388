package category

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"techzone-storefront/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.Category, error) {
	const q = `
SELECT id::text, name, COALESCE(slug, ''), created_at
FROM categories
ORDER BY name ASC
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	slug := strings.TrimSpace(c.Slug)
	if slug == "" {
		slug = Slugify(c.Name)
	}
	const q = `
INSERT INTO categories (name, slug)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET slug = EXCLUDED.slug
RETURNING id::text, name, slug, created_at
`
	var out domain.Category
	if err := r.pool.QueryRow(ctx, q, strings.TrimSpace(c.Name), slug).Scan(&out.ID, &out.Name, &out.Slug, &out.CreatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// Slugify lowercases name and joins its words with dashes.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger).Named("customer")}
}

const customerColumns = `id::text, email, password_hash, full_name, phone, birth_date, avatar_url, role, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	role := c.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	q := `
INSERT INTO customers (email, password_hash, full_name, phone, birth_date, avatar_url, role)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + customerColumns
	return r.scanCustomer(r.pool.QueryRow(ctx, q,
		strings.ToLower(c.Email),
		c.PasswordHash,
		c.FullName,
		c.Phone,
		dateArg(c.BirthDate),
		c.AvatarURL,
		role,
	))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, email))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1 LIMIT 1`
	return r.scanCustomer(r.pool.QueryRow(ctx, q, id))
}

// UpdateProfile writes only the fields present in update. Each optional column
// takes a (present, value) argument pair so absent fields keep their stored value.
func (r *postgresRepo) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Customer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	name, _ := update.FullName.Value()
	q := `
UPDATE customers SET
    full_name  = CASE WHEN $2 THEN $3 ELSE full_name END,
    phone      = CASE WHEN $4 THEN $5 ELSE phone END,
    birth_date = CASE WHEN $6 THEN $7::date ELSE birth_date END,
    avatar_url = CASE WHEN $8 THEN $9 ELSE avatar_url END,
    updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns
	var birth *time.Time
	if d := update.BirthDate.Ptr(); d != nil {
		birth = &d.Time
	}
	return r.scanCustomer(r.pool.QueryRow(ctx, q,
		id,
		update.FullName.Present(), strings.TrimSpace(name),
		update.Phone.Present(), update.Phone.Ptr(),
		update.BirthDate.Present(), birth,
		update.AvatarURL.Present(), update.AvatarURL.Ptr(),
	))
}

func (r *postgresRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, `UPDATE customers SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		r.logger.Error("update password", zap.String("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	var birth *time.Time
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.PasswordHash,
		&c.FullName,
		&c.Phone,
		&birth,
		&c.AvatarURL,
		&c.Role,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error("scan customer", zap.Error(err))
		return nil, err
	}
	if birth != nil {
		c.BirthDate = &domain.Date{Time: *birth}
	}
	return &c, nil
}

func dateArg(d *domain.Date) *time.Time {
	if d == nil {
		return nil
	}
	return &d.Time
}

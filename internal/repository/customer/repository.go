package customer

import (
	"context"

	"techzone-storefront/internal/domain"
)

// Repository persists and fetches customers and their profile fields.
type Repository interface {
	Create(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) (*domain.Customer, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

package cartitem

import (
	"context"

	"techzone-storefront/internal/domain"
)

// Repository is the per-user remote item set, addressed by (userID, productID).
// Writes are idempotent and report a classified outcome instead of an error.
type Repository interface {
	List(ctx context.Context, userID string) ([]domain.Item, error)
	Upsert(ctx context.Context, userID, productID string, quantity int) domain.WriteOutcome
	Delete(ctx context.Context, userID, productID string) domain.WriteOutcome
	DeleteAll(ctx context.Context, userID string) domain.WriteOutcome
}

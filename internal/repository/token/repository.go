package token

import (
	"context"
	"time"
)

const KindAccess = "access"

// Token is the server-side record of an issued JWT, keyed by its jti claim.
// A signed token is only honoured while its record exists.
type Token struct {
	ID         string
	CustomerID string
	Kind       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Record(ctx context.Context, token Token) error
	// Find returns domain.ErrNotFound for unknown or revoked ids.
	Find(ctx context.Context, id string) (*Token, error)
	// Revoke is idempotent; it reports whether a record was removed.
	Revoke(ctx context.Context, id string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

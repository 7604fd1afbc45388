package customer

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	tokenrepo "techzone-storefront/internal/repository/token"
)

type tokenMeta struct {
	ID         string
	CustomerID string
	ExpiresAt  time.Time
}

// tokenManager signs HS256 session tokens. Every token id is recorded so a
// token can be revoked before it expires.
type tokenManager struct {
	repo   tokenrepo.Repository
	secret []byte
	now    func() time.Time
}

func newTokenManager(repo tokenrepo.Repository, secret string) *tokenManager {
	return &tokenManager{
		repo:   repo,
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (m *tokenManager) Issue(ctx context.Context, customerID string, ttl time.Duration) (string, error) {
	now := m.now()
	id := uuid.NewString()
	expiresAt := now.Add(ttl)
	if err := m.repo.Record(ctx, tokenrepo.Token{
		ID:         id,
		CustomerID: customerID,
		Kind:       tokenrepo.KindAccess,
		ExpiresAt:  expiresAt,
	}); err != nil {
		return "", fmt.Errorf("record token: %w", err)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		Subject:   customerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *tokenManager) Validate(ctx context.Context, raw string) (tokenMeta, bool) {
	claims, err := m.parse(raw, jwt.WithExpirationRequired())
	if err != nil {
		return tokenMeta{}, false
	}
	stored, err := m.repo.Find(ctx, claims.ID)
	if err != nil {
		return tokenMeta{}, false
	}
	if stored.Kind != tokenrepo.KindAccess || stored.CustomerID != claims.Subject {
		return tokenMeta{}, false
	}
	if m.now().After(stored.ExpiresAt) {
		_, _ = m.repo.Revoke(ctx, claims.ID)
		return tokenMeta{}, false
	}
	return tokenMeta{
		ID:         claims.ID,
		CustomerID: claims.Subject,
		ExpiresAt:  stored.ExpiresAt,
	}, true
}

// Revoke forgets the token id. Expired but well-signed tokens can still be revoked.
func (m *tokenManager) Revoke(ctx context.Context, raw string) (tokenMeta, error) {
	claims, err := m.parse(raw, jwt.WithoutClaimsValidation())
	if err != nil {
		return tokenMeta{}, ErrInvalidToken
	}
	if _, err := m.repo.Revoke(ctx, claims.ID); err != nil {
		return tokenMeta{}, err
	}
	return tokenMeta{ID: claims.ID, CustomerID: claims.Subject}, nil
}

func (m *tokenManager) parse(raw string, opts ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	opts = append(opts,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

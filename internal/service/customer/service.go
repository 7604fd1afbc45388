package customer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/logging"
	custrepo "techzone-storefront/internal/repository/customer"
	tokenrepo "techzone-storefront/internal/repository/token"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
)

// SessionListener is told when a device gains or loses a signed-in customer.
type SessionListener interface {
	OnSignIn(ctx context.Context, deviceID, userID string)
	OnSignOut(ctx context.Context, deviceID string)
}

type Options struct {
	Secret    string
	AccessTTL time.Duration
	Listener  SessionListener
	Logger    *zap.Logger
}

// Service handles customer signup/login flows and profile edits.
type Service struct {
	repo        custrepo.Repository
	tokens      *tokenManager
	listener    SessionListener
	logger      *zap.Logger
	accessTTL   time.Duration
	passwordMin int
}

// New creates a Service with sane defaults.
func New(repo custrepo.Repository, tokens tokenrepo.Repository, opts Options) *Service {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 48 * time.Hour
	}
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens, opts.Secret),
		listener:    opts.Listener,
		logger:      logging.OrNop(opts.Logger),
		accessTTL:   opts.AccessTTL,
		passwordMin: 8,
	}
}

// SignupInput captures fields expected by the signup endpoint.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// Signup registers a new customer.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*domain.Customer, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email is malformed", domain.ErrInvalidInput)
	}
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, fmt.Errorf("%w: fullName required", domain.ErrInvalidInput)
	}
	password := strings.TrimSpace(in.Password)
	if err := validatePassword(password, s.passwordMin); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	c, err := s.repo.Create(ctx, domain.Customer{
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     name,
		Role:         domain.RoleCustomer,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer signed up", zap.String("customer_id", c.ID))
	return c, nil
}

// Login validates credentials, issues an access token and binds the device's
// cart to the customer.
func (s *Service) Login(ctx context.Context, deviceID, email, password string) (*domain.Customer, string, error) {
	password = strings.TrimSpace(password)
	c, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, c.ID, s.accessTTL)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("customer logged in", zap.String("customer_id", c.ID), zap.String("device_id", deviceID))
	if s.listener != nil && deviceID != "" {
		s.listener.OnSignIn(ctx, deviceID, c.ID)
	}
	return c, access, nil
}

// Logout revokes the token and resets the device's cart.
func (s *Service) Logout(ctx context.Context, deviceID, token string) error {
	meta, err := s.tokens.Revoke(ctx, token)
	if err != nil {
		return err
	}
	s.logger.Info("customer logged out", zap.String("customer_id", meta.CustomerID), zap.String("device_id", deviceID))
	if s.listener != nil && deviceID != "" {
		s.listener.OnSignOut(ctx, deviceID)
	}
	return nil
}

// LookupByToken returns the customer bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.Customer, error) {
	meta, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	c, err := s.repo.GetByID(ctx, meta.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return c, nil
}

// UpdateProfile applies the present fields of update. An empty update returns
// the stored profile unchanged.
func (s *Service) UpdateProfile(ctx context.Context, customerID string, update domain.ProfileUpdate) (*domain.Customer, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	if update.Empty() {
		return s.repo.GetByID(ctx, customerID)
	}
	c, err := s.repo.UpdateProfile(ctx, customerID, update)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("profile updated", zap.String("customer_id", customerID))
	return c, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, customerID, current, next string) error {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(strings.TrimSpace(current))); err != nil {
		return ErrInvalidCredentials
	}
	next = strings.TrimSpace(next)
	if err := validatePassword(next, s.passwordMin); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, customerID, string(hashed)); err != nil {
		return err
	}
	s.logger.Info("password changed", zap.String("customer_id", customerID))
	return nil
}

// PurgeExpiredTokens drops token records past their expiry.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.repo.PurgeExpired(ctx, s.tokens.now())
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// validatePassword counts runes, not bytes, and accepts non-ASCII letters
// such as "Ñ" for the case classes.
func validatePassword(p string, min int) error {
	trimmed := strings.TrimSpace(p)
	if utf8.RuneCountInString(trimmed) < min {
		return fmt.Errorf("password must be at least %d characters", min)
	}
	var upper, lower, digit bool
	for _, r := range trimmed {
		upper = upper || unicode.IsUpper(r)
		lower = lower || unicode.IsLower(r)
		digit = digit || unicode.IsDigit(r)
	}
	if !upper || !lower || !digit {
		return errors.New("password needs an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}

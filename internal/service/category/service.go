package category

import (
	"context"
	"fmt"
	"strings"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/repository/category"
)

// Service exposes the category list used by the storefront filters.
type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

// Upsert trims the name and derives the slug when none is given.
func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("%w: category name required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Slug) == "" {
		c.Slug = category.Slugify(c.Name)
	}
	return s.repo.Upsert(ctx, c)
}

package category

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techzone-storefront/internal/domain"
)

type memoryRepo struct {
	items []domain.Category
}

func (r *memoryRepo) List(context.Context) ([]domain.Category, error) {
	return r.items, nil
}

func (r *memoryRepo) Upsert(_ context.Context, c domain.Category) (*domain.Category, error) {
	r.items = append(r.items, c)
	return &c, nil
}

func TestUpsert_NormalizesNameAndSlug(t *testing.T) {
	repo := &memoryRepo{}
	svc := New(repo)

	got, err := svc.Upsert(context.Background(), domain.Category{Name: "  Audífonos Gamer "})
	require.NoError(t, err)
	assert.Equal(t, "Audífonos Gamer", got.Name)
	assert.Equal(t, "audífonos-gamer", got.Slug)

	got, err = svc.Upsert(context.Background(), domain.Category{Name: "Laptops", Slug: "notebooks"})
	require.NoError(t, err)
	assert.Equal(t, "notebooks", got.Slug)

	listed, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestUpsert_RejectsBlankName(t *testing.T) {
	repo := &memoryRepo{}
	_, err := New(repo).Upsert(context.Background(), domain.Category{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, repo.items)
}

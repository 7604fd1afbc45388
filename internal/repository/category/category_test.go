package category

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"techzone-storefront/internal/domain"
	"techzone-storefront/internal/pgtest"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "gaming-laptops", Slugify("  Gaming   Laptops "))
	assert.Equal(t, "", Slugify(""))
}

func TestPostgres_UpsertAndList(t *testing.T) {
	pool := pgtest.Pool(t)
	ctx := context.Background()
	repo := NewPostgres(pool)

	first, err := repo.Upsert(ctx, domain.Category{Name: "Laptops"})
	require.NoError(t, err)
	assert.Equal(t, "laptops", first.Slug)

	second, err := repo.Upsert(ctx, domain.Category{Name: "Laptops", Slug: "portatiles"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "portatiles", second.Slug)

	_, err = repo.Upsert(ctx, domain.Category{Name: "Accesorios"})
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Accesorios", list[0].Name)
}

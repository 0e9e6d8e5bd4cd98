//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/platform/postgres/pgtest"
)

func product(slug, brand, family string, notes []string, variants ...domain.Variant) *domain.Product {
	return &domain.Product{
		Slug: slug, Name: slug, Brand: brand, Gender: domain.GenderUnisex, Family: family,
		Concentration: domain.ConcentrationEDP, Notes: notes, Active: true, Variants: variants,
		Translations: map[string]domain.Translation{"fr": {Name: slug + " fr"}},
	}
}

func variant(sku string, ml int, price string, stock int) domain.Variant {
	return domain.Variant{SKU: sku, VolumeML: ml, Price: decimal.RequireFromString(price), Stock: stock}
}

func seed(t *testing.T, repo *Repository) []*domain.Product {
	t.Helper()
	ctx := context.Background()
	var out []*domain.Product
	for _, p := range []*domain.Product{
		product("rose-a", "Maison", "floral", []string{"Rose", "Musk"}, variant("RA-50", 50, "80.00", 0), variant("RA-100", 100, "120.00", 2)),
		product("cedar-b", "Atelier", "woody", []string{"Cedar"}, variant("CB-30", 30, "45.00", 0)),
		product("citrus-c", "Maison", "citrus", []string{"Bergamot"}, variant("CC-100", 100, "45.00", 5)),
	} {
		saved, err := repo.Save(ctx, p)
		require.NoError(t, err)
		out = append(out, saved)
	}
	return out
}

func normalized(t *testing.T, f domain.Filter) domain.Filter {
	t.Helper()
	n, err := f.Normalize()
	require.NoError(t, err)
	return n
}

func slugs(page []*domain.Product) []string {
	var out []string
	for _, p := range page {
		out = append(out, p.Slug)
	}
	return out
}

func TestRepository_FilterProductsProcedure(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	seed(t, repo)
	ctx := context.Background()

	page, err := repo.Filter(ctx, normalized(t, domain.Filter{Sort: domain.SortPriceAsc}))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{"cedar-b", "citrus-c", "rose-a"}, slugs(page.Items))

	page, err = repo.Filter(ctx, normalized(t, domain.Filter{Brands: []string{"maison"}, InStockOnly: true, Notes: []string{"musk", "bergamot"}}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"rose-a", "citrus-c"}, slugs(page.Items))

	minP, maxP := decimal.RequireFromString("60"), decimal.RequireFromString("90")
	page, err = repo.Filter(ctx, normalized(t, domain.Filter{MinPrice: &minP, MaxPrice: &maxP}))
	require.NoError(t, err)
	assert.Equal(t, []string{"rose-a"}, slugs(page.Items))

	page, err = repo.Filter(ctx, normalized(t, domain.Filter{Query: "CEDAR", VolumesML: []int{30}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"cedar-b"}, slugs(page.Items))

	page, err = repo.Filter(ctx, normalized(t, domain.Filter{PageSize: 2, Page: 5}))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)
}

func TestRepository_FilterQueryMatchesWildcardsLiterally(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	seed(t, repo)
	ctx := context.Background()
	for _, p := range []*domain.Product{
		product("vanilla-d", "Maison", "oriental", []string{"50% Vanilla"}, variant("VD-50", 50, "60.00", 1)),
		product("vanilla-e", "Maison", "oriental", []string{"50 Vanilla"}, variant("VE-50", 50, "60.00", 1)),
	} {
		_, err := repo.Save(ctx, p)
		require.NoError(t, err)
	}

	page, err := repo.Filter(ctx, normalized(t, domain.Filter{Query: "50%"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"vanilla-d"}, slugs(page.Items))

	page, err = repo.Filter(ctx, normalized(t, domain.Filter{Query: "rose_a"}))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)

	page, err = repo.Filter(ctx, normalized(t, domain.Filter{Query: `\`}))
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestRepository_SaveUpsertsBySlugAndReconcilesVariants(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	saved := seed(t, repo)
	ctx := context.Background()

	again := product("rose-a", "Maison", "floral", []string{"Rose"}, variant("RA-100", 100, "125.00", 9))
	updated, err := repo.Save(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, saved[0].ID, updated.ID)
	require.Len(t, updated.Variants, 1)
	assert.True(t, updated.Variants[0].Price.Equal(decimal.RequireFromString("125")))
	assert.Equal(t, "rose-a fr", updated.Translations["fr"].Name)

	clash := product("rose-a", "Other", "floral", nil, variant("X-1", 10, "1.00", 1))
	clash.ID = saved[1].ID
	_, err = repo.Save(ctx, clash)
	assert.ErrorIs(t, err, ports.ErrSlugTaken)
}

func TestRepository_AdjustStockLocksAndRollsBack(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	saved := seed(t, repo)
	ctx := context.Background()
	a := saved[0].Variants[1].ID // stock 2
	c := saved[2].Variants[0].ID // stock 5

	err := repo.AdjustStock(ctx, map[int64]int{a: -1, c: -6})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	byVariant, err := repo.GetByVariantIDs(ctx, []int64{a, c})
	require.NoError(t, err)
	v, _ := byVariant[a].Variant(a)
	assert.Equal(t, 2, v.Stock)

	require.NoError(t, repo.AdjustStock(ctx, map[int64]int{a: -2, c: 1}))
	byVariant, err = repo.GetByVariantIDs(ctx, []int64{a, c})
	require.NoError(t, err)
	v, _ = byVariant[a].Variant(a)
	assert.Equal(t, 0, v.Stock)
	v, _ = byVariant[c].Variant(c)
	assert.Equal(t, 6, v.Stock)
}

func TestRepository_FacetsAndRelated(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	saved := seed(t, repo)
	ctx := context.Background()

	facets, err := repo.Facets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Atelier", "Maison"}, facets.Brands)
	assert.Equal(t, []string{"bergamot", "cedar", "musk", "rose"}, facets.Notes)
	assert.Equal(t, []int{30, 50, 100}, facets.VolumesML)
	assert.True(t, facets.PriceMax.Equal(decimal.RequireFromString("120")))

	related, err := repo.Related(ctx, saved[0], 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"citrus-c"}, slugs(related))
}

func TestReviewRepository_UniquePerUser(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	reviews := NewReviewRepository(db)
	saved := seed(t, repo)
	ctx := context.Background()
	user := uuid.NewString()

	_, err := reviews.Add(ctx, &domain.Review{ProductID: saved[0].ID, UserID: user, Rating: 4})
	require.NoError(t, err)
	_, err = reviews.Add(ctx, &domain.Review{ProductID: saved[0].ID, UserID: user, Rating: 2})
	assert.ErrorIs(t, err, ports.ErrReviewExists)
	_, err = reviews.Add(ctx, &domain.Review{ProductID: saved[0].ID, UserID: uuid.NewString(), Rating: 5})
	require.NoError(t, err)

	stats, err := reviews.Stats(ctx, saved[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.True(t, stats.Average.Equal(decimal.RequireFromString("4.5")))
}

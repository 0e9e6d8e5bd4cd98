//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogpg "github.com/aromaline/storefront/internal/domains/catalog/adapters/persistence/postgres"
	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/favorites/domain"
	"github.com/aromaline/storefront/internal/domains/favorites/ports"
	"github.com/aromaline/storefront/internal/platform/postgres/pgtest"
)

func TestRepository_AddListRemove(t *testing.T) {
	db, _ := pgtest.Start(t)
	ctx := context.Background()
	product, err := catalogpg.NewRepository(db).Save(ctx, &catalogdomain.Product{
		Slug: "amber-veil", Name: "Amber Veil", Brand: "Noor", Gender: catalogdomain.GenderWomen,
		Family: "amber", Concentration: catalogdomain.ConcentrationEDP, Active: true,
		Variants: []catalogdomain.Variant{{SKU: "AV-50", VolumeML: 50, Price: decimal.NewFromInt(70), Stock: 3}},
	})
	require.NoError(t, err)

	repo := NewRepository(db)
	userID := uuid.NewString()
	fav := domain.Favorite{UserID: userID, ProductID: product.ID, CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Add(ctx, fav))
	require.NoError(t, repo.Add(ctx, fav))

	list, err := repo.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	exists, err := repo.Exists(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Remove(ctx, userID, product.ID))
	exists, err = repo.Exists(ctx, userID, product.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.Add(ctx, domain.Favorite{UserID: userID, ProductID: 999999, CreatedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, ports.ErrProductNotFound)
}

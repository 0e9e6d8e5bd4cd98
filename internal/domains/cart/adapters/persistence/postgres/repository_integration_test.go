//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aromaline/storefront/internal/domains/cart/domain"
	"github.com/aromaline/storefront/internal/platform/postgres/pgtest"
)

func TestRepository_SaveReplacesLines(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	cart := domain.New("user:u1")
	_, err := cart.Add(1, 10, 2, 5, now)
	require.NoError(t, err)
	_, err = cart.Add(2, 20, 1, 5, now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, cart))

	cart.Remove(1, now)
	require.NoError(t, repo.Save(ctx, cart))

	loaded, err := repo.Get(ctx, "user:u1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, int64(2), loaded.Items[0].VariantID)

	empty, err := repo.Get(ctx, "user:nobody")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
}

func TestRepository_PurgeGuestCarts(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	ctx := context.Background()
	old := time.Now().UTC().Add(-60 * 24 * time.Hour)

	stale := domain.New("guest:old")
	_, _ = stale.Add(1, 10, 1, 5, old)
	fresh := domain.New("guest:new")
	_, _ = fresh.Add(1, 10, 1, 5, time.Now().UTC())
	user := domain.New("user:u1")
	_, _ = user.Add(1, 10, 1, 5, old)
	for _, c := range []*domain.Cart{stale, fresh, user} {
		require.NoError(t, repo.Save(ctx, c))
	}

	purged, err := repo.PurgeGuestCarts(ctx, time.Now().UTC().Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	kept, err := repo.Get(ctx, "user:u1")
	require.NoError(t, err)
	assert.Len(t, kept.Items, 1)
}

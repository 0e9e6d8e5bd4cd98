package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/favorites/adapters/memory"
	"github.com/aromaline/storefront/internal/domains/favorites/ports"
)

type fakeCatalog map[int64]*catalogdomain.Product

func (f fakeCatalog) Products(_ context.Context, ids []int64) (map[int64]*catalogdomain.Product, error) {
	out := map[int64]*catalogdomain.Product{}
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func setupService() *Service {
	catalog := fakeCatalog{
		1: {ID: 1, Slug: "amber-veil", Active: true},
		2: {ID: 2, Slug: "cedar-smoke", Active: true},
		3: {ID: 3, Slug: "retired", Active: false},
	}
	clock := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return NewService(memory.NewRepository(), catalog).WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})
}

func TestToggle_IsIdempotentPair(t *testing.T) {
	svc := setupService()
	ctx := context.Background()

	on, err := svc.Toggle(ctx, "u1", 1)
	require.NoError(t, err)
	assert.True(t, on)

	off, err := svc.Toggle(ctx, "u1", 1)
	require.NoError(t, err)
	assert.False(t, off)

	ids, err := svc.IDs(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAddRemove_Idempotent(t *testing.T) {
	svc := setupService()
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "u1", 1))
	require.NoError(t, svc.Add(ctx, "u1", 1))
	require.NoError(t, svc.Add(ctx, "u1", 2))

	ids, err := svc.IDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids)

	require.NoError(t, svc.Remove(ctx, "u1", 2))
	require.NoError(t, svc.Remove(ctx, "u1", 2))
	ids, err = svc.IDs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestList_NewestFirstAndActiveOnly(t *testing.T) {
	svc := setupService()
	ctx := context.Background()
	require.NoError(t, svc.Add(ctx, "u1", 1))
	require.NoError(t, svc.Add(ctx, "u1", 2))

	products, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "cedar-smoke", products[0].Slug)
	assert.Equal(t, "amber-veil", products[1].Slug)
}

func TestAdd_Errors(t *testing.T) {
	svc := setupService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.Add(ctx, "", 1), ErrInvalidInput)
	assert.ErrorIs(t, svc.Add(ctx, "u1", 0), ErrInvalidInput)
	assert.ErrorIs(t, svc.Add(ctx, "u1", 3), ports.ErrProductNotFound)
	assert.ErrorIs(t, svc.Add(ctx, "u1", 42), ports.ErrProductNotFound)

	_, err := svc.Toggle(ctx, "u1", 42)
	assert.ErrorIs(t, err, ports.ErrProductNotFound)
	_, err = svc.List(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

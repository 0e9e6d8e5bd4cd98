package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aromaline/storefront/internal/domains/cart/adapters/memory"
	"github.com/aromaline/storefront/internal/domains/cart/domain"
	"github.com/aromaline/storefront/internal/domains/cart/ports"
)

type fakeCatalog struct {
	variants map[int64]ports.VariantInfo
}

func (f *fakeCatalog) Variants(_ context.Context, ids []int64, _ string) (map[int64]ports.VariantInfo, error) {
	out := map[int64]ports.VariantInfo{}
	for _, id := range ids {
		if v, ok := f.variants[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{variants: map[int64]ports.VariantInfo{
		1: {VariantID: 1, ProductID: 10, ProductName: "Amber Veil", Price: decimal.RequireFromString("70.00"), Stock: 5, Active: true},
		2: {VariantID: 2, ProductID: 20, ProductName: "Cedar Smoke", Price: decimal.RequireFromString("45.50"), Stock: 20, Active: true},
		3: {VariantID: 3, ProductID: 30, ProductName: "Sold Out", Price: decimal.RequireFromString("99.00"), Stock: 0, Active: true},
		4: {VariantID: 4, ProductID: 40, ProductName: "Retired", Price: decimal.RequireFromString("10.00"), Stock: 9, Active: false},
	}}
}

func setupService(t *testing.T) (*Service, *memory.Repository, *fakeCatalog) {
	t.Helper()
	repo := memory.NewRepository()
	catalog := newCatalog()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return NewService(repo, catalog).WithClock(func() time.Time { return now }), repo, catalog
}

func TestAddItem_PricesCart(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	owner := domain.UserOwner("u1")

	_, err := svc.AddItem(ctx, owner, 1, 2, "en")
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, owner, 2, 1, "en")
	require.NoError(t, err)

	require.Len(t, view.Lines, 2)
	assert.Equal(t, 3, view.ItemCount)
	assert.Equal(t, "185.5", view.Subtotal.String())
	assert.Equal(t, "Amber Veil", view.Lines[0].ProductName)
	assert.True(t, view.Lines[0].Available)
}

func TestAddItem_CapsAtStock(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	owner := domain.GuestOwner("tok")

	_, err := svc.AddItem(ctx, owner, 1, 4, "en")
	require.NoError(t, err)
	view, err := svc.AddItem(ctx, owner, 1, 4, "en")
	require.NoError(t, err)
	assert.Equal(t, 5, view.Lines[0].Quantity)
}

func TestAddItem_Errors(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	owner := domain.UserOwner("u1")

	_, err := svc.AddItem(ctx, domain.Owner{}, 1, 1, "en")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddItem(ctx, owner, 1, 0, "en")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddItem(ctx, owner, 1, 11, "en")
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.AddItem(ctx, owner, 3, 1, "en")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = svc.AddItem(ctx, owner, 4, 1, "en")
	assert.ErrorIs(t, err, ports.ErrVariantNotFound)

	_, err = svc.AddItem(ctx, owner, 99, 1, "en")
	assert.ErrorIs(t, err, ports.ErrVariantNotFound)
}

func TestUpdateItem_ZeroRemoves(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	owner := domain.UserOwner("u1")

	_, err := svc.AddItem(ctx, owner, 2, 1, "en")
	require.NoError(t, err)

	view, err := svc.UpdateItem(ctx, owner, 2, 7, "en")
	require.NoError(t, err)
	assert.Equal(t, 7, view.Lines[0].Quantity)

	view, err = svc.UpdateItem(ctx, owner, 2, 0, "en")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = svc.UpdateItem(ctx, owner, 2, 1, "en")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestGetCart_ExcludesUnavailableLines(t *testing.T) {
	svc, _, catalog := setupService(t)
	ctx := context.Background()
	owner := domain.UserOwner("u1")

	_, err := svc.AddItem(ctx, owner, 1, 2, "en")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, 2, 1, "en")
	require.NoError(t, err)

	v := catalog.variants[1]
	v.Stock = 1
	catalog.variants[1] = v

	view, err := svc.GetCart(ctx, owner, "en")
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.False(t, view.Lines[0].Available)
	assert.Equal(t, "45.5", view.Subtotal.String())
	assert.Equal(t, 1, view.ItemCount)
}

func TestRemoveAndClear(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	owner := domain.UserOwner("u1")

	_, err := svc.AddItem(ctx, owner, 1, 1, "en")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, 2, 1, "en")
	require.NoError(t, err)

	view, err := svc.RemoveItem(ctx, owner, 1, "en")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)

	require.NoError(t, svc.Clear(ctx, owner))
	cart, err := repo.Get(ctx, owner.Key())
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestMergeGuestCart(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	guest := domain.GuestOwner("tok")
	user := domain.UserOwner("u1")

	_, err := svc.AddItem(ctx, guest, 1, 4, "en")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, guest, 2, 2, "en")
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, user, 1, 3, "en")
	require.NoError(t, err)

	require.NoError(t, svc.MergeGuestCart(ctx, "tok", "u1"))

	view, err := svc.GetCart(ctx, user, "en")
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)
	assert.Equal(t, 5, view.Lines[0].Quantity)
	assert.Equal(t, 2, view.Lines[1].Quantity)

	guestCart, err := repo.Get(ctx, guest.Key())
	require.NoError(t, err)
	assert.Empty(t, guestCart.Items)

	assert.NoError(t, svc.MergeGuestCart(ctx, "", "u1"))
	assert.NoError(t, svc.MergeGuestCart(ctx, "unknown", "u1"))
}

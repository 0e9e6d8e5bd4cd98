package ports

import (
	"context"

	"github.com/aromaline/storefront/internal/domains/cart/domain"
)

// Service exposes cart use cases to adapters. Views are priced in locale.
type Service interface {
	GetCart(ctx context.Context, owner domain.Owner, locale string) (*domain.View, error)
	AddItem(ctx context.Context, owner domain.Owner, variantID int64, quantity int, locale string) (*domain.View, error)
	UpdateItem(ctx context.Context, owner domain.Owner, variantID int64, quantity int, locale string) (*domain.View, error)
	RemoveItem(ctx context.Context, owner domain.Owner, variantID int64, locale string) (*domain.View, error)
	Clear(ctx context.Context, owner domain.Owner) error
	MergeGuestCart(ctx context.Context, guestToken, userID string) error
}

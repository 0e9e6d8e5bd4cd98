package ports

import (
	"context"
	"time"

	"github.com/aromaline/storefront/internal/domains/cart/domain"
)

// Repository persists carts by owner key. Get returns an empty cart for unknown owners.
type Repository interface {
	Get(ctx context.Context, ownerKey string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, ownerKey string) error
	// PurgeGuestCarts deletes anonymous carts untouched since olderThan.
	PurgeGuestCarts(ctx context.Context, olderThan time.Time) (int64, error)
}

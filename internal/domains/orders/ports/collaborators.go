package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aromaline/storefront/internal/domains/orders/domain"
)

// VariantPrice is the catalog state checkout prices against.
type VariantPrice struct {
	VariantID   int64
	ProductID   int64
	ProductName string
	VolumeML    int
	Price       decimal.Decimal
	Stock       int
	Active      bool
}

// Catalog resolves current variant prices. Unknown ids are absent from the result.
type Catalog interface {
	Prices(ctx context.Context, variantIDs []int64, locale string) (map[int64]VariantPrice, error)
}

// Carts empties the cart a checkout was placed from.
type Carts interface {
	Clear(ctx context.Context, userID, guestToken string) error
}

// EventPublisher delivers order events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrVariantNotFound = errors.New("variant not found")

// VariantInfo is what the cart needs to know about a catalog variant.
type VariantInfo struct {
	VariantID   int64
	ProductID   int64
	ProductName string
	ProductSlug string
	Image       string
	VolumeML    int
	Price       decimal.Decimal
	Stock       int
	Active      bool
}

// Catalog resolves variants against the current catalog. Unknown ids are
// absent from the result.
type Catalog interface {
	Variants(ctx context.Context, variantIDs []int64, locale string) (map[int64]VariantInfo, error)
}

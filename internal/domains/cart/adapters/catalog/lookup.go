// Package catalog adapts the catalog service to the cart's view of variants.
package catalog

import (
	"context"
	"errors"

	"github.com/aromaline/storefront/internal/domains/cart/ports"
	catalogports "github.com/aromaline/storefront/internal/domains/catalog/ports"
)

// Lookup resolves cart variants through the catalog service.
type Lookup struct {
	catalog catalogports.Service
}

func NewLookup(catalog catalogports.Service) *Lookup {
	return &Lookup{catalog: catalog}
}

func (l *Lookup) Variants(ctx context.Context, variantIDs []int64, locale string) (map[int64]ports.VariantInfo, error) {
	out := make(map[int64]ports.VariantInfo, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	products, err := l.catalog.LookupVariants(ctx, variantIDs)
	if err != nil {
		if errors.Is(err, catalogports.ErrVariantNotFound) {
			return out, nil
		}
		return nil, err
	}
	for variantID, product := range products {
		if product == nil {
			continue
		}
		variant, ok := product.Variant(variantID)
		if !ok {
			continue
		}
		name, _ := product.Localized(locale)
		out[variantID] = ports.VariantInfo{
			VariantID:   variantID,
			ProductID:   product.ID,
			ProductName: name,
			ProductSlug: product.Slug,
			Image:       product.PrimaryImage(),
			VolumeML:    variant.VolumeML,
			Price:       variant.Price,
			Stock:       variant.Stock,
			Active:      product.Active,
		}
	}
	return out, nil
}

var _ ports.Catalog = (*Lookup)(nil)

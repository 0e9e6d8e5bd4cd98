// Package catalog prices checkout lines from the catalog service.
package catalog

import (
	"context"

	catalogports "github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
)

type Prices struct {
	catalog catalogports.Service
}

func NewPrices(catalog catalogports.Service) *Prices {
	return &Prices{catalog: catalog}
}

func (p *Prices) Prices(ctx context.Context, variantIDs []int64, locale string) (map[int64]ports.VariantPrice, error) {
	out := make(map[int64]ports.VariantPrice, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	products, err := p.catalog.LookupVariants(ctx, variantIDs)
	if err != nil {
		return nil, err
	}
	for variantID, product := range products {
		variant, ok := product.Variant(variantID)
		if !ok {
			continue
		}
		name, _ := product.Localized(locale)
		out[variantID] = ports.VariantPrice{
			VariantID:   variantID,
			ProductID:   product.ID,
			ProductName: name,
			VolumeML:    variant.VolumeML,
			Price:       variant.Price,
			Stock:       variant.Stock,
			Active:      product.Active,
		}
	}
	return out, nil
}

var _ ports.Catalog = (*Prices)(nil)

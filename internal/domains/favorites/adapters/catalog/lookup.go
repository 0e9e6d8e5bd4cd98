// Package catalog resolves favorite products through the catalog service.
package catalog

import (
	"context"
	"errors"

	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	catalogports "github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/domains/favorites/ports"
)

type Lookup struct {
	catalog catalogports.Service
}

func NewLookup(catalog catalogports.Service) *Lookup {
	return &Lookup{catalog: catalog}
}

// Products loads each id; favorites lists are short.
func (l *Lookup) Products(ctx context.Context, productIDs []int64) (map[int64]*catalogdomain.Product, error) {
	out := make(map[int64]*catalogdomain.Product, len(productIDs))
	for _, id := range productIDs {
		p, err := l.catalog.GetProductByID(ctx, id)
		if errors.Is(err, catalogports.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, nil
}

var _ ports.Catalog = (*Lookup)(nil)

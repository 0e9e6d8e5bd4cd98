package ports

import (
	"context"
	"errors"

	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Catalog resolves favorite product ids. Missing ids are absent from the result.
type Catalog interface {
	Products(ctx context.Context, productIDs []int64) (map[int64]*catalogdomain.Product, error)
}

package ports

import (
	"context"

	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
)

// Service exposes favorites use cases to adapters.
type Service interface {
	List(ctx context.Context, userID string) ([]*catalogdomain.Product, error)
	Add(ctx context.Context, userID string, productID int64) error
	Remove(ctx context.Context, userID string, productID int64) error
	Toggle(ctx context.Context, userID string, productID int64) (bool, error)
	IDs(ctx context.Context, userID string) ([]int64, error)
}

package ports

import (
	"context"

	"github.com/aromaline/storefront/internal/domains/favorites/domain"
)

// Repository stores favorites. Add and Remove are idempotent.
type Repository interface {
	// List returns the user's favorites, newest first.
	List(ctx context.Context, userID string) ([]domain.Favorite, error)
	Add(ctx context.Context, favorite domain.Favorite) error
	Remove(ctx context.Context, userID string, productID int64) error
	Exists(ctx context.Context, userID string, productID int64) (bool, error)
}

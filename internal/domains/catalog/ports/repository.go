package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/shared/projection"
)

var (
	ErrNotFound        = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrSlugTaken       = errors.New("product slug already exists")
	ErrReviewExists    = errors.New("review already exists for this product")
)

// Repository persists the catalog.
type Repository interface {
	Filter(ctx context.Context, filter domain.Filter) (projection.Page[*domain.Product], error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	// GetByVariantIDs returns the owning product for each known variant id.
	GetByVariantIDs(ctx context.Context, variantIDs []int64) (map[int64]*domain.Product, error)
	Related(ctx context.Context, product *domain.Product, limit int) ([]*domain.Product, error)
	Facets(ctx context.Context) (domain.Facets, error)
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	SetRating(ctx context.Context, productID int64, average decimal.Decimal, count int) error
	// AdjustStock applies signed deltas per variant id. Either every delta is
	// applied or none is; a delta that would make stock negative yields
	// domain.ErrInsufficientStock.
	AdjustStock(ctx context.Context, deltas map[int64]int) error
}

// ReviewStats is the review aggregate of one product.
type ReviewStats struct {
	Average decimal.Decimal
	Count   int
}

// ReviewRepository persists product reviews.
type ReviewRepository interface {
	List(ctx context.Context, productID int64, page, pageSize int) (projection.Page[*domain.Review], error)
	Add(ctx context.Context, review *domain.Review) (*domain.Review, error)
	Stats(ctx context.Context, productID int64) (ReviewStats, error)
}

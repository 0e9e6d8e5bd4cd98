package ports

import (
	"context"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/shared/projection"
)

// AddReviewCommand carries a review submission.
type AddReviewCommand struct {
	ProductID  int64
	UserID     string
	AuthorName string
	Rating     int
	Comment    string
}

// Service exposes catalog use cases to adapters.
type Service interface {
	FilterProducts(ctx context.Context, filter domain.Filter) (projection.Page[*domain.Product], error)
	GetProduct(ctx context.Context, slug string) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	LookupVariants(ctx context.Context, variantIDs []int64) (map[int64]*domain.Product, error)
	RelatedProducts(ctx context.Context, slug string, limit int) ([]*domain.Product, error)
	Facets(ctx context.Context) (domain.Facets, error)
	UpsertProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListReviews(ctx context.Context, productID int64, page, pageSize int) (projection.Page[*domain.Review], error)
	AddReview(ctx context.Context, cmd AddReviewCommand) (*domain.Review, error)
}

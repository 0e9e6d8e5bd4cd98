package application

import (
	"context"
	"errors"
	"strings"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

const (
	defaultRelatedLimit = 4
	maxRelatedLimit     = 12
	defaultReviewPage   = 10
	maxReviewPage       = 50
)

// Service orchestrates catalog use cases.
type Service struct {
	repo    ports.Repository
	reviews ports.ReviewRepository
}

func NewService(repo ports.Repository, reviews ports.ReviewRepository) *Service {
	return &Service{repo: repo, reviews: reviews}
}

func (s *Service) FilterProducts(ctx context.Context, filter domain.Filter) (projection.Page[*domain.Product], error) {
	normalized, err := filter.Normalize()
	if err != nil {
		return projection.Page[*domain.Product]{}, mapError(err)
	}
	return s.repo.Filter(ctx, normalized)
}

func (s *Service) GetProduct(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := s.repo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, ports.ErrNotFound
	}
	return product, nil
}

func (s *Service) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ports.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// LookupVariants resolves variant ids to their products, active or not.
func (s *Service) LookupVariants(ctx context.Context, variantIDs []int64) (map[int64]*domain.Product, error) {
	if len(variantIDs) == 0 {
		return map[int64]*domain.Product{}, nil
	}
	return s.repo.GetByVariantIDs(ctx, variantIDs)
}

// RelatedProducts lists active products sharing the family or brand, most popular first.
func (s *Service) RelatedProducts(ctx context.Context, slug string, limit int) ([]*domain.Product, error) {
	product, err := s.GetProduct(ctx, slug)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRelatedLimit
	}
	if limit > maxRelatedLimit {
		limit = maxRelatedLimit
	}
	return s.repo.Related(ctx, product, limit)
}

func (s *Service) Facets(ctx context.Context) (domain.Facets, error) {
	return s.repo.Facets(ctx)
}

func (s *Service) UpsertProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListReviews(ctx context.Context, productID int64, page, pageSize int) (projection.Page[*domain.Review], error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultReviewPage
	}
	if pageSize > maxReviewPage {
		pageSize = maxReviewPage
	}
	return s.reviews.List(ctx, productID, page, pageSize)
}

// AddReview stores the review and refreshes the product rating aggregate.
func (s *Service) AddReview(ctx context.Context, cmd ports.AddReviewCommand) (*domain.Review, error) {
	review, err := domain.NewReview(cmd.ProductID, cmd.UserID, cmd.AuthorName, cmd.Rating, cmd.Comment)
	if err != nil {
		return nil, mapError(err)
	}
	product, err := s.repo.GetByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, ports.ErrNotFound
	}
	saved, err := s.reviews.Add(ctx, review)
	if err != nil {
		return nil, mapError(err)
	}
	stats, err := s.reviews.Stats(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRating(ctx, cmd.ProductID, stats.Average, stats.Count); err != nil {
		return nil, err
	}
	return saved, nil
}

var _ ports.Service = (*Service)(nil)

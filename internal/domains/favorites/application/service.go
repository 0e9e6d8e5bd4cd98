package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/favorites/domain"
	"github.com/aromaline/storefront/internal/domains/favorites/ports"
)

// ErrInvalidInput signals the request violated a favorites invariant.
var ErrInvalidInput = errors.New("invalid favorites input")

// Service orchestrates favorites use cases.
type Service struct {
	repo    ports.Repository
	catalog ports.Catalog
	now     func() time.Time
}

func NewService(repo ports.Repository, catalog ports.Catalog) *Service {
	return &Service{repo: repo, catalog: catalog, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// List returns the favorite products that are still on sale, newest favorite first.
func (s *Service) List(ctx context.Context, userID string) ([]*catalogdomain.Product, error) {
	favorites, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ProductID)
	}
	products, err := s.catalog.Products(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*catalogdomain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := products[id]; ok && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) Add(ctx context.Context, userID string, productID int64) error {
	favorite, err := domain.New(userID, productID, s.now().UTC())
	if err != nil {
		return invalid(err)
	}
	if err := s.ensureProduct(ctx, productID); err != nil {
		return err
	}
	return s.repo.Add(ctx, favorite)
}

func (s *Service) Remove(ctx context.Context, userID string, productID int64) error {
	if _, err := domain.New(userID, productID, time.Time{}); err != nil {
		return invalid(err)
	}
	return s.repo.Remove(ctx, strings.TrimSpace(userID), productID)
}

// Toggle flips the favorite and reports whether the product is now a favorite.
func (s *Service) Toggle(ctx context.Context, userID string, productID int64) (bool, error) {
	if _, err := domain.New(userID, productID, time.Time{}); err != nil {
		return false, invalid(err)
	}
	userID = strings.TrimSpace(userID)
	exists, err := s.repo.Exists(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, s.repo.Remove(ctx, userID, productID)
	}
	if err := s.Add(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) IDs(ctx context.Context, userID string) ([]int64, error) {
	favorites, err := s.list(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ProductID)
	}
	return ids, nil
}

func (s *Service) list(ctx context.Context, userID string) ([]domain.Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalid(domain.ErrInvalidUser)
	}
	return s.repo.List(ctx, userID)
}

func (s *Service) ensureProduct(ctx context.Context, productID int64) error {
	products, err := s.catalog.Products(ctx, []int64{productID})
	if err != nil {
		return err
	}
	if p, ok := products[productID]; !ok || !p.Active {
		return ports.ErrProductNotFound
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

var _ ports.Service = (*Service)(nil)

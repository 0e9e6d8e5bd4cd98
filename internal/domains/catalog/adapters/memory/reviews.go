package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

var _ ports.ReviewRepository = (*ReviewRepository)(nil)

// ReviewRepository keeps reviews in process memory.
type ReviewRepository struct {
	mu      sync.RWMutex
	reviews map[int64][]*domain.Review
	nextID  int64
	now     func() time.Time
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{reviews: map[int64][]*domain.Review{}, now: time.Now}
}

// WithClock overrides the time source for deterministic testing.
func (r *ReviewRepository) WithClock(now func() time.Time) *ReviewRepository {
	if now != nil {
		r.now = now
	}
	return r
}

// List returns reviews newest first.
func (r *ReviewRepository) List(_ context.Context, productID int64, page, pageSize int) (projection.Page[*domain.Review], error) {
	r.mu.RLock()
	list := make([]*domain.Review, 0, len(r.reviews[productID]))
	for _, rv := range r.reviews[productID] {
		clone := *rv
		list = append(list, &clone)
	}
	r.mu.RUnlock()
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return projection.Page[*domain.Review]{
		Items:    projection.Slice(list, page, pageSize),
		Total:    len(list),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (r *ReviewRepository) Add(_ context.Context, review *domain.Review) (*domain.Review, error) {
	if review == nil {
		return nil, errors.New("review is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reviews[review.ProductID] {
		if existing.UserID == review.UserID {
			return nil, ports.ErrReviewExists
		}
	}
	clone := *review
	r.nextID++
	clone.ID = r.nextID
	clone.CreatedAt = r.now().UTC()
	r.reviews[clone.ProductID] = append(r.reviews[clone.ProductID], &clone)
	out := clone
	return &out, nil
}

func (r *ReviewRepository) Stats(_ context.Context, productID int64) (ports.ReviewStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.reviews[productID]
	if len(list) == 0 {
		return ports.ReviewStats{Average: decimal.Zero}, nil
	}
	sum := 0
	for _, rv := range list {
		sum += rv.Rating
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(len(list)))).Round(2)
	return ports.ReviewStats{Average: avg, Count: len(list)}, nil
}

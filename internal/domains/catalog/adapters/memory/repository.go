package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aromaline/storefront/internal/domains/catalog/domain"
	"github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory catalog that evaluates filters in Go.
type Repository struct {
	mu            sync.RWMutex
	products      map[int64]*domain.Product
	bySlug        map[string]int64
	byVariant     map[int64]int64
	nextID        int64
	nextVariantID int64
	now           func() time.Time
}

func NewRepository() *Repository {
	return &Repository{
		products:  map[int64]*domain.Product{},
		bySlug:    map[string]int64{},
		byVariant: map[int64]int64{},
		now:       time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	if now != nil {
		r.now = now
	}
	return r
}

func (r *Repository) Filter(_ context.Context, filter domain.Filter) (projection.Page[*domain.Product], error) {
	r.mu.RLock()
	matched := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if filter.Matches(p) {
			matched = append(matched, p.Clone())
		}
	}
	r.mu.RUnlock()

	domain.SortProducts(matched, filter.Sort)
	return projection.Page[*domain.Product]{
		Items:    projection.Slice(matched, filter.Page, filter.PageSize),
		Total:    len(matched),
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (r *Repository) GetBySlug(_ context.Context, slug string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.bySlug[slug]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.products[id].Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *Repository) GetByVariantIDs(_ context.Context, variantIDs []int64) (map[int64]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[int64]*domain.Product, len(variantIDs))
	for _, vid := range variantIDs {
		if pid, ok := r.byVariant[vid]; ok {
			out[vid] = r.products[pid].Clone()
		}
	}
	return out, nil
}

func (r *Repository) Related(_ context.Context, product *domain.Product, limit int) ([]*domain.Product, error) {
	r.mu.RLock()
	related := make([]*domain.Product, 0)
	for _, p := range r.products {
		if !p.Active || p.ID == product.ID {
			continue
		}
		if p.Family == product.Family || strings.EqualFold(p.Brand, product.Brand) {
			related = append(related, p.Clone())
		}
	}
	r.mu.RUnlock()
	domain.SortProducts(related, domain.SortPopular)
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

func (r *Repository) Facets(_ context.Context) (domain.Facets, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p)
	}
	return domain.BuildFacets(all), nil
}

// Save inserts or replaces a product. A product without an id whose slug
// already exists replaces that product.
func (r *Repository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := product.Clone()
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.bySlug[clone.Slug]; ok {
		if clone.ID == 0 {
			clone.ID = existing
		} else if clone.ID != existing {
			return nil, ports.ErrSlugTaken
		}
	}
	now := r.now().UTC()
	if prev, ok := r.products[clone.ID]; ok && clone.ID != 0 {
		clone.CreatedAt = prev.CreatedAt
		delete(r.bySlug, prev.Slug)
		for _, v := range prev.Variants {
			delete(r.byVariant, v.ID)
		}
	} else {
		if clone.ID == 0 {
			r.nextID++
			clone.ID = r.nextID
		} else if clone.ID > r.nextID {
			r.nextID = clone.ID
		}
		if clone.CreatedAt.IsZero() {
			clone.CreatedAt = now
		}
	}
	for i := range clone.Variants {
		v := &clone.Variants[i]
		if v.ID == 0 {
			r.nextVariantID++
			v.ID = r.nextVariantID
		} else if v.ID > r.nextVariantID {
			r.nextVariantID = v.ID
		}
		r.byVariant[v.ID] = clone.ID
	}
	clone.UpdatedAt = now
	r.products[clone.ID] = clone
	r.bySlug[clone.Slug] = clone.ID
	return clone.Clone(), nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return ports.ErrNotFound
	}
	delete(r.bySlug, p.Slug)
	for _, v := range p.Variants {
		delete(r.byVariant, v.ID)
	}
	delete(r.products, id)
	return nil
}

func (r *Repository) SetRating(_ context.Context, productID int64, average decimal.Decimal, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return ports.ErrNotFound
	}
	p.SetRating(average, count)
	return nil
}

// AdjustStock validates every delta before applying any of them.
func (r *Repository) AdjustStock(_ context.Context, deltas map[int64]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]int64, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	type target struct {
		product *domain.Product
		index   int
	}
	targets := make([]target, 0, len(ids))
	for _, vid := range ids {
		pid, ok := r.byVariant[vid]
		if !ok {
			return ports.ErrVariantNotFound
		}
		p := r.products[pid]
		idx := -1
		for i := range p.Variants {
			if p.Variants[i].ID == vid {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ports.ErrVariantNotFound
		}
		if p.Variants[idx].Stock+deltas[vid] < 0 {
			return domain.ErrInsufficientStock
		}
		targets = append(targets, target{product: p, index: idx})
	}
	for i, t := range targets {
		t.product.Variants[t.index].Stock += deltas[ids[i]]
	}
	return nil
}

package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	catalogports "github.com/aromaline/storefront/internal/domains/catalog/ports"
	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
	"github.com/aromaline/storefront/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// StockLedger applies all-or-nothing stock deltas, e.g. the in-memory catalog.
type StockLedger interface {
	AdjustStock(ctx context.Context, deltas map[int64]int) error
}

// Repository keeps orders in memory and reserves stock through a ledger.
type Repository struct {
	mu       sync.RWMutex
	orders   map[string]*domain.Order
	byNumber map[string]string
	stock    StockLedger
}

// NewRepository builds a repository. A nil ledger skips stock bookkeeping.
func NewRepository(stock StockLedger) *Repository {
	return &Repository{
		orders:   map[string]*domain.Order{},
		byNumber: map[string]string{},
		stock:    stock,
	}
}

func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byNumber[order.Number]; ok {
		return nil, errors.New("order number already used")
	}
	if err := r.adjust(ctx, order.StockDeltas()); err != nil {
		return nil, err
	}
	clone := order.Clone()
	r.orders[clone.ID] = clone
	r.byNumber[clone.Number] = clone.ID
	return clone.Clone(), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if o, ok := r.orders[id]; ok {
		return o.Clone(), nil
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) GetByNumber(_ context.Context, number string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byNumber[number]; ok {
		return r.orders[id].Clone(), nil
	}
	return nil, ports.ErrNotFound
}

func (r *Repository) ListByUser(_ context.Context, userID string, page, pageSize int) (projection.Page[*domain.Order], error) {
	r.mu.RLock()
	owned := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			owned = append(owned, o.Clone())
		}
	}
	r.mu.RUnlock()
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].Number > owned[j].Number
	})
	return projection.Page[*domain.Order]{
		Items:    projection.Slice(owned, page, pageSize),
		Total:    len(owned),
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Cancel persists the cancelled status and restocks, only if the stored order is still pending.
func (r *Repository) Cancel(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[order.ID]
	if !ok {
		return ports.ErrNotFound
	}
	if stored.Status != domain.StatusPending {
		return domain.ErrNotCancellable
	}
	if err := r.adjust(ctx, stored.RestockDeltas()); err != nil {
		return err
	}
	stored.Status = domain.StatusCancelled
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *Repository) ClaimGuestOrders(_ context.Context, userID, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var claimed int64
	for _, o := range r.orders {
		if o.IsGuest() && o.MatchesEmail(email) {
			o.UserID = userID
			claimed++
		}
	}
	return claimed, nil
}

func (r *Repository) adjust(ctx context.Context, deltas map[int64]int) error {
	if r.stock == nil {
		return nil
	}
	err := r.stock.AdjustStock(ctx, deltas)
	switch {
	case errors.Is(err, catalogdomain.ErrInsufficientStock), errors.Is(err, catalogports.ErrVariantNotFound):
		return ports.ErrInsufficientStock
	default:
		return err
	}
}

package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/aromaline/storefront/internal/domains/cart/domain"
	"github.com/aromaline/storefront/internal/domains/cart/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps carts in process memory.
type Repository struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewRepository() *Repository {
	return &Repository{carts: map[string]*domain.Cart{}}
}

func (r *Repository) Get(_ context.Context, ownerKey string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cart, ok := r.carts[ownerKey]; ok {
		return cart.Clone(), nil
	}
	return domain.New(ownerKey), nil
}

// Save stores the cart; an empty cart is deleted.
func (r *Repository) Save(_ context.Context, cart *domain.Cart) error {
	if cart == nil || cart.OwnerKey == "" {
		return errors.New("cart owner is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(cart.Items) == 0 {
		delete(r.carts, cart.OwnerKey)
		return nil
	}
	r.carts[cart.OwnerKey] = cart.Clone()
	return nil
}

func (r *Repository) Delete(_ context.Context, ownerKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, ownerKey)
	return nil
}

func (r *Repository) PurgeGuestCarts(_ context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var purged int64
	for key, cart := range r.carts {
		if strings.HasPrefix(key, domain.GuestKeyPrefix()) && cart.UpdatedAt.Before(olderThan) {
			delete(r.carts, key)
			purged++
		}
	}
	return purged, nil
}

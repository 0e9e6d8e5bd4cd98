package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aromaline/storefront/internal/domains/favorites/domain"
	"github.com/aromaline/storefront/internal/domains/favorites/ports"
)

var _ ports.Repository = (*Repository)(nil)

type key struct {
	userID    string
	productID int64
}

// Repository keeps favorites in process memory.
type Repository struct {
	mu        sync.RWMutex
	favorites map[key]domain.Favorite
}

func NewRepository() *Repository {
	return &Repository{favorites: map[key]domain.Favorite{}}
}

func (r *Repository) List(_ context.Context, userID string) ([]domain.Favorite, error) {
	r.mu.RLock()
	out := make([]domain.Favorite, 0)
	for k, f := range r.favorites {
		if k.userID == userID {
			out = append(out, f)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ProductID > out[j].ProductID
	})
	return out, nil
}

func (r *Repository) Add(_ context.Context, favorite domain.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{favorite.UserID, favorite.ProductID}
	if _, ok := r.favorites[k]; !ok {
		r.favorites[k] = favorite
	}
	return nil
}

func (r *Repository) Remove(_ context.Context, userID string, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.favorites, key{userID, productID})
	return nil
}

func (r *Repository) Exists(_ context.Context, userID string, productID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.favorites[key{userID, productID}]
	return ok, nil
}

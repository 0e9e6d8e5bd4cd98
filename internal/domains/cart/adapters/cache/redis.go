// Package cache adds a Redis read-through layer in front of a cart repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/aromaline/storefront/internal/domains/cart/domain"
	"github.com/aromaline/storefront/internal/domains/cart/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository serves reads from Redis and falls back to the inner repository.
// Writes go to the inner repository first, then invalidate the cached copy.
// Redis failures are logged and never fail the request.
type Repository struct {
	inner   ports.Repository
	client  redis.UniversalClient
	baseTTL time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

type Option func(*Repository)

func WithTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		if ttl > 0 {
			r.baseTTL = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New wraps inner. Caller owns the Redis client lifecycle.
func New(inner ports.Repository, client redis.UniversalClient, opts ...Option) *Repository {
	r := &Repository{
		inner:   inner,
		client:  client,
		baseTTL: 15 * time.Minute,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type cachedItem struct {
	VariantID int64     `json:"variantId"`
	ProductID int64     `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type cachedCart struct {
	OwnerKey  string       `json:"ownerKey"`
	Items     []cachedItem `json:"items"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (r *Repository) Get(ctx context.Context, ownerKey string) (*domain.Cart, error) {
	v, err, _ := r.group.Do(ownerKey, func() (any, error) {
		cart, err := r.getCached(ctx, ownerKey)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "cart cache read failed", slog.String("owner", ownerKey), slog.String("error", err.Error()))
		}
		cart, err = r.inner.Get(ctx, ownerKey)
		if err != nil {
			return nil, err
		}
		r.set(ctx, cart)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers mutate the cart, and singleflight shares one value between them.
	return v.(*domain.Cart).Clone(), nil
}

func (r *Repository) Save(ctx context.Context, cart *domain.Cart) error {
	if err := r.inner.Save(ctx, cart); err != nil {
		return err
	}
	if cart != nil {
		r.invalidate(ctx, cart.OwnerKey)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, ownerKey string) error {
	if err := r.inner.Delete(ctx, ownerKey); err != nil {
		return err
	}
	r.invalidate(ctx, ownerKey)
	return nil
}

// PurgeGuestCarts delegates; purged carts leave the cache when their TTL ends.
func (r *Repository) PurgeGuestCarts(ctx context.Context, olderThan time.Time) (int64, error) {
	return r.inner.PurgeGuestCarts(ctx, olderThan)
}

func (r *Repository) getCached(ctx context.Context, ownerKey string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(ownerKey)).Bytes()
	if err != nil {
		return nil, err
	}
	var cached cachedCart
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	cart := domain.New(cached.OwnerKey)
	cart.UpdatedAt = cached.UpdatedAt
	for _, item := range cached.Items {
		cart.Items = append(cart.Items, domain.Item(item))
	}
	return cart, nil
}

func (r *Repository) set(ctx context.Context, cart *domain.Cart) {
	cached := cachedCart{OwnerKey: cart.OwnerKey, UpdatedAt: cart.UpdatedAt, Items: make([]cachedItem, 0, len(cart.Items))}
	for _, item := range cart.Items {
		cached.Items = append(cached.Items, cachedItem(item))
	}
	data, err := json.Marshal(cached)
	if err != nil {
		r.logger.WarnContext(ctx, "cart cache encode failed", slog.String("error", err.Error()))
		return
	}
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(cart.OwnerKey), data, r.baseTTL+jitter).Err(); err != nil {
		r.logger.WarnContext(ctx, "cart cache write failed", slog.String("owner", cart.OwnerKey), slog.String("error", err.Error()))
	}
}

func (r *Repository) invalidate(ctx context.Context, ownerKey string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := r.client.Del(ctx, cacheKey(ownerKey)).Err(); err != nil {
		r.logger.WarnContext(ctx, "cart cache invalidate failed", slog.String("owner", ownerKey), slog.String("error", err.Error()))
	}
}

func cacheKey(ownerKey string) string {
	return fmt.Sprintf("cart:%s", ownerKey)
}

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aromaline/storefront/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

type scopedKey struct{ scope, key string }

// IdempotencyStore keeps checkout keys in process memory.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[scopedKey]ports.CheckoutKey
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: map[scopedKey]ports.CheckoutKey{}}
}

func (s *IdempotencyStore) Reserve(_ context.Context, k ports.CheckoutKey) (*ports.CheckoutKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := scopedKey{k.Scope, k.Key}
	if held, ok := s.keys[id]; ok && !held.Expired(k.CreatedAt) {
		return &held, nil
	}
	k.OrderID = ""
	s.keys[id] = k
	return nil, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, k ports.CheckoutKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := scopedKey{k.Scope, k.Key}
	held, ok := s.keys[id]
	if !ok || held.Token != k.Token {
		return ports.ErrIdempotencyConflict
	}
	held.OrderID = k.OrderID
	held.ExpiresAt = k.ExpiresAt
	s.keys[id] = held
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, k ports.CheckoutKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := scopedKey{k.Scope, k.Key}
	if held, ok := s.keys[id]; ok && held.Token == k.Token && held.Pending() {
		delete(s.keys, id)
	}
	return nil
}

func (s *IdempotencyStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, k := range s.keys {
		if k.Expired(now) {
			delete(s.keys, id)
			n++
		}
	}
	return n, nil
}

package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict means the key was already used for a different checkout.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

const (
	// CheckoutKeyTTL is how long a completed Idempotency-Key is honoured.
	CheckoutKeyTTL = 24 * time.Hour
	// CheckoutKeyLease bounds a reservation whose checkout never completed.
	CheckoutKeyLease = 2 * time.Minute
)

// CheckoutKey remembers which order a customer's Idempotency-Key produced.
// Keys are scoped to the customer, so two shoppers never share one. An empty
// OrderID marks a reservation held by the request identified by Token.
type CheckoutKey struct {
	Scope       string
	Key         string
	RequestHash string
	Token       string
	OrderID     string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the key may be reused for a new checkout.
func (k CheckoutKey) Expired(now time.Time) bool {
	return !k.ExpiresAt.IsZero() && !now.Before(k.ExpiresAt)
}

// Pending reports whether the owning checkout is still running.
func (k CheckoutKey) Pending() bool { return k.OrderID == "" }

// KeyScope derives the owner scope for a checkout key.
func KeyScope(userID, guestToken string) string {
	switch {
	case userID != "":
		return "user:" + userID
	case guestToken != "":
		return "guest:" + guestToken
	default:
		return "anonymous"
	}
}

// IdempotencyStore reserves checkout keys before the order is written, so
// concurrent retries of one checkout produce a single order.
type IdempotencyStore interface {
	// Reserve atomically claims k (CreatedAt is "now") when no live entry
	// exists and returns nil. Otherwise it returns the live entry untouched.
	Reserve(ctx context.Context, k CheckoutKey) (*CheckoutKey, error)
	// Complete records the order for the reservation k.Token holds and moves
	// its expiry to k.ExpiresAt.
	Complete(ctx context.Context, k CheckoutKey) error
	// Release drops a reservation whose checkout failed.
	Release(ctx context.Context, k CheckoutKey) error
	// PurgeExpired drops keys that expired before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

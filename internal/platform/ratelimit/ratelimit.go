// Package ratelimit implements fixed-window request limits keyed by scope and client IP.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Policy bounds how many requests a key may make per window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Valid reports whether the policy can be enforced.
func (p Policy) Valid() bool {
	return p.Name != "" && p.Limit > 0 && p.Window > 0
}

// Built-in policies for the storefront surfaces.
var (
	PolicyAuth     = Policy{Name: "auth", Limit: 10, Window: time.Minute}
	PolicyOTP      = Policy{Name: "otp", Limit: 5, Window: 10 * time.Minute}
	PolicyCheckout = Policy{Name: "checkout", Limit: 20, Window: time.Minute}
	PolicyLogs     = Policy{Name: "logs", Limit: 60, Window: time.Minute}
)

// ErrInvalidPolicy is returned when a policy has no name, limit or window.
var ErrInvalidPolicy = errors.New("ratelimit: invalid policy")

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts hits for a key within the policy window.
type Limiter interface {
	Allow(ctx context.Context, key string, policy Policy) (Decision, error)
}

type window struct {
	start time.Time
	count int
	ttl   time.Duration
}

// MemoryLimiter is a process-local limiter. All access is serialized by mu and
// expired windows are swept periodically so the map does not grow without bound.
type MemoryLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	now       func() time.Time
	lastSweep time.Time
	sweepIvl  time.Duration
}

// NewMemoryLimiter constructs an empty limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows:  map[string]*window{},
		now:      time.Now,
		sweepIvl: time.Minute,
	}
}

// WithClock overrides the time source for deterministic testing.
func (l *MemoryLimiter) WithClock(now func() time.Time) {
	if now != nil {
		l.mu.Lock()
		l.now = now
		l.mu.Unlock()
	}
}

// Allow records a hit for policy/key and reports whether it fits the window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, policy Policy) (Decision, error) {
	if !policy.Valid() {
		return Decision{}, ErrInvalidPolicy
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.sweepIvl {
		l.sweep(now)
	}

	id := policy.Name + ":" + key
	w, ok := l.windows[id]
	if !ok || !now.Before(w.start.Add(w.ttl)) {
		w = &window{start: now, ttl: policy.Window}
		l.windows[id] = w
	}
	w.count++
	if w.count > policy.Limit {
		return Decision{Allowed: false, RetryAfter: w.start.Add(w.ttl).Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: policy.Limit - w.count}, nil
}

// Len reports the number of live windows.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for id, w := range l.windows {
		if !now.Before(w.start.Add(w.ttl)) {
			delete(l.windows, id)
		}
	}
	l.lastSweep = now
}

var _ Limiter = (*MemoryLimiter)(nil)

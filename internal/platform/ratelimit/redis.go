package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares fixed windows across instances using INCR and PEXPIRE.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLimiter wires a Redis client. Caller owns the client lifecycle.
func NewRedisLimiter(client redis.UniversalClient) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit"}
}

// Allow increments the window counter, starting the window on the first hit.
func (l *RedisLimiter) Allow(ctx context.Context, key string, policy Policy) (Decision, error) {
	if !policy.Valid() {
		return Decision{}, ErrInvalidPolicy
	}
	id := l.key(policy.Name, key)
	count, err := l.client.Incr(ctx, id).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis incr failed: %w", err)
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, id, policy.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis pexpire failed: %w", err)
		}
	}
	if count <= int64(policy.Limit) {
		return Decision{Allowed: true, Remaining: policy.Limit - int(count)}, nil
	}

	ttl, err := l.client.PTTL(ctx, id).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("redis pttl failed: %w", err)
	}
	if ttl < 0 {
		// A crash between INCR and PEXPIRE leaves the key without expiry.
		if err := l.client.PExpire(ctx, id, policy.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("redis pexpire failed: %w", err)
		}
		ttl = policy.Window
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}

func (l *RedisLimiter) key(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", l.prefix, scope, key)
}

// Ping checks connectivity for readiness probes.
func (l *RedisLimiter) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return l.client.Ping(ctx).Err()
}

var _ Limiter = (*RedisLimiter)(nil)

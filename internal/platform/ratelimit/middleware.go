package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RejectFunc writes the response for a denied request and aborts the chain.
type RejectFunc func(c *gin.Context, policy Policy, retryAfterSeconds int)

// MiddlewareOption customizes Middleware.
type MiddlewareOption func(*middleware)

type middleware struct {
	limiter  Limiter
	policy   Policy
	reject   RejectFunc
	logger   *slog.Logger
	onReject func(policy string)
}

// WithRejectHandler overrides the default 429 writer.
func WithRejectHandler(fn RejectFunc) MiddlewareOption {
	return func(m *middleware) {
		if fn != nil {
			m.reject = fn
		}
	}
}

// WithLogger logs limiter failures.
func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(m *middleware) {
		m.logger = logger
	}
}

// WithRejectionCounter is invoked once per denied request, e.g. to bump a metric.
func WithRejectionCounter(fn func(policy string)) MiddlewareOption {
	return func(m *middleware) {
		m.onReject = fn
	}
}

// Middleware enforces policy per client IP. Limiter errors let the request through.
func Middleware(limiter Limiter, policy Policy, opts ...MiddlewareOption) gin.HandlerFunc {
	m := &middleware{
		limiter: limiter,
		policy:  policy,
		reject:  defaultReject,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return func(c *gin.Context) {
		if m.limiter == nil {
			c.Next()
			return
		}
		decision, err := m.limiter.Allow(c.Request.Context(), c.ClientIP(), m.policy)
		if err != nil {
			if m.logger != nil {
				m.logger.LogAttrs(c.Request.Context(), slog.LevelWarn, "rate limiter unavailable",
					slog.String("policy", m.policy.Name), slog.String("error", err.Error()))
			}
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(m.policy.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if decision.Allowed {
			c.Next()
			return
		}
		if m.onReject != nil {
			m.onReject(m.policy.Name)
		}
		seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		m.reject(c, m.policy, seconds)
	}
}

func defaultReject(c *gin.Context, _ Policy, retryAfterSeconds int) {
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"title": "Too Many Requests", "status": http.StatusTooManyRequests})
}

package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, Policy) (Decision, error) {
	return Decision{}, errors.New("unavailable")
}

func newRouter(limiter Limiter, policy Policy, opts ...MiddlewareOption) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", Middleware(limiter, policy, opts...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestMiddleware_Returns429WithRetryAfter(t *testing.T) {
	var rejected []string
	router := newRouter(NewMemoryLimiter(), Policy{Name: "auth", Limit: 1, Window: time.Minute},
		WithRejectionCounter(func(p string) { rejected = append(rejected, p) }))

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, "0", first.Header().Get("X-RateLimit-Remaining"))

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
	assert.Equal(t, []string{"auth"}, rejected)
}

func TestMiddleware_FailsOpen(t *testing.T) {
	router := newRouter(failingLimiter{}, PolicyAuth)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMiddleware_CustomReject(t *testing.T) {
	router := newRouter(NewMemoryLimiter(), Policy{Name: "otp", Limit: 1, Window: time.Second},
		WithRejectHandler(func(c *gin.Context, p Policy, seconds int) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"policy": p.Name, "retry": seconds})
		}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.JSONEq(t, `{"policy":"otp","retry":1}`, rec.Body.String())
}

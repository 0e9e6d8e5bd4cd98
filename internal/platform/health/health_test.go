package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", h.Health)
	r.GET("/livez", Liveness)
	r.GET("/readyz", h.Readiness)
	return r
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth_AllHealthy(t *testing.T) {
	h := NewHandler("1.2.3")
	h.RegisterChecker("postgres", NewSimpleChecker("postgres", func(context.Context) error { return nil }))
	r := newRouter(h)

	rec := serve(r, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, StatusHealthy, body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, StatusHealthy, body.Checks["postgres"].Status)

	assert.Equal(t, http.StatusOK, serve(r, "/readyz").Code)
	assert.Equal(t, "ok", serve(r, "/livez").Body.String())
}

func TestHealth_OptionalFailureDegrades(t *testing.T) {
	h := NewHandler("dev")
	h.RegisterChecker("kafka", NewOptionalChecker("kafka", func(context.Context) error { return errors.New("no brokers") }))
	r := newRouter(h)

	rec := serve(r, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"degraded"`)
	assert.Equal(t, http.StatusOK, serve(r, "/readyz").Code)
}

func TestHealth_RequiredFailureIsUnavailable(t *testing.T) {
	h := NewHandler("dev")
	h.RegisterChecker("postgres", NewSimpleChecker("postgres", func(context.Context) error { return errors.New("connection refused") }))
	r := newRouter(h)

	assert.Equal(t, http.StatusServiceUnavailable, serve(r, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, "/readyz").Code)
}

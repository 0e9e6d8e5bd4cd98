// Package health serves liveness and readiness probes over registered dependency checks.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Status is the state of one component or of the whole process.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

// Check is the result of probing one component.
type Check struct {
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// Response is the body of the aggregated health endpoint.
type Response struct {
	Status        Status           `json:"status"`
	Timestamp     time.Time        `json:"timestamp"`
	Checks        map[string]Check `json:"checks,omitempty"`
	Version       string           `json:"version,omitempty"`
	UptimeSeconds int64            `json:"uptime_seconds"`
}

// Checker probes one dependency.
type Checker interface {
	Check(ctx context.Context) Check
}

// Handler aggregates registered checkers.
type Handler struct {
	mu        sync.RWMutex
	checkers  map[string]Checker
	version   string
	startTime time.Time
	timeout   time.Duration
}

// NewHandler creates a handler reporting the given build version.
func NewHandler(version string) *Handler {
	return &Handler{
		checkers:  make(map[string]Checker),
		version:   version,
		startTime: time.Now(),
		timeout:   2 * time.Second,
	}
}

// RegisterChecker adds or replaces a named check.
func (h *Handler) RegisterChecker(name string, checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers[name] = checker
}

// Evaluate runs every check and folds them into an overall status.
func (h *Handler) Evaluate(ctx context.Context) Response {
	h.mu.RLock()
	names := make([]string, 0, len(h.checkers))
	checkers := make(map[string]Checker, len(h.checkers))
	for name, checker := range h.checkers {
		names = append(names, name)
		checkers[name] = checker
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	checks := make(map[string]Check, len(names))
	overall := StatusHealthy
	for _, name := range names {
		check := checkers[name].Check(ctx)
		if check.Name == "" {
			check.Name = name
		}
		checks[name] = check
		if check.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		} else if check.Status == StatusDegraded && overall == StatusHealthy {
			overall = StatusDegraded
		}
	}
	return Response{
		Status:        overall,
		Timestamp:     time.Now().UTC(),
		Checks:        checks,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}
}

// Health serves the aggregated report; unhealthy maps to 503.
func (h *Handler) Health(c *gin.Context) {
	response := h.Evaluate(c.Request.Context())
	status := http.StatusOK
	if response.Status == StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response)
}

// Liveness always answers ok while the process can serve HTTP.
func Liveness(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Readiness answers 503 while any check is unhealthy. Degraded components
// such as an optional event broker do not block traffic.
func (h *Handler) Readiness(c *gin.Context) {
	if h.Evaluate(c.Request.Context()).Status == StatusUnhealthy {
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	c.String(http.StatusOK, "ready")
}

// SimpleChecker adapts a probe function. Optional checkers report degraded instead of unhealthy.
type SimpleChecker struct {
	name     string
	optional bool
	checkFn  func(ctx context.Context) error
}

// NewSimpleChecker creates a required check.
func NewSimpleChecker(name string, checkFn func(ctx context.Context) error) *SimpleChecker {
	return &SimpleChecker{name: name, checkFn: checkFn}
}

// NewOptionalChecker creates a check whose failure only degrades the service.
func NewOptionalChecker(name string, checkFn func(ctx context.Context) error) *SimpleChecker {
	return &SimpleChecker{name: name, checkFn: checkFn, optional: true}
}

// Check runs the probe.
func (c *SimpleChecker) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.checkFn(ctx)
	duration := time.Since(start)
	if err != nil {
		status := StatusUnhealthy
		if c.optional {
			status = StatusDegraded
		}
		return Check{Name: c.name, Status: status, Message: err.Error(), DurationMs: duration.Milliseconds()}
	}
	return Check{Name: c.name, Status: StatusHealthy, DurationMs: duration.Milliseconds()}
}

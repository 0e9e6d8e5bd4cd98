package errors

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of every problem response.
const ContentTypeProblemJSON = "application/problem+json"

// Mapper turns a service error into a problem when it recognizes it.
type Mapper func(err error) (Problem, bool)

// Responder writes problems, localizing them per request when Localize is set.
type Responder struct {
	Localize func(c *gin.Context, p Problem) Problem
	Mappers  []Mapper
}

// Write aborts the request with p.
func (r *Responder) Write(c *gin.Context, p Problem) {
	if r != nil && r.Localize != nil {
		p = r.Localize(c, p)
	}
	if p.Instance == "" {
		p.Instance = c.Request.URL.Path
	}
	if p.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(p.RetryAfter))
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(p.Status(), p)
}

// Error writes the problem err maps to. Unmapped errors are recorded on the
// gin context for the access log and answered with a bare 500.
func (r *Responder) Error(c *gin.Context, err error) {
	var p Problem
	if errors.As(err, &p) {
		r.Write(c, p)
		return
	}
	if r != nil {
		for _, m := range r.Mappers {
			if p, ok := m(err); ok {
				r.Write(c, p)
				return
			}
		}
	}
	_ = c.Error(err)
	r.Write(c, New(KindInternal))
}

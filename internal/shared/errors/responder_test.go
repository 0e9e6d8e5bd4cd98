package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upperTranslator struct{}

func (upperTranslator) T(locale, key string, args ...any) string {
	out := locale + ":" + strings.ToUpper(key)
	for i := 0; i+1 < len(args); i += 2 {
		out += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	return out
}

func newTestContext(path string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, path, nil)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWrite_ValidationShape(t *testing.T) {
	c, rec := newTestContext("/api/v1/checkout")

	(&Responder{}).Write(c, Invalid(map[string]string{"contact.email": "validation.email"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, string(KindValidation), body["type"])
	assert.Equal(t, "Validation Error", body["title"])
	assert.Equal(t, "/api/v1/checkout", body["instance"])
	assert.NotContains(t, body, "retryAfter")
	fields := body["fields"].(map[string]any)
	assert.Equal(t, "validation.email", fields["contact.email"])
}

func TestWrite_ThrottledSetsHeader(t *testing.T) {
	c, rec := newTestContext("/api/v1/auth/login")

	(&Responder{}).Write(c, Throttled(0).Message("errors.too_many_requests"))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.EqualValues(t, 1, decodeBody(t, rec)["retryAfter"])
}

func TestLocalize_ResolvesKeys(t *testing.T) {
	p := New(KindConflict).
		Message("errors.address_limit", "max", 5).
		Field("quantity", "validation.quantity").
		Field("password", "errors.weak_password", "min", 8).
		Localize(upperTranslator{}, "fr", "min", 1)

	assert.Equal(t, "fr:PROBLEM.CONFLICT", p.Title)
	assert.Equal(t, "fr:ERRORS.ADDRESS_LIMIT max=5", p.Detail)
	assert.Equal(t, "fr:VALIDATION.QUANTITY min=1", p.Fields["quantity"])
	assert.Equal(t, "fr:ERRORS.WEAK_PASSWORD min=8", p.Fields["password"])
	assert.Empty(t, p.Key)
}

func TestError_MappersThenInternal(t *testing.T) {
	errKnown := fmt.Errorf("known")
	r := &Responder{Mappers: []Mapper{func(err error) (Problem, bool) {
		if err == errKnown {
			return NotFound(), true
		}
		return Problem{}, false
	}}}

	c, rec := newTestContext("/x")
	r.Error(c, errKnown)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newTestContext("/x")
	r.Error(c, fmt.Errorf("wrapped: %w", New(KindForbidden)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newTestContext("/x")
	r.Error(c, fmt.Errorf("db password leaked"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "leaked")
	assert.Len(t, c.Errors, 1)
}

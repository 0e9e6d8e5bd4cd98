// Package errors renders RFC 7807 problem documents for the storefront API.
//
// A Problem carries message keys instead of final text. The responder resolves
// them against the request locale just before the body is written, so services
// and handlers never format user-facing strings themselves.
package errors

import (
	"encoding/json"
	"net/http"
)

// Kind is the problem type URI. Each kind has a fixed status and English title.
type Kind string

const (
	KindValidation      Kind = "/problems/validation-error"
	KindBadRequest      Kind = "/problems/bad-request"
	KindUnauthorized    Kind = "/problems/unauthorized"
	KindForbidden       Kind = "/problems/forbidden"
	KindNotFound        Kind = "/problems/not-found"
	KindConflict        Kind = "/problems/conflict"
	KindUnprocessable   Kind = "/problems/unprocessable-entity"
	KindTooManyRequests Kind = "/problems/too-many-requests"
	KindInternal        Kind = "/problems/internal-error"
)

type kindInfo struct {
	status   int
	title    string
	titleKey string
}

var kinds = map[Kind]kindInfo{
	KindValidation:      {http.StatusBadRequest, "Validation Error", "problem.validation"},
	KindBadRequest:      {http.StatusBadRequest, "Bad Request", "problem.bad_request"},
	KindUnauthorized:    {http.StatusUnauthorized, "Unauthorized", "problem.unauthorized"},
	KindForbidden:       {http.StatusForbidden, "Forbidden", "problem.forbidden"},
	KindNotFound:        {http.StatusNotFound, "Resource Not Found", "problem.not_found"},
	KindConflict:        {http.StatusConflict, "Conflict", "problem.conflict"},
	KindUnprocessable:   {http.StatusUnprocessableEntity, "Unprocessable Entity", "problem.unprocessable"},
	KindTooManyRequests: {http.StatusTooManyRequests, "Too Many Requests", "problem.too_many_requests"},
	KindInternal:        {http.StatusInternalServerError, "Internal Server Error", "problem.internal"},
}

// Status is the HTTP status for k, 500 for unknown kinds.
func (k Kind) Status() int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// Problem is one problem occurrence. Key and FieldArgs are resolved by the
// responder and never serialized.
type Problem struct {
	Kind     Kind
	Title    string
	Detail   string
	Instance string

	// Key is the catalogue key for Detail; Args fill its placeholders.
	Key  string
	Args []any

	// Fields maps request fields to message keys, localized on write.
	Fields    map[string]string
	FieldArgs map[string][]any

	// RetryAfter in seconds, also sent as the Retry-After header.
	RetryAfter int
}

// New starts a problem of kind k with its default title.
func New(k Kind) Problem {
	return Problem{Kind: k, Title: kinds[k].title}
}

func NotFound() Problem { return New(KindNotFound) }

// Message sets the detail message key.
func (p Problem) Message(key string, args ...any) Problem {
	p.Key = key
	p.Args = args
	return p
}

// WithDetail sets a literal detail, bypassing localization.
func (p Problem) WithDetail(detail string) Problem {
	p.Detail = detail
	p.Key = ""
	return p
}

// Field adds a field message key with optional placeholder arguments.
func (p Problem) Field(field, key string, args ...any) Problem {
	fields := make(map[string]string, len(p.Fields)+1)
	for k, v := range p.Fields {
		fields[k] = v
	}
	fields[field] = key
	p.Fields = fields
	if len(args) > 0 {
		fieldArgs := make(map[string][]any, len(p.FieldArgs)+1)
		for k, v := range p.FieldArgs {
			fieldArgs[k] = v
		}
		fieldArgs[field] = args
		p.FieldArgs = fieldArgs
	}
	return p
}

// Invalid is a validation problem for a set of field message keys.
func Invalid(fields map[string]string) Problem {
	p := New(KindValidation)
	p.Fields = fields
	return p
}

// Throttled is a 429 carrying a retry hint of at least one second.
func Throttled(seconds int) Problem {
	if seconds < 1 {
		seconds = 1
	}
	p := New(KindTooManyRequests)
	p.RetryAfter = seconds
	return p
}

// Status is the HTTP status of the problem.
func (p Problem) Status() int { return p.Kind.Status() }

func (p Problem) Error() string {
	switch {
	case p.Detail != "":
		return p.Title + ": " + p.Detail
	case p.Key != "":
		return p.Title + ": " + p.Key
	}
	return p.Title
}

// MarshalJSON writes the RFC 7807 members plus fields and retryAfter.
func (p Problem) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type       string            `json:"type"`
		Title      string            `json:"title"`
		Status     int               `json:"status"`
		Detail     string            `json:"detail,omitempty"`
		Instance   string            `json:"instance,omitempty"`
		Fields     map[string]string `json:"fields,omitempty"`
		RetryAfter int               `json:"retryAfter,omitempty"`
	}
	return json.Marshal(wire{
		Type:       string(p.Kind),
		Title:      p.Title,
		Status:     p.Status(),
		Detail:     p.Detail,
		Instance:   p.Instance,
		Fields:     p.Fields,
		RetryAfter: p.RetryAfter,
	})
}

// Translator resolves catalogue keys for a locale.
type Translator interface {
	T(locale, key string, args ...any) string
}

// Localize resolves title, detail and field keys. fallbackArgs fill field
// messages that were added without arguments of their own.
func (p Problem) Localize(tr Translator, locale string, fallbackArgs ...any) Problem {
	if tr == nil {
		return p
	}
	if info, ok := kinds[p.Kind]; ok {
		p.Title = tr.T(locale, info.titleKey)
	}
	if p.Key != "" {
		p.Detail = tr.T(locale, p.Key, p.Args...)
		p.Key = ""
	}
	if len(p.Fields) > 0 {
		localized := make(map[string]string, len(p.Fields))
		for field, key := range p.Fields {
			args, ok := p.FieldArgs[field]
			if !ok {
				args = fallbackArgs
			}
			localized[field] = tr.T(locale, key, args...)
		}
		p.Fields = localized
		p.FieldArgs = nil
	}
	return p
}

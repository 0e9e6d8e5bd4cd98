package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL applies when no TTL is configured.
const DefaultSessionTTL = 24 * time.Hour

// Session is a bearer token bound to a user.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewSession issues a random token valid for ttl.
func NewSession(userID string, ttl time.Duration, now time.Time) Session {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

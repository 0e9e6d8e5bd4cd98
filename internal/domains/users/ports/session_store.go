package ports

import (
	"context"
	"errors"
	"time"

	"github.com/aromaline/storefront/internal/domains/users/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore abstracts session persistence.
type SessionStore interface {
	Save(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, token string) (*domain.Session, error)
	Delete(ctx context.Context, token string) error
	// PurgeExpired removes sessions that expired before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

package ports

import (
	"context"
	"time"

	"github.com/aromaline/storefront/internal/domains/users/domain"
)

// OTPProvider sends and checks phone verification codes.
type OTPProvider interface {
	Send(ctx context.Context, userID, phone, locale string) error
	Verify(ctx context.Context, userID, phone, code string) error
}

// VerificationStore keeps pending codes for the local provider.
type VerificationStore interface {
	Get(ctx context.Context, userID string) (*domain.Verification, error)
	Save(ctx context.Context, verification domain.Verification) error
	// SpendAttempt atomically records one attempt for the pending code sent to
	// phone and returns it, or the reason the code can no longer be compared.
	SpendAttempt(ctx context.Context, userID, phone string, now time.Time) (*domain.Verification, error)
	Delete(ctx context.Context, userID string) error
}

// SMSSender delivers a text message.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

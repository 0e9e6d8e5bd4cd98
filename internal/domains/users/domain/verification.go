package domain

import (
	"errors"
	"time"
)

const (
	// CodeTTL is how long a phone verification code stays valid.
	CodeTTL = 5 * time.Minute
	// ResendCooldown is the minimum gap between two codes for the same user.
	ResendCooldown = 60 * time.Second
	// MaxCodeAttempts is the number of wrong codes tolerated before a resend is required.
	MaxCodeAttempts = 5
	// CodeLength is the number of digits in a code.
	CodeLength = 6
)

var (
	ErrNoPendingVerification = errors.New("no pending phone verification")
	ErrCodeExpired           = errors.New("verification code expired")
	ErrCodeMismatch          = errors.New("verification code is incorrect")
	ErrTooManyAttempts       = errors.New("too many verification attempts")
	ErrResendTooSoon         = errors.New("verification code requested too recently")
	ErrPhoneRejected         = errors.New("phone number cannot receive verification codes")
)

// CooldownError carries how long to wait before another code can be sent.
type CooldownError struct {
	Wait time.Duration
}

func (e *CooldownError) Error() string { return ErrResendTooSoon.Error() }
func (e *CooldownError) Unwrap() error { return ErrResendTooSoon }

// Verification is a pending phone code. Only the hash is kept.
type Verification struct {
	UserID    string
	Phone     string
	CodeHash  string
	Attempts  int
	SentAt    time.Time
	ExpiresAt time.Time
}

// NewVerification starts a verification window at now.
func NewVerification(userID, phone, codeHash string, now time.Time) Verification {
	return Verification{
		UserID:    userID,
		Phone:     NormalizePhone(phone),
		CodeHash:  codeHash,
		SentAt:    now,
		ExpiresAt: now.Add(CodeTTL),
	}
}

// CheckResend fails with a CooldownError while the previous code is too fresh.
func (v *Verification) CheckResend(now time.Time) error {
	if v == nil {
		return nil
	}
	next := v.SentAt.Add(ResendCooldown)
	if now.Before(next) {
		return &CooldownError{Wait: next.Sub(now)}
	}
	return nil
}

// CheckAttempt records one attempt against phone and reports whether the code may still be compared.
func (v *Verification) CheckAttempt(phone string, now time.Time) error {
	if v == nil || v.Phone != NormalizePhone(phone) {
		return ErrNoPendingVerification
	}
	if !now.Before(v.ExpiresAt) {
		return ErrCodeExpired
	}
	if v.Attempts >= MaxCodeAttempts {
		return ErrTooManyAttempts
	}
	v.Attempts++
	return nil
}

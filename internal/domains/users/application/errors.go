package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aromaline/storefront/internal/domains/users/domain"
	"github.com/aromaline/storefront/internal/domains/users/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid user input")
	// ErrAuthentication wraps authentication failures.
	ErrAuthentication = errors.New("authentication failed")
	// ErrConflict signals the request clashes with existing state.
	ErrConflict = errors.New("user conflict")
	// ErrTooManyRequests signals an upstream or local throttle.
	ErrTooManyRequests = errors.New("too many requests")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErr *domain.FieldError
	switch {
	case errors.As(err, &fieldErr),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrInvalidPhone),
		errors.Is(err, domain.ErrInvalidLocale),
		errors.Is(err, domain.ErrInvalidName),
		errors.Is(err, domain.ErrCodeMismatch),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrPhoneRejected),
		errors.Is(err, domain.ErrNoPendingVerification):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, ports.ErrEmailTaken),
		errors.Is(err, domain.ErrTooManyAddresses):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, domain.ErrResendTooSoon),
		errors.Is(err, domain.ErrTooManyAttempts):
		return fmt.Errorf("%w: %w", ErrTooManyRequests, err)
	}
	return err
}

// MapProviderError classifies auth and storage errors by their message, for
// providers that only report failures as text.
func MapProviderError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ports.ErrEmailTaken) || errors.Is(err, domain.ErrWeakPassword) || errors.Is(err, ErrTooManyRequests) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "already registered"),
		strings.Contains(msg, "already been registered"),
		strings.Contains(msg, "duplicate key"):
		return fmt.Errorf("%w: %s", ports.ErrEmailTaken, err.Error())
	case strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"):
		return fmt.Errorf("%w: %s", ErrTooManyRequests, err.Error())
	case strings.Contains(msg, "weak password"),
		strings.Contains(msg, "password should be"):
		return fmt.Errorf("%w: %s", domain.ErrWeakPassword, err.Error())
	}
	return err
}

// FieldErrors extracts address field problems from err.
func FieldErrors(err error) (map[string]string, bool) {
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Fields, true
	}
	return nil, false
}

// RetryAfter reports the OTP cooldown carried by err, if any.
func RetryAfter(err error) (int, bool) {
	var cooldown *domain.CooldownError
	if errors.As(err, &cooldown) {
		seconds := int(cooldown.Wait.Seconds())
		if cooldown.Wait > 0 && seconds == 0 {
			seconds = 1
		}
		return seconds, true
	}
	return 0, false
}

// permanent reports errors a registration retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, ports.ErrEmailTaken) ||
		errors.Is(err, domain.ErrWeakPassword) ||
		errors.Is(err, ErrTooManyRequests) ||
		errors.Is(err, ErrInvalidInput)
}

package application

import (
	"errors"
	"fmt"

	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
)

var (
	// ErrInvalidInput signals the request violated an order invariant.
	ErrInvalidInput = errors.New("invalid order input")
	// ErrConflict signals the request clashes with stock or existing state.
	ErrConflict = errors.New("order conflict")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, domain.ErrNoLines),
		errors.Is(err, domain.ErrInvalidStatus):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, ports.ErrInsufficientStock),
		errors.Is(err, ports.ErrIdempotencyConflict),
		errors.Is(err, domain.ErrNotCancellable),
		errors.Is(err, domain.ErrInvalidTransition):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// FieldErrors extracts checkout field problems from err.
func FieldErrors(err error) (map[string]string, bool) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}

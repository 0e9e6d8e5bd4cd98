package application

import (
	"errors"
	"fmt"

	"github.com/aromaline/storefront/internal/domains/cart/domain"
)

var (
	// ErrInvalidInput signals the request violated a cart invariant.
	ErrInvalidInput = errors.New("invalid cart input")
	// ErrUnavailable signals the variant cannot be bought right now.
	ErrUnavailable = errors.New("variant unavailable")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidOwner),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidVariant):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	case errors.Is(err, domain.ErrOutOfStock):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

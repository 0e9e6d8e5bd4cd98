package orders

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/aromaline/storefront/internal/domains/orders/application"
	"github.com/aromaline/storefront/internal/domains/orders/domain"
	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
)

// Application error types that survive the trip through the workflow engine.
const (
	ErrTypeValidation          = "orders.Validation"
	ErrTypeInsufficientStock   = "orders.InsufficientStock"
	ErrTypeIdempotencyConflict = "orders.IdempotencyConflict"
	ErrTypeConflict            = "orders.Conflict"
)

// NonRetryableErrorTypes lists every business error type.
var NonRetryableErrorTypes = []string{ErrTypeValidation, ErrTypeInsufficientStock, ErrTypeIdempotencyConflict, ErrTypeConflict}

// EncodeError turns business failures into non-retryable application errors.
// Field errors travel as details. Other errors pass through unchanged.
func EncodeError(err error) error {
	if err == nil {
		return nil
	}
	if fields, ok := application.FieldErrors(err); ok {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, nil, fields)
	}
	switch {
	case errors.Is(err, ordersports.ErrInsufficientStock):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInsufficientStock, nil)
	case errors.Is(err, ordersports.ErrIdempotencyConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeIdempotencyConflict, nil)
	case errors.Is(err, application.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, nil, map[string]string{})
	case errors.Is(err, application.ErrConflict):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeConflict, nil)
	}
	return err
}

// DecodeError restores the application errors EncodeError produced.
func DecodeError(err error) error {
	var appErr *temporal.ApplicationError
	if err == nil || !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case ErrTypeValidation:
		fields := map[string]string{}
		if appErr.HasDetails() {
			_ = appErr.Details(&fields)
		}
		return fmt.Errorf("%w: %w", application.ErrInvalidInput, &domain.ValidationError{Fields: fields})
	case ErrTypeInsufficientStock:
		return fmt.Errorf("%w: %w", application.ErrConflict, ordersports.ErrInsufficientStock)
	case ErrTypeIdempotencyConflict:
		return fmt.Errorf("%w: %w", application.ErrConflict, ordersports.ErrIdempotencyConflict)
	case ErrTypeConflict:
		return fmt.Errorf("%w: %s", application.ErrConflict, appErr.Message())
	}
	return err
}

package orders

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/aromaline/storefront/internal/domains/orders/application"
	"github.com/aromaline/storefront/internal/domains/orders/domain"
	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
)

func TestEncodeError_ValidationCarriesFields(t *testing.T) {
	verr := &domain.ValidationError{Fields: map[string]string{"contact.phone": domain.MsgPhone}}
	encoded := EncodeError(fmt.Errorf("%w: %w", application.ErrInvalidInput, verr))

	var appErr *temporal.ApplicationError
	require.ErrorAs(t, encoded, &appErr)
	assert.Equal(t, ErrTypeValidation, appErr.Type())
	assert.True(t, appErr.NonRetryable())

	decoded := DecodeError(encoded)
	require.ErrorIs(t, decoded, application.ErrInvalidInput)
	fields, ok := application.FieldErrors(decoded)
	require.True(t, ok)
	assert.Equal(t, domain.MsgPhone, fields["contact.phone"])
}

func TestEncodeError_ConflictsRoundTrip(t *testing.T) {
	stock := DecodeError(EncodeError(fmt.Errorf("%w: %w", application.ErrConflict, ordersports.ErrInsufficientStock)))
	require.ErrorIs(t, stock, application.ErrConflict)
	require.ErrorIs(t, stock, ordersports.ErrInsufficientStock)

	idem := DecodeError(EncodeError(fmt.Errorf("%w: %w", application.ErrConflict, ordersports.ErrIdempotencyConflict)))
	require.ErrorIs(t, idem, ordersports.ErrIdempotencyConflict)

	other := DecodeError(EncodeError(fmt.Errorf("%w: %w", application.ErrConflict, domain.ErrNotCancellable)))
	require.ErrorIs(t, other, application.ErrConflict)
}

func TestEncodeError_InfrastructurePassesThrough(t *testing.T) {
	boom := errors.New("connection reset")
	assert.Same(t, boom, EncodeError(boom))
	assert.Same(t, boom, DecodeError(boom))
	assert.Nil(t, EncodeError(nil))
}

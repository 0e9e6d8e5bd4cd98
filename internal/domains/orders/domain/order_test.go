package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLines() []Line {
	return []Line{
		{VariantID: 1, ProductID: 10, ProductName: "Amber Veil", VolumeML: 50, UnitPrice: decimal.RequireFromString("45.00"), Quantity: 2},
		{VariantID: 2, ProductID: 20, ProductName: "Cedar Smoke", VolumeML: 100, UnitPrice: decimal.RequireFromString("9.99"), Quantity: 1},
	}
}

func TestNewOrder_PricesLinesAndShipping(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	o, err := NewOrder("", Contact{Email: " A@B.io "}, Shipping{}, sampleLines(), PaymentCardOnDelivery, DefaultShippingPolicy(), "fr", now)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.True(t, o.IsGuest())
	assert.Equal(t, "a@b.io", o.Contact.Email)
	assert.Equal(t, "90.00", o.Lines[0].LineTotal.StringFixed(2))
	assert.Equal(t, "99.99", o.Subtotal.StringFixed(2))
	assert.Equal(t, "7.00", o.ShippingFee.StringFixed(2))
	assert.Equal(t, "106.99", o.Total.StringFixed(2))
	assert.Equal(t, "EUR", o.Currency)
	assert.Equal(t, 3, o.ItemCount())
	assert.Equal(t, map[int64]int{1: -2, 2: -1}, o.StockDeltas())
	assert.Equal(t, map[int64]int{1: 2, 2: 1}, o.RestockDeltas())
}

func TestNewOrder_RequiresLines(t *testing.T) {
	_, err := NewOrder("u1", Contact{}, Shipping{}, nil, PaymentOnline, DefaultShippingPolicy(), "en", time.Now())
	require.ErrorIs(t, err, ErrNoLines)
}

func TestShippingPolicy_Fee(t *testing.T) {
	policy := DefaultShippingPolicy()
	assert.Equal(t, "7.00", policy.Fee(decimal.RequireFromString("99.99")).StringFixed(2))
	assert.True(t, policy.Fee(decimal.RequireFromString("100.00")).IsZero())
	assert.True(t, policy.Fee(decimal.RequireFromString("250")).IsZero())

	noThreshold := ShippingPolicy{FlatFee: decimal.NewFromInt(5)}
	assert.Equal(t, "5", noThreshold.Fee(decimal.NewFromInt(1000)).String())
}

func TestNewNumber_Format(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n, err := NewNumber()
		require.NoError(t, err)
		assert.Regexp(t, `^PF-[0-9A-F]{8}$`, n)
		seen[n] = true
	}
	assert.Greater(t, len(seen), 45)
	assert.Equal(t, "PF-0A1B2C3D", NormalizeNumber("  pf-0a1b2c3d "))
}

func TestOrder_StatusTransitions(t *testing.T) {
	now := time.Now()
	o := &Order{Status: StatusPending}

	require.NoError(t, o.UpdateStatus(StatusConfirmed, now))
	require.ErrorIs(t, o.UpdateStatus(StatusPending, now), ErrInvalidTransition)
	require.ErrorIs(t, o.Cancel(now), ErrNotCancellable)
	require.NoError(t, o.UpdateStatus(StatusDelivered, now))
	require.ErrorIs(t, o.UpdateStatus("lost", now), ErrInvalidStatus)

	pending := &Order{Status: StatusPending}
	require.NoError(t, pending.UpdateStatus(StatusCancelled, now))
	assert.Equal(t, StatusCancelled, pending.Status)
	require.ErrorIs(t, pending.UpdateStatus(StatusShipped, now), ErrInvalidTransition)
}

func TestOrder_CloneIsIndependent(t *testing.T) {
	o := &Order{Lines: sampleLines()}
	c := o.Clone()
	c.Lines[0].Quantity = 9
	assert.Equal(t, 2, o.Lines[0].Quantity)
}

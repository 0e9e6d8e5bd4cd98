package domain

import "github.com/shopspring/decimal"

// ShippingPolicy charges a flat fee below the free-shipping threshold.
type ShippingPolicy struct {
	FlatFee       decimal.Decimal
	FreeThreshold decimal.Decimal
	Currency      string
}

// DefaultShippingPolicy is 7.00 EUR, free from 100.00.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FlatFee:       decimal.RequireFromString("7.00"),
		FreeThreshold: decimal.RequireFromString("100.00"),
		Currency:      "EUR",
	}
}

// Fee returns the shipping charge for subtotal.
func (p ShippingPolicy) Fee(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	return p.FlatFee
}

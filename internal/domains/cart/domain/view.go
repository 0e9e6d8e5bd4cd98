package domain

import "github.com/shopspring/decimal"

// Line is a priced cart line.
type Line struct {
	Item
	ProductName string
	ProductSlug string
	Image       string
	VolumeML    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	// Available is false when the product was withdrawn or the variant sold out.
	Available bool
	Stock     int
}

// View is a cart priced against the current catalog.
type View struct {
	OwnerKey  string
	Lines     []Line
	Subtotal  decimal.Decimal
	ItemCount int
}

package mapper

import "github.com/aromaline/storefront/internal/domains/cart/domain"

// CartLine is the HTTP representation of a priced cart line.
type CartLine struct {
	VariantID   int64  `json:"variantId"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	ProductSlug string `json:"productSlug"`
	Image       string `json:"image,omitempty"`
	VolumeML    int    `json:"volumeMl"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	LineTotal   string `json:"lineTotal"`
	Available   bool   `json:"available"`
	Stock       int    `json:"stock"`
}

// Cart is the cart payload.
type Cart struct {
	Lines     []CartLine `json:"lines"`
	Subtotal  string     `json:"subtotal"`
	ItemCount int        `json:"itemCount"`
}

// AddItemInput is the add-to-cart payload.
type AddItemInput struct {
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
}

// UpdateItemInput sets the quantity of a line; zero removes it.
type UpdateItemInput struct {
	Quantity *int `json:"quantity"`
}

func FromDomainView(v *domain.View) Cart {
	out := Cart{Lines: []CartLine{}, Subtotal: "0.00"}
	if v == nil {
		return out
	}
	out.Subtotal = v.Subtotal.StringFixed(2)
	out.ItemCount = v.ItemCount
	for _, l := range v.Lines {
		out.Lines = append(out.Lines, CartLine{
			VariantID:   l.VariantID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			ProductSlug: l.ProductSlug,
			Image:       l.Image,
			VolumeML:    l.VolumeML,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			LineTotal:   l.LineTotal.StringFixed(2),
			Available:   l.Available,
			Stock:       l.Stock,
		})
	}
	return out
}

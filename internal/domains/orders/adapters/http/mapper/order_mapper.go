package mapper

import (
	"time"

	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/shared/projection"
)

// CheckoutInput is the checkout payload. Client-side prices are not accepted.
type CheckoutInput struct {
	Items         []domain.CheckoutItem `json:"items"`
	Contact       domain.Contact        `json:"contact"`
	Shipping      domain.Shipping       `json:"shipping"`
	PaymentMethod string                `json:"paymentMethod"`
}

// ToDomainRequest converts the transport payload into a checkout request.
func ToDomainRequest(in CheckoutInput) domain.CheckoutRequest {
	return domain.CheckoutRequest{
		Items:         in.Items,
		Contact:       in.Contact,
		Shipping:      in.Shipping,
		PaymentMethod: domain.PaymentMethod(in.PaymentMethod),
	}
}

// LookupInput is the guest order lookup payload.
type LookupInput struct {
	Number string `json:"number"`
	Email  string `json:"email"`
}

type OrderLine struct {
	VariantID   int64  `json:"variantId"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	VolumeML    int    `json:"volumeMl"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
	LineTotal   string `json:"lineTotal"`
}

// Order is the transport representation of an order.
type Order struct {
	Number        string          `json:"number"`
	Status        string          `json:"status"`
	Contact       domain.Contact  `json:"contact"`
	Shipping      domain.Shipping `json:"shipping"`
	Lines         []OrderLine     `json:"lines"`
	Subtotal      string          `json:"subtotal"`
	ShippingFee   string          `json:"shippingFee"`
	Total         string          `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"paymentMethod"`
	Locale        string          `json:"locale"`
	CreatedAt     time.Time       `json:"createdAt"`
	Message       string          `json:"message,omitempty"`
}

type OrderPage struct {
	Items      []Order `json:"items"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
	TotalPages int     `json:"totalPages"`
}

func FromDomainOrder(o *domain.Order) Order {
	if o == nil {
		return Order{}
	}
	out := Order{
		Number:        o.Number,
		Status:        string(o.Status),
		Contact:       o.Contact,
		Shipping:      o.Shipping,
		Lines:         make([]OrderLine, 0, len(o.Lines)),
		Subtotal:      o.Subtotal.StringFixed(2),
		ShippingFee:   o.ShippingFee.StringFixed(2),
		Total:         o.Total.StringFixed(2),
		Currency:      o.Currency,
		PaymentMethod: string(o.PaymentMethod),
		Locale:        o.Locale,
		CreatedAt:     o.CreatedAt,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, OrderLine{
			VariantID:   l.VariantID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			VolumeML:    l.VolumeML,
			UnitPrice:   l.UnitPrice.StringFixed(2),
			Quantity:    l.Quantity,
			LineTotal:   l.LineTotal.StringFixed(2),
		})
	}
	return out
}

func FromDomainPage(page projection.Page[*domain.Order]) OrderPage {
	out := OrderPage{
		Items:      make([]Order, 0, len(page.Items)),
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages(),
	}
	for _, o := range page.Items {
		out.Items = append(out.Items, FromDomainOrder(o))
	}
	return out
}

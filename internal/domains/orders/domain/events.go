package domain

import "time"

// Event is the base interface for order events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
	AggregateKey() string
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time `json:"occurredAt"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// OrderPlaced is raised once an order is persisted and stock is reserved.
type OrderPlaced struct {
	BaseEvent
	OrderID       string        `json:"orderId"`
	Number        string        `json:"number"`
	UserID        string        `json:"userId,omitempty"`
	Email         string        `json:"email"`
	Total         string        `json:"total"`
	Currency      string        `json:"currency"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	ItemCount     int           `json:"itemCount"`
	Locale        string        `json:"locale"`
}

func (e OrderPlaced) EventName() string    { return "orders.order.placed" }
func (e OrderPlaced) AggregateKey() string { return e.Number }

// OrderCancelled is raised when a customer cancels a pending order.
type OrderCancelled struct {
	BaseEvent
	OrderID string `json:"orderId"`
	Number  string `json:"number"`
	UserID  string `json:"userId,omitempty"`
}

func (e OrderCancelled) EventName() string    { return "orders.order.cancelled" }
func (e OrderCancelled) AggregateKey() string { return e.Number }

// NewOrderPlaced builds the event for o.
func NewOrderPlaced(o *Order, now time.Time) OrderPlaced {
	return OrderPlaced{
		BaseEvent:     BaseEvent{Timestamp: now},
		OrderID:       o.ID,
		Number:        o.Number,
		UserID:        o.UserID,
		Email:         o.Contact.Email,
		Total:         o.Total.StringFixed(2),
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		ItemCount:     o.ItemCount(),
		Locale:        o.Locale,
	}
}

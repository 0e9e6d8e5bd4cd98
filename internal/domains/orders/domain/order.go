package domain

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentCardOnDelivery PaymentMethod = "card_on_delivery"
	PaymentOnline         PaymentMethod = "online"
)

var (
	ErrInvalidStatus     = errors.New("order status is invalid")
	ErrInvalidTransition = errors.New("order status transition is not allowed")
	ErrNotCancellable    = errors.New("order can only be cancelled while pending")
	ErrNoLines           = errors.New("order needs at least one line")
)

// Valid reports whether the payment method is supported.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentCardOnDelivery, PaymentOnline:
		return true
	default:
		return false
	}
}

// Contact is who receives order updates.
type Contact struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Shipping is the delivery address.
type Shipping struct {
	Country    string `json:"country"`
	City       string `json:"city"`
	Street     string `json:"street"`
	PostalCode string `json:"postalCode"`
	Apartment  string `json:"apartment"`
	Notes      string `json:"notes"`
}

// Line is a purchased variant with the price charged at checkout.
type Line struct {
	VariantID   int64
	ProductID   int64
	ProductName string
	VolumeML    int
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

// Order is the purchase aggregate.
type Order struct {
	ID            string
	Number        string
	UserID        string
	Contact       Contact
	Shipping      Shipping
	Lines         []Line
	Subtotal      decimal.Decimal
	ShippingFee   decimal.Decimal
	Total         decimal.Decimal
	Currency      string
	PaymentMethod PaymentMethod
	Status        Status
	Locale        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewOrder builds a pending order and prices it with policy.
func NewOrder(userID string, contact Contact, shipping Shipping, lines []Line, payment PaymentMethod, policy ShippingPolicy, locale string, now time.Time) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	number, err := NewNumber()
	if err != nil {
		return nil, err
	}
	o := &Order{
		ID:            uuid.NewString(),
		Number:        number,
		UserID:        strings.TrimSpace(userID),
		Contact:       contact,
		Shipping:      shipping,
		Lines:         append([]Line(nil), lines...),
		Currency:      policy.Currency,
		PaymentMethod: payment,
		Status:        StatusPending,
		Locale:        locale,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.Contact.Email = NormalizeEmail(contact.Email)
	o.price(policy)
	return o, nil
}

func (o *Order) price(policy ShippingPolicy) {
	subtotal := decimal.Zero
	for i := range o.Lines {
		l := &o.Lines[i]
		l.LineTotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(l.LineTotal)
	}
	o.Subtotal = subtotal
	o.ShippingFee = policy.Fee(subtotal)
	o.Total = subtotal.Add(o.ShippingFee)
}

// IsGuest reports whether the order has no account attached.
func (o *Order) IsGuest() bool { return o.UserID == "" }

// StockDeltas lists the stock change per variant this order causes when placed.
func (o *Order) StockDeltas() map[int64]int {
	deltas := make(map[int64]int, len(o.Lines))
	for _, l := range o.Lines {
		deltas[l.VariantID] -= l.Quantity
	}
	return deltas
}

// RestockDeltas is the inverse of StockDeltas.
func (o *Order) RestockDeltas() map[int64]int {
	deltas := o.StockDeltas()
	for id, d := range deltas {
		deltas[id] = -d
	}
	return deltas
}

// ItemCount sums line quantities.
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Cancel moves a pending order to cancelled.
func (o *Order) Cancel(now time.Time) error {
	if o.Status != StatusPending {
		return ErrNotCancellable
	}
	o.Status = StatusCancelled
	o.UpdatedAt = now
	return nil
}

// UpdateStatus applies a forward transition.
func (o *Order) UpdateStatus(status Status, now time.Time) error {
	if !isValidStatus(status) {
		return ErrInvalidStatus
	}
	if status == StatusCancelled {
		return o.Cancel(now)
	}
	if rank(status) <= rank(o.Status) || o.Status == StatusCancelled {
		return ErrInvalidTransition
	}
	o.Status = status
	o.UpdatedAt = now
	return nil
}

// MatchesEmail compares the contact email case-insensitively.
func (o *Order) MatchesEmail(email string) bool {
	return o.Contact.Email != "" && o.Contact.Email == NormalizeEmail(email)
}

// Clone deep-copies the order.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Lines = append([]Line(nil), o.Lines...)
	return &c
}

// NewNumber returns a customer-facing order number such as PF-0A1B2C3D.
func NewNumber() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return "PF-" + strings.ToUpper(hex.EncodeToString(b[:])), nil
}

// NormalizeNumber uppercases and trims a number typed by a customer.
func NormalizeNumber(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

func rank(status Status) int {
	switch status {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusShipped:
		return 2
	case StatusDelivered:
		return 3
	default:
		return -1
	}
}

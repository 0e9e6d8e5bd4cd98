package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MaxLineQuantity bounds a single checkout line.
const MaxLineQuantity = 10

// Message keys used as field error values. The HTTP layer localizes them.
const (
	MsgRequired      = "validation.required"
	MsgEmail         = "validation.email"
	MsgPhone         = "validation.phone"
	MsgQuantity      = "validation.quantity"
	MsgPaymentMethod = "validation.payment_method"
	MsgItems         = "validation.items"
	MsgVariant       = "validation.variant"
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^\+[0-9]{8,15}$`)
)

// ValidationError carries field-level problems keyed by JSON path.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "checkout validation failed: " + strings.Join(keys, ", ")
}

// Add records a field problem; the first problem per field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// CheckoutItem is a requested variant and quantity.
type CheckoutItem struct {
	VariantID int64 `json:"variantId"`
	Quantity  int   `json:"quantity"`
}

// CheckoutRequest is what the customer submits.
type CheckoutRequest struct {
	Items         []CheckoutItem `json:"items"`
	Contact       Contact        `json:"contact"`
	Shipping      Shipping       `json:"shipping"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
}

// Normalize trims free text and canonicalizes the email and payment method.
func (r CheckoutRequest) Normalize() CheckoutRequest {
	r.Items = append([]CheckoutItem(nil), r.Items...)
	r.Contact = Contact{
		Email:     NormalizeEmail(r.Contact.Email),
		Phone:     strings.ReplaceAll(strings.TrimSpace(r.Contact.Phone), " ", ""),
		FirstName: strings.TrimSpace(r.Contact.FirstName),
		LastName:  strings.TrimSpace(r.Contact.LastName),
	}
	r.Shipping = Shipping{
		Country:    strings.TrimSpace(r.Shipping.Country),
		City:       strings.TrimSpace(r.Shipping.City),
		Street:     strings.TrimSpace(r.Shipping.Street),
		PostalCode: strings.TrimSpace(r.Shipping.PostalCode),
		Apartment:  strings.TrimSpace(r.Shipping.Apartment),
		Notes:      strings.TrimSpace(r.Shipping.Notes),
	}
	r.PaymentMethod = PaymentMethod(strings.ToLower(strings.TrimSpace(string(r.PaymentMethod))))
	return r
}

// Validate reports every field problem at once. Call Normalize first.
func (r CheckoutRequest) Validate() error {
	verr := &ValidationError{}
	if len(r.Items) == 0 {
		verr.Add("items", MsgItems)
	}
	for i, item := range r.Items {
		if item.VariantID <= 0 {
			verr.Add(fmt.Sprintf("items[%d].variantId", i), MsgRequired)
		}
		if item.Quantity < 1 || item.Quantity > MaxLineQuantity {
			verr.Add(fmt.Sprintf("items[%d].quantity", i), MsgQuantity)
		}
	}
	switch {
	case r.Contact.Email == "":
		verr.Add("contact.email", MsgRequired)
	case !emailPattern.MatchString(r.Contact.Email):
		verr.Add("contact.email", MsgEmail)
	}
	switch {
	case r.Contact.Phone == "":
		verr.Add("contact.phone", MsgRequired)
	case !ValidPhone(r.Contact.Phone):
		verr.Add("contact.phone", MsgPhone)
	}
	if r.Contact.FirstName == "" {
		verr.Add("contact.firstName", MsgRequired)
	}
	if r.Contact.LastName == "" {
		verr.Add("contact.lastName", MsgRequired)
	}
	if r.Shipping.Country == "" {
		verr.Add("shipping.country", MsgRequired)
	}
	if r.Shipping.City == "" {
		verr.Add("shipping.city", MsgRequired)
	}
	if r.Shipping.Street == "" {
		verr.Add("shipping.street", MsgRequired)
	}
	if !r.PaymentMethod.Valid() {
		verr.Add("paymentMethod", MsgPaymentMethod)
	}
	return verr.OrNil()
}

// MergedItems folds duplicate variants together, keeping first-seen order.
func (r CheckoutRequest) MergedItems() []CheckoutItem {
	index := map[int64]int{}
	out := make([]CheckoutItem, 0, len(r.Items))
	for _, item := range r.Items {
		if i, ok := index[item.VariantID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.VariantID] = len(out)
		out = append(out, item)
	}
	return out
}

// ValidPhone reports whether phone is in E.164 form.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidEmail reports whether email looks deliverable.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

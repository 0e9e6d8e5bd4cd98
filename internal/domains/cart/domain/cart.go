package domain

import (
	"errors"
	"strings"
	"time"
)

// MaxQuantity is the per-line quantity ceiling.
const MaxQuantity = 10

var (
	ErrInvalidOwner    = errors.New("cart owner is required")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 10")
	ErrInvalidVariant  = errors.New("variant id must be greater than zero")
	ErrOutOfStock      = errors.New("variant is out of stock")
	ErrItemNotFound    = errors.New("cart item not found")
)

const (
	userPrefix  = "user:"
	guestPrefix = "guest:"
)

// Owner identifies whose cart it is: a registered user or a guest token.
type Owner struct {
	UserID     string
	GuestToken string
}

// UserOwner builds an owner for a signed-in user.
func UserOwner(userID string) Owner { return Owner{UserID: userID} }

// GuestOwner builds an owner for an anonymous cart token.
func GuestOwner(token string) Owner { return Owner{GuestToken: token} }

// Key is the storage key. Users take precedence over guest tokens.
func (o Owner) Key() string {
	if id := strings.TrimSpace(o.UserID); id != "" {
		return userPrefix + id
	}
	if token := strings.TrimSpace(o.GuestToken); token != "" {
		return guestPrefix + token
	}
	return ""
}

// IsGuest reports whether the cart belongs to an anonymous visitor.
func (o Owner) IsGuest() bool {
	return strings.TrimSpace(o.UserID) == "" && strings.TrimSpace(o.GuestToken) != ""
}

func (o Owner) Validate() error {
	if o.Key() == "" {
		return ErrInvalidOwner
	}
	return nil
}

// GuestKeyPrefix is the storage key prefix of anonymous carts.
func GuestKeyPrefix() string { return guestPrefix }

// Item is one cart line.
type Item struct {
	VariantID int64
	ProductID int64
	Quantity  int
	AddedAt   time.Time
	UpdatedAt time.Time
}

// Cart is the cart aggregate.
type Cart struct {
	OwnerKey  string
	Items     []Item
	UpdatedAt time.Time
}

// New creates an empty cart.
func New(ownerKey string) *Cart {
	return &Cart{OwnerKey: ownerKey, Items: []Item{}}
}

// ClampQuantity bounds qty by the line ceiling and available stock.
func ClampQuantity(qty, stock int) int {
	if qty > MaxQuantity {
		qty = MaxQuantity
	}
	if qty > stock {
		qty = stock
	}
	if qty < 0 {
		qty = 0
	}
	return qty
}

// Find returns the index of the line holding variantID or -1.
func (c *Cart) Find(variantID int64) int {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			return i
		}
	}
	return -1
}

// Add merges qty into the line for variantID, capping at MaxQuantity and stock.
func (c *Cart) Add(variantID, productID int64, qty, stock int, now time.Time) (Item, error) {
	if variantID <= 0 {
		return Item{}, ErrInvalidVariant
	}
	if qty < 1 || qty > MaxQuantity {
		return Item{}, ErrInvalidQuantity
	}
	if stock <= 0 {
		return Item{}, ErrOutOfStock
	}
	if i := c.Find(variantID); i >= 0 {
		c.Items[i].Quantity = ClampQuantity(c.Items[i].Quantity+qty, stock)
		c.Items[i].ProductID = productID
		c.Items[i].UpdatedAt = now
		c.UpdatedAt = now
		return c.Items[i], nil
	}
	item := Item{VariantID: variantID, ProductID: productID, Quantity: ClampQuantity(qty, stock), AddedAt: now, UpdatedAt: now}
	c.Items = append(c.Items, item)
	c.UpdatedAt = now
	return item, nil
}

// Set replaces the quantity of an existing line; zero removes it.
func (c *Cart) Set(variantID int64, qty, stock int, now time.Time) error {
	if qty < 0 || qty > MaxQuantity {
		return ErrInvalidQuantity
	}
	i := c.Find(variantID)
	if i < 0 {
		return ErrItemNotFound
	}
	if qty == 0 {
		c.removeAt(i)
		c.UpdatedAt = now
		return nil
	}
	if stock <= 0 {
		return ErrOutOfStock
	}
	c.Items[i].Quantity = ClampQuantity(qty, stock)
	c.Items[i].UpdatedAt = now
	c.UpdatedAt = now
	return nil
}

// Remove drops the line for variantID. Missing lines are ignored.
func (c *Cart) Remove(variantID int64, now time.Time) {
	if i := c.Find(variantID); i >= 0 {
		c.removeAt(i)
		c.UpdatedAt = now
	}
}

func (c *Cart) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Merge folds other into c. Quantities of shared variants are summed and
// capped; stockOf reports the current stock of a variant.
func (c *Cart) Merge(other *Cart, stockOf func(variantID int64) int, now time.Time) {
	if other == nil {
		return
	}
	for _, item := range other.Items {
		stock := stockOf(item.VariantID)
		if stock <= 0 {
			continue
		}
		if i := c.Find(item.VariantID); i >= 0 {
			c.Items[i].Quantity = ClampQuantity(c.Items[i].Quantity+item.Quantity, stock)
			c.Items[i].UpdatedAt = now
			continue
		}
		item.Quantity = ClampQuantity(item.Quantity, stock)
		item.UpdatedAt = now
		c.Items = append(c.Items, item)
	}
	c.UpdatedAt = now
}

// VariantIDs lists the variants in the cart.
func (c *Cart) VariantIDs() []int64 {
	ids := make([]int64, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.VariantID)
	}
	return ids
}

// Clone deep-copies the cart.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	out.Items = append([]Item{}, c.Items...)
	return &out
}

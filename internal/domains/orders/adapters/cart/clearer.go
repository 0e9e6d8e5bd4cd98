// Package cart empties the shopper's cart once an order is placed.
package cart

import (
	"context"

	cartdomain "github.com/aromaline/storefront/internal/domains/cart/domain"
	cartports "github.com/aromaline/storefront/internal/domains/cart/ports"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
)

type Clearer struct {
	carts cartports.Service
}

func NewClearer(carts cartports.Service) *Clearer {
	return &Clearer{carts: carts}
}

// Clear empties the user's cart, then the guest cart the checkout came from.
func (c *Clearer) Clear(ctx context.Context, userID, guestToken string) error {
	for _, owner := range []cartdomain.Owner{cartdomain.UserOwner(userID), cartdomain.GuestOwner(guestToken)} {
		if owner.Validate() != nil {
			continue
		}
		if err := c.carts.Clear(ctx, owner); err != nil {
			return err
		}
	}
	return nil
}

var _ ports.Carts = (*Clearer)(nil)

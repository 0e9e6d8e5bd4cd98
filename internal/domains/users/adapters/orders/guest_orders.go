// Package orders links accounts to orders placed as a guest.
package orders

import (
	"context"
	"errors"

	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
	"github.com/aromaline/storefront/internal/domains/users/ports"
)

type GuestOrders struct {
	orders ordersports.Service
}

func NewGuestOrders(orders ordersports.Service) *GuestOrders {
	return &GuestOrders{orders: orders}
}

// Exists only matches orders still without an account.
func (g *GuestOrders) Exists(ctx context.Context, number, email string) (bool, error) {
	order, err := g.orders.LookupGuestOrder(ctx, number, email)
	if errors.Is(err, ordersports.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return order.IsGuest(), nil
}

func (g *GuestOrders) Claim(ctx context.Context, userID, email string) (int, error) {
	return g.orders.ClaimGuestOrders(ctx, userID, email)
}

var _ ports.GuestOrders = (*GuestOrders)(nil)

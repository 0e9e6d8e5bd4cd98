package ports

import (
	"context"

	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/shared/projection"
)

// CheckoutCommand is a checkout request with its caller context.
type CheckoutCommand struct {
	Request        domain.CheckoutRequest
	UserID         string
	GuestToken     string
	Locale         string
	IdempotencyKey string
}

// CheckoutResult reports the order and whether it was replayed from an earlier request.
type CheckoutResult struct {
	Order    *domain.Order
	Replayed bool
}

// Service exposes order use cases to adapters.
type Service interface {
	// Checkout places the order and runs its follow-ups (cart clear, event).
	Checkout(ctx context.Context, cmd CheckoutCommand) (*CheckoutResult, error)
	// PlaceOrder prices, persists and reserves stock without follow-ups.
	PlaceOrder(ctx context.Context, cmd CheckoutCommand) (*CheckoutResult, error)
	ClearCart(ctx context.Context, userID, guestToken string) error
	PublishPlaced(ctx context.Context, orderID string) error

	ListOrders(ctx context.Context, userID string, page, pageSize int) (projection.Page[*domain.Order], error)
	GetOrder(ctx context.Context, userID, number string) (*domain.Order, error)
	LookupGuestOrder(ctx context.Context, number, email string) (*domain.Order, error)
	CancelOrder(ctx context.Context, userID, number string) (*domain.Order, error)
	ClaimGuestOrders(ctx context.Context, userID, email string) (int, error)
}

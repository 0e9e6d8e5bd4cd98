package ports

import "context"

// Carts moves a guest cart into the account cart.
type Carts interface {
	MergeGuestCart(ctx context.Context, guestToken, userID string) error
}

// GuestOrders links guest checkouts to accounts.
type GuestOrders interface {
	// Exists reports whether a guest order with number was placed with email.
	Exists(ctx context.Context, number, email string) (bool, error)
	Claim(ctx context.Context, userID, email string) (int, error)
}

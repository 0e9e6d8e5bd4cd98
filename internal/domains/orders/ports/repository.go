package ports

import (
	"context"
	"errors"

	"github.com/aromaline/storefront/internal/domains/orders/domain"
	"github.com/aromaline/storefront/internal/shared/projection"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repository persists orders. Create and Cancel adjust variant stock in the
// same unit of work as the order write.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, page, pageSize int) (projection.Page[*domain.Order], error)
	Cancel(ctx context.Context, order *domain.Order) error
	// ClaimGuestOrders attaches guest orders placed with email to userID.
	ClaimGuestOrders(ctx context.Context, userID, email string) (int64, error)
}

package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
)

const (
	// PlaceOrderActivityName persists the order and reserves stock.
	PlaceOrderActivityName = "orders.activities.PlaceOrder"
	// ClearCartActivityName empties the cart the order was placed from.
	ClearCartActivityName = "orders.activities.ClearCart"
	// PublishOrderPlacedActivityName emits orders.order.placed.
	PublishOrderPlacedActivityName = "orders.activities.PublishOrderPlaced"
)

// ClearCartInput identifies the cart to clear.
type ClearCartInput struct {
	UserID     string
	GuestToken string
}

// PublishInput identifies the order to announce.
type PublishInput struct {
	OrderID string
}

// Activities groups checkout activities.
type Activities struct {
	service ordersports.Service
}

func NewActivities(service ordersports.Service) *Activities {
	return &Activities{service: service}
}

// PlaceOrder runs the idempotent part of checkout. Business failures come
// back as non-retryable application errors.
func (a *Activities) PlaceOrder(ctx context.Context, cmd ordersports.CheckoutCommand) (*ordersports.CheckoutResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		return nil, errors.New("order activities not initialized")
	}
	logger.Info("PlaceOrder activity started", "items", len(cmd.Request.Items))
	result, err := a.service.PlaceOrder(ctx, cmd)
	if err != nil {
		logger.Error("PlaceOrder activity failed", "error", err)
		return nil, EncodeError(err)
	}
	logger.Info("PlaceOrder activity completed", "orderNumber", result.Order.Number, "replayed", result.Replayed)
	return result, nil
}

func (a *Activities) ClearCart(ctx context.Context, input ClearCartInput) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		return errors.New("order activities not initialized")
	}
	if err := a.service.ClearCart(ctx, input.UserID, input.GuestToken); err != nil {
		logger.Error("ClearCart activity failed", "error", err)
		return err
	}
	return nil
}

func (a *Activities) PublishOrderPlaced(ctx context.Context, input PublishInput) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		return errors.New("order activities not initialized")
	}

	var hb publishHeartbeat
	if activity.HasHeartbeatDetails(ctx) {
		_ = activity.GetHeartbeatDetails(ctx, &hb)
	}
	if hb.Completed {
		logger.Info("PublishOrderPlaced already completed in prior attempt; skipping", "orderId", input.OrderID)
		return nil
	}
	if err := a.service.PublishPlaced(ctx, input.OrderID); err != nil {
		logger.Error("PublishOrderPlaced activity failed", "orderId", input.OrderID, "error", err)
		return err
	}
	activity.RecordHeartbeat(ctx, publishHeartbeat{Completed: true})
	return nil
}

type publishHeartbeat struct {
	Completed bool
}

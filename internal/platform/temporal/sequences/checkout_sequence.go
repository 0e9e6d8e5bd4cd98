package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
	orderactivities "github.com/aromaline/storefront/internal/platform/temporal/activities/orders"
)

// RunCheckoutSequence places the order, then clears the cart and publishes the
// placed event. Follow-up failures are logged and do not fail the checkout.
func RunCheckoutSequence(ctx workflow.Context, cmd ordersports.CheckoutCommand) (*ordersports.CheckoutResult, error) {
	logger := workflow.GetLogger(ctx)
	placeOptions := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        5,
			NonRetryableErrorTypes: orderactivities.NonRetryableErrorTypes,
		},
	}
	followUpOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}

	var result ordersports.CheckoutResult
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, placeOptions), orderactivities.PlaceOrderActivityName, cmd).Get(ctx, &result)
	if err != nil {
		logger.Error("checkout sequence failed to place order", "error", err)
		return nil, err
	}
	if result.Order == nil || result.Replayed {
		return &result, nil
	}
	logger.Info("checkout sequence placed order", "orderNumber", result.Order.Number)

	followUps := workflow.WithActivityOptions(ctx, followUpOptions)
	clearInput := orderactivities.ClearCartInput{UserID: cmd.UserID, GuestToken: cmd.GuestToken}
	if err := workflow.ExecuteActivity(followUps, orderactivities.ClearCartActivityName, clearInput).Get(ctx, nil); err != nil {
		logger.Warn("checkout sequence could not clear cart", "orderNumber", result.Order.Number, "error", err)
	}
	publishInput := orderactivities.PublishInput{OrderID: result.Order.ID}
	if err := workflow.ExecuteActivity(followUps, orderactivities.PublishOrderPlacedActivityName, publishInput).Get(ctx, nil); err != nil {
		logger.Warn("checkout sequence could not publish order placed", "orderNumber", result.Order.Number, "error", err)
	}
	return &result, nil
}

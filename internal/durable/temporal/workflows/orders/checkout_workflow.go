package orders

import (
	"go.temporal.io/sdk/workflow"

	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
	"github.com/aromaline/storefront/internal/platform/temporal/sequences"
)

const (
	// CheckoutWorkflowName is the public identifier for registering the workflow.
	CheckoutWorkflowName = "orders.workflows.Checkout"
	// CheckoutTaskQueue is the queue consumed by the checkout worker.
	CheckoutTaskQueue = "ORDER_CHECKOUT"
)

// CheckoutWorkflowInput carries the checkout command and the caller's trace id.
type CheckoutWorkflowInput struct {
	Command ordersports.CheckoutCommand
	TraceID string
}

// CheckoutWorkflow places an order and runs its follow-ups.
func CheckoutWorkflow(ctx workflow.Context, input CheckoutWorkflowInput) (*ordersports.CheckoutResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("CheckoutWorkflow started", withTraceID(input.TraceID, "items", len(input.Command.Request.Items))...)
	result, err := sequences.RunCheckoutSequence(ctx, input.Command)
	if err != nil {
		logger.Error("CheckoutWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	if result != nil && result.Order != nil {
		logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "orderNumber", result.Order.Number)...)
	}
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

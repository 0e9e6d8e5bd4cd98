package ports

import "context"

// WorkflowOrchestrator runs checkout, durably when a workflow engine is available.
type WorkflowOrchestrator interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (*CheckoutResult, error)
}

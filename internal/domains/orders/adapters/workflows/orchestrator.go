package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/aromaline/storefront/internal/domains/orders/application"
	"github.com/aromaline/storefront/internal/domains/orders/ports"
	orderworkflows "github.com/aromaline/storefront/internal/durable/temporal/workflows/orders"
	orderactivities "github.com/aromaline/storefront/internal/platform/temporal/activities/orders"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalCheckout)(nil)
	_ ports.WorkflowOrchestrator = (*InlineCheckout)(nil)
)

// TemporalCheckout runs checkout as a workflow on a Temporal cluster.
type TemporalCheckout struct {
	client    client.Client
	taskQueue string
}

func NewTemporalCheckout(c client.Client) *TemporalCheckout {
	return &TemporalCheckout{client: c, taskQueue: orderworkflows.CheckoutTaskQueue}
}

// Checkout validates locally so malformed requests never start a workflow,
// then waits for the workflow result.
func (o *TemporalCheckout) Checkout(ctx context.Context, cmd ports.CheckoutCommand) (*ports.CheckoutResult, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal checkout not configured")
	}
	if err := cmd.Request.Normalize().Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", application.ErrInvalidInput, err)
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildCheckoutWorkflowID(cmd, traceComponent)
	run, err := o.client.ExecuteWorkflow(ctx,
		client.StartWorkflowOptions{ID: workflowID, TaskQueue: o.taskQueue},
		orderworkflows.CheckoutWorkflow,
		orderworkflows.CheckoutWorkflowInput{Command: cmd, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(cmd.IdempotencyKey) != "" {
			return o.await(ctx, o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId))
		}
		return nil, err
	}
	return o.await(ctx, run)
}

func (o *TemporalCheckout) await(ctx context.Context, run client.WorkflowRun) (*ports.CheckoutResult, error) {
	var result ports.CheckoutResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, orderactivities.DecodeError(err)
	}
	return &result, nil
}

// InlineCheckout runs the service directly when no workflow engine is configured.
type InlineCheckout struct {
	service ports.Service
}

func NewInlineCheckout(service ports.Service) *InlineCheckout {
	return &InlineCheckout{service: service}
}

func (o *InlineCheckout) Checkout(ctx context.Context, cmd ports.CheckoutCommand) (*ports.CheckoutResult, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline checkout not configured")
	}
	return o.service.Checkout(ctx, cmd)
}

func buildCheckoutWorkflowID(cmd ports.CheckoutCommand, traceComponent string) string {
	if key := strings.TrimSpace(cmd.IdempotencyKey); key != "" {
		scope := ports.KeyScope(cmd.UserID, cmd.GuestToken)
		return fmt.Sprintf("order-checkout-idem-%s", hashIdempotencyKey(scope+"\x00"+key))
	}
	return fmt.Sprintf("order-checkout-%d-%s", time.Now().UnixNano(), traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

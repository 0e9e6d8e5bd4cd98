package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/aromaline/storefront/internal/app/api"
	orderworkflows "github.com/aromaline/storefront/internal/durable/temporal/workflows/orders"
	platformobservability "github.com/aromaline/storefront/internal/platform/observability"
	orderactivities "github.com/aromaline/storefront/internal/platform/temporal/activities/orders"
)

func main() {
	ctx := context.Background()
	const serviceName = "storefront-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()

	services, cleanup, err := api.Build(ctx, cfg, instruments, api.Version)
	if err != nil {
		instruments.Logger.Error("failed to wire services", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()
	logger := instruments.Logger
	if err := services.RequireSharedStore(); err != nil {
		logger.Error("checkout worker refuses to start", slog.String("error", err.Error()))
		cleanup()
		os.Exit(1)
	}

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	activities := orderactivities.NewActivities(services.Orders)
	w := worker.New(temporalClient, orderworkflows.CheckoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderworkflows.CheckoutWorkflow, workflow.RegisterOptions{Name: orderworkflows.CheckoutWorkflowName})
	w.RegisterActivityWithOptions(activities.PlaceOrder, activity.RegisterOptions{Name: orderactivities.PlaceOrderActivityName})
	w.RegisterActivityWithOptions(activities.ClearCart, activity.RegisterOptions{Name: orderactivities.ClearCartActivityName})
	w.RegisterActivityWithOptions(activities.PublishOrderPlaced, activity.RegisterOptions{Name: orderactivities.PublishOrderPlacedActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderworkflows.CheckoutTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

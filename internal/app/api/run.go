package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"

	storefrontserver "github.com/aromaline/storefront/go"
	orderswork "github.com/aromaline/storefront/internal/domains/orders/adapters/workflows"
	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
	"github.com/aromaline/storefront/internal/platform/health"
	"github.com/aromaline/storefront/internal/platform/httpmetrics"
	platformobservability "github.com/aromaline/storefront/internal/platform/observability"
)

// Version is reported by /healthz.
var Version = "dev"

const serviceName = "storefront-api"

// Run boots the storefront HTTP API and blocks until ctx is cancelled or the
// server fails.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()

	services, cleanup, err := Build(ctx, cfg, instruments, Version)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := instruments.Logger

	checkout, temporalClient := selectCheckout(services, func() (client.Client, error) {
		return ConnectTemporal(cfg, instruments, "temporal-client")
	}, logger)
	if temporalClient != nil {
		defer temporalClient.Close()
		services.Health.RegisterChecker("temporal", health.NewOptionalChecker("temporal", func(ctx context.Context) error {
			_, err := temporalClient.CheckHealth(ctx, &client.CheckHealthRequest{})
			return err
		}))
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := storefrontserver.ApiHandleFunctions{
		CatalogAPI:   storefrontserver.NewCatalogAPI(services.Catalog),
		CartAPI:      storefrontserver.NewCartAPI(services.Cart),
		FavoritesAPI: storefrontserver.NewFavoritesAPI(services.Favorites),
		OrdersAPI:    storefrontserver.NewOrdersAPI(services.Orders, checkout),
		AuthAPI:      storefrontserver.NewAuthAPI(services.Users),
		AccountAPI:   storefrontserver.NewAccountAPI(services.Users),
		LogsAPI:      storefrontserver.NewLogsAPI(services.Logs),
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	engine.Use(gin.Recovery(), otelgin.Middleware(serviceName))
	router := storefrontserver.NewRouterWithGinEngine(engine, handlers, storefrontserver.RouterOptions{
		Auth:     services.Users,
		I18n:     services.Bundle,
		Limiter:  services.Limiter,
		Policies: storefrontserver.DefaultPolicies(),
		Metrics:  httpmetrics.New(),
		Health:   services.Health,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Storefront API listening", slog.String("addr", srv.Addr), slog.String("environment", cfg.Environment))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("Storefront API server exited", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("Storefront API shutting down")
	return srv.Shutdown(shutdownCtx)
}

// selectCheckout returns the Temporal orchestrator only when orders live in
// Postgres. The worker places orders in its own process, so an in-memory
// store would hide them from this API.
func selectCheckout(services *Services, dial func() (client.Client, error), logger *slog.Logger) (ordersports.WorkflowOrchestrator, client.Client) {
	inline := orderswork.NewInlineCheckout(services.Orders)
	if services.DB == nil {
		logger.Info("no shared postgres, running checkout inline")
		return inline, nil
	}
	temporalClient, err := dial()
	if err != nil {
		logger.Warn("Temporal workflows unavailable, running checkout inline", slog.String("error", err.Error()))
		return inline, nil
	}
	return orderswork.NewTemporalCheckout(temporalClient), temporalClient
}

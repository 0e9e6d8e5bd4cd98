package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/aromaline/storefront/internal/app/api"
	cartpostgres "github.com/aromaline/storefront/internal/domains/cart/adapters/persistence/postgres"
	orderpostgres "github.com/aromaline/storefront/internal/domains/orders/adapters/persistence/postgres"
	userpostgres "github.com/aromaline/storefront/internal/domains/users/adapters/persistence/postgres"
	"github.com/aromaline/storefront/internal/platform/observability"
	platformpostgres "github.com/aromaline/storefront/internal/platform/postgres"
)

// guestCartRetention is how long an untouched anonymous cart is kept.
const guestCartRetention = 30 * 24 * time.Hour

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: observability.ParseLevel(os.Getenv("LOG_LEVEL"))}))
	db, cleanup := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge sessions")
	}

	now := time.Now().UTC()
	sessions, err := userpostgres.NewSessionStore(db).PurgeExpired(ctx, now)
	if err != nil {
		log.Fatalf("failed to purge sessions: %v", err)
	}
	carts, err := cartpostgres.NewRepository(db).PurgeGuestCarts(ctx, now.Add(-guestCartRetention))
	if err != nil {
		log.Fatalf("failed to purge guest carts: %v", err)
	}
	keys, err := orderpostgres.NewIdempotencyStore(db).PurgeExpired(ctx, now)
	if err != nil {
		log.Fatalf("failed to purge checkout keys: %v", err)
	}
	logger.Info("purge completed",
		slog.Int64("sessions", sessions),
		slog.Int64("guestCarts", carts),
		slog.Int64("checkoutKeys", keys))
}

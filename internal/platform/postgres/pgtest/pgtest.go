//go:build integration

// Package pgtest runs repository tests against a disposable PostgreSQL.
package pgtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/aromaline/storefront/internal/platform/migrations"
	platformpostgres "github.com/aromaline/storefront/internal/platform/postgres"
)

const image = "postgres:16-alpine"

// Start returns a migrated database and its DSN. The container is removed
// when t finishes. Skipped under -short.
func Start(t *testing.T) (*gorm.DB, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests disabled by -short")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, image,
		tcpostgres.WithDatabase("storefront"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "start %s", image)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := platformpostgres.ConnectWithPool(ctx, dsn, platformpostgres.Pool{MaxOpen: 5, MaxIdle: 2, MaxLifetime: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, migrations.Run(db))
	return db, dsn
}

// Package postgres opens the storefront database handles: GORM for the
// repositories and a small pgx pool for batched log inserts.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var errNoDSN = errors.New("postgres DSN is empty")

const pingTimeout = 5 * time.Second

// Pool sizes the database/sql pool behind GORM.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// DefaultPool suits a single API replica.
var DefaultPool = Pool{MaxOpen: 25, MaxIdle: 5, MaxLifetime: 30 * time.Minute}

// Connect opens and pings a GORM handle with DefaultPool. Driver errors are
// translated so adapters can match gorm.ErrDuplicatedKey.
func Connect(ctx context.Context, dsn string) (*gorm.DB, error) {
	return ConnectWithPool(ctx, dsn, DefaultPool)
}

func ConnectWithPool(ctx context.Context, dsn string, pool Pool) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errNoDSN
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pool.MaxOpen)
	sqlDB.SetMaxIdleConns(pool.MaxIdle)
	sqlDB.SetConnMaxLifetime(pool.MaxLifetime)
	if err := Ping(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// ConnectDSN is the optional variant used by the processes: an empty DSN or a
// failed dial logs a warning and yields a nil handle, so callers fall back to
// in-memory adapters. The returned func closes the handle.
func ConnectDSN(ctx context.Context, dsn string, logger *slog.Logger) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := Connect(ctx, dsn)
	switch {
	case errors.Is(err, errNoDSN):
		logger.Warn("POSTGRES_DSN not set, using in-memory storage")
		return nil, func() {}
	case err != nil:
		logger.Warn("postgres unavailable, using in-memory storage", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("postgres connection established")
	return db, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// NewPool opens a pgx pool for statements batched outside GORM.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errNoDSN
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	cfg.MaxConns = 4
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Ping reports whether the database answers, bounded by pingTimeout.
func Ping(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("postgres not configured")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

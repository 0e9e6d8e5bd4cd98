package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	cartcache "github.com/aromaline/storefront/internal/domains/cart/adapters/cache"
	cartcatalog "github.com/aromaline/storefront/internal/domains/cart/adapters/catalog"
	cartmemory "github.com/aromaline/storefront/internal/domains/cart/adapters/memory"
	cartobs "github.com/aromaline/storefront/internal/domains/cart/adapters/observability"
	cartpostgres "github.com/aromaline/storefront/internal/domains/cart/adapters/persistence/postgres"
	cartapp "github.com/aromaline/storefront/internal/domains/cart/application"
	cartports "github.com/aromaline/storefront/internal/domains/cart/ports"
	catalogmemory "github.com/aromaline/storefront/internal/domains/catalog/adapters/memory"
	catalogobs "github.com/aromaline/storefront/internal/domains/catalog/adapters/observability"
	catalogpostgres "github.com/aromaline/storefront/internal/domains/catalog/adapters/persistence/postgres"
	"github.com/aromaline/storefront/internal/domains/catalog/adapters/seed"
	catalogapp "github.com/aromaline/storefront/internal/domains/catalog/application"
	catalogdomain "github.com/aromaline/storefront/internal/domains/catalog/domain"
	catalogports "github.com/aromaline/storefront/internal/domains/catalog/ports"
	favoritescatalog "github.com/aromaline/storefront/internal/domains/favorites/adapters/catalog"
	favoritesmemory "github.com/aromaline/storefront/internal/domains/favorites/adapters/memory"
	favoritespostgres "github.com/aromaline/storefront/internal/domains/favorites/adapters/persistence/postgres"
	favoritesapp "github.com/aromaline/storefront/internal/domains/favorites/application"
	favoritesports "github.com/aromaline/storefront/internal/domains/favorites/ports"
	orderscart "github.com/aromaline/storefront/internal/domains/orders/adapters/cart"
	orderscatalog "github.com/aromaline/storefront/internal/domains/orders/adapters/catalog"
	ordersevents "github.com/aromaline/storefront/internal/domains/orders/adapters/events"
	ordersmemory "github.com/aromaline/storefront/internal/domains/orders/adapters/memory"
	ordersobs "github.com/aromaline/storefront/internal/domains/orders/adapters/observability"
	orderspostgres "github.com/aromaline/storefront/internal/domains/orders/adapters/persistence/postgres"
	ordersapp "github.com/aromaline/storefront/internal/domains/orders/application"
	ordersports "github.com/aromaline/storefront/internal/domains/orders/ports"
	usersmemory "github.com/aromaline/storefront/internal/domains/users/adapters/memory"
	usersobs "github.com/aromaline/storefront/internal/domains/users/adapters/observability"
	usersorders "github.com/aromaline/storefront/internal/domains/users/adapters/orders"
	usersotp "github.com/aromaline/storefront/internal/domains/users/adapters/otp"
	userspostgres "github.com/aromaline/storefront/internal/domains/users/adapters/persistence/postgres"
	usersapp "github.com/aromaline/storefront/internal/domains/users/application"
	usersports "github.com/aromaline/storefront/internal/domains/users/ports"
	"github.com/aromaline/storefront/internal/platform/applog"
	"github.com/aromaline/storefront/internal/platform/events/kafka"
	"github.com/aromaline/storefront/internal/platform/health"
	"github.com/aromaline/storefront/internal/platform/i18n"
	"github.com/aromaline/storefront/internal/platform/migrations"
	platformobservability "github.com/aromaline/storefront/internal/platform/observability"
	platformpostgres "github.com/aromaline/storefront/internal/platform/postgres"
	"github.com/aromaline/storefront/internal/platform/ratelimit"
)

// Services is the fully wired application graph shared by the API, the
// checkout worker and the maintenance jobs.
type Services struct {
	Catalog   catalogports.Service
	Cart      cartports.Service
	Favorites favoritesports.Service
	Orders    ordersports.Service
	Users     usersports.Service
	Logs      *applog.Service
	Limiter   ratelimit.Limiter
	Bundle    *i18n.Bundle
	Health    *health.Handler

	DB    *gorm.DB
	Redis redis.UniversalClient
}

type closer struct {
	fns []func()
}

func (c *closer) add(fn func()) { c.fns = append(c.fns, fn) }

// close runs cleanups in reverse registration order.
func (c *closer) close() {
	for i := len(c.fns) - 1; i >= 0; i-- {
		c.fns[i]()
	}
}

// ErrSharedStoreRequired is returned to processes that cannot run against
// in-memory adapters.
var ErrSharedStoreRequired = errors.New("postgres is required: set POSTGRES_DSN")

// RequireSharedStore fails when Build fell back to in-memory persistence.
func (s *Services) RequireSharedStore() error {
	if s.DB == nil {
		return ErrSharedStoreRequired
	}
	return nil
}

// Build connects the optional backends named in cfg and wires every bounded
// context. Missing or unreachable backends fall back to in-memory adapters.
func Build(ctx context.Context, cfg Config, instruments *platformobservability.Instruments, version string) (*Services, func(), error) {
	cleanup := &closer{}
	logger := instruments.Logger
	bundle, err := i18n.Load()
	if err != nil {
		return nil, func() {}, fmt.Errorf("load translations: %w", err)
	}
	s := &Services{Bundle: bundle, Health: health.NewHandler(version)}

	db, closeDB := platformpostgres.ConnectDSN(ctx, cfg.PostgresDSN, logger)
	cleanup.add(closeDB)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			cleanup.close()
			return nil, func() {}, err
		}
		s.DB = db
		s.Health.RegisterChecker("postgres", health.NewSimpleChecker("postgres", func(ctx context.Context) error {
			return platformpostgres.Ping(ctx, db)
		}))
	}

	logSink := s.buildLogSink(ctx, cfg, instruments, cleanup)
	logger = instruments.Logger
	s.Logs = applog.NewService(logSink)

	s.Redis = connectRedis(ctx, cfg.RedisAddr, logger)
	if s.Redis != nil {
		cleanup.add(func() { _ = s.Redis.Close() })
		s.Limiter = ratelimit.NewRedisLimiter(s.Redis)
		rdb := s.Redis
		s.Health.RegisterChecker("redis", health.NewOptionalChecker("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	} else {
		s.Limiter = ratelimit.NewMemoryLimiter()
	}

	// Catalog.
	var catalogCore *catalogapp.Service
	var stock ordersmemory.StockLedger
	if db != nil {
		catalogCore = catalogapp.NewService(catalogpostgres.NewRepository(db), catalogpostgres.NewReviewRepository(db))
	} else {
		products := catalogmemory.NewRepository()
		stock = products
		catalogCore = catalogapp.NewService(products, catalogmemory.NewReviewRepository())
	}
	s.Catalog = catalogobs.New(catalogCore,
		catalogobs.WithLogger(logger),
		catalogobs.WithTracer(instruments.Tracer("internal.catalog.application")),
		catalogobs.WithMeter(instruments.Meter("internal.catalog.application")),
	)
	if err := seedCatalog(ctx, cfg, s.Catalog, logger); err != nil {
		cleanup.close()
		return nil, func() {}, err
	}

	// Cart.
	var cartRepo cartports.Repository
	if db != nil {
		cartRepo = cartpostgres.NewRepository(db)
	} else {
		cartRepo = cartmemory.NewRepository()
	}
	if s.Redis != nil {
		cartRepo = cartcache.New(cartRepo, s.Redis, cartcache.WithLogger(logger))
	}
	s.Cart = cartobs.New(cartapp.NewService(cartRepo, cartcatalog.NewLookup(s.Catalog)),
		cartobs.WithLogger(logger),
		cartobs.WithTracer(instruments.Tracer("internal.cart.application")),
		cartobs.WithMeter(instruments.Meter("internal.cart.application")),
	)

	// Favorites.
	if db != nil {
		s.Favorites = favoritesapp.NewService(favoritespostgres.NewRepository(db), favoritescatalog.NewLookup(s.Catalog))
	} else {
		s.Favorites = favoritesapp.NewService(favoritesmemory.NewRepository(), favoritescatalog.NewLookup(s.Catalog))
	}

	// Orders.
	publisher, err := s.buildPublisher(cfg, logger, cleanup)
	if err != nil {
		cleanup.close()
		return nil, func() {}, err
	}
	orderOpts := []ordersapp.Option{
		ordersapp.WithCarts(orderscart.NewClearer(s.Cart)),
		ordersapp.WithPublisher(publisher),
		ordersapp.WithShippingPolicy(cfg.Shipping),
		ordersapp.WithLogger(logger),
	}
	var orderRepo ordersports.Repository
	if db != nil {
		orderRepo = orderspostgres.NewRepository(db)
		orderOpts = append(orderOpts, ordersapp.WithIdempotencyStore(orderspostgres.NewIdempotencyStore(db)))
	} else {
		orderRepo = ordersmemory.NewRepository(stock)
		orderOpts = append(orderOpts, ordersapp.WithIdempotencyStore(ordersmemory.NewIdempotencyStore()))
	}
	s.Orders = ordersobs.New(ordersapp.NewService(orderRepo, orderscatalog.NewPrices(s.Catalog), orderOpts...),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.application")),
	)

	// Users.
	otpProvider, err := buildOTPProvider(cfg, db, bundle, logger)
	if err != nil {
		cleanup.close()
		return nil, func() {}, err
	}
	userOpts := []usersapp.Option{
		usersapp.WithOTPProvider(otpProvider),
		usersapp.WithCarts(s.Cart),
		usersapp.WithGuestOrders(usersorders.NewGuestOrders(s.Orders)),
		usersapp.WithSessionTTL(cfg.SessionTTL),
		usersapp.WithLogger(logger),
	}
	var (
		userRepo usersports.Repository
		sessions usersports.SessionStore
	)
	if db != nil {
		repo := userspostgres.NewRepository(db)
		userRepo = repo
		sessions = userspostgres.NewSessionStore(db)
		userOpts = append(userOpts, usersapp.WithAddressRepository(repo))
	} else {
		repo := usersmemory.NewRepository()
		userRepo = repo
		sessions = usersmemory.NewSessionStore()
		userOpts = append(userOpts, usersapp.WithAddressRepository(repo))
	}
	s.Users = usersobs.New(usersapp.NewService(userRepo, sessions, userOpts...),
		usersobs.WithLogger(logger),
		usersobs.WithTracer(instruments.Tracer("internal.users.application")),
		usersobs.WithMeter(instruments.Meter("internal.users.application")),
	)

	return s, cleanup.close, nil
}

// buildLogSink stores client logs through the log_event procedure when a pool
// is available and tees server warnings into the same table.
func (s *Services) buildLogSink(ctx context.Context, cfg Config, instruments *platformobservability.Instruments, cleanup *closer) applog.Sink {
	logger := instruments.Logger
	if s.DB == nil {
		return applog.NewSlogSink(logger)
	}
	pool, err := platformpostgres.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("log sink pool unavailable, writing client logs to stdout", slog.String("error", err.Error()))
		return applog.NewSlogSink(logger)
	}
	sink := applog.NewAsyncSink(applog.NewPgxSink(pool), 512, logger)
	cleanup.add(pool.Close)
	cleanup.add(sink.Close)
	instruments.WithHandler(func(next slog.Handler) slog.Handler {
		return applog.NewTeeHandler(next, sink, slog.LevelWarn)
	})
	return sink
}

func (s *Services) buildPublisher(cfg Config, logger *slog.Logger, cleanup *closer) (ordersports.EventPublisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("KAFKA_BROKERS not set, order events go to the application log")
		return ordersevents.NewLogPublisher(logger), nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}
	cleanup.add(func() { _ = producer.Close() })
	logger.Info("order events published to kafka", slog.String("topic", cfg.KafkaOrdersTopic))
	return ordersevents.NewKafkaPublisher(producer, cfg.KafkaOrdersTopic), nil
}

func buildOTPProvider(cfg Config, db *gorm.DB, bundle *i18n.Bundle, logger *slog.Logger) (usersports.OTPProvider, error) {
	if cfg.SupabaseURL != "" {
		provider, err := usersotp.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, fmt.Errorf("configure supabase otp: %w", err)
		}
		logger.Info("phone verification delegated to supabase")
		return provider, nil
	}
	var store usersports.VerificationStore = usersmemory.NewVerificationStore()
	if db != nil {
		store = userspostgres.NewVerificationStore(db)
	}
	return usersotp.NewLocalProvider(store, usersotp.NewLogSender(logger), bundle), nil
}

func seedCatalog(ctx context.Context, cfg Config, catalog catalogports.Service, logger *slog.Logger) error {
	var (
		products []*catalogdomain.Product
		err      error
	)
	if cfg.CatalogSeedFile != "" {
		products, err = seed.LoadFile(cfg.CatalogSeedFile)
	} else {
		products, err = seed.Default()
	}
	if err != nil {
		return fmt.Errorf("load catalog seed: %w", err)
	}
	_, err = seed.Apply(ctx, catalog, products, logger)
	return err
}

func connectRedis(ctx context.Context, addr string, logger *slog.Logger) redis.UniversalClient {
	if addr == "" {
		logger.Info("REDIS_ADDR not set, rate limits and carts stay in process memory")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, falling back to in-memory limiter", slog.String("addr", addr), slog.String("error", err.Error()))
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// ConnectTemporal dials the cluster with the OpenTelemetry tracing interceptor.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: instruments.Tracer(tracerName),
	})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(instruments.Logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

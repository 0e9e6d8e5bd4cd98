package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/client"

	ordersdomain "github.com/aromaline/storefront/internal/domains/orders/domain"
	userdomain "github.com/aromaline/storefront/internal/domains/users/domain"
)

// DefaultOrdersTopic receives orders.order.placed events.
const DefaultOrdersTopic = "storefront.orders"

// Config carries environment-driven settings for the storefront processes.
type Config struct {
	Port              string
	Environment       string
	PostgresDSN       string
	RedisAddr         string
	KafkaBrokers      []string
	KafkaOrdersTopic  string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	SessionTTL        time.Duration
	Shipping          ordersdomain.ShippingPolicy
	SupabaseURL       string
	SupabaseKey       string
	CatalogSeedFile   string
	TrustedProxies    []string
}

// LoadConfig reads an optional .env file, then environment variables, applies
// defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		Environment:       envDefault("ENVIRONMENT", "local"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrdersTopic:  envDefault("KAFKA_ORDERS_TOPIC", DefaultOrdersTopic),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		SessionTTL:        userdomain.DefaultSessionTTL,
		Shipping:          ordersdomain.DefaultShippingPolicy(),
		SupabaseURL:       strings.TrimSpace(os.Getenv("SUPABASE_URL")),
		SupabaseKey:       strings.TrimSpace(os.Getenv("SUPABASE_KEY")),
		CatalogSeedFile:   strings.TrimSpace(os.Getenv("CATALOG_SEED_FILE")),
		TrustedProxies:    splitList(os.Getenv("TRUSTED_PROXIES")),
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer")
		}
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}
	var err error
	if cfg.Shipping.FlatFee, err = envDecimal("SHIPPING_FLAT_FEE", cfg.Shipping.FlatFee); err != nil {
		return Config{}, err
	}
	if cfg.Shipping.FreeThreshold, err = envDecimal("FREE_SHIPPING_THRESHOLD", cfg.Shipping.FreeThreshold); err != nil {
		return Config{}, err
	}
	if currency := strings.TrimSpace(os.Getenv("CURRENCY")); currency != "" {
		if len(currency) != 3 {
			return Config{}, fmt.Errorf("CURRENCY must be a three-letter ISO code")
		}
		cfg.Shipping.Currency = strings.ToUpper(currency)
	}
	if (cfg.SupabaseURL == "") != (cfg.SupabaseKey == "") {
		return Config{}, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY must be set together")
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%s must be a non-negative amount", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

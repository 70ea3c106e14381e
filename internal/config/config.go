package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/loopmarket/internal/money"
)

const (
	defaultAppName         = "LoopMarket"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultCurrency        = "LooP"
	defaultBaseCurrency    = "INR"
	defaultExchangeRate    = "1"
	defaultPostingFee      = "10"
	defaultSeedBalance     = "1000.00"
	defaultTopUpsPerMinute = 10

	// defaultPlatformOwnerID is the development-only platform wallet owner.
	// Production deployments must set PLATFORM_OWNER_ID explicitly.
	defaultPlatformOwnerID = "00000000-0000-0000-0000-000000000001"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Ledger policy values, resolved once at process start.
	Currency        string
	BaseCurrency    string
	ExchangeRate    decimal.Decimal
	PostingFee      money.Money
	SeedBalance     money.Money
	PlatformOwnerID string
	TopUpsPerMinute int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
		Currency:        getEnv("CURRENCY", defaultCurrency),
		BaseCurrency:    getEnv("BASE_CURRENCY", defaultBaseCurrency),
		PlatformOwnerID: getEnv("PLATFORM_OWNER_ID", defaultPlatformOwnerID),
		TopUpsPerMinute: defaultTopUpsPerMinute,
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid IDEMPOTENCY_TTL: %w", err)
		}
		cfg.IdempotencyTTL = d
	}

	if v := os.Getenv("TOPUPS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TOPUPS_PER_MINUTE: %w", err)
		}
		cfg.TopUpsPerMinute = n
	}

	rate, err := decimal.NewFromString(getEnv("EXCHANGE_RATE", defaultExchangeRate))
	if err != nil {
		return Config{}, fmt.Errorf("invalid EXCHANGE_RATE: %w", err)
	}
	cfg.ExchangeRate = rate

	fee, err := money.Parse(getEnv("POSTING_FEE", defaultPostingFee))
	if err != nil {
		return Config{}, fmt.Errorf("invalid POSTING_FEE: %w", err)
	}
	cfg.PostingFee = fee

	seed, err := money.Parse(getEnv("SEED_BALANCE", defaultSeedBalance))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SEED_BALANCE: %w", err)
	}
	cfg.SeedBalance = seed

	if _, err := uuid.Parse(cfg.PlatformOwnerID); err != nil {
		return Config{}, fmt.Errorf("invalid PLATFORM_OWNER_ID: %w", err)
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the app is running in a development environment,
// where the in-memory store and cacheless mode are permitted.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

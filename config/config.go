package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coolestnick/Shard-Flip/database"
	"github.com/coolestnick/Shard-Flip/models"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string
	StoreDriver  string // "postgres" or "memory"

	// Ledger configuration. Amounts are in the smallest native unit.
	LedgerOwner      string
	MinBet           int64
	MaxBet           int64
	PayoutMultiplier int64

	// HTTP configuration
	HTTPPort              string
	JWTSecret             string
	JWTIssuer             string
	TokenTTL              time.Duration
	BetRateLimitPerMinute int
	StatsCacheTTL         time.Duration
	LeaderboardCacheTTL   time.Duration
	PlayerCacheTTL        time.Duration

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// NATS configuration
	NATSEnabled bool
	NATSServers string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// LedgerSettings returns the values a new ledger is initialized with
func (c *Config) LedgerSettings() models.LedgerSettings {
	return models.LedgerSettings{
		Owner:            models.NormalizeAddress(c.LedgerOwner),
		MinBet:           c.MinBet,
		MaxBet:           c.MaxBet,
		PayoutMultiplier: c.PayoutMultiplier,
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),
		StoreDriver:  getEnvWithDefault("STORE_DRIVER", "postgres"),

		// Ledger defaults: 0.01 and 10 native coins at 1e9 units each
		LedgerOwner:      os.Getenv("LEDGER_OWNER"),
		MinBet:           10_000_000,
		MaxBet:           10_000_000_000,
		PayoutMultiplier: 2,

		// HTTP
		HTTPPort:              getEnvWithDefault("HTTP_PORT", "8080"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		JWTIssuer:             getEnvWithDefault("JWT_ISSUER", "shard-flip"),
		TokenTTL:              24 * time.Hour,
		BetRateLimitPerMinute: 30,
		StatsCacheTTL:         30 * time.Second,
		LeaderboardCacheTTL:   45 * time.Second,
		PlayerCacheTTL:        60 * time.Second,

		// Redis
		RedisURL:      getEnvWithDefault("REDIS_URL", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		// NATS
		NATSEnabled: os.Getenv("NATS_ENABLED") != "false",
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "shard-flip"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 30000,

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if v := os.Getenv("MIN_BET"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MinBet = parsed
		}
	}
	if v := os.Getenv("MAX_BET"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.MaxBet = parsed
		}
	}
	if v := os.Getenv("PAYOUT_MULTIPLIER"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.PayoutMultiplier = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_BETS_PER_MINUTE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.BetRateLimitPerMinute = parsed
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.RedisDB = parsed
		}
	}
	if v := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.OTelExportIntervalMillis = parsed
		}
	}
	config.StatsCacheTTL = getEnvDuration("STATS_CACHE_TTL", config.StatsCacheTTL)
	config.LeaderboardCacheTTL = getEnvDuration("LEADERBOARD_CACHE_TTL", config.LeaderboardCacheTTL)
	config.PlayerCacheTTL = getEnvDuration("PLAYER_CACHE_TTL", config.PlayerCacheTTL)
	config.TokenTTL = getEnvDuration("TOKEN_TTL", config.TokenTTL)

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.validateLedger(); err != nil {
		return nil, err
	}

	if config.Environment != "test" {
		if config.StoreDriver == "postgres" && config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if models.IsZeroAddress(config.LedgerOwner) {
			return nil, fmt.Errorf("LEDGER_OWNER is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}

// validateLedger checks the bet bounds are usable
func (c *Config) validateLedger() error {
	if c.MinBet <= 0 {
		return fmt.Errorf("MIN_BET must be positive")
	}
	if c.MaxBet < c.MinBet {
		return fmt.Errorf("MAX_BET must be at least MIN_BET")
	}
	if c.PayoutMultiplier < 1 {
		return fmt.Errorf("PAYOUT_MULTIPLIER must be at least 1")
	}
	// stake * multiplier is computed in int64
	if c.MaxBet > math.MaxInt64/c.PayoutMultiplier {
		return fmt.Errorf("MAX_BET * PAYOUT_MULTIPLIER overflows")
	}
	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:           "test",
		StoreDriver:           "memory",
		LedgerOwner:           "0x00000000000000000000000000000000000000aa",
		MinBet:                10,
		MaxBet:                100,
		PayoutMultiplier:      2,
		JWTSecret:             "test-secret",
		JWTIssuer:             "shard-flip",
		TokenTTL:              time.Hour,
		BetRateLimitPerMinute: 30,
		StatsCacheTTL:         30 * time.Second,
		LeaderboardCacheTTL:   45 * time.Second,
		PlayerCacheTTL:        60 * time.Second,
		OTelExporterType:      "none",
		LogLevel:              "debug",
	}
}

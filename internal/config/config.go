// Package config loads the service's environment-variable configuration.
package config

import (
	"fmt"

	pkgconfig "github.com/utafrali/inventory-es/pkg/config"
)

// Config holds all configuration for the inventory service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"INVENTORY_HTTP_PORT" envDefault:"8080"`

	// Event store
	EventStoreDir string `env:"EVENT_STORE_DIR" envDefault:"data/events"`

	// PostgreSQL (backs the read-model projection only; the event log lives
	// on the filesystem)
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"inventory"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"inventory_secret"`
	PostgresDB   string `env:"INVENTORY_DB_NAME" envDefault:"inventory_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Cache
	CacheTTLSeconds int `env:"CACHE_TTL_SECONDS" envDefault:"30"`
	CacheMaxSize    int `env:"CACHE_MAX_SIZE" envDefault:"1000"`

	// Circuit breaker guarding the projection repository
	CircuitBreakerFailureRatio  float64 `env:"CIRCUIT_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	CircuitBreakerMinRequests   uint32  `env:"CIRCUIT_BREAKER_MIN_REQUESTS" envDefault:"5"`
	CircuitBreakerTimeoutSecs   int     `env:"CIRCUIT_BREAKER_TIMEOUT_SECONDS" envDefault:"30"`
	CircuitBreakerIntervalSecs  int     `env:"CIRCUIT_BREAKER_INTERVAL_SECONDS" envDefault:"60"`

	// Reservations
	DefaultReservationTTLMinutes int `env:"DEFAULT_RESERVATION_TTL_MINUTES" envDefault:"30"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load inventory config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.EventStoreDir == "" {
		return fmt.Errorf("EVENT_STORE_DIR is required")
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be > 0, got %d", c.CacheTTLSeconds)
	}
	if c.CacheMaxSize <= 0 {
		return fmt.Errorf("CACHE_MAX_SIZE must be > 0, got %d", c.CacheMaxSize)
	}
	if c.DefaultReservationTTLMinutes <= 0 {
		return fmt.Errorf("DEFAULT_RESERVATION_TTL_MINUTES must be > 0, got %d", c.DefaultReservationTTLMinutes)
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string for the projection
// database.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

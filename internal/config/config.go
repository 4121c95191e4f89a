// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Convert  ConvertConfig
	Cache    CacheConfig
	Database DatabaseConfig
	History  HistoryConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	UI       UIConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// ConvertConfig bounds the work a single conversion may do.
type ConvertConfig struct {
	// MaxInputSize is the largest accepted input in bytes (default: 10MB)
	MaxInputSize int64 `env:"CONVERT_MAX_INPUT_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel conversions (default: 4)
	MaxConcurrent int `env:"CONVERT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a conversion slot (default: 10s)
	MaxWaitTime time.Duration `env:"CONVERT_MAX_WAIT_TIME" default:"10s"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	// Enabled turns the converted-document cache on (default: true)
	Enabled bool `env:"CACHE_ENABLED" default:"true"`

	// Size is the number of documents kept (default: 128)
	Size int `env:"CACHE_SIZE" default:"128"`
}

// DatabaseConfig holds database connection settings.
// The database is optional; without a URL no conversion history is kept.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 5)
	MaxConns int `env:"DB_MAX_CONNS" default:"5"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// HistoryConfig controls how long conversion history is kept.
type HistoryConfig struct {
	// RetentionDays is how many days of history to keep (default: 30)
	RetentionDays int `env:"HISTORY_RETENTION_DAYS" default:"30"`

	// PurgeBatchSize is the number of rows deleted per statement (default: 5000)
	PurgeBatchSize int `env:"HISTORY_PURGE_BATCH_SIZE" default:"5000"`

	// PurgeInterval is how often old history is deleted (default: 24h)
	PurgeInterval time.Duration `env:"HISTORY_PURGE_INTERVAL" default:"24h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// UIConfig holds the texts shown by the upload page.
type UIConfig struct {
	ButtonText          string `env:"UI_BUTTON_TEXT" default:"Select File"`
	SuccessMessage      string `env:"UI_SUCCESS_MESSAGE" default:"File converted successfully!"`
	ErrorMessage        string `env:"UI_ERROR_MESSAGE" default:"Error converting file!"`
	WarningMessage      string `env:"UI_WARNING_MESSAGE" default:"Invalid file type selected. Please choose a valid CSV, XML, or JSON file."`
	ShowConfirmation    bool   `env:"UI_SHOW_CONFIRMATION" default:"true"`
	ConfirmationMessage string `env:"UI_CONFIRMATION_MESSAGE" default:"Do you want to import Tags or Alarms list file?"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

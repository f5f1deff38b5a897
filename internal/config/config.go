// Package config handles application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Rate limit backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config holds all configuration for the application.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Rate     RateLimitConfig
	Schedule ScheduleConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Env      string
	LogLevel string
}

// IsDevelopment returns true if the app is running in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "dev"
}

// IsProduction returns true if the app is running in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Address returns the server address in host:port format.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// Address returns the Redis address in host:port format.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LimitConfig is the request budget of one rate limit profile.
type LimitConfig struct {
	Requests int
	Window   time.Duration
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Backend         string
	CleanupInterval time.Duration
	TrustProxy      bool
	Booking         LimitConfig
	Form            LimitConfig
	Photos          LimitConfig

	// AdminToken guards counter resets. Empty disables the reset endpoint.
	AdminToken string
}

// ScheduleConfig holds booking calendar configuration.
type ScheduleConfig struct {
	MaxBookingsPerSlot int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// App config
	cfg.App.Env = getEnvOrDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Server config
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", "0.0.0.0")
	if cfg.Server.Port, err = getEnvAsInt("SERVER_PORT", 8080); err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}
	if cfg.Server.ReadTimeout, err = getEnvAsDuration("SERVER_READ_TIMEOUT", 5*time.Second); err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}
	if cfg.Server.WriteTimeout, err = getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second); err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}
	if cfg.Server.ShutdownTimeout, err = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}

	// Database config. Empty DB_HOST disables Postgres.
	cfg.Database.Host = os.Getenv("DB_HOST")
	if cfg.Database.Port, err = getEnvAsInt("DB_PORT", 5432); err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.User = getEnvOrDefault("DB_USER", "topclass")
	cfg.Database.Password = getEnvOrDefault("DB_PASSWORD", "")
	cfg.Database.DBName = getEnvOrDefault("DB_NAME", "topclass")
	cfg.Database.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")
	if cfg.Database.MaxOpenConns, err = getEnvAsInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.Database.MaxIdleConns, err = getEnvAsInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}
	if cfg.Database.ConnMaxLifetime, err = getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}

	// Redis config
	cfg.Redis.Host = getEnvOrDefault("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = getEnvAsInt("REDIS_PORT", 6379); err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", "")
	if cfg.Redis.DB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}
	if cfg.Redis.PoolSize, err = getEnvAsInt("REDIS_POOL_SIZE", 10); err != nil {
		return nil, fmt.Errorf("invalid REDIS_POOL_SIZE: %w", err)
	}

	// Rate limit config
	cfg.Rate.Backend = strings.ToLower(getEnvOrDefault("RATE_LIMIT_BACKEND", BackendMemory))
	if cfg.Rate.CleanupInterval, err = getEnvAsDuration("RATE_LIMIT_CLEANUP_INTERVAL", time.Minute); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_CLEANUP_INTERVAL: %w", err)
	}
	if cfg.Rate.TrustProxy, err = getEnvAsBool("RATE_LIMIT_TRUST_PROXY", false); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_TRUST_PROXY: %w", err)
	}
	cfg.Rate.AdminToken = os.Getenv("RATE_LIMIT_ADMIN_TOKEN")

	if cfg.Rate.Booking, err = loadLimit("BOOKING", 5, 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Rate.Form, err = loadLimit("FORM", 10, 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Rate.Photos, err = loadLimit("PHOTOS", 20, time.Hour); err != nil {
		return nil, err
	}

	// Schedule config
	if cfg.Schedule.MaxBookingsPerSlot, err = getEnvAsInt("SCHEDULE_MAX_BOOKINGS_PER_SLOT", 3); err != nil {
		return nil, fmt.Errorf("invalid SCHEDULE_MAX_BOOKINGS_PER_SLOT: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadLimit reads RATE_LIMIT_<name>_REQUESTS and RATE_LIMIT_<name>_WINDOW.
func loadLimit(name string, requests int, window time.Duration) (LimitConfig, error) {
	var lc LimitConfig
	var err error

	key := "RATE_LIMIT_" + name + "_REQUESTS"
	if lc.Requests, err = getEnvAsInt(key, requests); err != nil {
		return lc, fmt.Errorf("invalid %s: %w", key, err)
	}
	key = "RATE_LIMIT_" + name + "_WINDOW"
	if lc.Window, err = getEnvAsDuration(key, window); err != nil {
		return lc, fmt.Errorf("invalid %s: %w", key, err)
	}
	return lc, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error

	switch c.Rate.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown RATE_LIMIT_BACKEND %q", c.Rate.Backend))
	}

	for name, lc := range map[string]LimitConfig{
		"booking": c.Rate.Booking,
		"form":    c.Rate.Form,
		"photos":  c.Rate.Photos,
	} {
		if lc.Requests <= 0 {
			errs = append(errs, fmt.Errorf("%s rate limit requests must be positive", name))
		}
		if lc.Window <= 0 {
			errs = append(errs, fmt.Errorf("%s rate limit window must be positive", name))
		}
	}

	if c.Schedule.MaxBookingsPerSlot <= 0 {
		errs = append(errs, errors.New("max bookings per slot must be positive"))
	}

	return errors.Join(errs...)
}

// DatabaseEnabled returns true if database configuration is provided.
func (c *Config) DatabaseEnabled() bool {
	return c.Database.Host != ""
}

// RedisEnabled returns true if the Redis rate limit backend is selected.
func (c *Config) RedisEnabled() bool {
	return c.Rate.Backend == BackendRedis && c.Redis.Host != ""
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable as an integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(valueStr)
}

// getEnvAsDuration returns the environment variable as a duration.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(valueStr)
}

// getEnvAsBool returns the environment variable as a boolean.
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(valueStr)
}

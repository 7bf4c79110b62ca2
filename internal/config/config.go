// Package config provides configuration management for the enchantment resolver.
// It loads configuration from environment variables with defaults and validates it
// before the service starts.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: HTTP port for the admin API (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - STATS_LOG_SCHEDULE: cron spec for the periodic stats log (default: @every 5m, empty disables)
//
// Database Configuration:
//   - DATABASE_TYPE: "sqlite", "postgres" or "none" (default: sqlite)
//   - DATABASE_PATH: SQLite database file path (default: ./enchantments.db)
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_SSL_MODE
//
// Redis Configuration (optional, shares the cooldown between instances):
//   - REDIS_ADDRESS: Redis server address, empty disables Redis
//   - REDIS_PASSWORD, REDIS_DB (0-15), REDIS_POOL_SIZE
//
// Resolver:
//   - RESOLVER_PROFILE: "full" or "simple" (default: full)
//   - RESOLVER_SOURCE_URL: source URL template containing {key}
//   - RESOLVER_USER_AGENTS: comma separated identity pool
//   - RESOLVER_CACHE_TTL (168h), RESOLVER_MAX_CONCURRENT (3), RESOLVER_MIN_INTERVAL (500ms)
//   - RESOLVER_MAX_RETRIES (3), RESOLVER_RETRY_BASE (1s), RESOLVER_FETCH_TIMEOUT (10s)
//   - RESOLVER_COOLDOWN (60s)
//   - CIRCUIT_BREAKER_ENABLED (default: true)
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
//	settings := cfg.Resolver()
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseNone     = "none"

	ProfileFull   = "full"
	ProfileSimple = "simple"
)

// DefaultSourceURL is the enchantment lookup page; {key} is replaced by the enchantment id
const DefaultSourceURL = "https://www.wowhead.com/wotlk/?enchantment={key}"

// Config holds all configuration values. String fields mirror environment variables and
// are parsed by Validate and the typed accessors.
type Config struct {
	// Application settings
	Port             string
	LogLevel         string
	StatsLogSchedule string

	// Database configuration
	DatabaseType     string
	DatabasePath     string
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	// Redis configuration
	RedisAddress  string
	RedisPassword string
	RedisDB       string
	RedisPoolSize string

	// Resolver configuration
	ResolverProfile       string
	SourceURL             string
	UserAgents            string
	CacheTTL              string
	MaxConcurrent         string
	MinInterval           string
	MaxRetries            string
	RetryBase             string
	FetchTimeout          string
	CooldownPenalty       string
	CircuitBreakerEnabled bool
}

// ResolverSettings is the parsed resolver section of a validated Config
type ResolverSettings struct {
	Profile         string
	SourceURL       string
	UserAgents      []string
	CacheTTL        time.Duration
	MaxConcurrent   int
	MinInterval     time.Duration
	MaxRetries      int
	RetryBase       time.Duration
	FetchTimeout    time.Duration
	CooldownPenalty time.Duration
	CircuitBreaker  bool
}

// Load creates a Config from environment variables, using defaults for unset values.
// Call Validate on the result before use.
func Load() *Config {
	databaseType := strings.ToLower(getEnv("DATABASE_TYPE", DatabaseSQLite))
	if databaseType == "postgresql" {
		databaseType = DatabasePostgres
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		StatsLogSchedule: getEnvAllowEmpty("STATS_LOG_SCHEDULE", "@every 5m"),

		DatabaseType:     databaseType,
		DatabasePath:     getEnv("DATABASE_PATH", "./enchantments.db"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "enchantments"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		ResolverProfile:       strings.ToLower(getEnv("RESOLVER_PROFILE", ProfileFull)),
		SourceURL:             getEnv("RESOLVER_SOURCE_URL", DefaultSourceURL),
		UserAgents:            getEnv("RESOLVER_USER_AGENTS", ""),
		CacheTTL:              getEnv("RESOLVER_CACHE_TTL", "168h"),
		MaxConcurrent:         getEnv("RESOLVER_MAX_CONCURRENT", "3"),
		MinInterval:           getEnv("RESOLVER_MIN_INTERVAL", "500ms"),
		MaxRetries:            getEnv("RESOLVER_MAX_RETRIES", "3"),
		RetryBase:             getEnv("RESOLVER_RETRY_BASE", "1s"),
		FetchTimeout:          getEnv("RESOLVER_FETCH_TIMEOUT", "10s"),
		CooldownPenalty:       getEnv("RESOLVER_COOLDOWN", "60s"),
		CircuitBreakerEnabled: getBoolEnv("CIRCUIT_BREAKER_ENABLED", true),
	}
}

// getEnv returns the variable's value, or defaultValue when unset or empty
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty distinguishes an explicitly empty variable from an unset one
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// getBoolEnv accepts strconv.ParseBool values and falls back to defaultValue otherwise
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks every field and returns the first problem found
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.DatabaseType {
	case DatabaseSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when using SQLite")
		}
	case DatabasePostgres:
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	case DatabaseNone:
	default:
		return fmt.Errorf("DATABASE_TYPE must be 'sqlite', 'postgres' or 'none'")
	}

	if c.RedisAddress != "" {
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	}

	if c.ResolverProfile != ProfileFull && c.ResolverProfile != ProfileSimple {
		return fmt.Errorf("RESOLVER_PROFILE must be 'full' or 'simple'")
	}

	if !strings.Contains(c.SourceURL, "{key}") {
		return fmt.Errorf("RESOLVER_SOURCE_URL must contain the {key} placeholder")
	}
	if u, err := url.Parse(strings.ReplaceAll(c.SourceURL, "{key}", "1")); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("RESOLVER_SOURCE_URL must be an absolute http(s) URL")
	}

	positiveDurations := []struct{ name, value string }{
		{"RESOLVER_CACHE_TTL", c.CacheTTL},
		{"RESOLVER_RETRY_BASE", c.RetryBase},
		{"RESOLVER_FETCH_TIMEOUT", c.FetchTimeout},
		{"RESOLVER_COOLDOWN", c.CooldownPenalty},
	}
	for _, d := range positiveDurations {
		if parsed, err := time.ParseDuration(d.value); err != nil || parsed <= 0 {
			return fmt.Errorf("%s must be a positive duration (e.g. '500ms', '10s')", d.name)
		}
	}
	if parsed, err := time.ParseDuration(c.MinInterval); err != nil || parsed < 0 {
		return fmt.Errorf("RESOLVER_MIN_INTERVAL must be a non-negative duration")
	}

	if n, err := strconv.Atoi(c.MaxConcurrent); err != nil || n < 1 {
		return fmt.Errorf("RESOLVER_MAX_CONCURRENT must be a positive number")
	}
	if n, err := strconv.Atoi(c.MaxRetries); err != nil || n < 0 {
		return fmt.Errorf("RESOLVER_MAX_RETRIES must be zero or a positive number")
	}

	if c.StatsLogSchedule != "" {
		if _, err := cron.ParseStandard(c.StatsLogSchedule); err != nil {
			return fmt.Errorf("STATS_LOG_SCHEDULE is not a valid cron spec: %v", err)
		}
	}

	return nil
}

// Resolver returns the parsed resolver settings. Values that fail to parse fall back to
// their defaults, so call Validate first to surface them.
func (c *Config) Resolver() ResolverSettings {
	return ResolverSettings{
		Profile:         c.ResolverProfile,
		SourceURL:       c.SourceURL,
		UserAgents:      splitList(c.UserAgents),
		CacheTTL:        durationOr(c.CacheTTL, 7*24*time.Hour),
		MaxConcurrent:   intOr(c.MaxConcurrent, 3),
		MinInterval:     durationOr(c.MinInterval, 500*time.Millisecond),
		MaxRetries:      intOr(c.MaxRetries, 3),
		RetryBase:       durationOr(c.RetryBase, time.Second),
		FetchTimeout:    durationOr(c.FetchTimeout, 10*time.Second),
		CooldownPenalty: durationOr(c.CooldownPenalty, 60*time.Second),
		CircuitBreaker:  c.CircuitBreakerEnabled,
	}
}

// RedisDBNumber returns REDIS_DB as an int
func (c *Config) RedisDBNumber() int {
	return intOr(c.RedisDB, 0)
}

// RedisPoolSizeNumber returns REDIS_POOL_SIZE as an int
func (c *Config) RedisPoolSizeNumber() int {
	return intOr(c.RedisPoolSize, 10)
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	return fallback
}

func intOr(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}

func splitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	SourceTrackbase = "trackbase"
	SourcePostgres  = "postgres"
)

type Config struct {
	App       AppConfig
	Trackbase TrackbaseConfig
	Source    SourceConfig
	Database  DatabaseConfig
	Cron      CronConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
	StaticDir      string
}

// TrackbaseConfig holds the upstream attendance API settings
type TrackbaseConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RateLimit       float64
	RateBurst       int
	BreakerFailures int
	BreakerTimeout  time.Duration
	EntryRetryDelay time.Duration
}

type SourceConfig struct {
	// Driver is "trackbase" (default) or "postgres"
	Driver string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type CronConfig struct {
	StaleSessionInterval time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	} else if err != nil {
		slog.Debug("No .env file found, using environment only")
	}

	config := &Config{}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "Local"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		StaticDir:      getEnv("STATIC_DIR", ""),
	}

	// Upstream configuration
	timeout, err := getEnvDuration("TRACKBASE_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	rateLimit, err := strconv.ParseFloat(getEnv("TRACKBASE_RATE_LIMIT", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TRACKBASE_RATE_LIMIT: %w", err)
	}
	rateBurst, err := strconv.Atoi(getEnv("TRACKBASE_RATE_BURST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRACKBASE_RATE_BURST: %w", err)
	}
	breakerFailures, err := strconv.Atoi(getEnv("TRACKBASE_BREAKER_FAILURES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRACKBASE_BREAKER_FAILURES: %w", err)
	}
	breakerTimeout, err := getEnvDuration("TRACKBASE_BREAKER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	entryRetryDelay, err := getEnvDuration("ENTRY_RETRY_DELAY", "0s")
	if err != nil {
		return nil, err
	}

	config.Trackbase = TrackbaseConfig{
		BaseURL:         strings.TrimRight(getEnv("TRACKBASE_BASE_URL", "https://trackbase.onrender.com"), "/"),
		Timeout:         timeout,
		RateLimit:       rateLimit,
		RateBurst:       rateBurst,
		BreakerFailures: breakerFailures,
		BreakerTimeout:  breakerTimeout,
		EntryRetryDelay: entryRetryDelay,
	}

	config.Source = SourceConfig{
		Driver: strings.ToLower(getEnv("ATTENDANCE_SOURCE", SourceTrackbase)),
	}

	// Database configuration, only used by the postgres source
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "trackbase"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}

	staleInterval, err := getEnvDuration("STALE_SESSION_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	config.Cron = CronConfig{
		StaleSessionInterval: staleInterval,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT must be between 1 and 65535")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	if u, err := url.Parse(c.Trackbase.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("TRACKBASE_BASE_URL must be an absolute URL")
	}
	if c.Trackbase.RateLimit <= 0 || c.Trackbase.RateBurst <= 0 {
		return fmt.Errorf("TRACKBASE_RATE_LIMIT and TRACKBASE_RATE_BURST must be positive")
	}
	if c.Trackbase.BreakerFailures <= 0 {
		return fmt.Errorf("TRACKBASE_BREAKER_FAILURES must be positive")
	}

	switch c.Source.Driver {
	case SourceTrackbase:
	case SourcePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required when ATTENDANCE_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("unsupported ATTENDANCE_SOURCE %q", c.Source.Driver)
	}
	return nil
}

// Location resolves APP_TIMEZONE. "Local" is the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" || c.App.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.App.Timezone)
}

// LogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return dsn.String()
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string, fallback []string) []string {
	value := getEnv(env, "")
	if value == "" {
		return fallback
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

func getEnvDuration(env, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(env, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", env, err)
	}
	return d, nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	Admin  AdminConfig
	Daraja DarajaConfig
	Ledger LedgerConfig
	DB     DatabaseConfig
	Redis  RedisConfig
}

// AdminConfig contains the admin login credential. PasswordHash is a bcrypt
// hash, never the plaintext password.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// DarajaConfig contains gateway credentials and environment selection.
type DarajaConfig struct {
	ConsumerKey       string
	ConsumerSecret    string
	BusinessShortCode string
	PassKey           string
	Environment       string
	InitiatorName     string
	InitiatorPassword string
	BaseURL           string
}

// LedgerConfig selects the pending-record store and stale classification.
type LedgerConfig struct {
	Driver             string // memory, redis, or postgres
	StaleCheckInterval time.Duration
	StaleMaxAge        time.Duration
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Admin credential
	cfg.Admin = AdminConfig{
		Username:     getEnv("ADMIN_USERNAME", "admin"),
		PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
	}

	// Daraja gateway
	cfg.Daraja = DarajaConfig{
		ConsumerKey:       getEnv("DARAJA_CONSUMER_KEY", ""),
		ConsumerSecret:    getEnv("DARAJA_CONSUMER_SECRET", ""),
		BusinessShortCode: getEnv("DARAJA_BUSINESS_SHORT_CODE", ""),
		PassKey:           getEnv("DARAJA_PASS_KEY", ""),
		Environment:       getEnv("DARAJA_ENVIRONMENT", "sandbox"),
		InitiatorName:     getEnv("DARAJA_INITIATOR_NAME", ""),
		InitiatorPassword: getEnv("DARAJA_INITIATOR_PASSWORD", ""),
		BaseURL:           getEnv("DARAJA_BASE_URL", ""),
	}

	// Ledger storage
	cfg.Ledger.Driver = getEnv("LEDGER_DRIVER", "memory")

	// Database (required only for the postgres ledger driver)
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis (required only for the redis ledger driver)
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Stale classification (durations)
	var err error
	if cfg.Ledger.StaleCheckInterval, err = parseDurationEnv("STALE_CHECK_INTERVAL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid STALE_CHECK_INTERVAL: %w", err)
	}
	if cfg.Ledger.StaleMaxAge, err = parseDurationEnv("STALE_MAX_AGE", "5m"); err != nil {
		return nil, fmt.Errorf("invalid STALE_MAX_AGE: %w", err)
	}

	// Validate gateway credentials — concise and helpful messages.
	if cfg.Daraja.ConsumerKey == "" || cfg.Daraja.ConsumerSecret == "" {
		return nil, errors.New("gateway configuration incomplete: ensure DARAJA_CONSUMER_KEY and DARAJA_CONSUMER_SECRET are set")
	}
	if cfg.Daraja.BusinessShortCode == "" || cfg.Daraja.PassKey == "" {
		return nil, errors.New("gateway configuration incomplete: ensure DARAJA_BUSINESS_SHORT_CODE and DARAJA_PASS_KEY are set")
	}
	if cfg.Daraja.Environment != "sandbox" && cfg.Daraja.Environment != "production" {
		return nil, fmt.Errorf("DARAJA_ENVIRONMENT must be sandbox or production, got %q", cfg.Daraja.Environment)
	}

	switch cfg.Ledger.Driver {
	case "memory", "redis":
	case "postgres":
		if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
			return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
		}
	default:
		return nil, fmt.Errorf("LEDGER_DRIVER must be memory, redis, or postgres, got %q", cfg.Ledger.Driver)
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported primary store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken     string
	TelegramEndpoint  string
	PrimaryAdminID    int64
	StoreDriver       string
	DatabaseURL       string
	DataDir           string
	LogLevel          string
	Port              string
	PollTimeout       int
	BroadcastDelay    time.Duration
	KeepAliveURL      string
	KeepAliveInterval time.Duration
	DonateURL         string
	SupportContact    string
}

// Load loads configuration from environment variables, reading a .env file
// first when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramEndpoint: os.Getenv("TELEGRAM_API_ENDPOINT"),
		StoreDriver:      strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverPostgres)),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DataDir:          getEnvOrDefault("DATA_DIR", "data"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		Port:             getEnvOrDefault("PORT", "8080"),
		KeepAliveURL:     strings.TrimSpace(os.Getenv("KEEPALIVE_URL")),
		DonateURL:        getEnvOrDefault("DONATE_URL", "https://tirikchilik.uz/codermrx"),
		SupportContact:   getEnvOrDefault("SUPPORT_CONTACT", "@codermrxbot"),
	}

	// Required environment variables
	if cfg.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")); cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN environment variable is required")
	}

	rawAdmin := strings.TrimSpace(os.Getenv("PRIMARY_ADMIN_ID"))
	if rawAdmin == "" {
		return nil, fmt.Errorf("PRIMARY_ADMIN_ID environment variable is required")
	}
	adminID, err := strconv.ParseInt(rawAdmin, 10, 64)
	if err != nil || adminID <= 0 {
		return nil, fmt.Errorf("PRIMARY_ADMIN_ID must be a positive integer, got %q", rawAdmin)
	}
	cfg.PrimaryAdminID = adminID

	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, cfg.StoreDriver)
	}

	if cfg.PollTimeout, err = getIntOrDefault("POLL_TIMEOUT", 30); err != nil {
		return nil, err
	}
	if cfg.BroadcastDelay, err = getDurationOrDefault("BROADCAST_DELAY", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.KeepAliveInterval, err = getDurationOrDefault("KEEPALIVE_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return v, nil
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative duration, got %q", key, raw)
	}
	return v, nil
}

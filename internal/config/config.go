package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type AppConfig struct {
	Port string
	// APIPrefix is prepended to every routed endpoint, e.g. "/api/v1".
	APIPrefix string

	StoreDriver      string
	DatabaseURI      string
	DatabaseName     string
	DBConnectTimeout time.Duration

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// OrphanAuditInterval controls the orphan weather audit job (0 = disabled).
	OrphanAuditInterval time.Duration

	LogLevel string
	Env      string
}

// LoadEnvFile reads the env file at path into the process environment. Variables that
// are already set win. A missing file is reported but callers may carry on without it.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from environment variables with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:         getenvDefault("PORT", "5000"),
		APIPrefix:    normalizePrefix(getenvDefault("API", "/api/v1")),
		StoreDriver:  strings.ToLower(getenvDefault("STORE_DRIVER", DriverMongo)),
		DatabaseURI:  os.Getenv("DATABASE_URI"),
		DatabaseName: getenvDefault("DATABASE_NAME", "weather"),
		LogLevel:     getenvDefault("LOG_LEVEL", "info"),
		Env:          getenvDefault("APP_ENV", "development"),
	}

	var err error
	if cfg.DBConnectTimeout, err = getenvDuration("DB_CONNECT_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getenvDuration("REQUEST_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.OrphanAuditInterval, err = getenvDuration("ORPHAN_AUDIT_INTERVAL", "1h"); err != nil {
		return nil, err
	}

	switch cfg.StoreDriver {
	case DriverMongo:
		if cfg.DatabaseURI == "" {
			return nil, fmt.Errorf("DATABASE_URI is required when STORE_DRIVER=%s", DriverMongo)
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want %s or %s", cfg.StoreDriver, DriverMongo, DriverMemory)
	}

	return cfg, nil
}

// normalizePrefix makes sure the prefix starts with a slash and has no trailing one.
func normalizePrefix(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

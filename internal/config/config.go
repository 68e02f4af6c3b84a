package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	Sources  SourcesConfig
	Engine   EngineConfig
	Database DatabaseConfig
	HTTP     HTTPConfig
	Logging  LoggingConfig
}

// SourcesConfig points at the three raw inputs.
type SourcesConfig struct {
	CRMPath      string
	PaymentsPath string
	VerifiedPath string // CSV snapshot of the verified-stats table; ignored when the database is configured
}

// EngineConfig tunes the reconciliation rules.
type EngineConfig struct {
	DormancyThresholdDays int // strict activity window
	StaleThresholdDays    int // beyond this, dormant
	PartialMatchThreshold float64
	UpsellRecipeCeiling   int
	MatchWorkers          int
}

// DatabaseConfig describes the optional live connection for the
// verified-stats source.
type DatabaseConfig struct {
	DSN             string
	Table           string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOriginsCSV string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // console|json
}

const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 8080
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLoggingLevel    = "info"
	defaultLoggingFormat   = "console"
	defaultDormancyDays    = 30
	defaultStaleDays       = 90
	defaultPartialThreshold = 0.5
	defaultUpsellCeiling   = 30
	defaultMatchWorkers    = 4
	defaultVerifiedTable   = "verified_licenses"
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Sources: SourcesConfig{
			CRMPath:      valueOrDefault("RECON_CRM_PATH", "./data/crm_export.csv"),
			PaymentsPath: valueOrDefault("RECON_PAYMENTS_PATH", "./data/payments_export.csv"),
			VerifiedPath: valueOrDefault("RECON_VERIFIED_PATH", "./data/verified_licenses.csv"),
		},
		Engine: EngineConfig{
			DormancyThresholdDays: parseIntWithDefault("RECON_DORMANCY_DAYS", defaultDormancyDays),
			StaleThresholdDays:    parseIntWithDefault("RECON_STALE_DAYS", defaultStaleDays),
			PartialMatchThreshold: parseFloatWithDefault("RECON_PARTIAL_MATCH_THRESHOLD", defaultPartialThreshold),
			UpsellRecipeCeiling:   parseIntWithDefault("RECON_UPSELL_RECIPE_CEILING", defaultUpsellCeiling),
			MatchWorkers:          parseIntWithDefault("RECON_MATCH_WORKERS", defaultMatchWorkers),
		},
		Database: DatabaseConfig{
			DSN:             os.Getenv("RECON_DB_DSN"),
			Table:           valueOrDefault("RECON_DB_TABLE", defaultVerifiedTable),
			MaxOpenConns:    parseIntWithDefault("RECON_DB_MAX_OPEN_CONNS", 5),
			ConnMaxLifetime: 10 * time.Minute,
		},
		HTTP: HTTPConfig{
			Host:              valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:       defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
			ShutdownTimeout:   defaultShutdownTimeout,
			AllowedOriginsCSV: os.Getenv("SERVER_ALLOWED_ORIGINS"),
		},
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format: valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.HTTP.ShutdownTimeout = d
	}

	if cfg.Engine.DormancyThresholdDays <= 0 {
		return Config{}, fmt.Errorf("RECON_DORMANCY_DAYS must be positive, got %d", cfg.Engine.DormancyThresholdDays)
	}
	if cfg.Engine.StaleThresholdDays < cfg.Engine.DormancyThresholdDays {
		return Config{}, fmt.Errorf("RECON_STALE_DAYS (%d) must be >= RECON_DORMANCY_DAYS (%d)",
			cfg.Engine.StaleThresholdDays, cfg.Engine.DormancyThresholdDays)
	}

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parseFloatWithDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseFloat(v, 64); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory    = "memory"
	BackendXLSX      = "xlsx"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

type Config struct {
	Addr                string        `yaml:"addr"`
	Environment         string        `yaml:"environment"`
	LogLevel            string        `yaml:"log_level"`
	TimeZone            string        `yaml:"time_zone"`
	LedgerBackend       string        `yaml:"ledger_backend"`
	WorkbookPath        string        `yaml:"workbook_path"`
	SQLitePath          string        `yaml:"sqlite_path"`
	DatabaseURL         string        `yaml:"database_url"`
	RunMigrations       bool          `yaml:"run_migrations"`
	MigrationsDir       string        `yaml:"migrations_dir"`
	FirestoreProject    string        `yaml:"firestore_project"`
	FirestoreCollection string        `yaml:"firestore_collection"`
	JWTSecret           string        `yaml:"jwt_secret"`
	AdminPasswordHash   string        `yaml:"admin_password_hash"`
	TokenTTL            time.Duration `yaml:"token_ttl"`
	MaxBodyBytes        int64         `yaml:"max_body_bytes"`
	RateLimitPerMinute  int           `yaml:"rate_limit_per_minute"`
	MetricsEnabled      bool          `yaml:"metrics_enabled"`
	DefaultProject      string        `yaml:"default_project"`
	RecentRecords       int           `yaml:"recent_records"`
}

func Default() Config {
	return Config{
		Addr:                ":8080",
		Environment:         "development",
		LogLevel:            "info",
		TimeZone:            "Africa/Maputo",
		LedgerBackend:       BackendXLSX,
		WorkbookPath:        "data/timesheet.xlsx",
		SQLitePath:          "data/timesheet.db",
		RunMigrations:       true,
		MigrationsDir:       "migrations",
		FirestoreCollection: "ledgers",
		TokenTTL:            12 * time.Hour,
		MaxBodyBytes:        1048576,
		RateLimitPerMinute:  60,
		MetricsEnabled:      true,
		DefaultProject:      "--",
		RecentRecords:       20,
	}
}

// Load builds the config from defaults, then the YAML file named by
// TIMESHEET_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("TIMESHEET_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	return applyEnv(cfg), nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse YAML config: %w", err)
	}
	return nil
}

func applyEnv(cfg Config) Config {
	cfg.Addr = getEnv("APP_ADDR", cfg.Addr)
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.TimeZone = getEnv("TIME_ZONE", cfg.TimeZone)
	cfg.LedgerBackend = strings.ToLower(getEnv("LEDGER_BACKEND", cfg.LedgerBackend))
	cfg.WorkbookPath = getEnv("WORKBOOK_PATH", cfg.WorkbookPath)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", cfg.RunMigrations)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.FirestoreProject = getEnv("FIRESTORE_PROJECT", cfg.FirestoreProject)
	cfg.FirestoreCollection = getEnv("FIRESTORE_COLLECTION", cfg.FirestoreCollection)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.AdminPasswordHash = getEnv("ADMIN_PASSWORD_HASH", cfg.AdminPasswordHash)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.TokenTTL)
	cfg.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))
	cfg.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.DefaultProject = getEnv("DEFAULT_PROJECT", cfg.DefaultProject)
	cfg.RecentRecords = getEnvInt("RECENT_RECORDS", cfg.RecentRecords)
	return cfg
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIME_ZONE %q is not a known zone: %w", c.TimeZone, err)
	}
	switch c.LedgerBackend {
	case BackendMemory:
	case BackendXLSX:
		if strings.TrimSpace(c.WorkbookPath) == "" {
			return fmt.Errorf("WORKBOOK_PATH is required for the xlsx backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	case BackendFirestore:
		if strings.TrimSpace(c.FirestoreProject) == "" {
			return fmt.Errorf("FIRESTORE_PROJECT is required for the firestore backend")
		}
	default:
		return fmt.Errorf("LEDGER_BACKEND %q is not supported", c.LedgerBackend)
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set in production to protect ledger exports")
	}
	if strings.TrimSpace(c.AdminPasswordHash) != "" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set when ADMIN_PASSWORD_HASH is configured")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.RecentRecords <= 0 {
		return fmt.Errorf("RECENT_RECORDS must be positive")
	}
	return nil
}

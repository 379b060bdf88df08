package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	Analysis    AnalysisConfig
	Catalog     CatalogConfig
	OTEL        OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	Enabled bool
	URL     string
	APIKey  string
}

// AnalysisConfig holds the default analysis parameters
type AnalysisConfig struct {
	WindowDays      int
	MinIntensity    int
	MinExposureDays int
	Crisis          string
	CrisisThreshold int
	LookbackDays    int
	MinBaseDays     int
	MaxListed       int
	CacheTTLSeconds int
	Timezone        string
}

// CatalogConfig points at the item catalog
type CatalogConfig struct {
	// Path to a YAML catalog; empty uses the built-in one.
	Path string
	// Watch reloads the catalog into the store when the file changes.
	Watch bool
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
	LogsEnabled    bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(getEnv("STORE_DRIVER", StoreDriverSQLite)),
			SQLitePath: getEnv("SQLITE_PATH", "diario.db"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "porto_seguro"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			Enabled: getEnvAsBool("TYPESENSE_ENABLED", false),
			URL:     getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:  getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		Analysis: AnalysisConfig{
			WindowDays:      getEnvAsInt("ANALYSIS_WINDOW_DAYS", 1),
			MinIntensity:    getEnvAsInt("ANALYSIS_MIN_INTENSITY", 1),
			MinExposureDays: getEnvAsInt("ANALYSIS_MIN_EXPOSURE_DAYS", 4),
			Crisis:          strings.ToLower(getEnv("ANALYSIS_CRISIS", "general")),
			CrisisThreshold: getEnvAsInt("CRISIS_THRESHOLD", 5),
			LookbackDays:    getEnvAsInt("SAFE_HARBOR_LOOKBACK_DAYS", 3),
			MinBaseDays:     getEnvAsInt("ANALYSIS_MIN_BASE_DAYS", 7),
			MaxListed:       getEnvAsInt("ANALYSIS_MAX_LISTED", 15),
			CacheTTLSeconds: getEnvAsInt("ANALYSIS_CACHE_TTL", 300),
			Timezone:        getEnv("DIARY_TIMEZONE", "UTC"),
		},
		Catalog: CatalogConfig{
			Path:  getEnv("CATALOG_PATH", ""),
			Watch: getEnvAsBool("CATALOG_WATCH", false),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "porto-seguro"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			LogsEnabled:    getEnvAsBool("OTEL_LOGS_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted silently
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverPostgres, StoreDriverSQLite:
	default:
		return fmt.Errorf("config: unsupported STORE_DRIVER %q", c.Store.Driver)
	}
	if _, err := c.Analysis.Location(); err != nil {
		return fmt.Errorf("config: invalid DIARY_TIMEZONE %q: %w", c.Analysis.Timezone, err)
	}
	return nil
}

// Location resolves the diary timezone
func (c *AnalysisConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// CacheTTL returns the report cache TTL
func (c *AnalysisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

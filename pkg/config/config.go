package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application. Environment
// variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data
	Data DataConfig

	// Snapshots
	Snapshot SnapshotConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Strategy
	StrategyFile string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DataConfig selects where price history comes from.
type DataConfig struct {
	Source     string // postgres or parquet
	ParquetDir string
}

// SnapshotConfig selects where daily snapshots are persisted.
type SnapshotConfig struct {
	Store string // file or postgres
	Dir   string
}

// SchedulerConfig drives the daily snapshot capture job.
type SchedulerConfig struct {
	SnapshotCron string
	Universe     []string
}

// Load reads configuration from environment variables. Only this
// function calls os.Getenv.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "argos"),
			User:            getEnv("DB_USER", "argos"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// Market data
		Data: DataConfig{
			Source:     getEnv("DATA_SOURCE", "postgres"),
			ParquetDir: getEnv("PARQUET_DIR", "data/parquet"),
		},

		// Snapshots
		Snapshot: SnapshotConfig{
			Store: getEnv("SNAPSHOT_STORE", "file"),
			Dir:   getEnv("SNAPSHOT_DIR", "data/snapshots"),
		},

		// Scheduler: capture after the US close, weekdays.
		Scheduler: SchedulerConfig{
			SnapshotCron: getEnv("SNAPSHOT_CRON", "0 0 18 * * MON-FRI"),
			Universe:     getEnvAsList("UNIVERSE", nil),
		},

		// Strategy
		StrategyFile: getEnv("STRATEGY_FILE", "config/strategy/us_tech_v1.yaml"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Data.Source {
	case "postgres", "parquet":
	default:
		return fmt.Errorf("DATA_SOURCE must be postgres or parquet, got %q", c.Data.Source)
	}

	switch c.Snapshot.Store {
	case "file", "postgres":
	default:
		return fmt.Errorf("SNAPSHOT_STORE must be file or postgres, got %q", c.Snapshot.Store)
	}

	// The database is only required when something is configured to use it.
	needsDB := c.Data.Source == "postgres" || c.Snapshot.Store == "postgres"
	if needsDB && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when DATA_SOURCE or SNAPSHOT_STORE is postgres")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma-separated variable, trimming blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

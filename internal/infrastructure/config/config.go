package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Server  ServerConfig
	Catalog CatalogConfig
	OTLP    OTLPConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
	// DurationMillis enables the extra millisecond request duration histogram
	DurationMillis bool
}

type CatalogConfig struct {
	// SourceURL is the remote listing used to seed the catalog. Empty disables the initial load.
	SourceURL         string
	SourceTimeout     time.Duration
	SourceMaxAttempts uint
	NodeID            int64
}

type OTLPConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
}

type LogConfig struct {
	Level slog.Level
}

// Load reads an optional .env file and then builds the configuration from
// environment variables. Variables already set in the environment win.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	return LoadConfig(), nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			DurationMillis:  getEnvBool("METRICS_DURATION_MS", false),
		},
		Catalog: CatalogConfig{
			SourceURL:         getEnv("CATALOG_SOURCE_URL", ""),
			SourceTimeout:     getEnvDuration("CATALOG_SOURCE_TIMEOUT", 5*time.Second),
			SourceMaxAttempts: uint(getEnvInt("CATALOG_SOURCE_MAX_ATTEMPTS", 3)),
			NodeID:            int64(getEnvInt("CATALOG_NODE_ID", 1)),
		},
		OTLP: OTLPConfig{
			Enabled:     getEnvBool("OTEL_ENABLED", true),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "catalog-api"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
		},
		Log: LogConfig{
			Level: parseLevel(getEnv("LOG_LEVEL", "info")),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := cast.ToIntE(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := cast.ToDurationE(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

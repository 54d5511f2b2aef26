package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "CATALOG_SOURCE_URL", "CATALOG_SOURCE_TIMEOUT",
		"CATALOG_SOURCE_MAX_ATTEMPTS", "OTEL_ENABLED", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Empty(t, cfg.Catalog.SourceURL)
	assert.Equal(t, 5*time.Second, cfg.Catalog.SourceTimeout)
	assert.Equal(t, uint(3), cfg.Catalog.SourceMaxAttempts)
	assert.True(t, cfg.OTLP.Enabled)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("CATALOG_SOURCE_URL", "http://example.test/products")
	t.Setenv("CATALOG_SOURCE_TIMEOUT", "750ms")
	t.Setenv("CATALOG_SOURCE_MAX_ATTEMPTS", "5")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()

	assert.Equal(t, "http://example.test/products", cfg.Catalog.SourceURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Catalog.SourceTimeout)
	assert.Equal(t, uint(5), cfg.Catalog.SourceMaxAttempts)
	assert.False(t, cfg.OTLP.Enabled)
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("CATALOG_SOURCE_TIMEOUT", "soon")
	t.Setenv("CATALOG_SOURCE_MAX_ATTEMPTS", "-2")
	t.Setenv("OTEL_ENABLED", "maybe")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := LoadConfig()

	assert.Equal(t, 5*time.Second, cfg.Catalog.SourceTimeout)
	assert.Equal(t, uint(3), cfg.Catalog.SourceMaxAttempts)
	assert.True(t, cfg.OTLP.Enabled)
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	// godotenv never overrides variables that are already present
	t.Setenv("SERVER_PORT", "")
	require.NoError(t, os.Unsetenv("SERVER_PORT"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9191\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9191", cfg.Server.Port)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

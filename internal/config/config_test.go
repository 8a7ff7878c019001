package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tonto.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, []string{"**/*.tonto"}, c.Include)
	assert.Equal(t, 20, c.BatchSize)
	assert.Equal(t, 100*time.Millisecond, c.Debounce())
	assert.NotEmpty(t, c.DBPath)
}

func TestLoad_NoFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().HTTPAddr, c.HTTPAddr)
}

func TestLoad_YAML(t *testing.T) {
	path := writeYAML(t, `
db_path: /tmp/onto.db
log_level: debug
workers: 3
include:
  - "models/**/*.tonto"
exclude:
  - "models/drafts/**"
debounce_ms: 250
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/onto.db", c.DBPath)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, []string{"models/**/*.tonto"}, c.Include)
	assert.Equal(t, []string{"models/drafts/**"}, c.Exclude)
	assert.Equal(t, 250*time.Millisecond, c.Debounce())
	// untouched fields keep their defaults
	assert.Equal(t, 20, c.BatchSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "workers: 3\nlog_level: debug\n")
	t.Setenv("TONTO_WORKERS", "7")
	t.Setenv("TONTO_LOG_LEVEL", "WARN")
	t.Setenv("TONTO_INCLUDE", "a/*.tonto, b/**/*.tonto,")
	t.Setenv("TONTO_DB_PATH", ":memory:")
	t.Setenv("TONTO_HTTP_ADDR", "localhost:9090")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Workers)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, []string{"a/*.tonto", "b/**/*.tonto"}, c.Include)
	assert.Equal(t, ":memory:", c.DBPath)
	assert.Equal(t, "localhost:9090", c.HTTPAddr)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeYAML(t, "workers: [1, 2"))
		assert.Error(t, err)
	})

	t.Run("non-integer env", func(t *testing.T) {
		t.Setenv("TONTO_BATCH_SIZE", "many")
		_, err := Load("")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("invalid value", func(t *testing.T) {
		_, err := Load(writeYAML(t, "log_level: loud\n"))
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), "LogLevel")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"empty include", func(c *Config) { c.Include = nil }},
		{"blank include pattern", func(c *Config) { c.Include = []string{""} }},
		{"missing db path", func(c *Config) { c.DBPath = "" }},
		{"bad http addr", func(c *Config) { c.HTTPAddr = "not an address" }},
		{"zero cache", func(c *Config) { c.CacheSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tonto.yaml")
	c := Default()
	c.Workers = 5
	c.Exclude = []string{"tmp/**"}
	require.NoError(t, c.SaveToFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	c := Default()
	c.LogLevel = "warn"
	logger := c.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "file", "a.tonto")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "file=a.tonto")
}

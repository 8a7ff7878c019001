// Package config loads the tonto configuration.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// TONTO_* environment variables (a .env file in the working directory is
// loaded into the environment first). The result is checked with validator
// struct tags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete tonto configuration
type Config struct {
	// DBPath is the SQLite database file; ":memory:" keeps the index in memory
	DBPath   string `yaml:"db_path" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Indexing
	Workers   int      `yaml:"workers" validate:"min=1,max=256"`
	BatchSize int      `yaml:"batch_size" validate:"min=1,max=10000"`
	Include   []string `yaml:"include" validate:"min=1,dive,required"`
	Exclude   []string `yaml:"exclude" validate:"dive,required"`

	// HTTPAddr is the listen address of serve-http
	HTTPAddr string `yaml:"http_addr" validate:"required,hostname_port"`

	// CacheSize is the number of cached search responses
	CacheSize int `yaml:"cache_size" validate:"min=1"`

	// DebounceMS is the watcher's quiet period in milliseconds
	DebounceMS int `yaml:"debounce_ms" validate:"min=1,max=60000"`
}

// Default returns a Config with the built-in defaults
func Default() *Config {
	return &Config{
		DBPath:     defaultDBPath(),
		LogLevel:   "info",
		Workers:    runtime.NumCPU(),
		BatchSize:  20,
		Include:    []string{"**/*.tonto"},
		Exclude:    nil,
		HTTPAddr:   "127.0.0.1:8080",
		CacheSize:  1000,
		DebounceMS: 100,
	}
}

// defaultDBPath keeps the index under the user's cache directory, falling
// back to the working directory
func defaultDBPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "tonto.db"
	}
	return filepath.Join(dir, "tonto", "index.db")
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips the file layer.
func Load(path string) (*Config, error) {
	// A missing .env is not an error
	_ = godotenv.Load()

	config := Default()
	if path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv overrides fields from TONTO_* environment variables
func (c *Config) applyEnv() error {
	c.DBPath = getEnv("TONTO_DB_PATH", c.DBPath)
	c.LogLevel = strings.ToLower(getEnv("TONTO_LOG_LEVEL", c.LogLevel))
	c.HTTPAddr = getEnv("TONTO_HTTP_ADDR", c.HTTPAddr)
	c.Include = getEnvList("TONTO_INCLUDE", c.Include)
	c.Exclude = getEnvList("TONTO_EXCLUDE", c.Exclude)

	var err error
	if c.Workers, err = getEnvInt("TONTO_WORKERS", c.Workers); err != nil {
		return err
	}
	if c.BatchSize, err = getEnvInt("TONTO_BATCH_SIZE", c.BatchSize); err != nil {
		return err
	}
	if c.CacheSize, err = getEnvInt("TONTO_CACHE_SIZE", c.CacheSize); err != nil {
		return err
	}
	if c.DebounceMS, err = getEnvInt("TONTO_DEBOUNCE_MS", c.DebounceMS); err != nil {
		return err
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Debounce returns DebounceMS as a duration
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// SaveToFile writes the configuration as YAML
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ParseLevel maps a configured level name to a slog level
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalid, level)
	}
	return l, nil
}

// NewLogger returns a text logger at the configured level. Output goes to w,
// which is stderr for every command since stdout carries the MCP protocol.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, value)
	}
	return n, nil
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

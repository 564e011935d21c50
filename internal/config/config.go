// Package config loads taskmesh settings from defaults, a .env file, an
// optional YAML file and TASKMESH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TASKMESH"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Model providers.
const (
	ProviderNone      = ""
	ProviderScripted  = "scripted"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the root configuration.
type Config struct {
	Environment string        `yaml:"environment" split_words:"true"`
	Storage     StorageConfig `yaml:"storage"`
	Log         LogConfig     `yaml:"log"`
	Model       ModelConfig   `yaml:"model"`
}

// StorageConfig selects the task store.
type StorageConfig struct {
	Backend string `yaml:"backend" split_words:"true"`
	Path    string `yaml:"path" split_words:"true"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"`
	Output string `yaml:"output" split_words:"true"`
}

// ModelConfig configures the optional chat model. An empty provider
// disables the chat agent.
type ModelConfig struct {
	Provider      string  `yaml:"provider" split_words:"true"`
	Name          string  `yaml:"name" split_words:"true"`
	APIKey        string  `yaml:"api_key" split_words:"true"`
	Temperature   float64 `yaml:"temperature" split_words:"true"`
	MaxTokens     int     `yaml:"max_tokens" split_words:"true"`
	MaxIterations int     `yaml:"max_iterations" split_words:"true"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Environment: "development",
		Storage:     StorageConfig{Backend: BackendSQLite, Path: "taskmesh.db"},
		Log:         LogConfig{Level: "warn", Format: "text", Output: "stderr"},
		Model:       ModelConfig{Temperature: 0.2, MaxTokens: 1024, MaxIterations: 8},
	}
}

// Load builds the configuration. path names an optional YAML file; a
// missing file is an error only when path was given explicitly. A .env file
// in the working directory is loaded first without overriding variables
// that are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from TASKMESH_<GROUP>_<FIELD> variables, for
// example TASKMESH_STORAGE_BACKEND or TASKMESH_MODEL_API_KEY. Unset
// variables leave the current value alone.
func (c *Config) applyEnv() error {
	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}
	return nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.Storage.Path) == "" {
			return core.NewValidationError("storage.path", "sqlite backend requires a path")
		}
	default:
		return core.NewValidationError("storage.backend", fmt.Sprintf("unknown storage backend %q", c.Storage.Backend))
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return core.NewValidationError("log.level", err.Error())
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return core.NewValidationError("log.format", fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	switch strings.ToLower(c.Log.Output) {
	case "", "stderr", "stdout", "discard":
	default:
		return core.NewValidationError("log.output", fmt.Sprintf("unknown log output %q, expected stderr, stdout or discard", c.Log.Output))
	}

	c.Model.Provider = strings.ToLower(strings.TrimSpace(c.Model.Provider))
	switch c.Model.Provider {
	case ProviderNone, ProviderScripted:
	case ProviderOpenAI, ProviderAnthropic:
		if c.Model.Name == "" {
			return core.NewValidationError("model.name", fmt.Sprintf("provider %s requires a model name", c.Model.Provider))
		}
	default:
		return core.NewValidationError("model.provider", fmt.Sprintf("unknown model provider %q", c.Model.Provider))
	}
	if c.Model.MaxIterations < 0 {
		return core.NewValidationError("model.max_iterations", "max iterations must not be negative")
	}
	return nil
}

// ChatEnabled reports whether a model provider is configured.
func (c *Config) ChatEnabled() bool {
	return c.Model.Provider != ProviderNone
}

// NewLogger builds the structured logger described by c.
func (c LogConfig) NewLogger() logging.Logger {
	level, err := logging.ParseLevel(c.Level)
	if err != nil {
		level = logging.LogLevelWarn
	}

	var out io.Writer
	switch strings.ToLower(c.Output) {
	case "stdout":
		out = os.Stdout
	case "discard":
		return logging.NoOpLogger{}
	default:
		out = os.Stderr
	}

	return logging.New(logging.Config{Level: level, Format: strings.ToLower(c.Format), Output: out})
}

// Package config loads elgato-prompter-text configuration.
//
// Values are layered: built-in defaults, then the TOML file, then
// ELGATO_PROMPTER_* environment variables. Command-line flags are applied
// last by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/tessro/elgato-prompter-text/internal/paths"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ELGATO_PROMPTER"

// Defaults.
const (
	DefaultLogLevel       = "info"
	DefaultRestartApp     = "Camera Hub"
	DefaultTimeoutSeconds = 20
	DefaultLLMProvider    = "openai"
)

// Config is the complete configuration.
type Config struct {
	// Dir is the prompt directory. Empty means the working directory.
	Dir      string        `toml:"dir"`
	LogLevel string        `toml:"log_level" split_words:"true"`
	LogFile  string        `toml:"log_file" split_words:"true"`
	Restart  RestartConfig `toml:"restart"`
	LLM      LLMConfig     `toml:"llm"`
}

// RestartConfig controls the application restart around mutating commands.
type RestartConfig struct {
	Enabled             bool    `toml:"enabled"`
	App                 string  `toml:"app"`
	TimeoutSeconds      float64 `toml:"timeout_seconds" split_words:"true"`
	ForceAfterTimeout   bool    `toml:"force_after_timeout" split_words:"true"`
	RestartIfNotRunning bool    `toml:"restart_if_not_running" split_words:"true"`
}

// LLMConfig selects the model used by gen.
type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key" split_words:"true"`
	BaseURL  string `toml:"base_url" split_words:"true"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Restart: RestartConfig{
			Enabled:           true,
			App:               DefaultRestartApp,
			TimeoutSeconds:    DefaultTimeoutSeconds,
			ForceAfterTimeout: true,
		},
		LLM: LLMConfig{
			Provider: DefaultLLMProvider,
		},
	}
}

// Load builds the configuration from defaults, the file at path and the
// environment. An empty path means paths.ConfigPath(); a missing default
// file is not an error, a missing explicit file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := paths.ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	} else {
		expanded, err := paths.Expand(path)
		if err != nil {
			return nil, err
		}
		path = expanded
	}

	found, err := LoadFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if !found && explicit {
		return nil, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes the TOML file at path over cfg. Keys absent from the
// file leave cfg untouched. Reports false if the file does not exist.
func LoadFile(path string, cfg *Config) (bool, error) {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("parse config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", "path", path, "key", key.String())
	}
	return true, nil
}

// ApplyEnv overrides cfg with ELGATO_PROMPTER_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	return nil
}

// GetLogLevel returns the configured log level or the default.
func (c *Config) GetLogLevel() string {
	if c != nil && c.LogLevel != "" {
		return c.LogLevel
	}
	return DefaultLogLevel
}

// RestartTimeout returns the quit timeout as a duration.
func (c *Config) RestartTimeout() time.Duration {
	if c == nil {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.Restart.TimeoutSeconds * float64(time.Second))
}

// GetLLMProvider returns the configured provider or the default.
func (c *Config) GetLLMProvider() string {
	if c != nil && c.LLM.Provider != "" {
		return strings.ToLower(c.LLM.Provider)
	}
	return DefaultLLMProvider
}

// GetAPIKey returns the configured API key, falling back to the
// provider's conventional environment variable.
func (c *Config) GetAPIKey() string {
	if c != nil && c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	switch c.GetLLMProvider() {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

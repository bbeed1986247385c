package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tessro/elgato-prompter-text/internal/logging"
)

// Validation errors.
var (
	ErrEmptyRestartApp = errors.New("restart app cannot be empty")
	ErrNegativeTimeout = errors.New("timeout cannot be negative")
	ErrInvalidProvider = errors.New("provider must be 'openai' or 'anthropic'")
	ErrInvalidLogLevel = errors.New("log level must be debug, info, warn, or error")
	ErrEmptyPromptDir  = errors.New("prompt directory cannot be blank")
)

// validProviders is the list of supported LLM providers.
var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
}

// ValidationError wraps a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the whole configuration and returns the first problem.
func (c *Config) Validate() error {
	if c.Dir != "" && isEmptyOrWhitespace(c.Dir) {
		return &ValidationError{
			Field:   "dir",
			Message: "cannot be blank",
			Err:     ErrEmptyPromptDir,
		}
	}

	if err := logging.ValidateLevel(c.LogLevel); err != nil {
		return &ValidationError{
			Field:   "log_level",
			Value:   c.LogLevel,
			Message: "must be debug, info, warn, or error",
			Err:     ErrInvalidLogLevel,
		}
	}

	if err := c.Restart.Validate(); err != nil {
		return err
	}

	return ValidateProvider(c.LLM.Provider)
}

// Validate checks the restart settings.
func (r RestartConfig) Validate() error {
	if r.Enabled && isEmptyOrWhitespace(r.App) {
		return &ValidationError{
			Field:   "restart.app",
			Message: "cannot be empty when restart is enabled",
			Err:     ErrEmptyRestartApp,
		}
	}

	if r.TimeoutSeconds < 0 {
		return &ValidationError{
			Field:   "restart.timeout_seconds",
			Value:   fmt.Sprintf("%g", r.TimeoutSeconds),
			Message: "cannot be negative",
			Err:     ErrNegativeTimeout,
		}
	}

	return nil
}

// ValidateProvider validates an LLM provider name. Empty selects the default.
func ValidateProvider(provider string) error {
	if provider == "" {
		return nil
	}
	if !validProviders[strings.ToLower(provider)] {
		return &ValidationError{
			Field:   "llm.provider",
			Value:   provider,
			Message: "must be 'openai' or 'anthropic'",
			Err:     ErrInvalidProvider,
		}
	}
	return nil
}

// isEmptyOrWhitespace returns true if s is empty or contains only whitespace.
func isEmptyOrWhitespace(s string) bool {
	return strings.TrimSpace(s) == ""
}

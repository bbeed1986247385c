package config

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"defaults", func(c *Config) {}, nil},
		{"blank dir", func(c *Config) { c.Dir = "   " }, ErrEmptyPromptDir},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, ErrInvalidLogLevel},
		{"uppercase log level", func(c *Config) { c.LogLevel = "DEBUG" }, nil},
		{"empty app while enabled", func(c *Config) { c.Restart.App = " " }, ErrEmptyRestartApp},
		{"empty app while disabled", func(c *Config) { c.Restart.App = ""; c.Restart.Enabled = false }, nil},
		{"negative timeout", func(c *Config) { c.Restart.TimeoutSeconds = -1 }, ErrNegativeTimeout},
		{"zero timeout", func(c *Config) { c.Restart.TimeoutSeconds = 0 }, nil},
		{"anthropic", func(c *Config) { c.LLM.Provider = "Anthropic" }, nil},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "gemini" }, ErrInvalidProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Validate() = %T, want *ValidationError", err)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Run("error with value", func(t *testing.T) {
		err := &ValidationError{
			Field:   "llm.provider",
			Value:   "gemini",
			Message: "must be 'openai' or 'anthropic'",
			Err:     ErrInvalidProvider,
		}
		want := `llm.provider: must be 'openai' or 'anthropic' (got "gemini")`
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if !errors.Is(err, ErrInvalidProvider) {
			t.Error("Unwrap() should return underlying error")
		}
	})

	t.Run("error without value", func(t *testing.T) {
		err := &ValidationError{
			Field:   "restart.app",
			Message: "cannot be empty when restart is enabled",
			Err:     ErrEmptyRestartApp,
		}
		want := "restart.app: cannot be empty when restart is enabled"
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
	})
}

func TestIsEmptyOrWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty string", "", true},
		{"single space", " ", true},
		{"tab", "\t", true},
		{"mixed whitespace", " \t\n ", true},
		{"non-empty", "hello", false},
		{"surrounded by spaces", " hello ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmptyOrWhitespace(tt.input); got != tt.want {
				t.Errorf("isEmptyOrWhitespace(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

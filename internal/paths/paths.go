// Package paths provides a single source of truth for elgato-prompter-text
// file paths. All path helpers honor environment variable overrides for
// isolated testing.
//
// Path resolution precedence:
//  1. ELGATO_PROMPTER_HOME sets the base directory (derives config and log paths)
//  2. Default behavior (~/.elgato-prompter, ~/.config/elgato-prompter-text)
package paths

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// AppName is used for directory and file names.
const AppName = "elgato-prompter-text"

// Environment variable names for path overrides.
const (
	// EnvHome is the base directory override (e.g., /tmp/prompter-test).
	EnvHome = "ELGATO_PROMPTER_HOME"

	// EnvPromptDir selects the prompt directory when --dir is not given.
	EnvPromptDir = "ELGATO_PROMPTER_DIR"
)

// BaseDir returns the base directory (~/.elgato-prompter by default).
func BaseDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return Expand(dir)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".elgato-prompter"), nil
}

// ConfigDir returns the config directory (~/.config/elgato-prompter-text by
// default). When ELGATO_PROMPTER_HOME is set, returns $ELGATO_PROMPTER_HOME/config.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		base, err := Expand(dir)
		if err != nil {
			return "", err
		}
		return filepath.Join(base, "config"), nil
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LogPath returns the log file path (~/.elgato-prompter/elgato-prompter-text.log).
func LogPath() string {
	base, err := BaseDir()
	if err != nil {
		return filepath.Join(os.TempDir(), AppName+".log")
	}
	return filepath.Join(base, AppName+".log")
}

// Expand replaces a leading ~ with the home directory.
func Expand(path string) (string, error) {
	return homedir.Expand(path)
}

// PromptDir resolves the prompt directory: the first non-empty candidate
// wins, then the working directory. The result is absolute.
func PromptDir(candidates ...string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		expanded, err := Expand(c)
		if err != nil {
			return "", err
		}
		return filepath.Abs(expanded)
	}
	return os.Getwd()
}

package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tessro/elgato-prompter-text/internal/config"
	"github.com/tessro/elgato-prompter-text/internal/logging"
	"github.com/tessro/elgato-prompter-text/internal/paths"
	"github.com/tessro/elgato-prompter-text/internal/prompt"
)

// Global flag values.
var (
	dirFlag       string
	configFlag    string
	logLevelFlag  string
	noRestartFlag bool
)

// cfg is the resolved configuration for the running command.
var cfg *config.Config

// promptDir is the resolved prompt directory.
var promptDir string

// logCleanup closes the log file after the command finishes.
var logCleanup func()

var rootCmd = &cobra.Command{
	Use:   "elgato-prompter-text",
	Short: "Manage Elgato Prompter text scripts",
	Long: `elgato-prompter-text manages a directory of Elgato Prompter scripts.

Each script is a JSON file named after its GUID. Commands that change the
directory quit Camera Hub first and relaunch it afterward so the app picks up
the new library.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// setup loads configuration, applies global flags, and starts logging.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFlag)
	if err != nil {
		return err
	}

	if dirFlag != "" {
		c.Dir = dirFlag
	}
	if logLevelFlag != "" {
		c.LogLevel = logLevelFlag
	}
	if noRestartFlag {
		c.Restart.Enabled = false
	}
	if err := c.Validate(); err != nil {
		return usageError(err)
	}

	cleanup, err := logging.Setup(c.LogFile, logging.ParseLevel(c.GetLogLevel()))
	if err != nil {
		logging.Discard()
		fmt.Fprintf(cmd.ErrOrStderr(), "%s logging disabled: %v\n", warnMark(), err)
	} else {
		logCleanup = cleanup
	}

	dir, err := paths.PromptDir(c.Dir)
	if err != nil {
		return fmt.Errorf("resolve prompt directory: %w", err)
	}

	cfg = c
	promptDir = dir
	slog.Debug("command starting", "command", cmd.CommandPath(), "dir", promptDir, "restart", c.Restart.Enabled)
	return nil
}

// store returns the prompt store for the resolved directory.
func store() *prompt.Store {
	return prompt.NewStore(promptDir)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "prompt directory (default $"+paths.EnvPromptDir+" or the working directory)")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default ~/.config/elgato-prompter-text/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&noRestartFlag, "no-restart", false, "do not quit and relaunch Camera Hub around changes")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})
}

// Execute runs the root command.
func Execute() error {
	defer func() {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	}()
	return rootCmd.Execute()
}

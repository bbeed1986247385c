package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/elgato-prompter-text/internal/restart"
)

// newPlatform selects the restart platform. Tests replace it.
var newPlatform = restart.Current

// restartOptions builds scope options from the configuration.
func restartOptions(app string) restart.Options {
	opts := restart.DefaultOptions(app)
	opts.Timeout = cfg.RestartTimeout()
	opts.ForceAfterTimeout = cfg.Restart.ForceAfterTimeout
	opts.RestartIfNotRunning = cfg.Restart.RestartIfNotRunning
	return opts
}

// withRestart runs work with the configured application stopped, then
// relaunches it. When restart is disabled work runs directly.
func withRestart(cmd *cobra.Command, work func(ctx context.Context) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Restart.Enabled {
		return work(ctx)
	}

	p, err := newPlatform()
	if err != nil {
		return fmt.Errorf("%w (use --no-restart to skip restarting %s)", err, cfg.Restart.App)
	}
	r := restart.New(p)
	r.Status = cmd.OutOrStdout()
	return r.Do(ctx, restartOptions(cfg.Restart.App), work)
}

var (
	restartTimeout float64
	restartNoForce bool
)

var restartCmd = &cobra.Command{
	Use:   "restart [app]",
	Short: "Quit and relaunch an application",
	Long: `Quit an application (if running) and launch it again.

The app defaults to the configured restart app ("Camera Hub"). The search
text is matched loosely against application names and identifiers.`,
	Args: cobra.ArbitraryArgs,
	RunE: runRestart,
}

func runRestart(cmd *cobra.Command, args []string) error {
	app := strings.TrimSpace(strings.Join(args, " "))
	if app == "" {
		app = cfg.Restart.App
	}
	if app == "" {
		return usagef("no application given")
	}

	opts := restartOptions(app)
	opts.RestartIfNotRunning = true
	if cmd.Flags().Changed("timeout") {
		if restartTimeout < 0 {
			return usagef("--timeout cannot be negative")
		}
		opts.Timeout = time.Duration(restartTimeout * float64(time.Second))
	}
	if restartNoForce {
		opts.ForceAfterTimeout = false
	}

	p, err := newPlatform()
	if err != nil {
		return err
	}
	r := restart.New(p)
	r.Status = cmd.OutOrStdout()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := r.Enter(ctx, opts)
	if err != nil {
		return err
	}
	s.Exit(ctx)

	if err := s.LaunchErr(); err != nil {
		return fmt.Errorf("relaunch %s: %w", s.Target().Name, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Restarted %s (%s)\n", okMark(), s.Target().Name, s.Plan())
	return nil
}

func init() {
	restartCmd.Flags().Float64Var(&restartTimeout, "timeout", restart.DefaultTimeout.Seconds(), "seconds to wait for the app to quit")
	restartCmd.Flags().BoolVar(&restartNoForce, "no-force", false, "do not force-quit after the timeout")
	rootCmd.AddCommand(restartCmd)
}

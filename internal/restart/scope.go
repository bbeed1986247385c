// Package restart stops a desktop application around a unit of work and
// relaunches it afterward, on macOS and Windows.
//
// The usual entry point is Do:
//
//	err := r.Do(ctx, restart.DefaultOptions("Camera Hub"), func(ctx context.Context) error {
//		// the application is not running here
//		return writeFiles()
//	})
//
// Locate failures abort before the work runs. The work's error is returned
// unchanged. Relaunch failures are logged and never returned.
package restart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DefaultTimeout is the default wait for a graceful quit.
const DefaultTimeout = 20 * time.Second

// State is the lifecycle state of a Session.
type State string

const (
	StateIdle     State = "idle"
	StateEntering State = "entering"
	StateActive   State = "active"
	StateExiting  State = "exiting"
	StateDone     State = "done"
)

// Options configures one restart scope.
type Options struct {
	// Search is the fuzzy application name or identifier fragment.
	Search string

	// Timeout bounds the wait for a graceful quit.
	Timeout time.Duration

	// ForceAfterTimeout kills processes still running after Timeout.
	ForceAfterTimeout bool

	// RestartIfNotRunning launches the application on exit even when it was
	// not running on entry.
	RestartIfNotRunning bool
}

// DefaultOptions returns Options with a 20s timeout, forced kill after the
// timeout, and relaunch only when the application was running.
func DefaultOptions(search string) Options {
	return Options{
		Search:            search,
		Timeout:           DefaultTimeout,
		ForceAfterTimeout: true,
	}
}

// Restarter runs work while an application is stopped.
type Restarter struct {
	platform Platform

	// Status receives short human-readable progress lines. Nil discards them.
	Status io.Writer
}

// New creates a Restarter for the given platform.
func New(p Platform) *Restarter {
	return &Restarter{platform: p}
}

// Platform returns the platform this Restarter drives.
func (r *Restarter) Platform() Platform {
	return r.platform
}

func (r *Restarter) statusf(format string, args ...any) {
	if r.Status == nil {
		return
	}
	fmt.Fprintf(r.Status, format+"\n", args...)
}

// Session is one stop/relaunch cycle. It is created by Enter and finished
// by Exit.
type Session struct {
	r         *Restarter
	opts      Options
	state     State
	target    *Target
	running   []Instance
	plan      LaunchPlan
	restart   bool
	launched  bool
	launchErr error
}

// Enter locates the application, resolves how to relaunch it, and stops it
// if it is running. On error the session never becomes active and nothing
// will be relaunched.
func (r *Restarter) Enter(ctx context.Context, opts Options) (*Session, error) {
	s := &Session{r: r, opts: opts, state: StateEntering}

	target, err := r.platform.Locate(ctx, opts.Search)
	if err != nil {
		s.state = StateDone
		return nil, err
	}
	s.target = target

	running, err := r.platform.Instances(ctx, target)
	if err != nil {
		s.state = StateDone
		return nil, err
	}
	s.running = running

	// Resolve before stopping so executable paths of running instances can
	// still be read.
	plan, err := r.platform.ResolveLaunch(ctx, target, running)
	if err != nil {
		s.state = StateDone
		return nil, err
	}
	s.plan = plan

	if len(running) > 0 {
		r.statusf("Quitting %s (%d running)…", target.Name, len(running))
		slog.Info("stopping application",
			"platform", r.platform.Name(),
			"target", target.Name,
			"instances", len(running),
			"timeout", opts.Timeout,
			"force", opts.ForceAfterTimeout)
		r.platform.Stop(ctx, target, running, StopOptions{
			Timeout: opts.Timeout,
			Force:   opts.ForceAfterTimeout,
		})
		s.restart = true
	} else {
		slog.Info("application not running",
			"platform", r.platform.Name(),
			"target", target.Name,
			"restart_if_not_running", opts.RestartIfNotRunning)
		s.restart = opts.RestartIfNotRunning
	}

	s.state = StateActive
	return s, nil
}

// Exit relaunches the application if the session decided to. It runs at
// most once; later calls are no-ops. Launch errors are logged and kept for
// LaunchErr, never returned. Cancellation of ctx does not stop the relaunch;
// the runner's per-command timeout bounds it.
func (s *Session) Exit(ctx context.Context) {
	if s == nil || s.state != StateActive {
		return
	}
	s.state = StateExiting
	defer func() { s.state = StateDone }()

	if !s.restart || s.launched {
		return
	}
	s.launched = true

	s.r.statusf("Launching %s…", s.target.Name)
	slog.Info("relaunching application", "target", s.target.Name, "plan", s.plan.String())
	if err := s.r.platform.Launch(context.WithoutCancel(ctx), s.plan); err != nil {
		s.launchErr = err
		slog.Warn("relaunch failed", "target", s.target.Name, "plan", s.plan.String(), "error", err)
		s.r.statusf("Could not relaunch %s: %v", s.target.Name, err)
	}
}

// State returns the session's lifecycle state.
func (s *Session) State() State { return s.state }

// Target returns the located application.
func (s *Session) Target() *Target { return s.target }

// Running returns the instances observed on entry.
func (s *Session) Running() []Instance { return s.running }

// Plan returns the resolved launch plan.
func (s *Session) Plan() LaunchPlan { return s.plan }

// ShouldRestart reports whether Exit will relaunch the application.
func (s *Session) ShouldRestart() bool { return s.restart }

// Launched reports whether a relaunch was attempted.
func (s *Session) Launched() bool { return s.launched }

// LaunchErr returns the swallowed relaunch error, if any.
func (s *Session) LaunchErr() error { return s.launchErr }

// Do runs work while the application is stopped and relaunches it afterward.
// Exit runs on every path out of work, including panics. The error returned
// by work is passed through unchanged.
func (r *Restarter) Do(ctx context.Context, opts Options, work func(ctx context.Context) error) error {
	s, err := r.Enter(ctx, opts)
	if err != nil {
		return err
	}
	defer s.Exit(ctx)

	return work(ctx)
}

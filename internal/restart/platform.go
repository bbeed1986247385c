package restart

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// PollInterval is the delay between liveness checks while waiting for an
// application to quit.
const PollInterval = 300 * time.Millisecond

// Target identifies a resolvable application.
//
// On macOS a target is a bundle path plus its bundle identifier. On Windows
// there is no stable identity ahead of launch; the fields record whatever
// the locate step discovered (a shortcut target or a packaged app ID) so the
// launch resolver can reuse it.
type Target struct {
	Search string
	Name   string
	Path   string
	ID     string
}

// Instance is a running process belonging to a target.
// PID is zero when the platform reported a running instance without
// exposing its process identifier.
type Instance struct {
	PID            int
	ExecutablePath string
}

// LaunchMode selects how a LaunchPlan is executed.
type LaunchMode string

const (
	// LaunchByExecutablePath starts a specific binary.
	LaunchByExecutablePath LaunchMode = "exe"
	// LaunchByPackageIdentity starts an app by bundle ID or packaged app ID.
	LaunchByPackageIdentity LaunchMode = "package"
	// LaunchByName lets the OS resolve a bare name (PATH, app aliases).
	LaunchByName LaunchMode = "name"
)

// LaunchPlan describes how to relaunch an application.
type LaunchPlan struct {
	Mode  LaunchMode
	Value string
}

func (p LaunchPlan) String() string {
	return fmt.Sprintf("%s:%s", p.Mode, p.Value)
}

// StopOptions controls how Stop waits for an application to exit.
type StopOptions struct {
	Timeout time.Duration
	Force   bool
}

// Platform is the OS-specific half of the restart core. Exactly one
// implementation is selected per process by ForOS.
type Platform interface {
	// Name returns a short platform label used in logs and errors.
	Name() string

	// Locate finds the application matching search.
	// Returns a *LocateError wrapping ErrNotFound or ErrIdentityUnresolvable
	// when nothing usable matches.
	Locate(ctx context.Context, search string) (*Target, error)

	// Instances returns the currently running instances of t.
	// Query failures count as "not running"; only a missing command
	// interpreter is reported as an error.
	Instances(ctx context.Context, t *Target) ([]Instance, error)

	// ResolveLaunch computes how to relaunch t. running holds the instances
	// observed before they were stopped, if any.
	ResolveLaunch(ctx context.Context, t *Target, running []Instance) (LaunchPlan, error)

	// Stop quits the running instances gracefully, polling until they exit
	// or opts.Timeout elapses, then force-kills leftovers when opts.Force
	// is set. Stop never fails; OS errors are best effort.
	Stop(ctx context.Context, t *Target, running []Instance, opts StopOptions)

	// Launch starts the application described by plan.
	Launch(ctx context.Context, plan LaunchPlan) error
}

// ForOS returns the Platform for goos ("darwin" or "windows").
func ForOS(goos string, runner Runner) (Platform, error) {
	switch goos {
	case "darwin":
		return newMacOS(runner, realClock{}), nil
	case "windows":
		return newWindows(runner, realClock{}), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// Current returns the Platform for the running OS using an ExecRunner.
func Current() (Platform, error) {
	return ForOS(runtime.GOOS, NewExecRunner())
}

// fuzzyContains reports whether needle occurs in haystack, ignoring case.
func fuzzyContains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// clock abstracts time so polling loops can be tested without sleeping.
type clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// waitUntil polls done every interval until it returns true or timeout
// elapses. It reports whether done returned true before the deadline.
func waitUntil(clk clock, timeout, interval time.Duration, done func() bool) bool {
	deadline := clk.Now().Add(timeout)
	for clk.Now().Before(deadline) {
		if done() {
			return true
		}
		clk.Sleep(interval)
	}
	return false
}

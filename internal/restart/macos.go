package restart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// spotlightQuery finds applications whose display name or bundle identifier
// contains the search text.
const spotlightQuery = `kMDItemKind == "Application" && ` +
	`(kMDItemDisplayName == "*%[1]s*" || kMDItemCFBundleIdentifier == "*%[1]s*")`

// macAppDirs are the standard install locations preferred when scoring hits.
var macAppDirs = []string{"/Applications/", "/System/Applications/"}

// macOS implements Platform with Spotlight and AppleScript.
type macOS struct {
	runner Runner
	clock  clock
	kill   func(pid int) error
}

func newMacOS(runner Runner, clk clock) *macOS {
	return &macOS{runner: runner, clock: clk, kill: killPID}
}

func (m *macOS) Name() string { return "macOS" }

// Locate queries Spotlight for a matching .app bundle and reads its bundle ID.
func (m *macOS) Locate(ctx context.Context, search string) (*Target, error) {
	path, ok := m.findApp(ctx, search)
	if !ok {
		return nil, &LocateError{Platform: m.Name(), Search: search, Err: ErrNotFound}
	}

	bundleID, err := m.runner.Run(ctx, "mdls", "-name", "kMDItemCFBundleIdentifier", "-raw", path)
	if err != nil || bundleID == "" || bundleID == "(null)" {
		return nil, &LocateError{Platform: m.Name(), Search: search, Detail: path, Err: ErrIdentityUnresolvable}
	}

	slog.Debug("located application", "platform", m.Name(), "path", path, "bundle_id", bundleID)
	return &Target{
		Search: search,
		Name:   strings.TrimSuffix(filepath.Base(path), ".app"),
		Path:   path,
		ID:     bundleID,
	}, nil
}

// findApp returns the best scoring .app bundle for search.
func (m *macOS) findApp(ctx context.Context, search string) (string, bool) {
	out, err := m.runner.Run(ctx, "mdfind", fmt.Sprintf(spotlightQuery, search))
	if err != nil {
		slog.Debug("mdfind failed", "error", err)
	}

	var hits []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, ".app") {
			hits = append(hits, line)
		}
	}
	if len(hits) == 0 {
		return "", false
	}

	sort.SliceStable(hits, func(i, j int) bool {
		si, sj := scoreBundle(hits[i], search), scoreBundle(hits[j], search)
		if si != sj {
			return si > sj
		}
		return len(hits[i]) < len(hits[j])
	})
	return hits[0], true
}

// scoreBundle ranks a bundle path: +2 for a standard application directory,
// +2 when the stem starts with search, +1 when the stem contains it.
// Shorter paths win ties; that is handled by the caller.
func scoreBundle(path, search string) int {
	score := 0
	for _, dir := range macAppDirs {
		if strings.HasPrefix(path, dir) {
			score += 2
			break
		}
	}
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if strings.HasPrefix(stem, strings.ToLower(search)) {
		score += 2
	}
	if fuzzyContains(stem, search) {
		score++
	}
	return score
}

// Instances counts processes with the target's bundle ID.
func (m *macOS) Instances(ctx context.Context, t *Target) ([]Instance, error) {
	count := m.countRunning(ctx, t.ID)
	if count == 0 {
		return nil, nil
	}
	pids := m.pids(ctx, t.ID)
	if len(pids) == 0 {
		return make([]Instance, count), nil
	}
	instances := make([]Instance, 0, len(pids))
	for _, pid := range pids {
		instances = append(instances, Instance{PID: pid})
	}
	return instances, nil
}

func (m *macOS) countRunning(ctx context.Context, bundleID string) int {
	script := fmt.Sprintf(`tell application "System Events" to count (every process whose bundle identifier is "%s")`, bundleID)
	out, err := m.runner.Run(ctx, "osascript", "-e", script)
	if err != nil {
		slog.Debug("count processes failed", "bundle_id", bundleID, "error", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0
	}
	return n
}

func (m *macOS) pids(ctx context.Context, bundleID string) []int {
	script := fmt.Sprintf(`tell application "System Events" to get the unix id of every process whose bundle identifier is "%s"`, bundleID)
	out, err := m.runner.Run(ctx, "osascript", "-e", script)
	if err != nil {
		slog.Debug("list pids failed", "bundle_id", bundleID, "error", err)
	}
	return parsePIDs(out, ",")
}

// ResolveLaunch always launches by bundle identifier on macOS.
func (m *macOS) ResolveLaunch(ctx context.Context, t *Target, running []Instance) (LaunchPlan, error) {
	if t.ID == "" {
		return LaunchPlan{}, &LocateError{Platform: m.Name(), Search: t.Search, Err: ErrIdentityUnresolvable}
	}
	return LaunchPlan{Mode: LaunchByPackageIdentity, Value: t.ID}, nil
}

// Stop asks the application to quit and waits for its processes to exit.
func (m *macOS) Stop(ctx context.Context, t *Target, running []Instance, opts StopOptions) {
	if len(running) == 0 {
		return
	}

	if _, err := m.runner.Run(ctx, "osascript", "-e", fmt.Sprintf(`tell application id "%s" to quit`, t.ID)); err != nil {
		slog.Debug("quit request failed", "bundle_id", t.ID, "error", err)
	}

	exited := waitUntil(m.clock, opts.Timeout, PollInterval, func() bool {
		return m.countRunning(ctx, t.ID) == 0
	})
	if exited || !opts.Force {
		return
	}

	for _, pid := range m.pids(ctx, t.ID) {
		slog.Info("force killing", "bundle_id", t.ID, "pid", pid)
		if err := m.kill(pid); err != nil {
			slog.Debug("kill failed", "pid", pid, "error", err)
		}
	}
}

// Launch opens the application and brings it to the foreground.
// ResolveLaunch only produces bundle ID plans; the path and name modes serve
// callers that build a LaunchPlan by hand.
func (m *macOS) Launch(ctx context.Context, plan LaunchPlan) error {
	var args []string
	switch plan.Mode {
	case LaunchByPackageIdentity:
		args = []string{"-b", plan.Value}
	case LaunchByExecutablePath:
		args = []string{plan.Value}
	case LaunchByName:
		args = []string{"-a", plan.Value}
	default:
		return fmt.Errorf("unknown launch mode %q", plan.Mode)
	}

	if _, err := m.runner.Run(ctx, "open", args...); err != nil {
		return fmt.Errorf("open %s: %w", plan.Value, err)
	}

	// open alone does not guarantee focus.
	if plan.Mode == LaunchByPackageIdentity {
		if _, err := m.runner.Run(ctx, "osascript", "-e", fmt.Sprintf(`tell application id "%s" to activate`, plan.Value)); err != nil {
			slog.Debug("activate failed", "bundle_id", plan.Value, "error", err)
		}
	}
	return nil
}

// killPID sends an unconditional kill, ignoring processes that already exited.
func killPID(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// parsePIDs extracts numeric process IDs from sep-separated text.
func parsePIDs(out, sep string) []int {
	var pids []int
	for _, field := range strings.Split(out, sep) {
		pid, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

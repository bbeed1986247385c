package restart

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultCommandTimeout bounds every external command the restart core runs.
const DefaultCommandTimeout = 30 * time.Second

// Runner executes external OS commands and returns their trimmed stdout.
// The restart core treats every command as a black box returning text.
type Runner interface {
	// LookPath resolves an executable name on PATH.
	LookPath(file string) (string, error)

	// Run executes name with args and returns trimmed stdout.
	// A non-zero exit status is reported as an error.
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Timeout bounds each command. Zero means DefaultCommandTimeout.
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner with the default command timeout.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Timeout: DefaultCommandTimeout}
}

// LookPath implements Runner.
func (r *ExecRunner) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimSpace(stdout.String())
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

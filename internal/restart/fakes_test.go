package restart

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/text/encoding/unicode"
)

// fakeClock advances only when Sleep is called.
type fakeClock struct {
	now    time.Time
	sleeps int
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps++
	c.now = c.now.Add(d)
}

// fakeRunner records commands and answers them with handler.
type fakeRunner struct {
	mu      sync.Mutex
	paths   map[string]string
	handler func(name string, args []string) (string, error)
	calls   [][]string
}

func (r *fakeRunner) LookPath(file string) (string, error) {
	if p, ok := r.paths[file]; ok {
		return p, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", file)
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	if r.handler == nil {
		return "", nil
	}
	return r.handler(name, args)
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// decodePowerShell recovers the script and $arg value from an
// -EncodedCommand invocation.
func decodePowerShell(t *testing.T, args []string) (script, arg string) {
	t.Helper()
	var encoded string
	for i, a := range args {
		if a == "-EncodedCommand" && i+1 < len(args) {
			encoded = args[i+1]
		}
	}
	if encoded == "" {
		t.Fatalf("no -EncodedCommand in %v", args)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	text, err := dec.Bytes(raw)
	if err != nil {
		t.Fatalf("decode utf16: %v", err)
	}
	first, rest, _ := strings.Cut(string(text), "\n")
	quoted := strings.TrimPrefix(first, "$arg = ")
	quoted = strings.TrimSuffix(strings.TrimPrefix(quoted, "'"), "'")
	return rest, strings.ReplaceAll(quoted, "''", "'")
}

// psHandler answers PowerShell scripts by their identity.
type psHandler func(script, arg string) (string, error)

func newWindowsRunner(t *testing.T, h psHandler) *fakeRunner {
	t.Helper()
	return &fakeRunner{
		paths: map[string]string{"powershell": `C:\Windows\System32\WindowsPowerShell\v1.0\powershell.exe`},
		handler: func(name string, args []string) (string, error) {
			script, arg := decodePowerShell(t, args)
			return h(script, arg)
		},
	}
}

// fakePlatform is a scripted Platform for scope tests.
type fakePlatform struct {
	target       *Target
	locateErr    error
	instances    []Instance
	instancesErr error
	plan         LaunchPlan
	resolveErr   error
	launchErr    error

	stopCalls   int
	stopOpts    StopOptions
	launchCalls int
	launched    []LaunchPlan
	launchCtxs  []error
	calls       []string
}

func (p *fakePlatform) Name() string { return "fake" }

func (p *fakePlatform) Locate(ctx context.Context, search string) (*Target, error) {
	p.calls = append(p.calls, "locate")
	if p.locateErr != nil {
		return nil, p.locateErr
	}
	if p.target == nil {
		return nil, &LocateError{Platform: "fake", Search: search, Err: ErrNotFound}
	}
	return p.target, nil
}

func (p *fakePlatform) Instances(ctx context.Context, t *Target) ([]Instance, error) {
	p.calls = append(p.calls, "instances")
	return p.instances, p.instancesErr
}

func (p *fakePlatform) ResolveLaunch(ctx context.Context, t *Target, running []Instance) (LaunchPlan, error) {
	p.calls = append(p.calls, "resolve")
	return p.plan, p.resolveErr
}

func (p *fakePlatform) Stop(ctx context.Context, t *Target, running []Instance, opts StopOptions) {
	p.calls = append(p.calls, "stop")
	p.stopCalls++
	p.stopOpts = opts
}

func (p *fakePlatform) Launch(ctx context.Context, plan LaunchPlan) error {
	p.calls = append(p.calls, "launch")
	p.launchCalls++
	p.launched = append(p.launched, plan)
	p.launchCtxs = append(p.launchCtxs, ctx.Err())
	return p.launchErr
}

var errBoom = errors.New("boom")

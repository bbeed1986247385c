package restart

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/encoding/unicode"
)

// PowerShell scripts. Each one receives a single argument in $arg, which is
// prepended as a quoted literal by (*windows).run.
const (
	psFindProcesses = `$like = "*" + $arg + "*"
(Get-CimInstance Win32_Process |
  Where-Object { $_.Name -like $like -or $_.CommandLine -like $like } |
  Select-Object -ExpandProperty ProcessId) -join [Environment]::NewLine`

	psExecutablePath = `$id = [int]$arg
try { (Get-CimInstance Win32_Process -Filter "ProcessId = $id").ExecutablePath } catch { "" }`

	psCloseMainWindow = `$arg -split ',' | ForEach-Object {
  try { $null = (Get-Process -Id ([int]$_) -ErrorAction Stop).CloseMainWindow() } catch {}
}`

	psIsAlive = `$id = [int]$arg
try { $null = Get-Process -Id $id -ErrorAction Stop; "1" } catch { "0" }`

	psForceStop = `$id = [int]$arg
try { Stop-Process -Id $id -Force -ErrorAction SilentlyContinue } catch {}`

	psFindShortcut = `$like = "*" + $arg + "*"
$roots = @("$env:ProgramData\Microsoft\Windows\Start Menu\Programs",
           "$env:AppData\Microsoft\Windows\Start Menu\Programs")
$lnk = Get-ChildItem $roots -Recurse -Filter *.lnk -ErrorAction SilentlyContinue |
  Where-Object { $_.BaseName -like $like } |
  Sort-Object FullName |
  Select-Object -First 1 -ExpandProperty FullName
if ($lnk) { (New-Object -ComObject WScript.Shell).CreateShortcut($lnk).TargetPath }`

	psFindStartApp = `$like = "*" + $arg + "*"
try {
  $app = Get-StartApps | Where-Object { $_.Name -like $like } | Select-Object -First 1
  if ($app) { $app.AppID }
} catch {}`

	psStartExecutable = `Start-Process -FilePath $arg | Out-Null`
	psStartPackage    = `Start-Process ("shell:AppsFolder\" + $arg) | Out-Null`
	psStartName       = `Start-Process $arg | Out-Null`
)

// psShells are tried in order: Windows PowerShell, then PowerShell 7.
var psShells = []string{"powershell", "pwsh"}

// windows implements Platform with PowerShell process and shell queries.
type windows struct {
	runner Runner
	clock  clock

	// self holds this process and its parent. Their command lines may carry
	// the search text, so they must never count as instances.
	self map[int]bool

	shellOnce sync.Once
	shellPath string
	shellErr  error
}

func newWindows(runner Runner, clk clock) *windows {
	return &windows{
		runner: runner,
		clock:  clk,
		self:   map[int]bool{os.Getpid(): true, os.Getppid(): true},
	}
}

func (w *windows) Name() string { return "Windows" }

// shell resolves the PowerShell executable once.
func (w *windows) shell() (string, error) {
	w.shellOnce.Do(func() {
		for _, name := range psShells {
			if path, err := w.runner.LookPath(name); err == nil {
				w.shellPath = path
				return
			}
		}
		w.shellErr = fmt.Errorf("%w: tried %s", ErrShellNotFound, strings.Join(psShells, ", "))
	})
	return w.shellPath, w.shellErr
}

// run executes script with arg bound to $arg.
func (w *windows) run(ctx context.Context, script, arg string) (string, error) {
	exe, err := w.shell()
	if err != nil {
		return "", err
	}
	encoded, err := encodePowerShell("$arg = " + psQuote(arg) + "\n" + script)
	if err != nil {
		return "", fmt.Errorf("encode script: %w", err)
	}
	return w.runner.Run(ctx, exe, "-NoProfile", "-NonInteractive", "-EncodedCommand", encoded)
}

// query runs a read-only script. Failures read as empty output.
func (w *windows) query(ctx context.Context, script, arg string) string {
	out, err := w.run(ctx, script, arg)
	if err != nil {
		slog.Debug("powershell query failed", "arg", arg, "error", err)
		return ""
	}
	return strings.TrimSpace(out)
}

// Locate matches running processes first, then installed shortcuts and
// packaged apps so an installed but stopped application still resolves.
func (w *windows) Locate(ctx context.Context, search string) (*Target, error) {
	if _, err := w.shell(); err != nil {
		return nil, err
	}

	if pids := w.findPIDs(ctx, search); len(pids) > 0 {
		slog.Debug("located running processes", "platform", w.Name(), "search", search, "pids", pids)
		return &Target{Search: search, Name: search}, nil
	}
	if path := w.query(ctx, psFindShortcut, search); path != "" {
		return &Target{Search: search, Name: search, Path: path}, nil
	}
	if appID := w.query(ctx, psFindStartApp, search); appID != "" {
		return &Target{Search: search, Name: search, ID: appID}, nil
	}
	return nil, &LocateError{Platform: w.Name(), Search: search, Err: ErrNotFound}
}

// findPIDs lists matching processes, excluding this process and its parent.
func (w *windows) findPIDs(ctx context.Context, search string) []int {
	var pids []int
	for _, pid := range parsePIDs(w.query(ctx, psFindProcesses, search), "\n") {
		if !w.self[pid] {
			pids = append(pids, pid)
		}
	}
	return pids
}

// Instances returns every process whose name or command line contains the
// search text.
func (w *windows) Instances(ctx context.Context, t *Target) ([]Instance, error) {
	if _, err := w.shell(); err != nil {
		return nil, err
	}
	pids := w.findPIDs(ctx, t.Search)
	instances := make([]Instance, 0, len(pids))
	for _, pid := range pids {
		instances = append(instances, Instance{PID: pid})
	}
	return instances, nil
}

// ResolveLaunch captures the executable of the first running instance that
// exposes one, then defers to resolveLaunchPlan.
func (w *windows) ResolveLaunch(ctx context.Context, t *Target, running []Instance) (LaunchPlan, error) {
	if _, err := w.shell(); err != nil {
		return LaunchPlan{}, err
	}

	var exe string
	for i := range running {
		if running[i].ExecutablePath == "" && running[i].PID > 0 {
			running[i].ExecutablePath = w.query(ctx, psExecutablePath, strconv.Itoa(running[i].PID))
		}
		if running[i].ExecutablePath != "" {
			exe = running[i].ExecutablePath
			break
		}
	}
	return w.resolveLaunchPlan(ctx, t, exe), nil
}

// resolveLaunchPlan picks the first available of: the executable captured
// from a running instance, a Start Menu shortcut target, a packaged app ID,
// and finally the bare search text.
func (w *windows) resolveLaunchPlan(ctx context.Context, t *Target, knownExe string) LaunchPlan {
	if knownExe != "" {
		return LaunchPlan{Mode: LaunchByExecutablePath, Value: knownExe}
	}

	shortcut := t.Path
	if shortcut == "" {
		shortcut = w.query(ctx, psFindShortcut, t.Search)
	}
	if shortcut != "" {
		return LaunchPlan{Mode: LaunchByExecutablePath, Value: shortcut}
	}

	appID := t.ID
	if appID == "" {
		appID = w.query(ctx, psFindStartApp, t.Search)
	}
	if appID != "" {
		return LaunchPlan{Mode: LaunchByPackageIdentity, Value: appID}
	}

	return LaunchPlan{Mode: LaunchByName, Value: t.Search}
}

// Stop closes each process's main window, waits, and force-stops only the
// processes that are still alive after the timeout.
func (w *windows) Stop(ctx context.Context, t *Target, running []Instance, opts StopOptions) {
	var pids []int
	for _, inst := range running {
		if inst.PID > 0 {
			pids = append(pids, inst.PID)
		}
	}
	if len(pids) == 0 {
		return
	}

	ids := make([]string, len(pids))
	for i, pid := range pids {
		ids[i] = strconv.Itoa(pid)
	}
	w.query(ctx, psCloseMainWindow, strings.Join(ids, ","))

	exited := waitUntil(w.clock, opts.Timeout, PollInterval, func() bool {
		return len(w.alive(ctx, pids)) == 0
	})
	if exited || !opts.Force {
		return
	}

	for _, pid := range w.alive(ctx, pids) {
		slog.Info("force stopping", "search", t.Search, "pid", pid)
		w.query(ctx, psForceStop, strconv.Itoa(pid))
	}
}

// alive returns the subset of pids that still exist.
func (w *windows) alive(ctx context.Context, pids []int) []int {
	var remaining []int
	for _, pid := range pids {
		if w.query(ctx, psIsAlive, strconv.Itoa(pid)) == "1" {
			remaining = append(remaining, pid)
		}
	}
	return remaining
}

// Launch starts the application with Start-Process.
func (w *windows) Launch(ctx context.Context, plan LaunchPlan) error {
	var script string
	switch plan.Mode {
	case LaunchByExecutablePath:
		script = psStartExecutable
	case LaunchByPackageIdentity:
		script = psStartPackage
	case LaunchByName:
		script = psStartName
	default:
		return fmt.Errorf("unknown launch mode %q", plan.Mode)
	}
	if _, err := w.run(ctx, script, plan.Value); err != nil {
		return fmt.Errorf("start %s: %w", plan.Value, err)
	}
	return nil
}

// psQuote renders s as a single-quoted PowerShell literal. PowerShell also
// treats typographic single quotes as delimiters, so those are doubled too.
func psQuote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '‘', '’', '‚', '‛':
			b.WriteRune(r)
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}

// encodePowerShell produces the base64 UTF-16LE form -EncodedCommand expects.
func encodePowerShell(script string) (string, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	b, err := enc.Bytes([]byte(script))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

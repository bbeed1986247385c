// Package progress shows a spinner while slow work runs.
package progress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// ErrInterrupted is returned when the user presses ctrl+c.
var ErrInterrupted = errors.New("interrupted")

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Options configures Run.
type Options struct {
	// Label is shown next to the spinner.
	Label string
	// Out receives the spinner. Defaults to os.Stderr.
	Out io.Writer
	// In is read for ctrl+c. Defaults to os.Stdin; nil input is allowed
	// only together with ForceSpinner.
	In io.Reader
	// ForceSpinner shows the spinner even when Out is not a terminal.
	ForceSpinner bool
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type doneMsg struct{}

type model struct {
	spinner  spinner.Model
	label    string
	cancel   context.CancelFunc
	done     bool
	canceled bool
}

func newModel(label string, cancel context.CancelFunc) model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = spinnerStyle
	return model{spinner: s, label: label, cancel: cancel}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.canceled = true
			m.cancel()
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if m.done || m.canceled {
		return ""
	}
	return m.spinner.View() + " " + labelStyle.Render(m.label)
}

// Run calls fn, showing a spinner on a terminal until it returns. Off a
// terminal fn is simply called.
func Run(ctx context.Context, opts Options, fn func(context.Context) error) error {
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	if !opts.ForceSpinner && !IsTerminal(opts.Out) {
		return fn(ctx)
	}
	if opts.In == nil && !opts.ForceSpinner {
		opts.In = os.Stdin
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(
		newModel(opts.Label, cancel),
		tea.WithOutput(opts.Out),
		tea.WithInput(opts.In),
		tea.WithoutSignalHandler(),
	)

	result := make(chan error, 1)
	go func() {
		err := fn(ctx)
		result <- err
		p.Send(doneMsg{})
	}()

	final, err := p.Run()
	if err != nil {
		slog.Debug("spinner failed", "error", err)
		return <-result
	}
	if m, ok := final.(model); ok && m.canceled {
		<-result
		return ErrInterrupted
	}
	return <-result
}

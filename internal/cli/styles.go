package cli

import "github.com/charmbracelet/lipgloss"

var (
	successColor = lipgloss.Color("#10B981") // Green
	mutedColor   = lipgloss.Color("#6B7280") // Gray
	warningColor = lipgloss.Color("#F59E0B") // Amber/Yellow
	accentColor  = lipgloss.Color("#7C3AED") // Purple

	successStyle = lipgloss.NewStyle().Foreground(successColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)
)

func okMark() string   { return successStyle.Render("✓") }
func warnMark() string { return warningStyle.Render("!") }

// Package tui provides Bubble Tea viewers for the chunkyard CLI.
//
// Viewers are opt-in (--tui), read-only, and render the same payloads the
// json/table/yaml formats do.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor  = lipgloss.Color("#0EA5E9") // Sky
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#EF4444") // Red
	mutedColor   = lipgloss.Color("#6B7280") // Gray
)

var (
	// TitleStyle for section headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	// LabelStyle for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(16)

	// ValueStyle for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// SelectedStyle highlights the row under the cursor.
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	// BoxStyle for bordered panels.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	// CountStyle for the per-state counters.
	CountStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Width(14).
			Align(lipgloss.Center)

	// HelpStyle for key hints.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)
)

// StateStyle colors an upload state.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case "finalized", "ready":
		return lipgloss.NewStyle().Foreground(successColor)
	case "open", "incomplete", "expired":
		return lipgloss.NewStyle().Foreground(warningColor)
	case "failed", "aborted":
		return lipgloss.NewStyle().Foreground(errorColor)
	default:
		return ValueStyle
	}
}

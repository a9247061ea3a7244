// Package tui provides the terminal dashboard for Driver Helper.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette for the TUI dashboard.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorActive    = lipgloss.Color("#3B82F6") // Blue
	ColorBorder    = lipgloss.Color("#4B5563") // Dark gray
)

var (
	// StyleTitle is used for section titles.
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// StyleSubtitle is used for secondary information.
	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleIncome = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	StyleExpense = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	StyleBalance = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorActive)

	StyleNote = lipgloss.NewStyle().
			Italic(true).
			Foreground(ColorMuted)

	StyleOnline = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	StyleSyncing = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorActive)

	StyleOffline = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	// StyleHelp is used for help text at the bottom.
	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)

	StyleHelpKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	StyleHelpDesc = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

var (
	// StyleBox frames each dashboard section.
	StyleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 2).
			MarginBottom(1)

	// StyleOfflineBox frames the sync section while offline.
	StyleOfflineBox = StyleBox.BorderForeground(ColorWarning)
)

// ProgressBar creates a progress bar string.
func ProgressBar(percentage float64, width int) string {
	percentage = min(max(percentage, 0), 100)

	filled := int(float64(width) * percentage / 100)
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(ColorSuccess)
	emptyStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	return filledStyle.Render(strings.Repeat("█", filled)) +
		emptyStyle.Render(strings.Repeat("░", empty))
}

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// --- UI Styles ---
var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#8942E1"))
	subtitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3AC4BA")).Italic(true)
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	warnStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	errorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	welcomeBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#8942E1")).
			Padding(1, 2).
			Margin(1, 0)
	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8942E1")).
			Margin(0, 0, 1, 0)
	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
	selectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#8942E1")).
				Padding(0, 1)
	createdStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	updatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	deletedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

// renderFooter creates a consistent footer across all views.
// statusLine: optional status information (shown in subtleStyle)
// helpLines: help text lines (shown in helpStyle)
func renderFooter(statusLine string, helpLines ...string) string {
	var b strings.Builder

	if statusLine != "" {
		b.WriteString(subtleStyle.Render(statusLine) + "\n")
	}
	for _, line := range helpLines {
		b.WriteString(helpStyle.Render(line) + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

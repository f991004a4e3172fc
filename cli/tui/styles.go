// Package tui renders read-only Bubble Tea views of captured sessions.
//
// Views take the same values the table and json renderers print, so
// --tui never shows data the other formats lack.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor  = lipgloss.Color("#A3A3A3")
	okColor      = lipgloss.Color("#22C55E")
	pendingColor = lipgloss.Color("#EAB308")
	failColor    = lipgloss.Color("#DC2626")
	dimColor     = lipgloss.Color("#525252")
	frameColor   = lipgloss.Color("#E5E5E5")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(frameColor).
			MarginBottom(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Foreground(frameColor)

	SuccessStyle = lipgloss.NewStyle().Foreground(okColor)
	WarningStyle = lipgloss.NewStyle().Foreground(pendingColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(failColor)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dimColor).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			MarginTop(1)

	StatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 2).
			Width(18).
			Align(lipgloss.Center)

	StatLabelStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			Align(lipgloss.Center)

	StatValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(frameColor).
			Align(lipgloss.Center)
)

// StatusStyle colors a session status.
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "ok":
		return SuccessStyle
	case "open":
		return WarningStyle
	case "failed":
		return ErrorStyle
	default:
		return ValueStyle
	}
}

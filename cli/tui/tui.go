package tui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// View types with an interactive rendering.
const (
	ViewInspectSession = "inspect_session"
	ViewStatsCaptures  = "stats_captures"
)

// Run starts the view for viewType and blocks until the user quits.
func Run(viewType string, data any) error {
	m, err := NewModel(viewType, data)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// NewModel returns the model for viewType.
func NewModel(viewType string, data any) (tea.Model, error) {
	switch viewType {
	case ViewInspectSession:
		return NewInspectModel(data), nil
	case ViewStatsCaptures:
		return NewStatsModel(data), nil
	default:
		return nil, fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
}

// IsTUISupported reports whether viewType has an interactive view.
func IsTUISupported(viewType string) bool {
	return slices.Contains(SupportedTUIViews(), viewType)
}

// SupportedTUIViews lists the view types accepted by Run.
func SupportedTUIViews() []string {
	return []string{ViewInspectSession, ViewStatsCaptures}
}

type keyMap struct {
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll down"),
	),
}

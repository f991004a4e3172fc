package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/monochrome/capture"
)

// StatsModel shows totals across captured sessions.
type StatsModel struct {
	data     any
	width    int
	quitting bool
}

// NewStatsModel creates a model over a *capture.Stats.
func NewStatsModel(data any) StatsModel {
	return StatsModel{data: data}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}
	st, ok := m.data.(*capture.Stats)
	if !ok {
		return "Invalid data type for " + ViewStatsCaptures
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Capture Statistics"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Sessions", fmt.Sprintf("%d", st.Sessions), accentColor),
		statBox("Failed", fmt.Sprintf("%d", st.Failed), failColor),
		statBox("Frames", fmt.Sprintf("%d", st.Frames), okColor),
		statBox("Sent", formatBytes(st.Bytes), pendingColor),
	))
	b.WriteString("\n")

	kinds := slices.Sorted(maps.Keys(st.FramesByKind))
	if len(kinds) > 0 {
		b.WriteString("\n")
		var peak int64
		for _, k := range kinds {
			peak = max(peak, st.FramesByKind[k])
		}
		barWidth := 30
		if m.width > 60 {
			barWidth = m.width - 40
		}
		for _, k := range kinds {
			n := st.FramesByKind[k]
			bar := strings.Repeat("█", max(int(int64(barWidth)*n/peak), 1))
			fmt.Fprintf(&b, "%s %s %d\n", LabelStyle.Width(18).Render(k), SuccessStyle.Render(bar), n)
		}
	}

	return b.String() + "\n" + HelpStyle.Render("q quit")
}

func statBox(label, value string, color lipgloss.Color) string {
	return StatBoxStyle.BorderForeground(color).Render(
		StatValueStyle.Render(value) + "\n" + StatLabelStyle.Render(label),
	)
}

package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/monochrome/capture"
)

const timeLayout = "2006-01-02 15:04:05"

// InspectModel shows one captured session.
type InspectModel struct {
	data     any
	offset   int
	height   int
	quitting bool
}

// NewInspectModel creates a model over a *capture.Session.
func NewInspectModel(data any) InspectModel {
	return InspectModel{data: data}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			m.offset = max(m.offset-1, 0)
		case key.Matches(msg, keys.Down):
			m.offset = min(m.offset+1, max(m.kindCount()-1, 0))
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}
	s, ok := m.data.(*capture.Session)
	if !ok {
		return "Invalid data type for " + ViewInspectSession
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Capture Session"))
	b.WriteString("\n\n")

	rows := [][2]string{
		{"Session", s.ID},
		{"Status", s.Status()},
		{"Operation", s.Operation},
		{"Transport", s.Transport},
		{"Address", s.Address},
		{"Started", formatTime(s.StartedAt)},
		{"Ended", formatTime(s.EndedAt)},
		{"Duration", s.Duration().String()},
		{"Frames", fmt.Sprintf("%d", s.Frames)},
		{"Bytes", formatBytes(s.Bytes)},
	}
	if s.Error != "" {
		rows = append(rows, [2]string{"Error", s.Error})
	}
	for _, row := range rows {
		value := ValueStyle.Render(row[1])
		if row[0] == "Status" || row[0] == "Error" {
			value = StatusStyle(s.Status()).Render(row[1])
		}
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(row[0]+":"), value)
	}

	kinds := slices.Sorted(maps.Keys(s.FramesByKind))
	if len(kinds) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Frames by kind"))
		b.WriteString("\n")
		for _, k := range kinds[min(m.offset, len(kinds)-1):] {
			fmt.Fprintf(&b, "%s %s\n", LabelStyle.Width(20).Render(k), ValueStyle.Render(fmt.Sprintf("%d", s.FramesByKind[k])))
		}
	}

	help := HelpStyle.Render("↑/↓ scroll • q quit")
	return BoxStyle.Render(b.String()) + "\n" + help
}

func (m InspectModel) kindCount() int {
	if s, ok := m.data.(*capture.Session); ok {
		return len(s.FramesByKind)
	}
	return 0
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(timeLayout)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

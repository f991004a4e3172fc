package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justapithecus/monochrome/capture"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{ViewInspectSession, true},
		{ViewStatsCaptures, true},
		{"list_sessions", false},
		{"replay", false},
		{"version", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			if got := IsTUISupported(tt.viewType); got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	if err := Run("list_sessions", nil); err == nil {
		t.Error("expected error for unsupported view type")
	}
}

func sampleSession() *capture.Session {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &capture.Session{
		ID:           "sess-1",
		Operation:    "show",
		Transport:    "unix",
		StartedAt:    start,
		EndedAt:      start.Add(2 * time.Second),
		Frames:       3,
		Bytes:        2048,
		FramesByKind: map[string]int64{"array_meta": 1, "array_chunk_f32": 1, "close_video": 1},
		Error:        "send frame: broken pipe",
	}
}

func TestInspectModel_View(t *testing.T) {
	m, err := NewModel(ViewInspectSession, sampleSession())
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	view := m.View()
	for _, want := range []string{"sess-1", "failed", "2s", "2.0 KiB", "array_chunk_f32", "broken pipe"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestInspectModel_ScrollAndQuit(t *testing.T) {
	var m tea.Model = NewInspectModel(sampleSession())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if strings.Contains(m.View(), "array_chunk_f32") {
		t.Error("first kind should scroll out of view")
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if !strings.Contains(m.View(), "array_chunk_f32") {
		t.Error("first kind should be visible after scrolling back")
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("expected quit command")
	}
	if m.View() != "" {
		t.Errorf("view after quit = %q, want empty", m.View())
	}
}

func TestStatsModel_View(t *testing.T) {
	st := &capture.Stats{
		Sessions:     4,
		Failed:       1,
		Frames:       9,
		Bytes:        512,
		FramesByKind: map[string]int64{"quit": 1, "array_meta": 8},
	}
	view := NewStatsModel(st).View()
	for _, want := range []string{"Sessions", "Failed", "512 B", "array_meta", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModels_RejectWrongData(t *testing.T) {
	if v := NewInspectModel("nope").View(); !strings.Contains(v, "Invalid data type") {
		t.Errorf("inspect view = %q", v)
	}
	if v := NewStatsModel(capture.Stats{}).View(); !strings.Contains(v, "Invalid data type") {
		t.Errorf("stats view = %q", v)
	}
}

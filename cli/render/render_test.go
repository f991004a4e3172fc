package render

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseFormat("csv"); err == nil || !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error should list valid formats, got: %v", err)
	}
}

type sessionRow struct {
	ID       string        `json:"id"`
	Frames   int64         `json:"frames"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Error    *string       `json:"error"`
	Kinds    []string      `json:"kinds"`
	internal int
}

func TestRenderer_Table_Slice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []sessionRow{
		{ID: "s1", Frames: 3, Started: started, Duration: 1500 * time.Millisecond, Kinds: []string{"quit"}},
		{ID: "s2", Frames: 10},
	}
	if err := r.Render(rows); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	for _, h := range []string{"ID", "FRAMES", "STARTED", "DURATION", "ERROR", "KINDS"} {
		if !strings.Contains(lines[0], h) {
			t.Errorf("header missing %s: %q", h, lines[0])
		}
	}
	if strings.Contains(lines[0], "INTERNAL") {
		t.Errorf("unexported field rendered: %q", lines[0])
	}
	for _, want := range []string{"s1", "2026-03-01T12:00:00Z", "1.5s", "[1 items]"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row missing %q: %q", want, lines[1])
		}
	}
}

func TestRenderer_Table_Struct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render(&sessionRow{ID: "s1", Frames: 42}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "id:") || !strings.Contains(got, "s1") {
		t.Errorf("missing id field: %s", got)
	}
	if !strings.Contains(got, "frames:") || !strings.Contains(got, "42") {
		t.Errorf("missing frames field: %s", got)
	}
}

func TestRenderer_Table_MapSorted(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render(map[string]int64{"quit": 1, "array_meta": 2, "close_video": 3}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	a, c, q := strings.Index(got, "array_meta"), strings.Index(got, "close_video"), strings.Index(got, "quit")
	if !(a < c && c < q) {
		t.Errorf("map keys not sorted:\n%s", got)
	}
}

func TestRenderer_Table_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, &buf)

	if err := r.Render([]sessionRow{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("empty slice should show '(no results)', got: %s", buf.String())
	}
}

func TestRenderer_JSONAndYAML(t *testing.T) {
	data := map[string]string{"key": "value"}

	var jsonBuf bytes.Buffer
	if err := NewRendererWithWriter(FormatJSON, &jsonBuf).Render(data); err != nil {
		t.Fatalf("Render json failed: %v", err)
	}
	if got := jsonBuf.String(); !strings.Contains(got, `"key": "value"`) {
		t.Errorf("json output = %s", got)
	}

	var yamlBuf bytes.Buffer
	if err := NewRendererWithWriter(FormatYAML, &yamlBuf).Render(data); err != nil {
		t.Fatalf("Render yaml failed: %v", err)
	}
	if got := yamlBuf.String(); got != "key: value\n" {
		t.Errorf("yaml output = %q", got)
	}
}

func TestRenderer_RenderTUIUnsupported(t *testing.T) {
	r := NewRendererWithWriter(FormatJSON, &bytes.Buffer{})
	if err := r.RenderTUI("list_sessions", nil); err == nil {
		t.Error("expected error for unsupported view")
	}
}

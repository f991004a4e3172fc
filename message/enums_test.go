package message

import (
	"errors"
	"testing"
)

func TestParseColorMap(t *testing.T) {
	tests := []struct {
		in   string
		want ColorMap
	}{
		{"default", ColorMapDefault},
		{"HSV", ColorMapHSV},
		{"prgn", ColorMapPRGn},
		{"PRGn_POS", ColorMapPRGnPos},
		{"rdbu", ColorMapRdBu},
		{"tab10", ColorMapTab10},
	}
	for _, tt := range tests {
		got, err := ParseColorMap(tt.in)
		if err != nil {
			t.Errorf("ParseColorMap(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColorMap(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	_, err := ParseColorMap("jet")
	var enumErr *EnumError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected *EnumError, got %v", err)
	}
	if enumErr.Value != "jet" {
		t.Errorf("Value = %q, want jet", enumErr.Value)
	}
}

func TestParseBitRange(t *testing.T) {
	tests := map[string]BitRange{
		"autodetect": BitRangeAutodetect,
		"minmax":     BitRangeMinMax,
		"UINT12":     BitRangeUint12,
		"phase_diff": BitRangePhaseDiff,
		"int8":       BitRangeInt8,
	}
	for in, want := range tests {
		got, err := ParseBitRange(in)
		if err != nil || got != want {
			t.Errorf("ParseBitRange(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseBitRange("uint32"); err == nil {
		t.Error("expected error for uint32")
	}
}

func TestParseOpacity(t *testing.T) {
	tests := map[string]OpacityFunction{
		"linear":   OpacityLinear,
		"LINEAR_R": OpacityLinearR,
		"centered": OpacityCentered,
		"1":        OpacityFixed100,
		"1.0":      OpacityFixed100,
		"0.75":     OpacityFixed75,
		"0.5":      OpacityFixed50,
		".25":      OpacityFixed25,
		"0":        OpacityFixed0,
	}
	for in, want := range tests {
		got, err := ParseOpacity(in)
		if err != nil || got != want {
			t.Errorf("ParseOpacity(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	for _, bad := range []string{"0.3", "half", "2"} {
		if _, err := ParseOpacity(bad); err == nil {
			t.Errorf("ParseOpacity(%q) succeeded, want error", bad)
		}
	}
}

func TestEnumValuesMatchWire(t *testing.T) {
	checks := []struct {
		name string
		got  int
		want int
	}{
		{"ArrayUint16", int(ArrayUint16), 2},
		{"ColorMapTab10", int(ColorMapTab10), 9},
		{"BitRangeInt8", int(BitRangeInt8), 10},
		{"OpacityFixed0", int(OpacityFixed0), 8},
		{"KindQuit", int(KindQuit), 10},
		{"KindPointsVideo", int(KindPointsVideo), 7},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestArrayDataType_ChunkKind(t *testing.T) {
	if ArrayFloat.ChunkKind() != KindArrayDataChunkF32 {
		t.Error("float chunk kind")
	}
	if ArrayUint8.ChunkKind() != KindArrayDataChunkU8 {
		t.Error("uint8 chunk kind")
	}
	if ArrayUint16.ChunkKind() != KindArrayDataChunkU16 {
		t.Error("uint16 chunk kind")
	}
}

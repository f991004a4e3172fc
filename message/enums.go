package message

import (
	"fmt"
	"strconv"
	"strings"
)

// EnumError reports a name or value that does not belong to an enum.
type EnumError struct {
	Enum  string
	Value string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Enum, e.Value)
}

// enumNames maps lower-cased names to values and back.
type enumNames[T ~int32 | ~uint8] struct {
	enum  string
	names []string
}

func (n enumNames[T]) parse(s string) (T, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range n.names {
		if strings.ToLower(name) == key {
			return T(i), nil
		}
	}
	return 0, &EnumError{Enum: n.enum, Value: s}
}

func (n enumNames[T]) name(v T) string {
	if int(v) >= 0 && int(v) < len(n.names) {
		return n.names[int(v)]
	}
	return fmt.Sprintf("%s(%d)", n.enum, int(v))
}

func (n enumNames[T]) valid(v T) bool {
	return int(v) >= 0 && int(v) < len(n.names)
}

// ArrayDataType is the element type of array data chunks.
type ArrayDataType int32

const (
	ArrayFloat ArrayDataType = iota
	ArrayUint8
	ArrayUint16
)

var arrayDataTypeNames = enumNames[ArrayDataType]{
	enum:  "array data type",
	names: []string{"float", "uint8", "uint16"},
}

func (t ArrayDataType) String() string { return arrayDataTypeNames.name(t) }

// ChunkKind returns the data chunk kind carrying elements of this type.
func (t ArrayDataType) ChunkKind() Kind {
	switch t {
	case ArrayUint8:
		return KindArrayDataChunkU8
	case ArrayUint16:
		return KindArrayDataChunkU16
	default:
		return KindArrayDataChunkF32
	}
}

// ColorMap selects the viewer's color map.
type ColorMap int32

const (
	ColorMapDefault ColorMap = iota
	ColorMapGray
	ColorMapHSV
	ColorMapBlackbody
	ColorMapViridis
	ColorMapPRGn
	ColorMapPRGnPos
	ColorMapPRGnNeg
	ColorMapRdBu
	ColorMapTab10
)

var colorMapNames = enumNames[ColorMap]{
	enum: "color map",
	names: []string{
		"default", "gray", "hsv", "blackbody", "viridis",
		"PRGn", "PRGn_pos", "PRGn_neg", "RdBu", "tab10",
	},
}

// ParseColorMap looks up a color map by case-insensitive name.
func ParseColorMap(s string) (ColorMap, error) { return colorMapNames.parse(s) }

func (c ColorMap) String() string { return colorMapNames.name(c) }

// BitRange is the value range the viewer assumes for an array.
type BitRange int32

const (
	BitRangeAutodetect BitRange = iota
	BitRangeMinMax
	BitRangeUint8
	BitRangeUint10
	BitRangeUint12
	BitRangeUint16
	BitRangeFloat
	BitRangeDiff
	BitRangePhase
	BitRangePhaseDiff
	BitRangeInt8
)

var bitRangeNames = enumNames[BitRange]{
	enum: "bit range",
	names: []string{
		"autodetect", "MinMax", "uint8", "uint10", "uint12", "uint16",
		"float", "diff", "phase", "phase_diff", "int8",
	},
}

// ParseBitRange looks up a bit range by case-insensitive name.
func ParseBitRange(s string) (BitRange, error) { return bitRangeNames.parse(s) }

func (b BitRange) String() string { return bitRangeNames.name(b) }

// OpacityFunction controls how a layer is blended over its parent.
type OpacityFunction int32

const (
	OpacityNone OpacityFunction = iota
	OpacityLinear
	OpacityLinearR
	OpacityCentered
	OpacityFixed100
	OpacityFixed75
	OpacityFixed50
	OpacityFixed25
	OpacityFixed0
)

var opacityNames = enumNames[OpacityFunction]{
	enum: "opacity function",
	names: []string{
		"none", "linear", "linear_r", "centered",
		"fixed_100", "fixed_75", "fixed_50", "fixed_25", "fixed_0",
	},
}

func (o OpacityFunction) String() string { return opacityNames.name(o) }

// OpacityFromFloat maps a fixed opacity level to its function.
// Only 0, 0.25, 0.5, 0.75 and 1 are accepted.
func OpacityFromFloat(f float64) (OpacityFunction, error) {
	switch f {
	case 1:
		return OpacityFixed100, nil
	case 0.75:
		return OpacityFixed75, nil
	case 0.5:
		return OpacityFixed50, nil
	case 0.25:
		return OpacityFixed25, nil
	case 0:
		return OpacityFixed0, nil
	}
	return 0, &EnumError{Enum: opacityNames.enum, Value: strconv.FormatFloat(f, 'g', -1, 64)}
}

// ParseOpacity accepts either a function name or a numeric fixed level
// such as "0.5".
func ParseOpacity(s string) (OpacityFunction, error) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return OpacityFromFloat(f)
	}
	return opacityNames.parse(s)
}

// VideoExportFormat is the container format of an exported video.
type VideoExportFormat uint8

const (
	ExportFFmpeg VideoExportFormat = iota
)

var exportFormatNames = enumNames[VideoExportFormat]{
	enum:  "video export format",
	names: []string{"ffmpeg"},
}

// ParseVideoExportFormat looks up an export format by case-insensitive name.
func ParseVideoExportFormat(s string) (VideoExportFormat, error) {
	return exportFormatNames.parse(s)
}

func (f VideoExportFormat) String() string { return exportFormatNames.name(f) }

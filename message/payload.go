package message

import (
	"fmt"
	"math"

	"github.com/justapithecus/monochrome/ipc"
)

// Payload is one message of the catalog.
type Payload interface {
	Kind() Kind
	values() (ipc.Values, error)
}

// Color is an RGBA color with components in [0, 1].
type Color = ipc.Color

// MetadataEntry is one key/value pair shown alongside an array.
type MetadataEntry struct {
	Key   string
	Value string
}

// FilePaths asks the viewer to open files. Paths are absolute.
type FilePaths struct {
	Paths []string
}

func (*FilePaths) Kind() Kind { return KindFilePaths }

func (p *FilePaths) values() (ipc.Values, error) {
	return ipc.Values{"file": nonNil(p.Paths)}, nil
}

// ArrayMeta announces an array whose elements follow in data chunks.
// NT is the number of frames times NC.
type ArrayMeta struct {
	Type       ArrayDataType
	NX         int
	NY         int
	NT         int
	NC         int
	BitRange   BitRange
	ColorMap   ColorMap
	VMin       *float32
	VMax       *float32
	Opacity    *OpacityFunction
	Name       string
	ParentName *string
	Duration   float32
	FPS        float32
	Date       string
	Comment    string
	Metadata   []MetadataEntry
}

func (*ArrayMeta) Kind() Kind { return KindArrayMeta }

// Elements returns the number of array elements the meta announces.
func (m *ArrayMeta) Elements() int {
	return m.NX * m.NY * m.NT
}

func (m *ArrayMeta) values() (ipc.Values, error) {
	if !arrayDataTypeNames.valid(m.Type) {
		return nil, &EnumError{Enum: arrayDataTypeNames.enum, Value: m.Type.String()}
	}
	if !bitRangeNames.valid(m.BitRange) {
		return nil, &EnumError{Enum: bitRangeNames.enum, Value: m.BitRange.String()}
	}
	if !colorMapNames.valid(m.ColorMap) {
		return nil, &EnumError{Enum: colorMapNames.enum, Value: m.ColorMap.String()}
	}
	if err := checkDims(KindArrayMeta, m.NX, m.NY, m.NT, m.NC); err != nil {
		return nil, err
	}

	v := ipc.Values{
		"type":     int32(m.Type),
		"nx":       m.NX,
		"ny":       m.NY,
		"nt":       m.NT,
		"nc":       m.NC,
		"bitrange": int32(m.BitRange),
		"cmap":     int32(m.ColorMap),
		"name":     m.Name,
		"duration": m.Duration,
		"fps":      m.FPS,
		"date":     m.Date,
		"comment":  m.Comment,
	}
	if m.VMin != nil {
		v["vmin"] = *m.VMin
	}
	if m.VMax != nil {
		v["vmax"] = *m.VMax
	}
	if m.Opacity != nil {
		if !opacityNames.valid(*m.Opacity) {
			return nil, &EnumError{Enum: opacityNames.enum, Value: m.Opacity.String()}
		}
		v["opacity"] = int32(*m.Opacity)
	}
	if m.ParentName != nil {
		v["parent_name"] = *m.ParentName
	}
	if len(m.Metadata) > 0 {
		entries := make([]ipc.Values, len(m.Metadata))
		for i, e := range m.Metadata {
			entries[i] = ipc.Values{"key": e.Key, "val": e.Value}
		}
		v["metadata"] = entries
	}
	return v, nil
}

// FlowMeta announces an optical flow field. NT is twice the frame count.
type FlowMeta struct {
	NX         int
	NY         int
	NT         int
	Name       string
	ParentName string
	Color      *Color
}

func (*FlowMeta) Kind() Kind { return KindFlowMeta }

// Elements returns the number of float32 values the meta announces.
func (m *FlowMeta) Elements() int {
	return m.NX * m.NY * m.NT
}

func (m *FlowMeta) values() (ipc.Values, error) {
	if err := checkDims(KindFlowMeta, m.NX, m.NY, m.NT); err != nil {
		return nil, err
	}
	v := ipc.Values{
		"nx":          m.NX,
		"ny":          m.NY,
		"nt":          m.NT,
		"name":        m.Name,
		"parent_name": m.ParentName,
	}
	if m.Color != nil {
		v["color"] = *m.Color
	}
	return v, nil
}

// Element is a type that array data chunks can carry.
type Element interface {
	float32 | uint8 | uint16
}

// ArrayDataChunk carries the contiguous elements [Start, Start+len(Data))
// of the flattened array announced by the preceding meta.
type ArrayDataChunk[T Element] struct {
	Start uint64
	Data  []T
}

func (c *ArrayDataChunk[T]) Kind() Kind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return KindArrayDataChunkU8
	case uint16:
		return KindArrayDataChunkU16
	default:
		return KindArrayDataChunkF32
	}
}

func (c *ArrayDataChunk[T]) values() (ipc.Values, error) {
	return ipc.Values{"startidx": c.Start, "data": nonNil(c.Data)}, nil
}

// PointsVideo is a per-frame point overlay. TimeIdxs holds the cumulative
// end offset of each frame into Points, which interleaves x and y.
type PointsVideo struct {
	Name       string
	ParentName *string
	Points     []float32
	TimeIdxs   []uint32
	Color      *Color
	PointSize  *float32
}

func (*PointsVideo) Kind() Kind { return KindPointsVideo }

// Frame returns the interleaved coordinates of frame i.
func (p *PointsVideo) Frame(i int) []float32 {
	start := uint32(0)
	if i > 0 {
		start = p.TimeIdxs[i-1]
	}
	return p.Points[start:p.TimeIdxs[i]]
}

func (p *PointsVideo) values() (ipc.Values, error) {
	prev := uint32(0)
	for i, idx := range p.TimeIdxs {
		if idx < prev {
			return nil, fmt.Errorf("points frame %d: offset %d precedes %d", i, idx, prev)
		}
		prev = idx
	}
	if int(prev) != len(p.Points) {
		return nil, fmt.Errorf("points offsets end at %d, have %d values", prev, len(p.Points))
	}

	v := ipc.Values{
		"name":        p.Name,
		"points_data": nonNil(p.Points),
		"time_idxs":   nonNil(p.TimeIdxs),
	}
	if p.ParentName != nil {
		v["parent_name"] = *p.ParentName
	}
	if p.Color != nil {
		v["color"] = *p.Color
	}
	if p.PointSize != nil {
		v["point_size"] = *p.PointSize
	}
	return v, nil
}

// VideoExport asks the viewer to render a recording to a file.
// TEnd of -1 means the last frame.
type VideoExport struct {
	Recording            string
	Filepath             string
	Description          string
	Format               VideoExportFormat
	FPS                  int
	TStart               int
	TEnd                 int
	CloseAfterCompletion bool
}

func (*VideoExport) Kind() Kind { return KindVideoExport }

func (e *VideoExport) values() (ipc.Values, error) {
	if !exportFormatNames.valid(e.Format) {
		return nil, &EnumError{Enum: exportFormatNames.enum, Value: e.Format.String()}
	}
	return ipc.Values{
		"recording":              e.Recording,
		"filepath":               e.Filepath,
		"description":            e.Description,
		"format":                 uint8(e.Format),
		"fps":                    e.FPS,
		"t_start":                e.TStart,
		"t_end":                  e.TEnd,
		"close_after_completion": e.CloseAfterCompletion,
	}, nil
}

// CloseVideo closes a recording. An empty name closes the most recent one.
type CloseVideo struct {
	Name string
}

func (*CloseVideo) Kind() Kind { return KindCloseVideo }

func (c *CloseVideo) values() (ipc.Values, error) {
	return ipc.Values{"name": c.Name}, nil
}

// Quit terminates the viewer.
type Quit struct{}

func (*Quit) Kind() Kind { return KindQuit }

func (*Quit) values() (ipc.Values, error) { return nil, nil }

// DimensionError reports an array dimension the wire format cannot carry.
type DimensionError struct {
	Kind  Kind
	Value int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: dimension %d out of range", e.Kind, e.Value)
}

func checkDims(k Kind, dims ...int) error {
	for _, d := range dims {
		if d < 0 || d > math.MaxInt32 {
			return &DimensionError{Kind: k, Value: d}
		}
	}
	return nil
}

// nonNil keeps empty vectors present on the wire.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Package bundle reads and writes the msgpack files the CLI sends to the
// viewer. A bundle holds one dense array (video, layer or flow) or one
// per-frame point list.
package bundle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/monochrome/iox"
	"github.com/justapithecus/monochrome/ndarray"
)

// MaxFileSize bounds the bundle files Read accepts.
const MaxFileSize = 2 << 30

// Bundle kinds.
const (
	KindVideo  = "video"
	KindLayer  = "layer"
	KindFlow   = "flow"
	KindPoints = "points"
)

// Array is a dense array bundle. Data is row-major little-endian.
type Array struct {
	Kind     string            `msgpack:"kind"`
	Name     string            `msgpack:"name,omitempty"`
	Parent   *string           `msgpack:"parent,omitempty"`
	Shape    []int             `msgpack:"shape"`
	DType    string            `msgpack:"dtype"`
	Data     []byte            `msgpack:"data"`
	Metadata map[string]string `msgpack:"metadata,omitempty"`
}

// Points is a point-overlay bundle. Each frame holds interleaved x, y.
type Points struct {
	Kind      string      `msgpack:"kind"`
	Name      string      `msgpack:"name,omitempty"`
	Parent    *string     `msgpack:"parent,omitempty"`
	Frames    [][]float32 `msgpack:"frames"`
	Color     string      `msgpack:"color,omitempty"`
	PointSize *float32    `msgpack:"point_size,omitempty"`
}

// FormatError reports a bundle that cannot be decoded.
type FormatError struct {
	Path string
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	prefix := "bundle"
	if e.Path != "" {
		prefix = "bundle " + e.Path
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Msg)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

type kindProbe struct {
	Kind string `msgpack:"kind"`
}

// Decode returns *Array or *Points depending on the kind field.
func Decode(b []byte) (any, error) {
	var probe kindProbe
	if err := msgpack.Unmarshal(b, &probe); err != nil {
		return nil, &FormatError{Msg: "failed to decode bundle kind", Err: err}
	}

	switch probe.Kind {
	case KindVideo, KindLayer, KindFlow:
		var a Array
		if err := msgpack.Unmarshal(b, &a); err != nil {
			return nil, &FormatError{Msg: "failed to decode array bundle", Err: err}
		}
		return &a, nil
	case KindPoints:
		var p Points
		if err := msgpack.Unmarshal(b, &p); err != nil {
			return nil, &FormatError{Msg: "failed to decode points bundle", Err: err}
		}
		return &p, nil
	case "":
		return nil, &FormatError{Msg: "missing kind"}
	default:
		return nil, &FormatError{Msg: fmt.Sprintf("unknown kind %q", probe.Kind)}
	}
}

// Read decodes the bundle at path.
func Read(path string) (any, error) {
	b, err := iox.ReadFileLimit(path, MaxFileSize)
	if err != nil {
		return nil, err
	}
	v, err := Decode(b)
	if fe, ok := err.(*FormatError); ok {
		fe.Path = path
	}
	return v, err
}

// Encode serializes an *Array or *Points.
func Encode(v any) ([]byte, error) {
	switch v.(type) {
	case *Array, *Points:
		return msgpack.Marshal(v)
	default:
		return nil, fmt.Errorf("bundle: cannot encode %T", v)
	}
}

// Write encodes v to path.
func Write(path string, v any) error {
	b, err := Encode(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// FromNDArray packs an array into a bundle of the given kind.
func FromNDArray(kind string, a *ndarray.Array) (*Array, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, a.Data()); err != nil {
		return nil, fmt.Errorf("bundle: pack %s data: %w", a.DType(), err)
	}
	return &Array{
		Kind:  kind,
		Shape: a.Shape(),
		DType: a.DType().String(),
		Data:  buf.Bytes(),
	}, nil
}

// NDArray unpacks the array data.
func (b *Array) NDArray() (*ndarray.Array, error) {
	dtype, err := ndarray.ParseDType(b.DType)
	if err != nil {
		return nil, err
	}
	n := 1
	for _, d := range b.Shape {
		if d < 0 {
			return nil, &FormatError{Msg: fmt.Sprintf("negative dimension in shape %v", b.Shape)}
		}
		n *= d
	}

	switch dtype {
	case ndarray.Float32:
		return unpack[float32](b, n)
	case ndarray.Float64:
		return unpack[float64](b, n)
	case ndarray.Uint8:
		return unpack[uint8](b, n)
	case ndarray.Uint16:
		return unpack[uint16](b, n)
	case ndarray.Uint32:
		return unpack[uint32](b, n)
	case ndarray.Uint64:
		return unpack[uint64](b, n)
	case ndarray.Int8:
		return unpack[int8](b, n)
	case ndarray.Int16:
		return unpack[int16](b, n)
	case ndarray.Int32:
		return unpack[int32](b, n)
	case ndarray.Int64:
		return unpack[int64](b, n)
	case ndarray.Bool:
		return unpack[bool](b, n)
	case ndarray.Complex64:
		return unpack[complex64](b, n)
	default:
		return unpack[complex128](b, n)
	}
}

func unpack[T ndarray.Element](b *Array, n int) (*ndarray.Array, error) {
	data := make([]T, n)
	if size := binary.Size(data); size != len(b.Data) {
		return nil, &FormatError{
			Msg: fmt.Sprintf("%s data is %d bytes, shape %v needs %d", b.DType, len(b.Data), b.Shape, size),
		}
	}
	if err := binary.Read(bytes.NewReader(b.Data), binary.LittleEndian, data); err != nil {
		return nil, &FormatError{Msg: "failed to unpack data", Err: err}
	}
	return ndarray.New(data, b.Shape...)
}

// PointFrames returns the per-frame points.
func (p *Points) PointFrames() ([][]ndarray.Point, error) {
	out := make([][]ndarray.Point, len(p.Frames))
	for i, coords := range p.Frames {
		if len(coords)%2 != 0 {
			return nil, &FormatError{Msg: fmt.Sprintf("frame %d has an odd coordinate count %d", i, len(coords))}
		}
		pts := make([]ndarray.Point, len(coords)/2)
		for j := range pts {
			pts[j] = ndarray.Point{X: coords[2*j], Y: coords[2*j+1]}
		}
		out[i] = pts
	}
	return out, nil
}

package ndarray

import (
	"fmt"
	"slices"
)

// ShapeError reports an array whose shape cannot be displayed.
type ShapeError struct {
	Shape []int
	Msg   string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unsupported shape %v: %s", e.Shape, e.Msg)
}

// DTypeError reports an element type that cannot be displayed.
type DTypeError struct {
	DType DType
	Msg   string
}

func (e *DTypeError) Error() string {
	return fmt.Sprintf("dtype %s: %s", e.DType, e.Msg)
}

// Video is an array in canonical (frames, height, width, channels) layout
// with a wire-native element type. Data is one of []float32, []uint8 or
// []uint16.
type Video struct {
	Frames   int
	Height   int
	Width    int
	Channels int
	DType    DType
	Data     any
}

// Shape returns the canonical four-dimensional shape.
func (v *Video) Shape() []int {
	return []int{v.Frames, v.Height, v.Width, v.Channels}
}

// Len returns the number of elements.
func (v *Video) Len() int {
	return v.Frames * v.Height * v.Width * v.Channels
}

// NormalizeVideo squeezes a and maps it to canonical layout:
//
//	(H, W)          -> (1, H, W, 1)
//	(H, W, 3|4)     -> (1, H, W, 3)   alpha dropped
//	(T, H, W)       -> (T, H, W, 1)
//	(T, H, W, 3|4)  -> (T, H, W, 3)   alpha dropped
//
// float32, uint8 and uint16 elements pass through, complex elements are
// rejected and anything else is converted to float32. Normalizing an
// already canonical video returns an equal video.
func NormalizeVideo(a *Array) (*Video, error) {
	if a.dtype.IsComplex() {
		return nil, &DTypeError{DType: a.dtype, Msg: "complex arrays are not supported"}
	}

	orig := a.Shape()
	s := a.Squeeze()
	shape := s.shape

	var t, h, w, c int
	switch len(shape) {
	case 2:
		t, h, w, c = 1, shape[0], shape[1], 1
	case 3:
		if shape[2] == 3 || shape[2] == 4 {
			t, h, w, c = 1, shape[0], shape[1], shape[2]
		} else {
			t, h, w, c = shape[0], shape[1], shape[2], 1
		}
	case 4:
		if shape[3] != 3 && shape[3] != 4 {
			return nil, &ShapeError{
				Shape: orig,
				Msg:   "four dimensional arrays need a trailing dimension of 3 (RGB) or 4 (RGBA)",
			}
		}
		t, h, w, c = shape[0], shape[1], shape[2], shape[3]
	default:
		return nil, &ShapeError{Shape: orig, Msg: "not an image or video shape"}
	}

	data, dtype, err := wireData(s)
	if err != nil {
		return nil, err
	}
	if c == 4 {
		data = dropAlpha(data)
		c = 3
	}

	return &Video{Frames: t, Height: h, Width: w, Channels: c, DType: dtype, Data: data}, nil
}

// wireData returns the elements in a wire-native type.
func wireData(a *Array) (any, DType, error) {
	switch d := a.data.(type) {
	case []float32:
		return d, Float32, nil
	case []uint8:
		return d, Uint8, nil
	case []uint16:
		return d, Uint16, nil
	}
	f, err := a.Float32s()
	if err != nil {
		return nil, 0, err
	}
	return f, Float32, nil
}

func dropAlpha(data any) any {
	switch d := data.(type) {
	case []float32:
		return stripEveryFourth(d)
	case []uint8:
		return stripEveryFourth(d)
	case []uint16:
		return stripEveryFourth(d)
	}
	return data
}

func stripEveryFourth[T any](in []T) []T {
	out := make([]T, 0, len(in)/4*3)
	for i := 0; i+3 < len(in); i += 4 {
		out = append(out, in[i], in[i+1], in[i+2])
	}
	return out
}

// Flow is a validated optical flow field of shape (T, H, W, 2).
type Flow struct {
	Frames int
	Height int
	Width  int
	Data   []float32
}

// WireFrames is the frame count announced on the wire: two per flow frame.
func (f *Flow) WireFrames() int { return 2 * f.Frames }

// ValidateFlow accepts exactly four-dimensional float32 arrays whose last
// dimension is 2. No squeezing or conversion is applied.
func ValidateFlow(a *Array) (*Flow, error) {
	shape := a.Shape()
	if len(shape) != 4 {
		return nil, &ShapeError{Shape: shape, Msg: "flow must be four dimensional"}
	}
	if a.dtype != Float32 {
		return nil, &DTypeError{DType: a.dtype, Msg: "flow must be float32"}
	}
	if shape[3] != 2 {
		return nil, &ShapeError{Shape: shape, Msg: "flow must have shape (T, H, W, 2)"}
	}
	return &Flow{Frames: shape[0], Height: shape[1], Width: shape[2], Data: a.data.([]float32)}, nil
}

// IsFlowShape reports whether a looks like a flow field: four dimensions
// with a trailing 2.
func IsFlowShape(a *Array) bool {
	return a.Ndim() == 4 && a.shape[3] == 2
}

// Equal reports whether two arrays have the same shape, dtype and elements.
func Equal(a, b *Array) bool {
	if a.dtype != b.dtype || !slices.Equal(a.shape, b.shape) {
		return false
	}
	switch x := a.data.(type) {
	case []float32:
		return slices.Equal(x, b.data.([]float32))
	case []uint8:
		return slices.Equal(x, b.data.([]uint8))
	case []uint16:
		return slices.Equal(x, b.data.([]uint16))
	}
	fa, errA := a.Float32s()
	fb, errB := b.Float32s()
	return errA == nil && errB == nil && slices.Equal(fa, fb)
}

// Array returns the video as a four-dimensional array.
func (v *Video) Array() *Array {
	return &Array{shape: v.Shape(), dtype: v.DType, data: v.Data}
}

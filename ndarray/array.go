// Package ndarray holds dense row-major arrays and the shape rules used to
// turn them into viewer videos, flow fields and point overlays.
package ndarray

import (
	"fmt"
	"slices"
)

// DType is the element type of an Array.
type DType int

const (
	Float32 DType = iota
	Float64
	Uint8
	Uint16
	Uint32
	Uint64
	Int8
	Int16
	Int32
	Int64
	Bool
	Complex64
	Complex128
)

var dtypeNames = [...]string{
	Float32:    "float32",
	Float64:    "float64",
	Uint8:      "uint8",
	Uint16:     "uint16",
	Uint32:     "uint32",
	Uint64:     "uint64",
	Int8:       "int8",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	Bool:       "bool",
	Complex64:  "complex64",
	Complex128: "complex128",
}

func (d DType) String() string {
	if int(d) >= 0 && int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

// ParseDType looks up a dtype by name.
func ParseDType(s string) (DType, error) {
	for i, name := range dtypeNames {
		if name == s {
			return DType(i), nil
		}
	}
	return 0, &DTypeError{Msg: fmt.Sprintf("unknown dtype %q", s)}
}

// IsComplex reports whether the dtype holds complex numbers.
func (d DType) IsComplex() bool {
	return d == Complex64 || d == Complex128
}

// Element is any type an Array can hold.
type Element interface {
	float32 | float64 |
		uint8 | uint16 | uint32 | uint64 |
		int8 | int16 | int32 | int64 |
		bool | complex64 | complex128
}

// Array is an n-dimensional row-major array.
type Array struct {
	shape []int
	dtype DType
	data  any
}

// New wraps data with the given shape. The product of the shape must equal
// len(data). data is not copied.
func New[T Element](data []T, shape ...int) (*Array, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, &ShapeError{Shape: shape, Msg: "negative dimension"}
		}
		n *= d
	}
	if n != len(data) {
		return nil, &ShapeError{
			Shape: shape,
			Msg:   fmt.Sprintf("shape holds %d elements, data has %d", n, len(data)),
		}
	}
	return &Array{shape: slices.Clone(shape), dtype: dtypeOf[T](), data: data}, nil
}

// MustNew is New that panics on error. Intended for tests and literals.
func MustNew[T Element](data []T, shape ...int) *Array {
	a, err := New(data, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

func dtypeOf[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case uint8:
		return Uint8
	case uint16:
		return Uint16
	case uint32:
		return Uint32
	case uint64:
		return Uint64
	case int8:
		return Int8
	case int16:
		return Int16
	case int32:
		return Int32
	case int64:
		return Int64
	case bool:
		return Bool
	case complex64:
		return Complex64
	case complex128:
		return Complex128
	}
	panic("ndarray: unsupported element type")
}

// Shape returns a copy of the array's dimensions.
func (a *Array) Shape() []int { return slices.Clone(a.shape) }

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.shape) }

// DType returns the element type.
func (a *Array) DType() DType { return a.dtype }

// Len returns the total number of elements.
func (a *Array) Len() int {
	n := 1
	for _, d := range a.shape {
		n *= d
	}
	return n
}

// Data returns the backing slice.
func (a *Array) Data() any { return a.data }

// Reshape returns a view with a new shape holding the same elements.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != a.Len() {
		return nil, &ShapeError{
			Shape: a.shape,
			Msg:   fmt.Sprintf("cannot reshape %d elements to %v", a.Len(), shape),
		}
	}
	return &Array{shape: slices.Clone(shape), dtype: a.dtype, data: a.data}, nil
}

// Squeeze drops every dimension of length one.
func (a *Array) Squeeze() *Array {
	shape := make([]int, 0, len(a.shape))
	for _, d := range a.shape {
		if d != 1 {
			shape = append(shape, d)
		}
	}
	return &Array{shape: shape, dtype: a.dtype, data: a.data}
}

// Float32s returns the elements as float32, converting when needed.
// Complex arrays cannot be converted.
func (a *Array) Float32s() ([]float32, error) {
	switch d := a.data.(type) {
	case []float32:
		return d, nil
	case []float64:
		return convert(d), nil
	case []uint8:
		return convert(d), nil
	case []uint16:
		return convert(d), nil
	case []uint32:
		return convert(d), nil
	case []uint64:
		return convert(d), nil
	case []int8:
		return convert(d), nil
	case []int16:
		return convert(d), nil
	case []int32:
		return convert(d), nil
	case []int64:
		return convert(d), nil
	case []bool:
		out := make([]float32, len(d))
		for i, b := range d {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	}
	return nil, &DTypeError{DType: a.dtype, Msg: "cannot convert to float32"}
}

type number interface {
	float64 | uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64
}

func convert[T number](in []T) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

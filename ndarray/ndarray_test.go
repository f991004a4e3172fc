package ndarray

import (
	"errors"
	"slices"
	"testing"
)

func TestNormalizeVideo_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		array *Array
		want  []int
	}{
		{"image", MustNew(make([]float32, 128*256), 128, 256), []int{1, 128, 256, 1}},
		{"image with singleton axes", MustNew(make([]float32, 128*256), 1, 128, 256, 1), []int{1, 128, 256, 1}},
		{"grayscale video", MustNew(make([]uint16, 5*4*6), 5, 4, 6), []int{5, 4, 6, 1}},
		{"rgb image", MustNew(make([]uint8, 4*6*3), 4, 6, 3), []int{1, 4, 6, 3}},
		{"rgba image", MustNew(make([]uint8, 4*6*4), 4, 6, 4), []int{1, 4, 6, 3}},
		{"rgb video", MustNew(make([]float32, 2*4*6*3), 2, 4, 6, 3), []int{2, 4, 6, 3}},
		{"rgba video", MustNew(make([]float32, 2*4*6*4), 2, 4, 6, 4), []int{2, 4, 6, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NormalizeVideo(tt.array)
			if err != nil {
				t.Fatalf("NormalizeVideo failed: %v", err)
			}
			if !slices.Equal(v.Shape(), tt.want) {
				t.Errorf("Shape = %v, want %v", v.Shape(), tt.want)
			}
			if n := dataLen(v.Data); n != v.Len() {
				t.Errorf("data has %d elements, shape holds %d", n, v.Len())
			}
		})
	}
}

func TestNormalizeVideo_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		array *Array
		shape bool
	}{
		{"four dims without color", MustNew(make([]float32, 2*4*6*5), 2, 4, 6, 5), true},
		{"five dims", MustNew(make([]float32, 2*2*2*2*2), 2, 2, 2, 2, 2), true},
		{"vector", MustNew(make([]float32, 8), 8), true},
		{"complex", MustNew(make([]complex64, 4), 2, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeVideo(tt.array)
			if err == nil {
				t.Fatal("expected error")
			}
			var shapeErr *ShapeError
			var dtypeErr *DTypeError
			if tt.shape && !errors.As(err, &shapeErr) {
				t.Errorf("expected *ShapeError, got %T", err)
			}
			if !tt.shape && !errors.As(err, &dtypeErr) {
				t.Errorf("expected *DTypeError, got %T", err)
			}
		})
	}
}

func TestNormalizeVideo_DTypes(t *testing.T) {
	tests := []struct {
		name  string
		array *Array
		want  DType
	}{
		{"float32 passes", MustNew([]float32{1, 2, 3, 4}, 2, 2), Float32},
		{"uint8 passes", MustNew([]uint8{1, 2, 3, 4}, 2, 2), Uint8},
		{"uint16 passes", MustNew([]uint16{1, 2, 3, 4}, 2, 2), Uint16},
		{"float64 converts", MustNew([]float64{1, 2, 3, 4}, 2, 2), Float32},
		{"int32 converts", MustNew([]int32{-1, 2, 3, 4}, 2, 2), Float32},
		{"bool converts", MustNew([]bool{true, false, true, false}, 2, 2), Float32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NormalizeVideo(tt.array)
			if err != nil {
				t.Fatalf("NormalizeVideo failed: %v", err)
			}
			if v.DType != tt.want {
				t.Errorf("DType = %v, want %v", v.DType, tt.want)
			}
		})
	}

	v, _ := NormalizeVideo(MustNew([]int32{-1, 2, 3, 4}, 2, 2))
	if got := v.Data.([]float32); !slices.Equal(got, []float32{-1, 2, 3, 4}) {
		t.Errorf("converted data = %v", got)
	}
}

func TestNormalizeVideo_DropsAlpha(t *testing.T) {
	rgba := func(frames int) []uint8 {
		var out []uint8
		for i := range frames * 4 {
			out = append(out, uint8(3*i+1), uint8(3*i+2), uint8(3*i+3), 255)
		}
		return out
	}
	rgb := func(frames int) []uint8 {
		var out []uint8
		for i := range frames * 4 {
			out = append(out, uint8(3*i+1), uint8(3*i+2), uint8(3*i+3))
		}
		return out
	}

	tests := []struct {
		name      string
		shape     []int
		frames    int
		wantShape []int
	}{
		{"single frame with leading axis", []int{1, 2, 2, 4}, 1, []int{1, 2, 2, 3}},
		{"single frame", []int{2, 2, 4}, 1, []int{1, 2, 2, 3}},
		{"video", []int{3, 2, 2, 4}, 3, []int{3, 2, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NormalizeVideo(MustNew(rgba(tt.frames), tt.shape...))
			if err != nil {
				t.Fatalf("NormalizeVideo failed: %v", err)
			}
			if !slices.Equal(v.Shape(), tt.wantShape) {
				t.Errorf("Shape = %v, want %v", v.Shape(), tt.wantShape)
			}
			if got := v.Data.([]uint8); !slices.Equal(got, rgb(tt.frames)) {
				t.Errorf("Data = %v, want alpha stripped", got)
			}
		})
	}
}

func TestNormalizeVideo_SqueezedRowIsNotRGBA(t *testing.T) {
	data := []uint8{1, 2, 3, 255, 4, 5, 6, 255}
	v, err := NormalizeVideo(MustNew(data, 1, 2, 4))
	if err != nil {
		t.Fatalf("NormalizeVideo failed: %v", err)
	}
	if want := []int{1, 2, 4, 1}; !slices.Equal(v.Shape(), want) {
		t.Errorf("Shape = %v, want %v", v.Shape(), want)
	}
	if got := v.Data.([]uint8); !slices.Equal(got, data) {
		t.Errorf("Data = %v, want unchanged %v", got, data)
	}
}

func TestNormalizeVideo_Idempotent(t *testing.T) {
	inputs := []*Array{
		MustNew(make([]float32, 128*256), 128, 256),
		MustNew(make([]uint16, 5*4*6), 5, 4, 6),
		MustNew(make([]uint8, 2*4*6*4), 2, 4, 6, 4),
	}
	for _, in := range inputs {
		once, err := NormalizeVideo(in)
		if err != nil {
			t.Fatalf("first NormalizeVideo failed: %v", err)
		}
		twice, err := NormalizeVideo(once.Array())
		if err != nil {
			t.Fatalf("second NormalizeVideo failed: %v", err)
		}
		if !Equal(once.Array(), twice.Array()) {
			t.Errorf("normalization of %v is not idempotent: %v vs %v", in.Shape(), once.Shape(), twice.Shape())
		}
	}
}

func TestValidateFlow(t *testing.T) {
	f, err := ValidateFlow(MustNew(make([]float32, 3*4*5*2), 3, 4, 5, 2))
	if err != nil {
		t.Fatalf("ValidateFlow failed: %v", err)
	}
	if f.WireFrames() != 6 {
		t.Errorf("WireFrames = %d, want 6", f.WireFrames())
	}

	bad := []*Array{
		MustNew(make([]float32, 4*5*2), 4, 5, 2),
		MustNew(make([]float64, 3*4*5*2), 3, 4, 5, 2),
		MustNew(make([]float32, 3*4*5*3), 3, 4, 5, 3),
	}
	for _, a := range bad {
		if _, err := ValidateFlow(a); err == nil {
			t.Errorf("ValidateFlow(%v %v) succeeded, want error", a.Shape(), a.DType())
		}
	}
}

func TestNew_ShapeMismatch(t *testing.T) {
	var shapeErr *ShapeError
	if _, err := New(make([]float32, 5), 2, 3); !errors.As(err, &shapeErr) {
		t.Errorf("expected *ShapeError, got %v", err)
	}
	if _, err := New(make([]float32, 0), -1, 0); !errors.As(err, &shapeErr) {
		t.Errorf("expected *ShapeError for negative dimension, got %v", err)
	}
}

func TestFlattenPoints(t *testing.T) {
	frames := [][]Point{
		{{X: 1, Y: 2}, {X: 3, Y: 4}},
		{},
		{{X: 5, Y: 6}},
	}
	coords, offsets, err := FlattenPoints(frames)
	if err != nil {
		t.Fatalf("FlattenPoints failed: %v", err)
	}
	if !slices.Equal(coords, []float32{1, 2, 3, 4, 5, 6}) {
		t.Errorf("coords = %v", coords)
	}
	if !slices.Equal(offsets, []uint32{4, 4, 6}) {
		t.Errorf("offsets = %v", offsets)
	}
	if !slices.IsSorted(offsets) {
		t.Error("offsets are not monotonic")
	}
	if int(offsets[len(offsets)-1]) != 2*3 {
		t.Errorf("last offset = %d, want twice the point count", offsets[len(offsets)-1])
	}

	back, err := UnflattenPoints(coords, offsets)
	if err != nil {
		t.Fatalf("UnflattenPoints failed: %v", err)
	}
	if len(back) != 3 || len(back[0]) != 2 || len(back[1]) != 0 || back[2][0] != (Point{X: 5, Y: 6}) {
		t.Errorf("UnflattenPoints = %v", back)
	}
}

func TestUnflattenPoints_BadOffsets(t *testing.T) {
	if _, err := UnflattenPoints([]float32{1, 2, 3, 4}, []uint32{4, 2}); err == nil {
		t.Error("expected error for decreasing offsets")
	}
	if _, err := UnflattenPoints([]float32{1, 2, 3}, []uint32{3}); err == nil {
		t.Error("expected error for odd coordinate count")
	}
}

func dataLen(data any) int {
	switch d := data.(type) {
	case []float32:
		return len(d)
	case []uint8:
		return len(d)
	case []uint16:
		return len(d)
	}
	return -1
}

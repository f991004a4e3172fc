package ndarray

import (
	"fmt"
	"math"
)

// Point is an (x, y) position in image pixels.
type Point struct {
	X float32
	Y float32
}

// FlattenPoints interleaves per-frame points into one coordinate slice and
// records the cumulative end offset of every frame. Offsets are
// non-decreasing and the last one equals len(coords).
func FlattenPoints(frames [][]Point) (coords []float32, offsets []uint32, err error) {
	total := 0
	for _, f := range frames {
		total += 2 * len(f)
	}
	if total > math.MaxUint32 {
		return nil, nil, fmt.Errorf("points overlay has %d coordinates, limit %d", total, uint64(math.MaxUint32))
	}

	coords = make([]float32, 0, total)
	offsets = make([]uint32, 0, len(frames))
	for _, f := range frames {
		for _, p := range f {
			coords = append(coords, p.X, p.Y)
		}
		offsets = append(offsets, uint32(len(coords)))
	}
	return coords, offsets, nil
}

// UnflattenPoints reverses FlattenPoints.
func UnflattenPoints(coords []float32, offsets []uint32) ([][]Point, error) {
	frames := make([][]Point, 0, len(offsets))
	start := uint32(0)
	for i, end := range offsets {
		if end < start || int(end) > len(coords) || (end-start)%2 != 0 {
			return nil, fmt.Errorf("points frame %d: bad offset %d", i, end)
		}
		frame := make([]Point, 0, (end-start)/2)
		for j := start; j < end; j += 2 {
			frame = append(frame, Point{X: coords[j], Y: coords[j+1]})
		}
		frames = append(frames, frame)
		start = end
	}
	return frames, nil
}

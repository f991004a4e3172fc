package ipc

import "iter"

// MaxChunkElements is the largest number of array elements sent in one
// data chunk. The viewer sizes its receive buffer for it.
const MaxChunkElements = 16352

// Chunks yields contiguous sub-slices of data of at most max elements
// together with their start offsets, in ascending order. The chunks tile
// data exactly. Empty data yields nothing. The sequence can be iterated
// more than once.
func Chunks[T any](data []T, max int) iter.Seq2[uint64, []T] {
	if max <= 0 {
		max = MaxChunkElements
	}
	return func(yield func(uint64, []T) bool) {
		for start := 0; start < len(data); start += max {
			end := min(start+max, len(data))
			if !yield(uint64(start), data[start:end:end]) {
				return
			}
		}
	}
}

// ChunkCount returns the number of chunks Chunks yields for n elements.
func ChunkCount(n, max int) int {
	if max <= 0 {
		max = MaxChunkElements
	}
	if n <= 0 {
		return 0
	}
	return (n + max - 1) / max
}

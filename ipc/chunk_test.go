package ipc

import "testing"

func TestChunks_TileExactly(t *testing.T) {
	tests := []struct {
		name string
		n    int
		max  int
		want int
	}{
		{"empty", 0, 4, 0},
		{"smaller than chunk", 3, 4, 1},
		{"exact multiple", 8, 4, 2},
		{"remainder", 9, 4, 3},
		{"default size", 100 * 128 * 256, 0, 201},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]int, tt.n)
			for i := range data {
				data[i] = i
			}

			var next uint64
			count := 0
			for start, chunk := range Chunks(data, tt.max) {
				if start != next {
					t.Fatalf("chunk %d starts at %d, want %d", count, start, next)
				}
				if len(chunk) == 0 {
					t.Fatalf("chunk %d is empty", count)
				}
				limit := tt.max
				if limit <= 0 {
					limit = MaxChunkElements
				}
				if len(chunk) > limit {
					t.Fatalf("chunk %d has %d elements, limit %d", count, len(chunk), limit)
				}
				if chunk[0] != int(start) {
					t.Fatalf("chunk %d first element = %d, want %d", count, chunk[0], start)
				}
				next += uint64(len(chunk))
				count++
			}

			if next != uint64(tt.n) {
				t.Errorf("chunks cover %d elements, want %d", next, tt.n)
			}
			if count != tt.want {
				t.Errorf("chunk count = %d, want %d", count, tt.want)
			}
			if got := ChunkCount(tt.n, tt.max); got != tt.want {
				t.Errorf("ChunkCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChunks_Restartable(t *testing.T) {
	seq := Chunks([]float32{1, 2, 3, 4, 5}, 2)

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != 3 || second != 3 {
		t.Errorf("iterations = %d, %d, want 3, 3", first, second)
	}
}

func TestChunks_EarlyStop(t *testing.T) {
	seen := 0
	for range Chunks(make([]uint8, 10), 3) {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestChunks_SubslicesCannotGrowIntoNext(t *testing.T) {
	data := []uint16{1, 2, 3, 4}
	for _, chunk := range Chunks(data, 2) {
		if cap(chunk) != len(chunk) {
			t.Errorf("cap = %d, want %d", cap(chunk), len(chunk))
		}
	}
}

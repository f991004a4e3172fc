package ipc

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"
)

var chunkSchema = &Schema{
	Name: "Chunk",
	Fields: []Field{
		{Name: "startidx", Slot: 0, Kind: FieldUint64},
		{Name: "data", Slot: 1, Kind: FieldFloat32Vector},
	},
}

// buildChunkStream encodes n full float32 chunks into a contiguous buffer.
func buildChunkStream(b *testing.B, n int) []byte {
	b.Helper()
	data := make([]float32, n*MaxChunkElements)
	var buf bytes.Buffer
	for start, chunk := range Chunks(data, MaxChunkElements) {
		frame, err := EncodeEnvelope(4, chunkSchema, Values{"startidx": start, "data": chunk})
		if err != nil {
			b.Fatalf("EncodeEnvelope: %v", err)
		}
		buf.Write(frame)
	}
	return buf.Bytes()
}

func BenchmarkEncodeEnvelope_FloatChunk(b *testing.B) {
	data := make([]float32, MaxChunkElements)
	for i := range data {
		data[i] = float32(i)
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(data) * 4))
	for range b.N {
		if _, err := EncodeEnvelope(4, chunkSchema, Values{"startidx": uint64(0), "data": data}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadFrame_BufferedReader(b *testing.B) {
	data := buildChunkStream(b, 20)

	b.ResetTimer()
	b.ReportAllocs()
	for range b.N {
		decoder := NewFrameDecoder(bytes.NewReader(data))
		for {
			_, err := decoder.ReadFrame()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkReadFrame_OneByteReader simulates a socket returning one byte
// per read.
func BenchmarkReadFrame_OneByteReader(b *testing.B) {
	data := buildChunkStream(b, 2)

	b.ResetTimer()
	b.ReportAllocs()
	for range b.N {
		decoder := NewFrameDecoder(iotest.OneByteReader(bytes.NewReader(data)))
		for {
			_, err := decoder.ReadFrame()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkDecodeTable_FloatChunk(b *testing.B) {
	data := buildChunkStream(b, 1)

	b.ResetTimer()
	b.ReportAllocs()
	for range b.N {
		env, err := DecodeFrame(data)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := DecodeTable(chunkSchema, env.Data); err != nil {
			b.Fatal(err)
		}
	}
}

package receiver

import (
	"bytes"
	"context"
	"errors"
	"net"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/justapithecus/monochrome/ipc"
	"github.com/justapithecus/monochrome/message"
	"github.com/justapithecus/monochrome/metrics"
	"github.com/justapithecus/monochrome/transport"
)

func meta(name string, nx, ny, nt int, t message.ArrayDataType) *message.ArrayMeta {
	return &message.ArrayMeta{Type: t, NX: nx, NY: ny, NT: nt, NC: 1, Name: name}
}

func f32Chunk(start uint64, n int) *message.ArrayDataChunk[float32] {
	data := make([]float32, n)
	for i := range data {
		data[i] = float32(int(start) + i)
	}
	return &message.ArrayDataChunk[float32]{Start: start, Data: data}
}

func TestAssembler_ReassemblesTiledChunks(t *testing.T) {
	a := NewAssembler()

	arr, err := a.Add(meta("v", 4, 3, 2, message.ArrayFloat))
	require.NoError(t, err)
	require.Nil(t, arr)

	for start, chunk := range ipc.Chunks(make([]float32, 24), 10) {
		arr, err = a.Add(f32Chunk(start, len(chunk)))
		require.NoError(t, err)
	}
	require.NotNil(t, arr)
	require.True(t, arr.Complete())
	require.Equal(t, "v", arr.Name())
	require.Equal(t, 3, arr.Chunks)
	require.Len(t, arr.Float32s(), 24)
	for i, v := range arr.Float32s() {
		require.Equal(t, float32(i), v)
	}

	s := a.Stats()
	require.EqualValues(t, 1, s.Completed)
	require.EqualValues(t, 24, s.Elements)
	require.NoError(t, a.Close())
}

func TestAssembler_FlowUsesFloatChunks(t *testing.T) {
	a := NewAssembler()
	_, err := a.Add(&message.FlowMeta{NX: 2, NY: 2, NT: 2, Name: "flow"})
	require.NoError(t, err)
	arr, err := a.Add(f32Chunk(0, 8))
	require.NoError(t, err)
	require.NotNil(t, arr)
	require.Equal(t, "flow", arr.Name())
}

func TestAssembler_EmptyArrayCompletesImmediately(t *testing.T) {
	a := NewAssembler()
	arr, err := a.Add(meta("empty", 0, 5, 1, message.ArrayUint8))
	require.NoError(t, err)
	require.NotNil(t, arr)
	require.Empty(t, arr.Uint8s())
}

func TestAssembler_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		feed  []message.Payload
		check func(t *testing.T, err error)
	}{
		{
			name: "chunk without meta",
			feed: []message.Payload{f32Chunk(0, 4)},
		},
		{
			name: "gap",
			feed: []message.Payload{meta("v", 4, 1, 1, message.ArrayFloat), f32Chunk(0, 2), f32Chunk(3, 1)},
		},
		{
			name: "overlap",
			feed: []message.Payload{meta("v", 4, 1, 1, message.ArrayFloat), f32Chunk(0, 2), f32Chunk(1, 2)},
		},
		{
			name: "overrun",
			feed: []message.Payload{meta("v", 4, 1, 1, message.ArrayFloat), f32Chunk(0, 5)},
		},
		{
			name: "type mismatch",
			feed: []message.Payload{
				meta("v", 4, 1, 1, message.ArrayUint16),
				&message.ArrayDataChunk[uint8]{Start: 0, Data: []uint8{1}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler()
			var last error
			for _, p := range tt.feed {
				_, last = a.Add(p)
			}
			var chunkErr *ChunkError
			require.True(t, errors.As(last, &chunkErr), "err = %v", last)
			require.EqualValues(t, 1, a.Stats().Rejected)
		})
	}
}

func TestAssembler_SupersededArrayIsIncomplete(t *testing.T) {
	a := NewAssembler()
	_, err := a.Add(meta("first", 4, 1, 1, message.ArrayFloat))
	require.NoError(t, err)
	_, err = a.Add(f32Chunk(0, 2))
	require.NoError(t, err)

	_, err = a.Add(meta("second", 1, 1, 1, message.ArrayFloat))
	var inc *IncompleteError
	require.True(t, errors.As(err, &inc))
	require.Equal(t, "first", inc.Name)
	require.Equal(t, 2, inc.Received)
	require.Equal(t, 4, inc.Total)

	arr, err := a.Add(f32Chunk(0, 1))
	require.NoError(t, err)
	require.Equal(t, "second", arr.Name())
}

func TestAssembler_RejectsHugeMeta(t *testing.T) {
	a := NewAssembler()
	_, err := a.Add(meta("huge", 1<<20, 1<<20, 1<<20, message.ArrayFloat))
	require.Error(t, err)
}

func TestServer_ServeConnDecodesStream(t *testing.T) {
	var stream bytes.Buffer
	for _, p := range []message.Payload{
		meta("img", 2, 2, 1, message.ArrayFloat),
		f32Chunk(0, 4),
		&message.CloseVideo{Name: "img"},
	} {
		frame, err := message.Encode(p)
		require.NoError(t, err)
		stream.Write(frame)
	}
	// Trailing truncated frame.
	stream.Write([]byte{9, 0})

	rec := NewRecorder()
	c := metrics.NewCollector("", "", "")
	srv := &Server{Handler: rec, Collector: c}
	srv.ServeConn(context.Background(), 1, &stream)

	payloads := rec.Payloads()
	require.Len(t, payloads, 3)
	require.Equal(t, &message.CloseVideo{Name: "img"}, payloads[2])
	require.Len(t, rec.Arrays(), 1)
	require.Len(t, rec.Errors(), 1)
	require.True(t, ipc.IsFatalFrameError(rec.Errors()[0]))

	events := rec.Events()
	require.Equal(t, EventClosed, events[len(events)-1].Type)
	require.EqualValues(t, 3, c.Snapshot().FramesReceived)
	require.EqualValues(t, 1, c.Snapshot().DecodeErrors)
}

func TestServer_ReportsIncompleteArrayOnClose(t *testing.T) {
	var stream bytes.Buffer
	for _, p := range []message.Payload{meta("cut", 8, 1, 1, message.ArrayFloat), f32Chunk(0, 3)} {
		frame, err := message.Encode(p)
		require.NoError(t, err)
		stream.Write(frame)
	}

	rec := NewRecorder()
	(&Server{Handler: rec}).ServeConn(context.Background(), 1, &stream)

	errs := rec.Errors()
	require.Len(t, errs, 1)
	var inc *IncompleteError
	require.True(t, errors.As(errs[0], &inc))
}

func TestViewer_AcceptsConnections(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets not available")
	}
	addr := transport.Address{Network: "unix", Addr: filepath.Join(t.TempDir(), "viewer.s")}
	rec := NewRecorder()

	v, err := Start(context.Background(), addr, &Server{Handler: rec})
	require.NoError(t, err)
	defer v.Close()

	for i := range 2 {
		conn, err := net.Dial(addr.Network, addr.Addr)
		require.NoError(t, err)
		frame, err := message.Encode(&message.CloseVideo{Name: string(rune('a' + i))})
		require.NoError(t, err)
		_, err = conn.Write(frame)
		require.NoError(t, err)
		require.NoError(t, conn.Close())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rec.WaitClosed(ctx, 2))
	require.Len(t, rec.Payloads(), 2)
	require.NoError(t, v.Close())
}

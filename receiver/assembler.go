// Package receiver implements the viewer side of the wire protocol: it
// accepts connections, decodes frames and reassembles arrays from their
// meta and data chunk messages.
//
// It is used as a stand-in viewer by tests and by the listen command.
package receiver

import (
	"fmt"
	"sync"

	"github.com/justapithecus/monochrome/message"
)

// MaxArrayElements bounds the elements a single meta may announce (1 Gi).
const MaxArrayElements = 1 << 30

// Array is an array reassembled from a meta message and its chunks.
type Array struct {
	// Meta is the *message.ArrayMeta or *message.FlowMeta that announced
	// the array.
	Meta message.Payload
	// Data holds []float32, []uint8 or []uint16 in wire order.
	Data     any
	Total    int
	Received int
	Chunks   int
}

// Name returns the name given in the meta message.
func (a *Array) Name() string {
	switch m := a.Meta.(type) {
	case *message.ArrayMeta:
		return m.Name
	case *message.FlowMeta:
		return m.Name
	}
	return ""
}

// Complete reports whether every announced element has arrived.
func (a *Array) Complete() bool {
	return a.Received == a.Total
}

// Float32s returns the data of a float array.
func (a *Array) Float32s() []float32 {
	d, _ := a.Data.([]float32)
	return d
}

// Uint8s returns the data of a uint8 array.
func (a *Array) Uint8s() []uint8 {
	d, _ := a.Data.([]uint8)
	return d
}

// Uint16s returns the data of a uint16 array.
func (a *Array) Uint16s() []uint16 {
	d, _ := a.Data.([]uint16)
	return d
}

// IncompleteError reports an array that was superseded or whose
// connection closed before all elements arrived.
type IncompleteError struct {
	Name     string
	Received int
	Total    int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("array %q incomplete: received %d of %d elements", e.Name, e.Received, e.Total)
}

// ChunkError reports a data chunk that does not continue the current array.
type ChunkError struct {
	Kind  message.Kind
	Start uint64
	Msg   string
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s at %d: %s", e.Kind, e.Start, e.Msg)
}

// AssemblerStats holds array assembly statistics.
type AssemblerStats struct {
	Arrays     int64
	Completed  int64
	Incomplete int64
	Chunks     int64
	Elements   int64
	Rejected   int64
}

// Assembler reassembles arrays on one connection. Chunks must tile the
// announced array exactly: ascending, contiguous, starting at 0.
// Thread-safe for concurrent access.
type Assembler struct {
	mu      sync.Mutex
	current *Array
	stats   AssemblerStats
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Add feeds one decoded payload.
//
// It returns the array once its final chunk arrives (or immediately for a
// meta announcing zero elements). A meta arriving while another array is
// incomplete starts the new array and reports the old one as
// *IncompleteError. Non-array payloads are ignored.
func (a *Assembler) Add(p message.Payload) (*Array, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch m := p.(type) {
	case *message.ArrayMeta:
		return a.begin(m, elements(m.NX, m.NY, m.NT), m.Type)
	case *message.FlowMeta:
		return a.begin(m, elements(m.NX, m.NY, m.NT), message.ArrayFloat)
	case *message.ArrayDataChunk[float32]:
		return addChunk(a, p.Kind(), m.Start, m.Data)
	case *message.ArrayDataChunk[uint8]:
		return addChunk(a, p.Kind(), m.Start, m.Data)
	case *message.ArrayDataChunk[uint16]:
		return addChunk(a, p.Kind(), m.Start, m.Data)
	}
	return nil, nil
}

func (a *Assembler) begin(meta message.Payload, total int, t message.ArrayDataType) (*Array, error) {
	superseded := a.abandon()

	if total < 0 || total > MaxArrayElements {
		a.stats.Rejected++
		return nil, fmt.Errorf("%s announces %d elements, limit %d", meta.Kind(), total, MaxArrayElements)
	}

	arr := &Array{Meta: meta, Total: total}
	switch t {
	case message.ArrayUint8:
		arr.Data = make([]uint8, 0, total)
	case message.ArrayUint16:
		arr.Data = make([]uint16, 0, total)
	default:
		arr.Data = make([]float32, 0, total)
	}
	a.stats.Arrays++

	if total == 0 {
		a.stats.Completed++
		return arr, superseded
	}
	a.current = arr
	return nil, superseded
}

// elements multiplies dims, returning -1 past MaxArrayElements.
func elements(dims ...int) int {
	for _, d := range dims {
		if d < 0 {
			return -1
		}
		if d == 0 {
			return 0
		}
	}
	n := 1
	for _, d := range dims {
		if n > MaxArrayElements/d {
			return -1
		}
		n *= d
	}
	return n
}

// abandon drops the current array and reports it if incomplete.
func (a *Assembler) abandon() error {
	cur := a.current
	a.current = nil
	if cur == nil || cur.Complete() {
		return nil
	}
	a.stats.Incomplete++
	return &IncompleteError{Name: cur.Name(), Received: cur.Received, Total: cur.Total}
}

func addChunk[T message.Element](a *Assembler, kind message.Kind, start uint64, data []T) (*Array, error) {
	cur := a.current
	if cur == nil {
		a.stats.Rejected++
		return nil, &ChunkError{Kind: kind, Start: start, Msg: "no array announced"}
	}
	buf, ok := cur.Data.([]T)
	if !ok {
		a.stats.Rejected++
		return nil, &ChunkError{Kind: kind, Start: start, Msg: fmt.Sprintf("array %q carries %T", cur.Name(), cur.Data)}
	}
	if start != uint64(cur.Received) {
		a.stats.Rejected++
		return nil, &ChunkError{Kind: kind, Start: start, Msg: fmt.Sprintf("expected start %d", cur.Received)}
	}
	if cur.Received+len(data) > cur.Total {
		a.stats.Rejected++
		return nil, &ChunkError{
			Kind:  kind,
			Start: start,
			Msg:   fmt.Sprintf("%d elements overrun array of %d", len(data), cur.Total),
		}
	}

	cur.Data = append(buf, data...)
	cur.Received += len(data)
	cur.Chunks++
	a.stats.Chunks++
	a.stats.Elements += int64(len(data))

	if !cur.Complete() {
		return nil, nil
	}
	a.current = nil
	a.stats.Completed++
	return cur, nil
}

// Close reports the current array if it is incomplete.
func (a *Assembler) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.abandon()
}

// Stats returns assembly statistics.
func (a *Assembler) Stats() AssemblerStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

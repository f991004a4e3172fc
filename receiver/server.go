package receiver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/justapithecus/monochrome/ipc"
	"github.com/justapithecus/monochrome/log"
	"github.com/justapithecus/monochrome/message"
	"github.com/justapithecus/monochrome/metrics"
)

// EventType classifies receiver events.
type EventType int

const (
	// EventMessage carries one decoded payload.
	EventMessage EventType = iota
	// EventArray carries a fully reassembled array.
	EventArray
	// EventError carries a decode or assembly failure.
	EventError
	// EventClosed marks the end of a connection.
	EventClosed
)

var eventTypeNames = [...]string{"message", "array", "error", "closed"}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event is one observation on a connection.
type Event struct {
	Type EventType
	// Conn numbers connections in accept order, starting at 1.
	Conn int64
	// Payload is set for EventMessage.
	Payload message.Payload
	// FrameSize is the full frame size including the length prefix.
	FrameSize int
	// Array is set for EventArray.
	Array *Array
	// Err is set for EventError.
	Err error
}

// Handler receives events. Handle is called from per-connection
// goroutines and must be safe for concurrent use.
type Handler interface {
	Handle(ctx context.Context, ev Event)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Event)

func (f HandlerFunc) Handle(ctx context.Context, ev Event) {
	f(ctx, ev)
}

// Server decodes frames from every accepted connection.
type Server struct {
	Handler   Handler
	Logger    *log.Logger
	Collector *metrics.Collector

	conns atomic.Int64
}

// Serve accepts connections until ctx is canceled or l is closed.
// A nil error means a clean shutdown.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	var wg sync.WaitGroup

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept viewer connection: %w", err)
		}

		id := s.conns.Add(1)
		wg.Add(1)
		go func(c net.Conn) {
			defer wg.Done()
			defer c.Close()
			closeOnDone := context.AfterFunc(ctx, func() { _ = c.Close() })
			defer closeOnDone()
			s.ServeConn(ctx, id, c)
		}(conn)
	}
}

// ServeConn decodes frames from r until EOF or a fatal framing error.
func (s *Server) ServeConn(ctx context.Context, id int64, r io.Reader) {
	logger := s.Logger.With("conn", id)
	asm := NewAssembler()
	dec := ipc.NewFrameDecoder(r)

	emit := func(ev Event) {
		ev.Conn = id
		if s.Handler != nil {
			s.Handler.Handle(ctx, ev)
		}
	}
	fail := func(err error) {
		s.Collector.IncDecodeError()
		logger.Warn("frame rejected", map[string]any{"error": err.Error()})
		emit(Event{Type: EventError, Err: err})
	}

	for {
		payload, err := dec.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				fail(err)
			}
			break
		}
		s.Collector.IncFrameReceived()
		size := ipc.LengthPrefixSize + len(payload)

		p, err := decodePayload(payload)
		if err != nil {
			fail(err)
			continue
		}
		emit(Event{Type: EventMessage, Payload: p, FrameSize: size})

		arr, err := asm.Add(p)
		if err != nil {
			fail(err)
		}
		if arr != nil {
			logger.Debug("array complete", map[string]any{
				"name":     arr.Name(),
				"elements": arr.Total,
				"chunks":   arr.Chunks,
			})
			emit(Event{Type: EventArray, Array: arr})
		}
	}

	if err := asm.Close(); err != nil {
		fail(err)
	}
	emit(Event{Type: EventClosed})
}

func decodePayload(payload []byte) (message.Payload, error) {
	env, err := ipc.DecodeEnvelope(payload)
	if err != nil {
		return nil, err
	}
	return message.DecodeEnvelope(env)
}

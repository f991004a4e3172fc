// Package client sends arrays, overlays, files and control commands to a
// running viewer.
//
// Every operation validates its input before any I/O, then opens its own
// channel, writes the meta frame followed by data chunks, and closes the
// channel. Nothing is read back from the viewer.
package client

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/justapithecus/monochrome/color"
	"github.com/justapithecus/monochrome/ipc"
	"github.com/justapithecus/monochrome/log"
	"github.com/justapithecus/monochrome/message"
	"github.com/justapithecus/monochrome/metrics"
	"github.com/justapithecus/monochrome/transport"
)

// TracerName is the instrumentation name of client spans.
const TracerName = "github.com/justapithecus/monochrome/client"

// Config configures a Client.
type Config struct {
	// Transport configures connection and autostart. Logger and Collector
	// are inherited from this Config when unset there.
	Transport transport.Config
	// Colors resolves color names. Defaults to color.NameResolver.
	Colors color.Resolver
	// ChunkSize is the maximum number of elements per data chunk.
	// Defaults to ipc.MaxChunkElements.
	ChunkSize int
	// Tracer defaults to the global OpenTelemetry tracer provider.
	Tracer trace.Tracer

	Logger    *log.Logger
	Collector *metrics.Collector
}

// Client sends payloads to the viewer. It holds no connection between
// calls and is safe for concurrent use.
type Client struct {
	transport transport.Config
	colors    color.Resolver
	chunkSize int
	tracer    trace.Tracer
	logger    *log.Logger
	collector *metrics.Collector
}

// New creates a Client.
func New(config Config) *Client {
	tc := config.Transport
	if tc.Logger == nil {
		tc.Logger = config.Logger
	}
	if tc.Collector == nil {
		tc.Collector = config.Collector
	}

	c := &Client{
		transport: tc,
		colors:    config.Colors,
		chunkSize: config.ChunkSize,
		tracer:    config.Tracer,
		logger:    config.Logger,
		collector: config.Collector,
	}
	if c.colors == nil {
		c.colors = color.NameResolver{}
	}
	if c.chunkSize <= 0 {
		c.chunkSize = ipc.MaxChunkElements
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(TracerName)
	}
	return c
}

// operation tracks one send operation for tracing, metrics and logging.
type operation struct {
	client  *Client
	name    string
	span    trace.Span
	logger  *log.Logger
	started time.Time
	invalid bool
}

func (c *Client) begin(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	ctx, span := c.tracer.Start(ctx, "monochrome."+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	c.collector.IncOperationStarted()
	return ctx, &operation{
		client:  c,
		name:    name,
		span:    span,
		logger:  c.logger.With("operation", name),
		started: time.Now(),
	}
}

// reject marks err as a validation failure. No connection is opened.
func (o *operation) reject(err error) error {
	o.invalid = true
	o.client.collector.IncValidationFailure()
	return err
}

// end records the outcome and returns err unchanged.
func (o *operation) end(err error) error {
	defer o.span.End()

	fields := map[string]any{"duration_ms": time.Since(o.started).Milliseconds()}
	if err == nil {
		o.client.collector.IncOperationCompleted()
		o.span.SetStatus(codes.Ok, "")
		o.logger.Debug("operation completed", fields)
		return nil
	}

	o.client.collector.IncOperationFailed(o.name)
	o.span.RecordError(err)
	o.span.SetStatus(codes.Error, err.Error())
	fields["error"] = err.Error()
	fields["stage"] = stageOf(err, o.invalid)
	if o.invalid {
		o.logger.Warn("operation rejected", fields)
	} else {
		o.logger.Error("operation failed", fields)
	}
	return err
}

// stageOf names the pipeline stage an error came from.
func stageOf(err error, invalid bool) string {
	var connErr *transport.ConnectError
	var sendErr *transport.SendError
	switch {
	case invalid:
		return "validating"
	case errors.As(err, &connErr):
		return "connecting"
	case errors.As(err, &sendErr):
		return "sending"
	default:
		return "encoding"
	}
}

// connect opens a channel for the operation.
func (o *operation) connect(ctx context.Context) (*sender, error) {
	ch, err := transport.Dial(ctx, o.client.transport)
	if err != nil {
		return nil, err
	}
	o.span.AddEvent("connected", trace.WithAttributes(attribute.String("address", ch.Address().String())))
	return &sender{ch: ch, collector: o.client.collector, span: o.span}, nil
}

// sender encodes payloads and writes them to one channel.
type sender struct {
	ch        *transport.Channel
	collector *metrics.Collector
	span      trace.Span
	frames    int
}

func (s *sender) send(ctx context.Context, p message.Payload) error {
	frame, err := message.Encode(p)
	if err != nil {
		return err
	}
	return s.sendFrame(ctx, p.Kind(), frame)
}

// sendFrame writes a frame already encoded by message.Encode.
func (s *sender) sendFrame(ctx context.Context, kind message.Kind, frame []byte) error {
	if err := s.ch.SendContext(ctx, frame); err != nil {
		return err
	}
	s.frames++
	s.collector.RecordFrame(kind.String(), len(frame), kind.IsChunk())
	return nil
}

func (s *sender) close() {
	s.span.SetAttributes(
		attribute.Int("monochrome.frames", s.frames),
		attribute.Int64("monochrome.bytes", s.ch.BytesSent()),
	)
	_ = s.ch.Close()
}

// sendOne encodes p, then opens a channel, writes the frame and closes the
// channel. Encoding failures are validation failures.
func (o *operation) sendOne(ctx context.Context, p message.Payload) error {
	frame, err := message.Encode(p)
	if err != nil {
		return o.reject(err)
	}
	s, err := o.connect(ctx)
	if err != nil {
		return err
	}
	defer s.close()
	return s.sendFrame(ctx, p.Kind(), frame)
}

// sendChunks writes data as consecutive chunks starting at element 0.
func sendChunks[T message.Element](ctx context.Context, s *sender, data []T, max int) error {
	for start, chunk := range ipc.Chunks(data, max) {
		if err := s.send(ctx, &message.ArrayDataChunk[T]{Start: start, Data: chunk}); err != nil {
			return err
		}
	}
	return nil
}

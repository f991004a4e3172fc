// Package capture records the frames a client sends to a Lode dataset and
// reads captured sessions back for inspection and replay.
package capture

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/monochrome/ipc"
	"github.com/justapithecus/monochrome/log"
	"github.com/justapithecus/monochrome/message"
	"github.com/justapithecus/monochrome/metrics"
)

// DefaultFlushBytes is the pending frame volume that triggers a write.
const DefaultFlushBytes = 4 << 20

// Config holds capture session settings.
type Config struct {
	// Dataset is the Lode dataset ID. Empty means DefaultDataset.
	Dataset string
	// SessionID identifies the session. Empty generates a UUID.
	SessionID string
	// Operation names the client operation being captured ("show", "open").
	Operation string
	// Transport and Address describe the viewer endpoint.
	Transport string
	Address   string
	// FlushBytes bounds buffered frame data. Zero means DefaultFlushBytes.
	FlushBytes int
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Recorder buffers frames observed on a transport channel and writes them
// to the capture dataset. Its Tap method matches transport.Config.Tap.
type Recorder struct {
	dataset   lode.Dataset
	config    Config
	collector *metrics.Collector
	logger    *log.Logger
	day       string

	mu      sync.Mutex
	pending []Frame
	size    int
	seq     int64
	session Session
	err     error // first background flush failure
	closed  bool
}

// NewRecorder opens the capture dataset and starts a session.
func NewRecorder(cfg Config, factory lode.StoreFactory, collector *metrics.Collector, logger *log.Logger) (*Recorder, error) {
	ds, err := newDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, err
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.FlushBytes <= 0 {
		cfg.FlushBytes = DefaultFlushBytes
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	started := cfg.Now()
	return &Recorder{
		dataset:   ds,
		config:    cfg,
		collector: collector,
		logger:    logger.With("session", cfg.SessionID),
		day:       DeriveDay(started),
		session: Session{
			ID:           cfg.SessionID,
			Operation:    cfg.Operation,
			Transport:    cfg.Transport,
			Address:      cfg.Address,
			StartedAt:    started,
			FramesByKind: make(map[string]int64),
		},
	}, nil
}

// SessionID returns the session identifier.
func (r *Recorder) SessionID() string {
	return r.config.SessionID
}

// Tap records one frame. The frame is copied. Writes triggered from Tap
// report failures from Close.
func (r *Recorder) Tap(frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.seq++
	f := Frame{
		Session: r.config.SessionID,
		Seq:     r.seq,
		Kind:    frameKind(frame),
		Size:    len(frame),
		Ts:      r.config.Now(),
		Data:    slices.Clone(frame),
	}
	r.pending = append(r.pending, f)
	r.size += len(frame)
	r.session.Frames++
	r.session.Bytes += int64(len(frame))
	r.session.FramesByKind[f.Kind]++

	if r.size >= r.config.FlushBytes {
		if err := r.flushLocked(context.Background()); err != nil && r.err == nil {
			r.err = err
		}
	}
}

// Flush writes buffered frames as one snapshot.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked(ctx)
}

func (r *Recorder) flushLocked(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	records := make([]any, 0, len(r.pending))
	for _, f := range r.pending {
		records = append(records, frameRecordMap(f, r.day))
	}
	if err := r.write(ctx, records); err != nil {
		return err
	}
	r.logger.Debug("capture flushed", map[string]any{
		"frames": len(r.pending),
		"bytes":  r.size,
	})
	r.pending = r.pending[:0]
	r.size = 0
	return nil
}

// Close flushes remaining frames and writes the session record. opErr is
// the outcome of the captured operation and may be nil.
func (r *Recorder) Close(ctx context.Context, opErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	if err := r.flushLocked(ctx); err != nil {
		return err
	}
	if r.err != nil {
		return r.err
	}

	r.session.EndedAt = r.config.Now()
	if opErr != nil {
		r.session.Error = opErr.Error()
	}
	if err := r.write(ctx, []any{sessionRecordMap(r.session, r.day)}); err != nil {
		return err
	}
	r.logger.Info("capture session closed", map[string]any{
		"frames": r.session.Frames,
		"bytes":  r.session.Bytes,
	})
	return nil
}

// Session returns the running session summary.
func (r *Recorder) Session() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.session
	s.FramesByKind = make(map[string]int64, len(r.session.FramesByKind))
	for k, v := range r.session.FramesByKind {
		s.FramesByKind[k] = v
	}
	return s
}

func (r *Recorder) write(ctx context.Context, records []any) error {
	if _, err := r.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		r.collector.IncCaptureWriteFailure()
		err = WrapWriteError(err, fmt.Sprintf("%s/session=%s", r.datasetID(), r.config.SessionID))
		r.logger.Error("capture write failed", map[string]any{"error": err.Error()})
		return err
	}
	r.collector.IncCaptureWriteSuccess()
	return nil
}

func (r *Recorder) datasetID() string {
	if r.config.Dataset == "" {
		return DefaultDataset
	}
	return r.config.Dataset
}

func frameKind(frame []byte) string {
	env, err := ipc.DecodeFrame(frame)
	if err != nil {
		return "unknown"
	}
	return message.Kind(env.Tag).String()
}

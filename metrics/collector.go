// Package metrics provides per-client transfer metrics.
//
// The Collector accumulates counters for one client or listener. It is a
// leaf package with no internal dependencies; message kinds and operation
// names are plain strings. Exporter mirrors a Collector into Prometheus.
package metrics

import (
	"maps"
	"sync"
)

// Snapshot is an immutable point-in-time view of all metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Operations
	OperationsStarted   int64
	OperationsCompleted int64
	OperationsFailed    int64
	ValidationFailures  int64
	FailedByOperation   map[string]int64

	// Wire
	FramesSent   int64
	BytesSent    int64
	ChunksSent   int64
	FramesByKind map[string]int64

	// Connection
	Connects          int64
	ConnectRetries    int64
	ConnectFailures   int64
	Autostarts        int64
	AutostartFailures int64
	SendFailures      int64

	// Receiving side
	FramesReceived int64
	DecodeErrors   int64

	// Capture / Storage
	CaptureWriteSuccess int64
	CaptureWriteFailure int64

	// Notifications
	NotifySuccess int64
	NotifyFailure int64

	// Dimensions (informational, set at construction)
	Transport      string
	StorageBackend string
	SessionID      string
}

// Collector accumulates metrics for one session.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	operationsStarted   int64
	operationsCompleted int64
	operationsFailed    int64
	validationFailures  int64
	failedByOperation   map[string]int64

	framesSent   int64
	bytesSent    int64
	chunksSent   int64
	framesByKind map[string]int64

	connects          int64
	connectRetries    int64
	connectFailures   int64
	autostarts        int64
	autostartFailures int64
	sendFailures      int64

	framesReceived int64
	decodeErrors   int64

	captureWriteSuccess int64
	captureWriteFailure int64

	notifySuccess int64
	notifyFailure int64

	transport      string
	storageBackend string
	sessionID      string
}

// NewCollector creates a Collector with dimension labels.
// storageBackend and sessionID are optional.
func NewCollector(transport, storageBackend, sessionID string) *Collector {
	return &Collector{
		failedByOperation: make(map[string]int64),
		framesByKind:      make(map[string]int64),
		transport:         transport,
		storageBackend:    storageBackend,
		sessionID:         sessionID,
	}
}

func (c *Collector) inc(field *int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// --- Operations ---

// IncOperationStarted records the start of a send operation.
func (c *Collector) IncOperationStarted() {
	if c == nil {
		return
	}
	c.inc(&c.operationsStarted)
}

// IncOperationCompleted records a send operation that delivered every frame.
func (c *Collector) IncOperationCompleted() {
	if c == nil {
		return
	}
	c.inc(&c.operationsCompleted)
}

// IncOperationFailed records a failed send operation by name.
func (c *Collector) IncOperationFailed(operation string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.operationsFailed++
	c.failedByOperation[operation]++
	c.mu.Unlock()
}

// IncValidationFailure records input rejected before any I/O.
func (c *Collector) IncValidationFailure() {
	if c == nil {
		return
	}
	c.inc(&c.validationFailures)
}

// --- Wire ---

// RecordFrame records one delivered frame of the given kind and size.
// Data chunk frames also count toward ChunksSent.
func (c *Collector) RecordFrame(kind string, size int, chunk bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.framesSent++
	c.bytesSent += int64(size)
	c.framesByKind[kind]++
	if chunk {
		c.chunksSent++
	}
	c.mu.Unlock()
}

// --- Connection ---

// IncConnect records an established connection.
func (c *Collector) IncConnect() {
	if c == nil {
		return
	}
	c.inc(&c.connects)
}

// IncConnectRetry records a failed poll attempt after autostart.
func (c *Collector) IncConnectRetry() {
	if c == nil {
		return
	}
	c.inc(&c.connectRetries)
}

// IncConnectFailure records a connection that could not be established.
func (c *Collector) IncConnectFailure() {
	if c == nil {
		return
	}
	c.inc(&c.connectFailures)
}

// IncAutostart records a viewer launch.
func (c *Collector) IncAutostart() {
	if c == nil {
		return
	}
	c.inc(&c.autostarts)
}

// IncAutostartFailure records a viewer launch that failed to start.
func (c *Collector) IncAutostartFailure() {
	if c == nil {
		return
	}
	c.inc(&c.autostartFailures)
}

// IncSendFailure records a write error on an established connection.
func (c *Collector) IncSendFailure() {
	if c == nil {
		return
	}
	c.inc(&c.sendFailures)
}

// --- Receiving side ---

// IncFrameReceived records a frame read by a listener.
func (c *Collector) IncFrameReceived() {
	if c == nil {
		return
	}
	c.inc(&c.framesReceived)
}

// IncDecodeError records a frame that could not be decoded.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.inc(&c.decodeErrors)
}

// --- Capture / Storage ---
// Capture counters are per-call. A single write of N frames counts as 1.

// IncCaptureWriteSuccess records a successful capture write.
func (c *Collector) IncCaptureWriteSuccess() {
	if c == nil {
		return
	}
	c.inc(&c.captureWriteSuccess)
}

// IncCaptureWriteFailure records a failed capture write.
func (c *Collector) IncCaptureWriteFailure() {
	if c == nil {
		return
	}
	c.inc(&c.captureWriteFailure)
}

// --- Notifications ---

// IncNotifySuccess records a delivered notification.
func (c *Collector) IncNotifySuccess() {
	if c == nil {
		return
	}
	c.inc(&c.notifySuccess)
}

// IncNotifyFailure records a notification that could not be delivered.
func (c *Collector) IncNotifyFailure() {
	if c == nil {
		return
	}
	c.inc(&c.notifyFailure)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		OperationsStarted:   c.operationsStarted,
		OperationsCompleted: c.operationsCompleted,
		OperationsFailed:    c.operationsFailed,
		ValidationFailures:  c.validationFailures,
		FailedByOperation:   maps.Clone(c.failedByOperation),

		FramesSent:   c.framesSent,
		BytesSent:    c.bytesSent,
		ChunksSent:   c.chunksSent,
		FramesByKind: maps.Clone(c.framesByKind),

		Connects:          c.connects,
		ConnectRetries:    c.connectRetries,
		ConnectFailures:   c.connectFailures,
		Autostarts:        c.autostarts,
		AutostartFailures: c.autostartFailures,
		SendFailures:      c.sendFailures,

		FramesReceived: c.framesReceived,
		DecodeErrors:   c.decodeErrors,

		CaptureWriteSuccess: c.captureWriteSuccess,
		CaptureWriteFailure: c.captureWriteFailure,

		NotifySuccess: c.notifySuccess,
		NotifyFailure: c.notifyFailure,

		Transport:      c.transport,
		StorageBackend: c.storageBackend,
		SessionID:      c.sessionID,
	}
}

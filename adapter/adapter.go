// Package adapter defines the notification boundary for CLI transfers.
//
// Adapters publish a completion event after each send operation so that
// downstream tools can react to frames reaching the viewer.
package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/justapithecus/monochrome/client"
	"github.com/justapithecus/monochrome/log"
	"github.com/justapithecus/monochrome/message"
	"github.com/justapithecus/monochrome/metrics"
	"github.com/justapithecus/monochrome/ndarray"
	"github.com/justapithecus/monochrome/transport"
)

// EventTypeTransferCompleted is the event_type of every published event.
const EventTypeTransferCompleted = "transfer_completed"

// Outcome values.
const (
	OutcomeSuccess         = "success"
	OutcomeValidationError = "validation_error"
	OutcomeConnectError    = "connect_error"
	OutcomeSendError       = "send_error"
	OutcomeCanceled        = "canceled"
	OutcomeError           = "error"
)

// TransferCompletedEvent is the payload published when an operation ends.
type TransferCompletedEvent struct {
	EventType  string `json:"event_type"` // always "transfer_completed"
	Session    string `json:"session"`
	Operation  string `json:"operation"` // show, open, export, close, quit, replay
	Name       string `json:"name,omitempty"`
	Address    string `json:"address"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	Frames     int64  `json:"frames"`
	Bytes      int64  `json:"bytes"`
	Timestamp  string `json:"timestamp"` // RFC 3339
	DurationMs int64  `json:"duration_ms"`
	// CaptureSession is set when the transfer was captured.
	CaptureSession string `json:"capture_session,omitempty"`
}

// Adapter publishes transfer events to a downstream system.
type Adapter interface {
	// Publish sends one event. Must respect context cancellation.
	Publish(ctx context.Context, event *TransferCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// Outcome classifies an operation error for the event outcome field.
func Outcome(err error) string {
	var (
		shapeErr   *ndarray.ShapeError
		dtypeErr   *ndarray.DTypeError
		enumErr    *message.EnumError
		missingErr *client.MissingFileError
		connectErr *transport.ConnectError
		sendErr    *transport.SendError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.As(err, &connectErr):
		return OutcomeConnectError
	case errors.As(err, &sendErr):
		return OutcomeSendError
	case errors.As(err, &shapeErr), errors.As(err, &dtypeErr),
		errors.As(err, &enumErr), errors.As(err, &missingErr):
		return OutcomeValidationError
	default:
		return OutcomeError
	}
}

// Backoff returns the delay before retry attempt i (i >= 1).
func Backoff(i int) time.Duration {
	return time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
}

// Instrumented wraps an Adapter and records notify metrics.
type Instrumented struct {
	inner     Adapter
	collector *metrics.Collector
	logger    *log.Logger
}

// NewInstrumented wraps inner with metrics and logging.
func NewInstrumented(inner Adapter, collector *metrics.Collector, logger *log.Logger) *Instrumented {
	return &Instrumented{inner: inner, collector: collector, logger: logger}
}

// Publish delegates to the inner adapter and records the result.
func (a *Instrumented) Publish(ctx context.Context, event *TransferCompletedEvent) error {
	err := a.inner.Publish(ctx, event)
	if err != nil {
		a.collector.IncNotifyFailure()
		a.logger.Warn("notification failed", map[string]any{
			"operation": event.Operation,
			"error":     err.Error(),
		})
		return err
	}
	a.collector.IncNotifySuccess()
	return nil
}

// Close delegates to the inner adapter.
func (a *Instrumented) Close() error {
	return a.inner.Close()
}

var _ Adapter = (*Instrumented)(nil)

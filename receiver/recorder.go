package receiver

import (
	"context"
	"slices"
	"sync"

	"github.com/justapithecus/monochrome/message"
)

// Recorder is a Handler that keeps every event in arrival order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	closed int
	notify chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{})}
}

// Handle implements Handler.
func (r *Recorder) Handle(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if ev.Type == EventClosed {
		r.closed++
	}
	close(r.notify)
	r.notify = make(chan struct{})
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Payloads returns the decoded payloads in arrival order.
func (r *Recorder) Payloads() []message.Payload {
	return collect(r, EventMessage, func(ev Event) message.Payload { return ev.Payload })
}

// Arrays returns the reassembled arrays in completion order.
func (r *Recorder) Arrays() []*Array {
	return collect(r, EventArray, func(ev Event) *Array { return ev.Array })
}

// Errors returns the recorded failures.
func (r *Recorder) Errors() []error {
	return collect(r, EventError, func(ev Event) error { return ev.Err })
}

func collect[T any](r *Recorder, t EventType, get func(Event) T) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []T
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, get(ev))
		}
	}
	return out
}

// WaitClosed blocks until n connections have closed or ctx ends.
func (r *Recorder) WaitClosed(ctx context.Context, n int) error {
	for {
		r.mu.Lock()
		done := r.closed >= n
		notify := r.notify
		r.mu.Unlock()
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
		}
	}
}

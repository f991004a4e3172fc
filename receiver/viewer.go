package receiver

import (
	"context"

	"github.com/justapithecus/monochrome/transport"
)

// Viewer is a Server running in the background on an address.
type Viewer struct {
	address transport.Address
	cancel  context.CancelFunc
	done    chan error
}

// Start listens on addr and serves connections with srv until Close is
// called or ctx ends.
func Start(ctx context.Context, addr transport.Address, srv *Server) (*Viewer, error) {
	l, err := transport.Listen(ctx, addr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	v := &Viewer{address: addr, cancel: cancel, done: make(chan error, 1)}
	go func() {
		v.done <- srv.Serve(ctx, l)
	}()
	srv.Logger.Info("listening", map[string]any{"address": addr.String()})
	return v, nil
}

// Address returns the listening address.
func (v *Viewer) Address() transport.Address {
	return v.address
}

// Wait blocks until the server stops.
func (v *Viewer) Wait() error {
	err := <-v.done
	v.done <- err
	return err
}

// Close stops the server and waits for open connections to finish.
func (v *Viewer) Close() error {
	v.cancel()
	return v.Wait()
}

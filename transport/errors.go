package transport

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrConnectTimeout is wrapped by ConnectError when the viewer was launched
// but did not accept a connection within Config.ConnectTimeout.
var ErrConnectTimeout = errors.New("viewer did not accept a connection in time")

// ConnectError reports that no connection to the viewer could be established.
type ConnectError struct {
	Address Address
	// Autostarted is true when a viewer launch was attempted.
	Autostarted bool
	Err         error
}

func (e *ConnectError) Error() string {
	if e.Autostarted {
		return fmt.Sprintf("connect to viewer at %s after launch: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("connect to viewer at %s: %v", e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// SendError reports a failed frame write. The channel is unusable afterwards.
type SendError struct {
	Address Address
	// Written is the number of frame bytes accepted before the failure.
	Written int
	// Size is the full frame size.
	Size int
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to viewer at %s: wrote %d of %d bytes: %v", e.Address, e.Written, e.Size, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// wsaeconnrefused is the winsock "connection refused" code.
const wsaeconnrefused = syscall.Errno(10061)

// isNoListener reports failures meaning nothing is accepting on the address:
// a refused connection or a missing socket file.
func isNoListener(err error) bool {
	if err == nil {
		return false
	}
	return isConnectionRefused(err) || isSocketMissing(err)
}

// isConnectionRefused reports no-listener failures.
func isConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, wsaeconnrefused)
}

// isSocketMissing reports absent-socket failures.
func isSocketMissing(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

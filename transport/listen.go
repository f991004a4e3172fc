package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// ErrAddressInUse is returned by Listen when another process is accepting
// on the address.
var ErrAddressInUse = errors.New("address already served by a running viewer")

// Listen opens a listener on addr. A leftover socket file with no listener
// behind it is removed first; a live one yields ErrAddressInUse.
func Listen(ctx context.Context, addr Address) (net.Listener, error) {
	if addr.IsPath() {
		if err := os.MkdirAll(filepath.Dir(addr.Addr), 0o700); err != nil {
			return nil, fmt.Errorf("ensure socket dir: %w", err)
		}
		if _, err := os.Stat(addr.Addr); err == nil {
			live, probeErr := probe(ctx, addr)
			if live {
				return nil, ErrAddressInUse
			}
			if probeErr != nil {
				return nil, fmt.Errorf("probe existing socket %s: %w", addr.Addr, probeErr)
			}
			if err := removeStaleSocket(addr.Addr); err != nil {
				return nil, err
			}
		}
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, addr.Network, addr.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	if addr.IsPath() {
		_ = os.Chmod(addr.Addr, 0o600)
	}
	return listener, nil
}

// probe reports whether something is accepting on addr.
func probe(ctx context.Context, addr Address) (bool, error) {
	conn, err := dialOnce(ctx, Config{Address: addr, DialTimeout: 200 * time.Millisecond})
	if err == nil {
		_ = conn.Close()
		return true, nil
	}
	if isNoListener(err) {
		return false, nil
	}
	return false, err
}

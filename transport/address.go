// Package transport owns the local stream connection to the viewer.
//
// A Channel is a connected, write-only byte stream. Dial resolves the
// platform address, launches the viewer when nothing is listening and polls
// until it accepts. Every frame is written whole; a failed write is terminal.
package transport

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultTCPPort is the viewer port on platforms without unix sockets.
	DefaultTCPPort = 4864

	socketName = "Monochrome"
)

// Address identifies the viewer's listening endpoint.
//
// Network is "unix" or "tcp". Unix addresses beginning with "@" are Linux
// abstract sockets and have no filesystem entry.
type Address struct {
	Network string
	Addr    string
}

// String returns "network:addr".
func (a Address) String() string {
	return a.Network + ":" + a.Addr
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Network == "" && a.Addr == ""
}

// IsAbstract reports whether a is a Linux abstract unix socket.
func (a Address) IsAbstract() bool {
	return a.Network == "unix" && strings.HasPrefix(a.Addr, "@")
}

// IsPath reports whether a is a unix socket backed by a filesystem entry.
func (a Address) IsPath() bool {
	return a.Network == "unix" && a.Addr != "" && !a.IsAbstract()
}

// DefaultAddress returns the per-user viewer address for goos.
//
//   - linux: abstract socket "@Monochrome<uid>"
//   - windows: TCP 127.0.0.1:4864
//   - everything else: "/tmp/Monochrome<uid>.s"
func DefaultAddress(goos string, uid int) Address {
	switch goos {
	case "linux":
		return Address{Network: "unix", Addr: "@" + socketName + strconv.Itoa(uid)}
	case "windows":
		return Address{Network: "tcp", Addr: "127.0.0.1:" + strconv.Itoa(DefaultTCPPort)}
	default:
		return Address{Network: "unix", Addr: "/tmp/" + socketName + strconv.Itoa(uid) + ".s"}
	}
}

// ParseAddress parses an address override.
//
// Accepted forms: "unix:<path|@name>", "tcp:<host:port>", "@name",
// an absolute or relative socket path, or a bare "host:port".
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}

	if rest, ok := strings.CutPrefix(s, "unix:"); ok {
		if rest == "" || rest == "@" {
			return Address{}, fmt.Errorf("invalid unix address %q", s)
		}
		return Address{Network: "unix", Addr: rest}, nil
	}
	if rest, ok := strings.CutPrefix(s, "tcp:"); ok {
		if err := validateHostPort(rest); err != nil {
			return Address{}, fmt.Errorf("invalid tcp address %q: %w", s, err)
		}
		return Address{Network: "tcp", Addr: rest}, nil
	}

	if strings.HasPrefix(s, "@") || strings.ContainsAny(s, `/\`) {
		return Address{Network: "unix", Addr: s}, nil
	}
	if err := validateHostPort(s); err == nil {
		return Address{Network: "tcp", Addr: s}, nil
	}
	return Address{Network: "unix", Addr: s}, nil
}

func validateHostPort(s string) error {
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return fmt.Errorf("missing port")
	}
	port, err := strconv.Atoi(s[i+1:])
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("invalid port %q", s[i+1:])
	}
	return nil
}

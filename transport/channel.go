package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/justapithecus/monochrome/launcher"
	"github.com/justapithecus/monochrome/log"
	"github.com/justapithecus/monochrome/metrics"
)

// Default timing values.
const (
	DefaultConnectTimeout = 5 * time.Second
	DefaultPollInterval   = 50 * time.Millisecond
	DefaultDialTimeout    = time.Second
)

// Config configures Dial. The zero value dials the platform default address
// without autostart.
type Config struct {
	// Address overrides the platform default address.
	Address Address
	// ConnectTimeout bounds polling after a viewer launch.
	ConnectTimeout time.Duration
	// PollInterval is the delay between connection attempts after a launch.
	PollInterval time.Duration
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration
	// WriteTimeout bounds a single frame write. Zero means no limit.
	WriteTimeout time.Duration
	// Autostart launches the viewer through Launcher when nothing listens.
	Autostart bool
	Launcher  launcher.Launcher
	// Tap receives every successfully written frame. It must not retain
	// or modify the slice.
	Tap func(frame []byte)

	Logger    *log.Logger
	Collector *metrics.Collector
}

// DefaultConfig returns a Config for the current platform with autostart
// through l. A nil l disables autostart.
func DefaultConfig(l launcher.Launcher) Config {
	return Config{
		Address:        DefaultAddress(runtime.GOOS, os.Getuid()),
		ConnectTimeout: DefaultConnectTimeout,
		PollInterval:   DefaultPollInterval,
		DialTimeout:    DefaultDialTimeout,
		Autostart:      l != nil,
		Launcher:       l,
	}
}

func (c Config) withDefaults() Config {
	if c.Address.IsZero() {
		c.Address = DefaultAddress(runtime.GOOS, os.Getuid())
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	return c
}

// Channel is an open connection to the viewer.
// Send is safe for concurrent use; frames are never interleaved.
type Channel struct {
	mu      sync.Mutex
	conn    net.Conn
	address Address
	closed  bool
	failed  error

	writeTimeout time.Duration
	tap          func([]byte)
	logger       *log.Logger
	collector    *metrics.Collector

	bytesSent  int64
	framesSent int64
}

// Dial connects to the viewer.
//
// When the first attempt finds no listener and autostart is enabled, a stale
// socket file is removed, the viewer is launched and the address is polled
// every PollInterval until it accepts or ConnectTimeout elapses.
func Dial(ctx context.Context, config Config) (*Channel, error) {
	config = config.withDefaults()
	logger := config.Logger.With("address", config.Address.String())
	collector := config.Collector

	conn, err := dialOnce(ctx, config)
	if err == nil {
		collector.IncConnect()
		logger.Debug("connected to viewer", nil)
		return newChannel(conn, config, logger), nil
	}

	if !isNoListener(err) || !config.Autostart || config.Launcher == nil {
		collector.IncConnectFailure()
		return nil, &ConnectError{Address: config.Address, Err: err}
	}

	if config.Address.IsPath() {
		if rmErr := removeStaleSocket(config.Address.Addr); rmErr != nil {
			logger.Warn("failed to remove stale socket", map[string]any{"error": rmErr.Error()})
		}
	}

	logger.Info("viewer not running, launching", nil)
	if err := config.Launcher.Launch(ctx); err != nil {
		collector.IncAutostartFailure()
		collector.IncConnectFailure()
		return nil, &ConnectError{
			Address:     config.Address,
			Autostarted: true,
			Err:         fmt.Errorf("launch viewer: %w", err),
		}
	}
	collector.IncAutostart()

	conn, err = poll(ctx, config)
	if err != nil {
		collector.IncConnectFailure()
		logger.Error("viewer did not come up", map[string]any{
			"timeout": config.ConnectTimeout.String(),
			"error":   err.Error(),
		})
		return nil, &ConnectError{Address: config.Address, Autostarted: true, Err: err}
	}

	collector.IncConnect()
	logger.Info("connected to launched viewer", nil)
	return newChannel(conn, config, logger), nil
}

func newChannel(conn net.Conn, config Config, logger *log.Logger) *Channel {
	return &Channel{
		conn:         conn,
		address:      config.Address,
		writeTimeout: config.WriteTimeout,
		tap:          config.Tap,
		logger:       logger,
		collector:    config.Collector,
	}
}

func dialOnce(ctx context.Context, config Config) (net.Conn, error) {
	dialer := net.Dialer{Timeout: config.DialTimeout}
	return dialer.DialContext(ctx, config.Address.Network, config.Address.Addr)
}

// poll retries dialOnce until success, the connect timeout, or ctx ends.
func poll(ctx context.Context, config Config) (net.Conn, error) {
	pollCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		conn, err := dialOnce(pollCtx, config)
		if err == nil {
			return conn, nil
		}
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			lastErr = err
		}
		config.Collector.IncConnectRetry()

		select {
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if lastErr == nil {
				return nil, fmt.Errorf("%w after %s", ErrConnectTimeout, config.ConnectTimeout)
			}
			return nil, fmt.Errorf("%w after %s: %w", ErrConnectTimeout, config.ConnectTimeout, lastErr)
		case <-ticker.C:
		}
	}
}

// removeStaleSocket unlinks a socket file nobody is listening on.
func removeStaleSocket(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	return nil
}

// Address returns the connected address.
func (c *Channel) Address() Address {
	return c.address
}

// Send writes one complete frame.
func (c *Channel) Send(frame []byte) error {
	return c.SendContext(context.Background(), frame)
}

// SendContext writes one complete frame, aborting the write when ctx ends.
//
// After any failure the channel is poisoned: later sends return the same
// error without touching the connection.
func (c *Channel) SendContext(ctx context.Context, frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return &SendError{Address: c.address, Size: len(frame), Err: net.ErrClosed}
	}
	if c.failed != nil {
		return &SendError{Address: c.address, Size: len(frame), Err: c.failed}
	}
	if err := ctx.Err(); err != nil {
		return &SendError{Address: c.address, Size: len(frame), Err: err}
	}

	var deadline time.Time
	if c.writeTimeout > 0 {
		deadline = time.Now().Add(c.writeTimeout)
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return c.fail(0, len(frame), fmt.Errorf("set write deadline: %w", err))
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetWriteDeadline(time.Unix(1, 0))
	})
	n, err := c.conn.Write(frame)
	stop()

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return c.fail(n, len(frame), err)
	}

	c.bytesSent += int64(n)
	c.framesSent++
	if c.tap != nil {
		c.tap(frame)
	}
	return nil
}

func (c *Channel) fail(written, size int, err error) error {
	c.failed = err
	c.collector.IncSendFailure()
	c.logger.Error("frame write failed", map[string]any{
		"written": written,
		"size":    size,
		"error":   err.Error(),
	})
	return &SendError{Address: c.address, Written: written, Size: size, Err: err}
}

// BytesSent returns the number of bytes written so far.
func (c *Channel) BytesSent() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesSent
}

// FramesSent returns the number of frames written so far.
func (c *Channel) FramesSent() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.framesSent
}

// Close releases the connection. Close is idempotent.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

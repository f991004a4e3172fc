package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/justapithecus/monochrome/adapter"
	"github.com/justapithecus/monochrome/adapter/redis"
	"github.com/justapithecus/monochrome/adapter/webhook"
	"github.com/justapithecus/monochrome/capture"
	"github.com/justapithecus/monochrome/cli/config"
	"github.com/justapithecus/monochrome/client"
	"github.com/justapithecus/monochrome/launcher"
	"github.com/justapithecus/monochrome/log"
	"github.com/justapithecus/monochrome/metrics"
	"github.com/justapithecus/monochrome/transport"
	"github.com/justapithecus/monochrome/types"
)

// Exit codes of transfer commands.
const (
	exitSuccess    = 0
	exitError      = 1
	exitValidation = 2
	exitConnect    = 3
	exitSend       = 4
)

// env is the wiring shared by every command of one invocation.
type env struct {
	config    *config.Config
	sessionID string
	transport transport.Config
	viewer    *launcher.Viewer
	capture   config.CaptureConfig
	logger    *log.Logger
	collector *metrics.Collector
}

func newEnv(c *cli.Context) (*env, error) {
	cfg, _, err := config.Resolve(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), exitError)
	}

	viewer := launcher.New(cfg.Viewer.LauncherConfig(), cfg.Viewer.Options())
	tc, err := transportConfig(c, cfg.Transport, viewer)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitValidation)
	}

	cc := cfg.Capture
	if p := c.String("capture-path"); p != "" {
		cc.Enabled, cc.Backend, cc.Path = true, capture.BackendFS, p
	}
	storage := ""
	if cc.Enabled {
		storage = cc.Backend
		if storage == "" {
			storage = capture.BackendFS
		}
	}

	e := &env{
		config:    cfg,
		sessionID: uuid.NewString(),
		transport: tc,
		viewer:    viewer,
		capture:   cc,
		logger:    log.Nop(),
	}
	if c.Bool("verbose") {
		e.logger = log.NewLoggerTo(log.Session{
			ID:      e.sessionID,
			Address: tc.Address.String(),
			Client:  types.ClientName,
		}, c.App.ErrWriter, zapcore.DebugLevel)
	}
	e.collector = metrics.NewCollector(tc.Address.Network, storage, e.sessionID)
	e.transport.Logger = e.logger
	e.transport.Collector = e.collector
	return e, nil
}

// transportConfig merges the transport section with the global flags.
// Flags win over the config file.
func transportConfig(c *cli.Context, tcfg config.TransportConfig, viewer *launcher.Viewer) (transport.Config, error) {
	tc := transport.DefaultConfig(viewer)

	switch {
	case c.String("socket") != "":
		tc.Address = transport.Address{Network: "unix", Addr: c.String("socket")}
	case c.String("tcp") != "":
		addr, err := transport.ParseAddress("tcp:" + c.String("tcp"))
		if err != nil {
			return tc, fmt.Errorf("--tcp: %w", err)
		}
		tc.Address = addr
	case tcfg.Address != "":
		addr, err := transport.ParseAddress(tcfg.Address)
		if err != nil {
			return tc, fmt.Errorf("transport.address: %w", err)
		}
		tc.Address = addr
	}

	if (tcfg.Autostart != nil && !*tcfg.Autostart) || c.Bool("no-autostart") {
		tc.Autostart = false
		tc.Launcher = nil
	}
	if tcfg.ConnectTimeout.Duration > 0 {
		tc.ConnectTimeout = tcfg.ConnectTimeout.Duration
	}
	tc.ConnectTimeout = durationOr(c, "timeout", tc.ConnectTimeout)
	if tcfg.WriteTimeout.Duration > 0 {
		tc.WriteTimeout = tcfg.WriteTimeout.Duration
	}
	return tc, nil
}

// transfer runs one client operation through run.
func (e *env) transfer(c *cli.Context, operation, name string, fn func(context.Context, *client.Client) error) error {
	return e.run(c, operation, name, func(ctx context.Context, tc transport.Config) error {
		return fn(ctx, client.New(client.Config{
			Transport: tc,
			Logger:    e.logger,
			Collector: e.collector,
		}))
	})
}

// run executes one operation against the viewer with capture and
// notification around it, and maps its error to an exit code. fn receives
// the transport config with the capture tap installed.
func (e *env) run(c *cli.Context, operation, name string, fn func(context.Context, transport.Config) error) error {
	ctx := c.Context
	started := time.Now()

	tc := e.transport
	rec, err := e.recorder(ctx, operation)
	if err != nil {
		return cli.Exit(fmt.Sprintf("capture: %v", err), exitError)
	}
	if rec != nil {
		tc.Tap = rec.Tap
	}

	opErr := fn(ctx, tc)

	event := &adapter.TransferCompletedEvent{
		EventType:  adapter.EventTypeTransferCompleted,
		Session:    e.sessionID,
		Operation:  operation,
		Name:       name,
		Address:    tc.Address.String(),
		Outcome:    adapter.Outcome(opErr),
		Timestamp:  started.UTC().Format(time.RFC3339),
		DurationMs: time.Since(started).Milliseconds(),
	}
	snap := e.collector.Snapshot()
	event.Frames, event.Bytes = snap.FramesSent, snap.BytesSent
	if opErr != nil {
		event.Error = opErr.Error()
	}

	if rec != nil {
		// Record the session even when the caller canceled.
		closeCtx := context.WithoutCancel(ctx)
		if err := rec.Close(closeCtx, opErr); err != nil {
			e.warn(c, "capture failed", err)
		} else {
			event.CaptureSession = rec.SessionID()
		}
	}
	e.notify(c, event)

	return exitFor(opErr)
}

func (e *env) recorder(ctx context.Context, operation string) (*capture.Recorder, error) {
	if !e.capture.Enabled {
		return nil, nil
	}
	factory, _, err := capture.Factory(ctx, e.capture.BackendConfig())
	if err != nil {
		return nil, err
	}
	return capture.NewRecorder(capture.Config{
		Dataset:   e.capture.Dataset,
		SessionID: e.sessionID,
		Operation: operation,
		Transport: e.transport.Address.Network,
		Address:   e.transport.Address.String(),
	}, factory, e.collector, e.logger)
}

// reader opens the capture dataset for the capture commands.
func (e *env) reader(ctx context.Context) (*capture.Reader, error) {
	if e.capture.Path == "" && e.capture.Backend != capture.BackendMemory {
		return nil, cli.Exit("no capture dataset configured (set --capture-path or capture.path)", exitError)
	}
	factory, _, err := capture.Factory(ctx, e.capture.BackendConfig())
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("capture: %v", err), exitError)
	}
	return capture.NewReader(e.capture.Dataset, factory)
}

// notify publishes event through the configured adapter. Failures are
// reported but never change the exit code.
func (e *env) notify(c *cli.Context, event *adapter.TransferCompletedEvent) {
	a, err := buildAdapter(e.config.Adapter)
	if err != nil {
		e.warn(c, "adapter misconfigured", err)
		return
	}
	if a == nil {
		return
	}
	inst := adapter.NewInstrumented(a, e.collector, e.logger)
	defer func() { _ = inst.Close() }()

	if err := inst.Publish(context.WithoutCancel(c.Context), event); err != nil {
		e.warn(c, "notification failed", err)
	}
}

func (e *env) warn(c *cli.Context, msg string, err error) {
	e.logger.Warn(msg, map[string]any{"error": err.Error()})
	fmt.Fprintf(c.App.ErrWriter, "Warning: %s: %v\n", msg, err)
}

// buildAdapter returns nil when no adapter type is configured.
func buildAdapter(ac config.AdapterConfig) (adapter.Adapter, error) {
	switch ac.Type {
	case "":
		return nil, nil
	case "webhook":
		retries := webhook.DefaultRetries
		if ac.Retries != nil {
			retries = *ac.Retries
		}
		return webhook.New(webhook.Config{
			URL:     ac.URL,
			Headers: ac.Headers,
			Secret:  ac.Secret,
			Timeout: ac.Timeout.Duration,
			Retries: retries,
		})
	case "redis":
		retries := redis.DefaultRetries
		if ac.Retries != nil {
			retries = *ac.Retries
		}
		return redis.New(redis.Config{
			URL:     ac.URL,
			Channel: ac.Channel,
			Mode:    ac.Mode,
			Timeout: ac.Timeout.Duration,
			Retries: retries,
		})
	default:
		return nil, fmt.Errorf("unknown adapter type %q (want webhook or redis)", ac.Type)
	}
}

// exitFor maps an operation error to the exit code of its outcome.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	code := exitError
	switch adapter.Outcome(err) {
	case adapter.OutcomeValidationError:
		code = exitValidation
	case adapter.OutcomeConnectError:
		code = exitConnect
	case adapter.OutcomeSendError:
		code = exitSend
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		return err
	}
	return cli.Exit(err.Error(), code)
}

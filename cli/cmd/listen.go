package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/monochrome/metrics"
	"github.com/justapithecus/monochrome/receiver"
)

// ListenCommand returns the listen command. It serves the viewer address
// and prints one JSON line per decoded message, reassembled array and
// rejected frame.
func ListenCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Accept client connections and print what arrives",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "count",
				Usage: "Exit after this many connections have closed (0 = run until interrupted)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g. :9464)",
			},
		},
		Action: listenAction,
	}
}

// listenLine is one line of listen output.
type listenLine struct {
	Conn     int64  `json:"conn"`
	Event    string `json:"event"`
	Kind     string `json:"kind,omitempty"`
	Size     int    `json:"size,omitempty"`
	Name     string `json:"name,omitempty"`
	Elements int    `json:"elements,omitempty"`
	Chunks   int    `json:"chunks,omitempty"`
	Error    string `json:"error,omitempty"`
}

func listenAction(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	if addr := c.String("metrics-addr"); addr != "" {
		stop, err := serveMetrics(addr, e.collector)
		if err != nil {
			return cli.Exit(fmt.Sprintf("metrics: %v", err), exitError)
		}
		defer stop()
	}

	printer := &linePrinter{out: c.App.Writer, limit: c.Int("count"), done: cancel}
	v, err := receiver.Start(ctx, e.transport.Address, &receiver.Server{
		Handler:   printer,
		Logger:    e.logger,
		Collector: e.collector,
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("listen: %v", err), exitError)
	}
	fmt.Fprintf(c.App.ErrWriter, "listening on %s\n", v.Address())

	<-ctx.Done()
	return v.Close()
}

// linePrinter writes receiver events as JSON lines.
type linePrinter struct {
	out   io.Writer
	limit int
	done  context.CancelFunc

	mu     sync.Mutex
	closed int
}

func (p *linePrinter) Handle(_ context.Context, ev receiver.Event) {
	line := listenLine{Conn: ev.Conn, Event: ev.Type.String()}
	switch ev.Type {
	case receiver.EventMessage:
		line.Kind = ev.Payload.Kind().String()
		line.Size = ev.FrameSize
	case receiver.EventArray:
		line.Name = ev.Array.Name()
		line.Elements = ev.Array.Total
		line.Chunks = ev.Array.Chunks
	case receiver.EventError:
		line.Error = ev.Err.Error()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_ = json.NewEncoder(p.out).Encode(line)
	if ev.Type == receiver.EventClosed {
		p.closed++
		if p.limit > 0 && p.closed >= p.limit {
			p.done()
		}
	}
}

// serveMetrics exposes the collector on /metrics and a liveness probe on
// /healthz. The returned func shuts the server down.
func serveMetrics(addr string, collector *metrics.Collector) (func(), error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewExporter(collector)); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = l.Close()
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ExporterConfig configures the Prometheus exporter.
type ExporterConfig struct {
	// Namespace is the metrics namespace (default: "monochrome").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels
}

// ExporterOption configures the Prometheus exporter.
type ExporterOption func(*ExporterConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) ExporterOption {
	return func(c *ExporterConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) ExporterOption {
	return func(c *ExporterConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) ExporterOption {
	return func(c *ExporterConfig) {
		c.ConstLabels = labels
	}
}

type counterDesc struct {
	desc  *prometheus.Desc
	value func(Snapshot) int64
}

// Exporter exposes a Collector to Prometheus. Values are read from a
// Snapshot at scrape time, so the send path never touches Prometheus state.
type Exporter struct {
	source   *Collector
	counters []counterDesc
	byKind   *prometheus.Desc
	byOp     *prometheus.Desc
}

// NewExporter creates an exporter for source. Register it with
// prometheus.Registerer.Register.
func NewExporter(source *Collector, opts ...ExporterOption) *Exporter {
	config := ExporterConfig{Namespace: "monochrome"}
	for _, opt := range opts {
		opt(&config)
	}

	snap := source.Snapshot()
	labels := prometheus.Labels{}
	for k, v := range config.ConstLabels {
		labels[k] = v
	}
	if snap.Transport != "" {
		labels["transport"] = snap.Transport
	}
	if snap.StorageBackend != "" {
		labels["storage_backend"] = snap.StorageBackend
	}

	name := func(n string) string {
		return prometheus.BuildFQName(config.Namespace, config.Subsystem, n)
	}
	counter := func(n, help string, value func(Snapshot) int64) counterDesc {
		return counterDesc{
			desc:  prometheus.NewDesc(name(n), help, nil, labels),
			value: value,
		}
	}

	return &Exporter{
		source: source,
		counters: []counterDesc{
			counter("operations_started_total", "Send operations started",
				func(s Snapshot) int64 { return s.OperationsStarted }),
			counter("operations_completed_total", "Send operations that delivered every frame",
				func(s Snapshot) int64 { return s.OperationsCompleted }),
			counter("validation_failures_total", "Inputs rejected before any I/O",
				func(s Snapshot) int64 { return s.ValidationFailures }),
			counter("bytes_sent_total", "Bytes written to the viewer, including length prefixes",
				func(s Snapshot) int64 { return s.BytesSent }),
			counter("chunks_sent_total", "Array data chunk frames written",
				func(s Snapshot) int64 { return s.ChunksSent }),
			counter("connects_total", "Connections established",
				func(s Snapshot) int64 { return s.Connects }),
			counter("connect_retries_total", "Connection polls that failed after autostart",
				func(s Snapshot) int64 { return s.ConnectRetries }),
			counter("connect_failures_total", "Connections that could not be established",
				func(s Snapshot) int64 { return s.ConnectFailures }),
			counter("autostarts_total", "Viewer launches",
				func(s Snapshot) int64 { return s.Autostarts }),
			counter("autostart_failures_total", "Viewer launches that failed",
				func(s Snapshot) int64 { return s.AutostartFailures }),
			counter("send_failures_total", "Write errors on established connections",
				func(s Snapshot) int64 { return s.SendFailures }),
			counter("frames_received_total", "Frames read by a listener",
				func(s Snapshot) int64 { return s.FramesReceived }),
			counter("decode_errors_total", "Frames that could not be decoded",
				func(s Snapshot) int64 { return s.DecodeErrors }),
			counter("capture_writes_total", "Successful capture writes",
				func(s Snapshot) int64 { return s.CaptureWriteSuccess }),
			counter("capture_write_failures_total", "Failed capture writes",
				func(s Snapshot) int64 { return s.CaptureWriteFailure }),
			counter("notifications_total", "Delivered notifications",
				func(s Snapshot) int64 { return s.NotifySuccess }),
			counter("notification_failures_total", "Notifications that could not be delivered",
				func(s Snapshot) int64 { return s.NotifyFailure }),
		},
		byKind: prometheus.NewDesc(name("frames_sent_total"),
			"Frames written to the viewer by message kind", []string{"kind"}, labels),
		byOp: prometheus.NewDesc(name("operations_failed_total"),
			"Send operations that failed by operation", []string{"operation"}, labels),
	}
}

// Describe implements prometheus.Collector.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range e.counters {
		ch <- c.desc
	}
	ch <- e.byKind
	ch <- e.byOp
}

// Collect implements prometheus.Collector.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	snap := e.source.Snapshot()
	for _, c := range e.counters {
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.CounterValue, float64(c.value(snap)))
	}
	for kind, n := range snap.FramesByKind {
		ch <- prometheus.MustNewConstMetric(e.byKind, prometheus.CounterValue, float64(n), kind)
	}
	for op, n := range snap.FailedByOperation {
		ch <- prometheus.MustNewConstMetric(e.byOp, prometheus.CounterValue, float64(n), op)
	}
}

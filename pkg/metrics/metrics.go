// Package metrics records conversion counters with Prometheus. Every run
// gets its own Collector and registry, which can be written to a textfile
// for the node exporter's textfile collector once the run ends.
//
// # Basic Usage
//
//	c := metrics.NewCollector()
//	res, err := convert.Export(ctx, cols, in, out, convert.Options{Observer: c})
//	c.AddBytes(convert.DirectionExport, metrics.StreamInput, res.Bytes)
//	_ = c.WriteTextfile("/var/lib/node_exporter/fexport.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// Row statuses.
const (
	StatusConverted = "converted"
	StatusSkipped   = "skipped"
)

// Stream labels for byte counters.
const (
	StreamInput  = "input"
	StreamOutput = "output"
)

// Collector holds the metrics of one run. It is safe for concurrent use.
type Collector struct {
	registry    *prometheus.Registry
	rows        *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	frameBytes  prometheus.Histogram
	errorsTotal *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewCollector creates a collector on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		rows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fexport_rows_total",
				Help: "Rows converted or skipped",
			},
			[]string{"direction", "status"},
		),
		bytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fexport_bytes_total",
				Help: "Bytes read from inputs and written to outputs",
			},
			[]string{"direction", "stream"},
		),
		frameBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fexport_frame_bytes",
				Help:    "Size of binary frame bodies",
				Buckets: prometheus.ExponentialBuckets(16, 4, 7), // 16B to 64KB
			},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fexport_errors_total",
				Help: "Conversion errors by type",
			},
			[]string{"type"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fexport_run_duration_seconds",
				Help:    "Wall time of conversion runs",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"direction"},
		),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RowConverted counts a converted row and observes its frame size.
func (c *Collector) RowConverted(direction string, frameSize int) {
	c.rows.WithLabelValues(direction, StatusConverted).Inc()
	c.frameBytes.Observe(float64(frameSize))
}

// RowSkipped counts a row skipped for a value-level error.
func (c *Collector) RowSkipped(direction string, err error) {
	c.rows.WithLabelValues(direction, StatusSkipped).Inc()
	c.RecordError(err)
}

// RecordError counts err under its type.
func (c *Collector) RecordError(err error) {
	if err == nil {
		return
	}
	c.errorsTotal.WithLabelValues(string(errors.TypeOf(err))).Inc()
}

// AddBytes adds n bytes to the given stream's counter.
func (c *Collector) AddBytes(direction, stream string, n int64) {
	if n > 0 {
		c.bytes.WithLabelValues(direction, stream).Add(float64(n))
	}
}

// ObserveDuration records the wall time of a run.
func (c *Collector) ObserveDuration(direction string, d time.Duration) {
	c.duration.WithLabelValues(direction).Observe(d.Seconds())
}

// WriteTextfile writes every metric in the text exposition format,
// replacing path atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics textfile").WithDetail("path", path)
	}
	return nil
}

// Timer measures elapsed time for an operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the elapsed time since the timer started.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Package pipeline runs one conversion end to end: it loads the schema,
// opens the input and output through the storage layer, wraps them with
// the configured compression, drives the converter and then commits or
// aborts the output.
//
// # Basic Usage
//
//	runner := pipeline.New(cfg, logger)
//	res, err := runner.Run(ctx, pipeline.Job{
//	    Direction: convert.DirectionExport,
//	    Schema:    "customers.yaml",
//	    Input:     "s3://exports/customers.bin.zst",
//	    Output:    "customers.csv",
//	})
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ajitpratap0/fexport/pkg/compression"
	"github.com/ajitpratap0/fexport/pkg/config"
	"github.com/ajitpratap0/fexport/pkg/convert"
	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/logger"
	"github.com/ajitpratap0/fexport/pkg/metrics"
	"github.com/ajitpratap0/fexport/pkg/observability"
	"github.com/ajitpratap0/fexport/pkg/schema"
	"github.com/ajitpratap0/fexport/pkg/storage"
)

// Job describes one conversion.
type Job struct {
	// Direction is convert.DirectionExport (binary to text) or
	// convert.DirectionImport (text to binary).
	Direction string
	// Schema is the path of the column definition file.
	Schema string
	// Input and Output are storage locations; "-" means the standard streams.
	Input  string
	Output string
}

// Result reports a finished run.
type Result struct {
	RunID string
	convert.Result
	InputBytes  int64
	OutputBytes int64
	Duration    time.Duration
	// Metrics is nil unless metrics are enabled.
	Metrics *metrics.Collector
}

// Runner executes jobs with one configuration.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *storage.Store
	tracer trace.Tracer
}

// Option customizes a Runner.
type Option func(*Runner)

// WithStore replaces the storage backend.
func WithStore(s *storage.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithTracerProvider sets the provider spans are started from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) { r.tracer = observability.Tracer(tp) }
}

// New creates a Runner. A nil cfg means config.Default() and a nil log
// discards messages.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{
		cfg:    cfg,
		logger: log,
		store:  storage.New(cfg.Storage),
		tracer: observability.Tracer(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (j Job) validate() error {
	switch j.Direction {
	case convert.DirectionExport, convert.DirectionImport:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown direction %q", j.Direction)
	}
	if j.Schema == "" {
		return errors.New(errors.ErrorTypeConfig, "a schema file is required")
	}
	if j.Input == "" || j.Output == "" {
		return errors.New(errors.ErrorTypeConfig, "both input and output are required")
	}
	return nil
}

// Run executes job. The output is committed only when the conversion
// succeeds; on any error it is aborted.
func (r *Runner) Run(ctx context.Context, job Job) (res *Result, err error) {
	if err := job.validate(); err != nil {
		return nil, err
	}

	res = &Result{RunID: uuid.NewString()}
	timer := metrics.NewTimer()
	if r.cfg.Metrics.Enabled {
		res.Metrics = metrics.NewCollector()
	}

	ctx = logger.ContextWithRun(ctx, res.RunID, job.Direction, job.Input)
	log := logger.FromContext(r.logger, ctx)

	ctx, span := observability.StartSpan(ctx, r.tracer, "fexport."+job.Direction,
		attribute.String("run_id", res.RunID),
		attribute.String("input", job.Input),
		attribute.String("output", job.Output),
	)
	defer func() {
		res.Duration = timer.Stop()
		span.SetAttributes(
			attribute.Int64("rows", res.Rows),
			attribute.Int64("skipped", res.Skipped),
		)
		span.End(err)

		if res.Metrics != nil {
			res.Metrics.RecordError(err)
			res.Metrics.ObserveDuration(job.Direction, res.Duration)
			res.Metrics.AddBytes(job.Direction, metrics.StreamInput, res.InputBytes)
			res.Metrics.AddBytes(job.Direction, metrics.StreamOutput, res.OutputBytes)
			if path := r.cfg.Metrics.Textfile; path != "" {
				if werr := res.Metrics.WriteTextfile(path); werr != nil {
					log.Warn("failed to write metrics", zap.Error(werr))
				}
			}
		}

		if err != nil {
			log.Error("run failed", logger.ErrorFields(err)...)
		}
	}()

	err = r.run(ctx, job, res, log)
	return res, err
}

func (r *Runner) run(ctx context.Context, job Job, res *Result, log *zap.Logger) error {
	order, err := r.cfg.ByteOrder()
	if err != nil {
		return err
	}
	cols, err := schema.LoadFile(job.Schema, order)
	if err != nil {
		return err
	}
	log.Debug("schema loaded", zap.String("schema", job.Schema), zap.Int("columns", len(cols)))

	inAlg, outAlg, level, err := r.codecs(job)
	if err != nil {
		return err
	}

	src, err := r.store.Open(ctx, job.Input)
	if err != nil {
		return err
	}
	defer src.Close()
	in := &countingReader{r: src}

	zr, err := compression.NewReader(inAlg, in)
	if err != nil {
		return err
	}
	defer zr.Close()

	dst, err := r.store.Create(ctx, job.Output)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = dst.Abort()
		}
	}()
	out := &countingWriter{w: dst}

	zw, err := compression.NewWriter(outAlg, out, level)
	if err != nil {
		return err
	}

	opts := convert.Options{
		UseColumnTitles:  r.cfg.Conversion.UseColumnTitles,
		Order:            order,
		NullPlaceholders: r.cfg.Conversion.NullPlaceholders,
		Workers:          r.cfg.Conversion.Workers,
		BatchSize:        r.cfg.Conversion.BatchSize,
		MaxRowErrors:     r.cfg.Conversion.MaxRowErrors,
		Logger:           log,
	}
	if res.Metrics != nil {
		opts.Observer = res.Metrics
	}

	var cres convert.Result
	if job.Direction == convert.DirectionExport {
		cres, err = convert.Export(ctx, cols, zr, zw, opts)
	} else {
		cres, err = convert.Import(ctx, cols, zr, zw, opts)
	}
	res.Result = cres
	res.InputBytes = in.n
	if err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finish compressed output")
	}
	if err := dst.Commit(); err != nil {
		return err
	}
	committed = true
	res.OutputBytes = out.n

	log.Info("run complete",
		zap.Int64("rows", res.Rows),
		zap.Int64("skipped", res.Skipped),
		zap.Int64("input_bytes", res.InputBytes),
		zap.Int64("output_bytes", res.OutputBytes),
		zap.String("input_compression", string(inAlg)),
		zap.String("output_compression", string(outAlg)))
	return nil
}

func (r *Runner) codecs(job Job) (in, out compression.Algorithm, level compression.Level, err error) {
	if in, err = compression.ParseAlgorithm(r.cfg.Compression.Input); err != nil {
		return
	}
	if out, err = compression.ParseAlgorithm(r.cfg.Compression.Output); err != nil {
		return
	}
	if level, err = compression.ParseLevel(r.cfg.Compression.Level); err != nil {
		return
	}
	return compression.Resolve(in, job.Input), compression.Resolve(out, job.Output), level, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

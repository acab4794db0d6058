package convert

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/pool"
	"github.com/ajitpratap0/fexport/pkg/record"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

// Export reads framed binary records from r and writes them to w as
// delimited text: a header row of column labels, then one row per record
// with nulls as empty fields.
func Export(ctx context.Context, cols []schema.Column, r io.Reader, w io.Writer, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if err := schema.Validate(cols, opts.UseColumnTitles); err != nil {
		return Result{}, err
	}
	rc, err := record.NewCodec(cols, opts.recordOptions())
	if err != nil {
		return Result{}, err
	}

	e := &exporter{
		ctx:  ctx,
		opts: opts,
		rc:   rc,
		fr:   record.NewFrameReader(r, opts.Order),
		cw:   csv.NewWriter(w),
		res:  Result{Columns: rc.Columns()},
	}

	start := time.Now()
	opts.Logger.Info("starting export",
		zap.Int("columns", len(cols)),
		zap.Int("workers", opts.Workers),
		zap.Bool("use_column_titles", opts.UseColumnTitles))

	if err := e.cw.Write(schema.Labels(cols, opts.UseColumnTitles)); err != nil {
		return e.res, errors.Wrap(err, errors.ErrorTypeFile, "failed to write header row")
	}

	if opts.Workers > 1 {
		err = e.runParallel()
	} else {
		err = e.run()
	}
	e.res.Bytes = e.fr.BytesRead()
	if err != nil {
		return e.res, err
	}

	e.cw.Flush()
	if err := e.cw.Error(); err != nil {
		return e.res, errors.Wrap(err, errors.ErrorTypeFile, "failed to write delimited output")
	}

	opts.Logger.Info("export complete",
		zap.Int64("rows", e.res.Rows),
		zap.Int64("bytes", e.res.Bytes),
		zap.Duration("duration", time.Since(start)))
	return e.res, nil
}

type exporter struct {
	ctx  context.Context
	opts Options
	rc   *record.Codec
	fr   *record.FrameReader
	cw   *csv.Writer
	res  Result
}

func (e *exporter) run() error {
	rec := make(record.Record, len(e.res.Columns))
	row := pool.GetRow(len(rec))
	defer pool.PutRow(row)

	for {
		if err := e.ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "export cancelled")
		}

		body, err := e.fr.ReadFrame()
		if err == io.EOF {
			return nil
		}
		n := e.res.Rows + 1
		if err != nil {
			return rowError(err, n)
		}

		rec, err = e.rc.DecodeInto(rec, body)
		if err != nil {
			return rowError(err, n)
		}
		if err := e.write(appendTexts((*row)[:0], rec), len(body)); err != nil {
			return err
		}
	}
}

// runParallel reads frames sequentially in batches, decodes each batch
// across the workers and writes the rows in input order.
func (e *exporter) runParallel() error {
	size := e.opts.BatchSize
	frames := make([]*[]byte, 0, size)
	rows := make([][]string, size)
	defer func() {
		for _, f := range frames {
			pool.PutFrame(f)
		}
	}()

	for {
		if err := e.ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "export cancelled")
		}

		for _, f := range frames {
			pool.PutFrame(f)
		}
		frames = frames[:0]

		eof := false
		for len(frames) < size {
			body, err := e.fr.ReadFrame()
			if err == io.EOF {
				eof = true
				break
			}
			if err != nil {
				return rowError(err, e.res.Rows+int64(len(frames))+1)
			}
			f := pool.GetFrame()
			*f = append(*f, body...)
			frames = append(frames, f)
		}

		if err := e.decodeBatch(frames, rows); err != nil {
			return err
		}
		for i, f := range frames {
			if err := e.write(rows[i], len(*f)); err != nil {
				return err
			}
		}
		e.opts.Logger.Debug("exported batch", zap.Int("frames", len(frames)), zap.Int64("rows", e.res.Rows))

		if eof {
			return nil
		}
	}
}

func (e *exporter) decodeBatch(frames []*[]byte, rows [][]string) error {
	workers := e.opts.Workers
	chunk := (len(frames) + workers - 1) / workers
	if chunk == 0 {
		return nil
	}
	base := e.res.Rows

	g, gctx := errgroup.WithContext(e.ctx)
	for start := 0; start < len(frames); start += chunk {
		start, end := start, min(start+chunk, len(frames))
		g.Go(func() error {
			rec := make(record.Record, len(e.res.Columns))
			var err error
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				rec, err = e.rc.DecodeInto(rec, *frames[i])
				if err != nil {
					return rowError(err, base+int64(i)+1)
				}
				rows[i] = appendTexts(rows[i][:0], rec)
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *exporter) write(fields []string, frameSize int) error {
	if err := e.cw.Write(fields); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write delimited output")
	}
	e.res.Rows++
	e.opts.Observer.RowConverted(DirectionExport, frameSize)
	return nil
}

func appendTexts(dst []string, rec record.Record) []string {
	for _, v := range rec {
		dst = append(dst, v.String())
	}
	return dst
}

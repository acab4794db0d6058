package convert

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/logger"
	"github.com/ajitpratap0/fexport/pkg/pool"
	"github.com/ajitpratap0/fexport/pkg/record"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

// Import reads delimited text from r and writes one framed binary record per
// row to w. The header row decides which columns are present and in what
// order; the returned Result lists those columns as written.
func Import(ctx context.Context, cols []schema.Column, r io.Reader, w io.Writer, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if err := schema.Validate(cols, opts.UseColumnTitles); err != nil {
		return Result{}, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return Result{}, errors.New(errors.ErrorTypeSchemaMismatch, "input has no header row")
	}
	if err != nil {
		return Result{}, errors.Wrap(err, errors.ErrorTypeFile, "failed to read header row")
	}

	projected, err := project(cols, header, opts.UseColumnTitles)
	if err != nil {
		return Result{}, err
	}
	rc, err := record.NewCodec(projected, opts.recordOptions())
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	opts.Logger.Info("starting import",
		zap.Strings("header", header),
		zap.Int("max_row_errors", opts.MaxRowErrors))

	fw := record.NewFrameWriter(w)
	res := Result{Columns: projected}
	rec := make(record.Record, len(projected))
	frame := pool.GetFrame()
	defer pool.PutFrame(frame)

	for row := int64(1); ; row++ {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, errors.ErrorTypeInternal, "import cancelled")
		}

		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, rowError(errors.Wrap(err, errors.ErrorTypeFile, "failed to parse delimited input"), row)
		}
		if len(fields) != len(projected) {
			return res, rowError(errors.Newf(errors.ErrorTypeSchemaMismatch,
				"row has %d fields, header has %d", len(fields), len(projected)), row)
		}

		if err = fillRecord(rec, projected, fields); err == nil {
			*frame, err = rc.AppendFrame((*frame)[:0], rec)
		}
		if err != nil {
			err = rowError(err, row)
			if errors.IsFatal(err) || res.Skipped >= int64(opts.MaxRowErrors) {
				return res, err
			}
			res.Skipped++
			opts.Logger.Warn("skipping row", logger.ErrorFields(err)...)
			opts.Observer.RowSkipped(DirectionImport, err)
			continue
		}

		if err := fw.WriteFrame(*frame); err != nil {
			return res, err
		}
		res.Rows++
		res.Bytes = fw.BytesWritten()
		opts.Observer.RowConverted(DirectionImport, len(*frame))

		if res.Rows%int64(opts.BatchSize) == 0 {
			opts.Logger.Debug("imported batch", zap.Int64("rows", res.Rows))
		}
	}

	if err := fw.Flush(); err != nil {
		return res, err
	}
	res.Bytes = fw.BytesWritten()

	opts.Logger.Info("import complete",
		zap.Int64("rows", res.Rows),
		zap.Int64("skipped", res.Skipped),
		zap.Int64("bytes", res.Bytes),
		zap.Duration("duration", time.Since(start)))
	return res, nil
}

// project orders cols to follow the header. Every header label must name a
// declared column exactly once; declared columns missing from the header are
// left out of the output.
func project(cols []schema.Column, header []string, useTitles bool) ([]schema.Column, error) {
	byLabel := make(map[string]schema.Column, len(cols))
	for _, c := range cols {
		byLabel[c.Label(useTitles)] = c
	}

	seen := make(map[string]bool, len(header))
	projected := make([]schema.Column, 0, len(header))
	for _, label := range header {
		c, ok := byLabel[label]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "header %q does not match any column", label).
				WithDetail("column", label)
		}
		if seen[label] {
			return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "header %q appears more than once", label).
				WithDetail("column", label)
		}
		seen[label] = true
		projected = append(projected, c)
	}
	return projected, nil
}

// fillRecord maps text fields to values. An empty field is an empty string
// for character columns and a null for every other kind.
func fillRecord(rec record.Record, cols []schema.Column, fields []string) error {
	for i, f := range fields {
		switch {
		case f != "":
			rec[i] = record.TextValue(f)
		case cols[i].Kind.IsCharacter():
			rec[i] = record.TextValue("")
		case cols[i].Nullable:
			rec[i] = record.NullValue()
		default:
			return errors.Newf(errors.ErrorTypeNullOnNonNullable,
				"column %q is not nullable but the field is empty", cols[i].Name).
				WithDetail("column", cols[i].Name)
		}
	}
	return nil
}

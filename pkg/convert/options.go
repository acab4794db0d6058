// Package convert streams whole files between delimited text and the binary
// export format, one record per row, with a header row naming the columns.
package convert

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/record"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

// Directions reported to loggers and observers.
const (
	DirectionExport = "export"
	DirectionImport = "import"
)

const defaultBatchSize = 1024

// Options configure a conversion run.
type Options struct {
	// UseColumnTitles labels the header row with column titles instead of
	// names.
	UseColumnTitles bool

	// Order is the byte order of the binary side; nil means native.
	Order binary.ByteOrder

	// NullPlaceholders keeps null fields at their full width on the wire.
	NullPlaceholders bool

	// Workers decoding frames in parallel during export. Values below 2
	// decode sequentially.
	Workers int

	// BatchSize is the number of frames handed to the workers at a time.
	BatchSize int

	// MaxRowErrors is the number of rows that may be skipped for
	// value-level errors before the run aborts. Zero aborts on the first.
	MaxRowErrors int

	// Logger receives progress and skipped-row messages; nil discards them.
	Logger *zap.Logger

	// Observer is notified of every row; nil ignores them.
	Observer Observer
}

// Observer receives per-row outcomes, typically to feed metrics.
type Observer interface {
	RowConverted(direction string, frameSize int)
	RowSkipped(direction string, err error)
}

type nopObserver struct{}

func (nopObserver) RowConverted(string, int)  {}
func (nopObserver) RowSkipped(string, error) {}

func (o Options) withDefaults() Options {
	if o.Order == nil {
		o.Order = binary.NativeEndian
	}
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	return o
}

func (o Options) recordOptions() record.Options {
	return record.Options{Order: o.Order, NullPlaceholders: o.NullPlaceholders}
}

// Result summarizes a finished run.
type Result struct {
	// Rows converted and written.
	Rows int64
	// Skipped rows that failed with a value-level error.
	Skipped int64
	// Bytes of binary data read (export) or written (import).
	Bytes int64
	// Columns in the order they appear in the output (import) or input
	// (export).
	Columns []schema.Column
}

// rowError attaches the 1-based data row number to err, keeping its type.
func rowError(err error, row int64) error {
	return errors.Wrap(err, errors.TypeOf(err), fmt.Sprintf("row %d", row)).WithDetail("row", row)
}

// Package codec converts column values between their textual form and the
// fixed binary layout of the warehouse export format. There is one codec per
// column kind; New picks it from the closed schema.Kind set.
//
// Multi-byte fields use an explicit byte order with no padding or alignment.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

// Codec encodes and decodes the values of one column.
type Codec interface {
	// Column returns the column the codec was built for
	Column() schema.Column

	// Encode appends the binary form of text to dst.
	Encode(dst []byte, text string) ([]byte, error)

	// Decode reads the field starting at body[off:] and returns its text
	// together with the number of bytes consumed.
	Decode(body []byte, off int) (string, int, error)

	// Placeholder appends the bytes that stand in for a null value when
	// null fields keep their width on the wire.
	Placeholder(dst []byte) []byte
}

// New builds the codec for col.
func New(col schema.Column, order binary.ByteOrder) (Codec, error) {
	if order == nil {
		order = binary.NativeEndian
	}

	switch col.Kind {
	case schema.KindByteInt:
		return &intCodec{col: col, order: order, width: 1}, nil
	case schema.KindSmallInt:
		return &intCodec{col: col, order: order, width: 2}, nil
	case schema.KindInteger:
		return &intCodec{col: col, order: order, width: 4}, nil
	case schema.KindFloat:
		return newFloatCodec(col, order)
	case schema.KindDecimal:
		return newDecimalCodec(col, order)
	case schema.KindChar:
		return newCharCodec(col)
	case schema.KindVarchar:
		return newVarcharCodec(col, order)
	case schema.KindDate:
		return &dateCodec{col: col, order: order}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType, "no codec for data type %s of column %q", col.Kind, col.Name).
			WithDetail("column", col.Name)
	}
}

// ForColumns builds one codec per column, in order.
func ForColumns(cols []schema.Column, order binary.ByteOrder) ([]Codec, error) {
	codecs := make([]Codec, len(cols))
	for i, col := range cols {
		c, err := New(col, order)
		if err != nil {
			return nil, err
		}
		codecs[i] = c
	}
	return codecs, nil
}

func valueError(typ errors.ErrorType, col schema.Column, value string, format string, args ...interface{}) *errors.Error {
	return errors.New(typ, fmt.Sprintf(format, args...)).
		WithDetail("column", col.Name).
		WithDetail("value", value)
}

func unsupported(col schema.Column, format string, args ...interface{}) *errors.Error {
	return errors.New(errors.ErrorTypeUnsupportedType, fmt.Sprintf(format, args...)).
		WithDetail("column", col.Name)
}

// need fails with a row overflow when body has fewer than n bytes at off
func need(col schema.Column, body []byte, off, n int) error {
	if off < 0 || off+n > len(body) {
		return errors.Newf(errors.ErrorTypeRowOverflow, "column %q needs %d bytes at offset %d, frame has %d",
			col.Name, n, off, len(body)).WithDetail("column", col.Name)
	}
	return nil
}

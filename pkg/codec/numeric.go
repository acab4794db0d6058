package codec

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

// intCodec handles BYTEINT, SMALLINT and INTEGER.
type intCodec struct {
	col   schema.Column
	order binary.ByteOrder
	width int
}

func (c *intCodec) Column() schema.Column { return c.col }

// Encode rejects values outside the column's bit width rather than
// truncating them.
func (c *intCodec) Encode(dst []byte, text string) ([]byte, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, c.width*8)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return dst, valueError(errors.ErrorTypeValueOverflow, c.col, text,
				"%q is out of range for %s in column %q", text, c.col.Kind, c.col.Name)
		}
		return dst, valueError(errors.ErrorTypeMalformedValue, c.col, text,
			"unable to convert %q to %s in column %q", text, c.col.Kind, c.col.Name)
	}
	return appendInt(dst, c.order, c.width, v), nil
}

func (c *intCodec) Decode(body []byte, off int) (string, int, error) {
	if err := need(c.col, body, off, c.width); err != nil {
		return "", 0, err
	}
	return strconv.FormatInt(readInt(body[off:], c.order, c.width), 10), c.width, nil
}

func (c *intCodec) Placeholder(dst []byte) []byte {
	return appendInt(dst, c.order, c.width, 0)
}

// floatCodec handles FLOAT, which the warehouse always stores as a double.
type floatCodec struct {
	col   schema.Column
	order binary.ByteOrder
}

func newFloatCodec(col schema.Column, order binary.ByteOrder) (*floatCodec, error) {
	if col.Length != 0 && col.Length != 8 {
		return nil, unsupported(col, "FLOAT column %q declares %d bytes, only 8-byte doubles are supported", col.Name, col.Length)
	}
	return &floatCodec{col: col, order: order}, nil
}

func (c *floatCodec) Column() schema.Column { return c.col }

func (c *floatCodec) Encode(dst []byte, text string) ([]byte, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return dst, valueError(errors.ErrorTypeValueOverflow, c.col, text,
				"%q is out of range for FLOAT in column %q", text, c.col.Name)
		}
		return dst, valueError(errors.ErrorTypeMalformedValue, c.col, text,
			"unable to convert %q to FLOAT in column %q", text, c.col.Name)
	}
	return appendU64(dst, c.order, math.Float64bits(f)), nil
}

// Decode renders the shortest text that parses back to the same double.
func (c *floatCodec) Decode(body []byte, off int) (string, int, error) {
	if err := need(c.col, body, off, 8); err != nil {
		return "", 0, err
	}
	f := math.Float64frombits(c.order.Uint64(body[off:]))
	return strconv.FormatFloat(f, 'g', -1, 64), 8, nil
}

func (c *floatCodec) Placeholder(dst []byte) []byte {
	return appendU64(dst, c.order, 0)
}

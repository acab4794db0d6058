package codec

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

// Character lengths are byte counts: the export runs in a single-byte
// session character set.

// charCodec handles CHAR(n): exactly n bytes, NUL padded.
type charCodec struct {
	col schema.Column
	n   int
}

func newCharCodec(col schema.Column) (*charCodec, error) {
	if col.Length < 0 || col.Length > math.MaxUint16 {
		return nil, unsupported(col, "CHAR(%d) in column %q is out of range", col.Length, col.Name)
	}
	return &charCodec{col: col, n: col.Length}, nil
}

func (c *charCodec) Column() schema.Column { return c.col }

func (c *charCodec) Encode(dst []byte, text string) ([]byte, error) {
	if len(text) > c.n {
		return dst, valueError(errors.ErrorTypeValueOverflow, c.col, text,
			"column %q contains a string longer than %d characters", c.col.Name, c.n)
	}
	dst = append(dst, text...)
	for i := len(text); i < c.n; i++ {
		dst = append(dst, 0)
	}
	return dst, nil
}

func (c *charCodec) Decode(body []byte, off int) (string, int, error) {
	if err := need(c.col, body, off, c.n); err != nil {
		return "", 0, err
	}
	return strings.TrimRight(string(body[off:off+c.n]), "\x00"), c.n, nil
}

func (c *charCodec) Placeholder(dst []byte) []byte {
	for i := 0; i < c.n; i++ {
		dst = append(dst, 0)
	}
	return dst
}

// varcharCodec handles VARCHAR(n): a u16 byte count followed by the bytes.
type varcharCodec struct {
	col   schema.Column
	order binary.ByteOrder
	max   int
}

func newVarcharCodec(col schema.Column, order binary.ByteOrder) (*varcharCodec, error) {
	if col.Length < 0 || col.Length > math.MaxUint16 {
		return nil, unsupported(col, "VARCHAR(%d) in column %q is out of range", col.Length, col.Name)
	}
	return &varcharCodec{col: col, order: order, max: col.Length}, nil
}

func (c *varcharCodec) Column() schema.Column { return c.col }

func (c *varcharCodec) Encode(dst []byte, text string) ([]byte, error) {
	if len(text) > c.max {
		return dst, valueError(errors.ErrorTypeValueOverflow, c.col, text,
			"column %q contains a string longer than %d characters", c.col.Name, c.max)
	}
	dst = appendU16(dst, c.order, uint16(len(text)))
	return append(dst, text...), nil
}

func (c *varcharCodec) Decode(body []byte, off int) (string, int, error) {
	if err := need(c.col, body, off, 2); err != nil {
		return "", 0, err
	}
	n := int(c.order.Uint16(body[off:]))
	if err := need(c.col, body, off+2, n); err != nil {
		return "", 0, err
	}
	return string(body[off+2 : off+2+n]), 2 + n, nil
}

func (c *varcharCodec) Placeholder(dst []byte) []byte {
	return appendU16(dst, c.order, 0)
}

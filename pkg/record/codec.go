package record

import (
	"encoding/binary"

	"github.com/ajitpratap0/fexport/pkg/codec"
	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/indicator"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

const (
	// MaxBody is the largest indicator-plus-fields size a frame may carry.
	MaxBody = 65534

	// Terminator ends every frame.
	Terminator byte = 0x0A

	lengthSize = 2
)

// Options control the binary layout.
type Options struct {
	// Order of every multi-byte integer, the length prefix included.
	// Nil means binary.NativeEndian.
	Order binary.ByteOrder

	// NullPlaceholders makes null fields occupy their column's placeholder
	// bytes instead of nothing.
	NullPlaceholders bool
}

func (o Options) order() binary.ByteOrder {
	if o.Order == nil {
		return binary.NativeEndian
	}
	return o.Order
}

// Codec encodes and decodes whole records for a fixed column list. It is
// immutable after construction and safe for concurrent use.
type Codec struct {
	cols   []schema.Column
	codecs []codec.Codec
	opts   Options
	indLen int
}

// NewCodec builds the per-column codecs for cols.
func NewCodec(cols []schema.Column, opts Options) (*Codec, error) {
	if len(cols) == 0 {
		return nil, errors.New(errors.ErrorTypeSchemaMismatch, "record has no columns")
	}
	opts.Order = opts.order()
	codecs, err := codec.ForColumns(cols, opts.Order)
	if err != nil {
		return nil, err
	}
	return &Codec{
		cols:   append([]schema.Column(nil), cols...),
		codecs: codecs,
		opts:   opts,
		indLen: indicator.Len(len(cols)),
	}, nil
}

// Columns returns a copy of the codec's columns.
func (c *Codec) Columns() []schema.Column {
	return append([]schema.Column(nil), c.cols...)
}

// Order returns the byte order the codec writes.
func (c *Codec) Order() binary.ByteOrder {
	return c.opts.Order
}

// Encode returns the complete frame for rec.
func (c *Codec) Encode(rec Record) ([]byte, error) {
	return c.AppendFrame(nil, rec)
}

// AppendFrame appends the complete frame for rec to dst. On error dst is
// returned with its original length.
func (c *Codec) AppendFrame(dst []byte, rec Record) ([]byte, error) {
	start := len(dst)
	dst = append(dst, 0, 0)

	dst, err := c.appendBody(dst, rec)
	if err != nil {
		return dst[:start], err
	}

	c.opts.Order.PutUint16(dst[start:], uint16(len(dst)-start-lengthSize))
	return append(dst, Terminator), nil
}

func (c *Codec) appendBody(dst []byte, rec Record) ([]byte, error) {
	if len(rec) != len(c.cols) {
		return dst, errors.Newf(errors.ErrorTypeSchemaMismatch,
			"record has %d values, schema has %d columns", len(rec), len(c.cols))
	}

	bodyStart := len(dst)
	for i := 0; i < c.indLen; i++ {
		dst = append(dst, 0)
	}

	var err error
	for i, v := range rec {
		if v.Null {
			dst[bodyStart+i/8] |= 0x80 >> (uint(i) & 7)
			if c.opts.NullPlaceholders {
				dst = c.codecs[i].Placeholder(dst)
			}
		} else {
			dst, err = c.codecs[i].Encode(dst, v.Text)
			if err != nil {
				return dst, err
			}
		}

		if size := len(dst) - bodyStart; size > MaxBody {
			return dst, errors.Newf(errors.ErrorTypeFrameOverflow,
				"record exceeds the maximum frame size of %d bytes at column %q", MaxBody, c.cols[i].Name).
				WithDetail("column", c.cols[i].Name).
				WithDetail("size", size)
		}
	}
	return dst, nil
}

// Decode parses a frame body (indicator and fields, without the length
// prefix or terminator).
func (c *Codec) Decode(body []byte) (Record, error) {
	return c.DecodeInto(make(Record, len(c.cols)), body)
}

// DecodeInto parses body into rec, reusing its storage when it has room
// for every column.
func (c *Codec) DecodeInto(rec Record, body []byte) (Record, error) {
	if cap(rec) < len(c.cols) {
		rec = make(Record, len(c.cols))
	}
	rec = rec[:len(c.cols)]

	if len(body) < c.indLen {
		return nil, errors.Newf(errors.ErrorTypeRowOverflow,
			"frame of %d bytes is shorter than its %d-byte indicator", len(body), c.indLen)
	}

	off := c.indLen
	for i, cd := range c.codecs {
		if indicator.IsNull(body, i) {
			rec[i] = NullValue()
			if c.opts.NullPlaceholders {
				_, n, err := cd.Decode(body, off)
				if err != nil {
					return nil, err
				}
				off += n
			}
			continue
		}

		text, n, err := cd.Decode(body, off)
		if err != nil {
			return nil, err
		}
		rec[i] = TextValue(text)
		off += n
	}

	if off != len(body) {
		return nil, errors.Newf(errors.ErrorTypeRowOverflow,
			"frame has %d bytes left after the last column", len(body)-off)
	}
	return rec, nil
}

package codec

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

// decimalCodec stores DECIMAL(precision, scale) as a signed integer holding
// the value multiplied by 10^scale.
type decimalCodec struct {
	col       schema.Column
	order     binary.ByteOrder
	precision int
	scale     int
	width     int
}

// decimalWidth returns the storage width for a precision:
// 1-2 digits in 1 byte, 3-4 in 2, 5-9 in 4, 10-18 in 8.
func decimalWidth(precision int) int {
	switch {
	case precision <= 2:
		return 1
	case precision <= 4:
		return 2
	case precision <= 9:
		return 4
	default:
		return 8
	}
}

func newDecimalCodec(col schema.Column, order binary.ByteOrder) (*decimalCodec, error) {
	p, s := col.Length, col.Scale
	if p < 1 || p > schema.MaxDecimalPrecision {
		return nil, unsupported(col, "DECIMAL(%d,%d) in column %q: precision must be 1..%d", p, s, col.Name, schema.MaxDecimalPrecision)
	}
	if s < 0 || s > p {
		return nil, unsupported(col, "DECIMAL(%d,%d) in column %q: scale must be 0..precision", p, s, col.Name)
	}
	return &decimalCodec{col: col, order: order, precision: p, scale: s, width: decimalWidth(p)}, nil
}

func (c *decimalCodec) Column() schema.Column { return c.col }

func (c *decimalCodec) Encode(dst []byte, text string) ([]byte, error) {
	parts := strings.Split(text, ".")
	if len(parts) > 2 || !strings.ContainsAny(text, "0123456789") {
		return dst, c.malformed(text)
	}

	intPart := strings.TrimSpace(parts[0])
	fracPart := ""
	if len(parts) == 2 {
		fracPart = strings.TrimSpace(parts[1])
	}

	// leading zeros are not significant: "0.25" fits DECIMAL(2,2)
	intDigits := len(strings.TrimLeft(strings.NewReplacer("-", "", "+", "").Replace(intPart), "0"))
	decPadding := c.scale - len(fracPart)
	intPadding := c.precision - c.scale - intDigits
	if decPadding < 0 || intPadding < 0 {
		return dst, valueError(errors.ErrorTypeValueOverflow, c.col, text,
			"overflow converting %q to DECIMAL(%d,%d) in column %q", text, c.precision, c.scale, c.col.Name)
	}

	v, err := strconv.ParseInt(intPart+fracPart+strings.Repeat("0", decPadding), 10, 64)
	if err != nil {
		return dst, c.malformed(text)
	}
	return appendInt(dst, c.order, c.width, v), nil
}

func (c *decimalCodec) malformed(text string) error {
	return valueError(errors.ErrorTypeMalformedValue, c.col, text,
		"unable to convert %q to DECIMAL(%d,%d) in column %q", text, c.precision, c.scale, c.col.Name)
}

// Decode splits the digits scale places from the right. An empty integer
// part is rendered as "0".
func (c *decimalCodec) Decode(body []byte, off int) (string, int, error) {
	if err := need(c.col, body, off, c.width); err != nil {
		return "", 0, err
	}
	v := readInt(body[off:], c.order, c.width)
	if c.scale == 0 {
		return strconv.FormatInt(v, 10), c.width, nil
	}

	sign := ""
	mag := uint64(v)
	if v < 0 {
		sign = "-"
		mag = uint64(-v)
	}

	digits := strconv.FormatUint(mag, 10)
	if len(digits) <= c.scale {
		digits = strings.Repeat("0", c.scale-len(digits)+1) + digits
	}
	split := len(digits) - c.scale
	return sign + digits[:split] + "." + digits[split:], c.width, nil
}

func (c *decimalCodec) Placeholder(dst []byte) []byte {
	return appendInt(dst, c.order, c.width, 0)
}

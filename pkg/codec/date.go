package codec

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"

	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

// twoDigitYearBase is added to two-digit years ("99-01-01" is 2099-01-01)
const twoDigitYearBase = 2000

var datePattern = regexp.MustCompile(`^\s*([0-9]{2,4})[-/]([0-9]{1,2})[-/]([0-9]{1,2})\s*$`)

// dateCodec stores DATE as the integer (year-1900)*10000 + month*100 + day.
type dateCodec struct {
	col   schema.Column
	order binary.ByteOrder
}

func (c *dateCodec) Column() schema.Column { return c.col }

func (c *dateCodec) Encode(dst []byte, text string) ([]byte, error) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return dst, valueError(errors.ErrorTypeMalformedValue, c.col, text,
			"dates from column %q are not in YYYY-MM-DD format (or other recognizable form): %q", c.col.Name, text)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if len(m[1]) == 2 {
		year += twoDigitYearBase
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return dst, valueError(errors.ErrorTypeMalformedValue, c.col, text,
			"dates from column %q must be in YYYY-MM-DD format, not %q", c.col.Name, text)
	}

	v := int32((year-1900)*10000 + month*100 + day)
	return appendU32(dst, c.order, uint32(v)), nil
}

func (c *dateCodec) Decode(body []byte, off int) (string, int, error) {
	if err := need(c.col, body, off, 4); err != nil {
		return "", 0, err
	}
	v := int(int32(c.order.Uint32(body[off:])))

	// dates before 1900 are negative; floor division keeps the
	// month and day components positive
	year := floorDiv(v, 10000) + 1900
	month := floorDiv(v, 100) - floorDiv(v, 10000)*100
	day := v - floorDiv(v, 100)*100

	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), 4, nil
}

func (c *dateCodec) Placeholder(dst []byte) []byte {
	return appendU32(dst, c.order, 0)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

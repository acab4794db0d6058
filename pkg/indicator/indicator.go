// Package indicator packs and unpacks the null indicator bitmap that prefixes
// every binary record. Column i maps to byte i/8, bit 7-(i%8): the most
// significant bit of the first byte is the first column.
package indicator

import (
	"github.com/ajitpratap0/fexport/pkg/errors"
)

// Len returns the number of indicator bytes for n columns.
func Len(n int) int {
	return (n + 7) / 8
}

// Pack returns the bitmap for nulls. A set bit marks a null column; unused
// bits of the final byte are zero.
func Pack(nulls []bool) []byte {
	return AppendPack(make([]byte, 0, Len(len(nulls))), nulls)
}

// AppendPack appends the bitmap for nulls to dst.
func AppendPack(dst []byte, nulls []bool) []byte {
	start := len(dst)
	for i := 0; i < Len(len(nulls)); i++ {
		dst = append(dst, 0)
	}
	for i, null := range nulls {
		if null {
			dst[start+i/8] |= 0x80 >> (uint(i) & 7)
		}
	}
	return dst
}

// Unpack reads n null flags from the front of b.
func Unpack(b []byte, n int) ([]bool, error) {
	nulls := make([]bool, n)
	if err := UnpackInto(nulls, b); err != nil {
		return nil, err
	}
	return nulls, nil
}

// UnpackInto fills nulls from the front of b, one flag per element.
func UnpackInto(nulls []bool, b []byte) error {
	if need := Len(len(nulls)); len(b) < need {
		return errors.Newf(errors.ErrorTypeRowOverflow, "indicator needs %d bytes, frame has %d", need, len(b))
	}
	for i := range nulls {
		nulls[i] = b[i/8]&(0x80>>(uint(i)&7)) != 0
	}
	return nil
}

// IsNull reports the flag of column i without unpacking the whole bitmap.
func IsNull(b []byte, i int) bool {
	return b[i/8]&(0x80>>(uint(i)&7)) != 0
}

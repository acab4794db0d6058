package codec

import (
	"encoding/binary"
	"strings"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// ParseByteOrder resolves the configured byte order of the binary format.
// The export utilities write records in the host's native order, so "native"
// (or empty) is the default; "little" and "big" pin the order for files moved
// between hosts.
func ParseByteOrder(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "native":
		return binary.NativeEndian, nil
	case "little", "le", "little-endian":
		return binary.LittleEndian, nil
	case "big", "be", "big-endian":
		return binary.BigEndian, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown byte order %q", name)
	}
}

// --- write ---
func appendU16(dst []byte, order binary.ByteOrder, v uint16) []byte {
	var b [2]byte
	order.PutUint16(b[:], v)
	return append(dst, b[:]...)
}

func appendU32(dst []byte, order binary.ByteOrder, v uint32) []byte {
	var b [4]byte
	order.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendU64(dst []byte, order binary.ByteOrder, v uint64) []byte {
	var b [8]byte
	order.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// appendInt writes v as a signed integer of width 1, 2, 4 or 8 bytes
func appendInt(dst []byte, order binary.ByteOrder, width int, v int64) []byte {
	switch width {
	case 1:
		return append(dst, byte(int8(v)))
	case 2:
		return appendU16(dst, order, uint16(int16(v)))
	case 4:
		return appendU32(dst, order, uint32(int32(v)))
	default:
		return appendU64(dst, order, uint64(v))
	}
}

// --- read ---
func readInt(b []byte, order binary.ByteOrder, width int) int64 {
	switch width {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(order.Uint16(b)))
	case 4:
		return int64(int32(order.Uint32(b)))
	default:
		return int64(order.Uint64(b))
	}
}

// Package schema describes the columns of a warehouse result set: their
// kind, declared length, precision and nullability. Column lists come from an
// external schema source (a PrepInfo parcel or a schema file) and are never
// mutated once loaded.
package schema

import (
	"strings"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// Kind is the closed set of column data types the record codec understands.
type Kind uint8

const (
	// KindInvalid is the zero Kind; no column may carry it
	KindInvalid Kind = iota
	// KindDecimal is a fixed-point number stored as a scaled signed integer
	KindDecimal
	// KindFloat is an 8-byte IEEE double
	KindFloat
	// KindInteger is a 4-byte signed integer
	KindInteger
	// KindSmallInt is a 2-byte signed integer
	KindSmallInt
	// KindByteInt is a 1-byte signed integer
	KindByteInt
	// KindChar is a fixed-length character field
	KindChar
	// KindVarchar is a length-prefixed character field
	KindVarchar
	// KindDate is a calendar date packed into a 4-byte integer
	KindDate
)

var kindNames = map[Kind]string{
	KindDecimal:  "DECIMAL",
	KindFloat:    "FLOAT",
	KindInteger:  "INTEGER",
	KindSmallInt: "SMALLINT",
	KindByteInt:  "BYTEINT",
	KindChar:     "CHAR",
	KindVarchar:  "VARCHAR",
	KindDate:     "DATE",
}

// Kinds lists every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindDecimal, KindFloat, KindInteger, KindSmallInt, KindByteInt, KindChar, KindVarchar, KindDate}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "INVALID"
}

// IsCharacter reports whether k is CHAR or VARCHAR. Empty text in a
// character column is a value, not a null.
func (k Kind) IsCharacter() bool {
	return k == KindChar || k == KindVarchar
}

// ParseKind resolves a type name such as "decimal" or "VARCHAR".
func ParseKind(name string) (Kind, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == upper {
			return k, nil
		}
	}
	return KindInvalid, errors.Newf(errors.ErrorTypeUnsupportedType, "unsupported data type %q", name).
		WithDetail("type", name)
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType, "invalid kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

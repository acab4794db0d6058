package schema

import (
	"github.com/ajitpratap0/fexport/pkg/errors"
)

// TypeCode is a warehouse data type code as reported in PrepInfo parcels.
// Even codes are NOT NULL, odd codes (code+1) are nullable.
type TypeCode uint16

type typeCodeInfo struct {
	name string
	kind Kind // KindInvalid for families the codec does not support
}

// base (NOT NULL) codes; the nullable variant is base+1
var typeCodes = map[TypeCode]typeCodeInfo{
	448: {"VARCHAR", KindVarchar},
	452: {"CHAR", KindChar},
	456: {"LONGVARCHAR", KindInvalid},
	464: {"VARGRAPHIC", KindInvalid},
	468: {"FixedGRAPHIC", KindInvalid},
	472: {"LONGVARGRAPHIC", KindInvalid},
	480: {"FLOAT", KindFloat},
	484: {"DECIMAL", KindDecimal},
	496: {"INTEGER", KindInteger},
	500: {"SMALLINT", KindSmallInt},
	688: {"VARBYTE", KindInvalid},
	692: {"BYTE", KindInvalid},
	696: {"LONGVARBYTE", KindInvalid},
	752: {"DATE", KindDate},
	756: {"BYTEINT", KindByteInt},
}

// Nullable reports whether the code denotes a nullable column.
func (c TypeCode) Nullable() bool {
	return c%2 == 1
}

// Name returns the warehouse type name for the code, or "" when unknown.
func (c TypeCode) Name() string {
	return typeCodes[c&^1].name
}

// KindForTypeCode maps a type code onto a supported Kind.
func KindForTypeCode(code TypeCode) (Kind, bool, error) {
	info, ok := typeCodes[code&^1]
	if !ok {
		return KindInvalid, false, errors.Newf(errors.ErrorTypeUnsupportedType, "unknown data type code %d", code).
			WithDetail("type_code", uint16(code))
	}
	if info.kind == KindInvalid {
		return KindInvalid, false, errors.Newf(errors.ErrorTypeUnsupportedType, "unsupported data type %s", info.name).
			WithDetail("type_code", uint16(code))
	}
	return info.kind, code.Nullable(), nil
}

// TypeCodeFor returns the code a column of kind k would be reported with.
func TypeCodeFor(k Kind, nullable bool) (TypeCode, error) {
	for code, info := range typeCodes {
		if info.kind == k && k != KindInvalid {
			if nullable {
				return code + 1, nil
			}
			return code, nil
		}
	}
	return 0, errors.Newf(errors.ErrorTypeUnsupportedType, "no type code for kind %s", k)
}

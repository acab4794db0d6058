package schema

import (
	"encoding/binary"
	"math"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// prepInfoHeaderLen is cost estimate (float64) + summary count + column count
const prepInfoHeaderLen = 12

// PrepInfo is the decoded body of a PrepInfo parcel: the cost estimate the
// warehouse reported for a query plus its ordered column descriptors.
type PrepInfo struct {
	CostEstimate float64
	SummaryCount uint16
	Columns      []Column
	// TypeCodes holds the raw code of each column, parallel to Columns
	TypeCodes []TypeCode
}

// ParsePrepInfo decodes a PrepInfo parcel. The parcel is laid out in the
// byte order of the host that produced it.
//
// Per column: type u16, length u16, then name, format and title each as a
// u16 length followed by that many bytes. For decimals the length field holds
// the scale in its first byte and the precision in its second.
func ParsePrepInfo(parcel []byte, order binary.ByteOrder) (*PrepInfo, error) {
	if len(parcel) < prepInfoHeaderLen {
		return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "prepinfo parcel too short: %d bytes", len(parcel))
	}

	info := &PrepInfo{
		CostEstimate: math.Float64frombits(order.Uint64(parcel[0:8])),
		SummaryCount: order.Uint16(parcel[8:10]),
	}
	count := int(order.Uint16(parcel[10:12]))
	if count == 0 {
		return nil, errors.New(errors.ErrorTypeSchemaMismatch, "prepinfo parcel describes no columns")
	}

	off := prepInfoHeaderLen
	for i := 0; i < count; i++ {
		col, code, n, err := parsePrepInfoColumn(parcel[off:], order)
		if err != nil {
			return nil, errors.Wrap(err, errors.TypeOf(err), "prepinfo column").WithDetail("index", i)
		}
		info.Columns = append(info.Columns, col)
		info.TypeCodes = append(info.TypeCodes, code)
		off += n
	}
	return info, nil
}

func parsePrepInfoColumn(data []byte, order binary.ByteOrder) (Column, TypeCode, int, error) {
	if len(data) < 4 {
		return Column{}, 0, 0, errors.New(errors.ErrorTypeSchemaMismatch, "truncated column descriptor")
	}

	code := TypeCode(order.Uint16(data[0:2]))
	kind, nullable, err := KindForTypeCode(code)
	if err != nil {
		return Column{}, code, 0, err
	}

	col := Column{Kind: kind, Nullable: nullable}
	if kind == KindDecimal {
		col.Scale = int(data[2])
		col.Length = int(data[3])
	} else {
		col.Length = int(order.Uint16(data[2:4]))
	}

	off := 4
	var fields [3]string
	for i := range fields {
		if len(data) < off+2 {
			return Column{}, code, 0, errors.New(errors.ErrorTypeSchemaMismatch, "truncated column descriptor")
		}
		n := int(order.Uint16(data[off : off+2]))
		off += 2
		if len(data) < off+n {
			return Column{}, code, 0, errors.New(errors.ErrorTypeSchemaMismatch, "truncated column descriptor")
		}
		fields[i] = string(data[off : off+n])
		off += n
	}
	col.Name, col.Format, col.Title = fields[0], fields[1], fields[2]

	return col, code, off, nil
}

// MarshalPrepInfo builds a PrepInfo parcel describing cols. It is the inverse
// of ParsePrepInfo and is used to hand a schema to tools that expect parcels.
func MarshalPrepInfo(info *PrepInfo, order binary.ByteOrder) ([]byte, error) {
	if len(info.Columns) == 0 || len(info.Columns) > math.MaxUint16 {
		return nil, errors.Newf(errors.ErrorTypeSchemaMismatch, "cannot describe %d columns", len(info.Columns))
	}

	out := make([]byte, prepInfoHeaderLen)
	order.PutUint64(out[0:8], math.Float64bits(info.CostEstimate))
	order.PutUint16(out[8:10], info.SummaryCount)
	order.PutUint16(out[10:12], uint16(len(info.Columns)))

	var u16 [2]byte
	for _, c := range info.Columns {
		code, err := TypeCodeFor(c.Kind, c.Nullable)
		if err != nil {
			return nil, err
		}
		order.PutUint16(u16[:], uint16(code))
		out = append(out, u16[:]...)

		if c.Kind == KindDecimal {
			out = append(out, byte(c.Scale), byte(c.Length))
		} else {
			order.PutUint16(u16[:], uint16(c.Length))
			out = append(out, u16[:]...)
		}

		for _, s := range []string{c.Name, c.Format, c.Title} {
			if len(s) > math.MaxUint16 {
				return nil, errors.Newf(errors.ErrorTypeValueOverflow, "descriptor text too long for column %q", c.Name)
			}
			order.PutUint16(u16[:], uint16(len(s)))
			out = append(out, u16[:]...)
			out = append(out, s...)
		}
	}
	return out, nil
}

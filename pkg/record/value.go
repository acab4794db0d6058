// Package record assembles and parses the framed binary records of the
// export format:
//
//	[length u16][indicator bitmap][field bytes][0x0A]
//
// The length prefix counts the indicator and field bytes only. Null columns
// are flagged in the bitmap and, in the default compact layout, occupy no
// field bytes.
package record

// Value is one column value of a record: a textual payload or an explicit
// null. A non-null Value with empty Text is an empty string, not a null.
type Value struct {
	Text string
	Null bool
}

// TextValue returns a non-null value holding s.
func TextValue(s string) Value {
	return Value{Text: s}
}

// NullValue returns the null marker.
func NullValue() Value {
	return Value{Null: true}
}

// String renders the value the way delimited text carries it: nulls
// become empty fields.
func (v Value) String() string {
	if v.Null {
		return ""
	}
	return v.Text
}

// Record is the ordered list of values of one row, one per column.
type Record []Value

// Texts builds a record of non-null values.
func Texts(texts ...string) Record {
	rec := make(Record, len(texts))
	for i, s := range texts {
		rec[i] = TextValue(s)
	}
	return rec
}

package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesStackAndCause(t *testing.T) {
	inner := New(ErrorTypeMalformedValue, "bad date").WithDetail("column", "D")
	outer := Wrap(inner, ErrorTypeMalformedValue, "row 3")

	require.NotNil(t, outer)
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, stderrors.Is(outer, inner))
	assert.Equal(t, "malformed_value: row 3: malformed_value: bad date", outer.Error())

	col, ok := outer.Detail("column")
	require.True(t, ok)
	assert.Equal(t, "D", col)
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeFile, "nothing"))
}

func TestIsTypeWalksChain(t *testing.T) {
	err := Wrap(New(ErrorTypeRowOverflow, "past end"), ErrorTypeFile, "reading input")

	assert.True(t, IsType(err, ErrorTypeFile))
	assert.True(t, IsType(err, ErrorTypeRowOverflow))
	assert.False(t, IsType(err, ErrorTypeSchemaMismatch))
	assert.False(t, IsType(io.EOF, ErrorTypeFile))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"nil", nil, false},
		{"plain error", io.ErrUnexpectedEOF, true},
		{"value overflow", New(ErrorTypeValueOverflow, "x"), false},
		{"malformed", New(ErrorTypeMalformedValue, "x"), false},
		{"null", New(ErrorTypeNullOnNonNullable, "x"), false},
		{"frame overflow", New(ErrorTypeFrameOverflow, "x"), false},
		{"row overflow", New(ErrorTypeRowOverflow, "x"), true},
		{"schema mismatch", New(ErrorTypeSchemaMismatch, "x"), true},
		{"unsupported", New(ErrorTypeUnsupportedType, "x"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestNewfFormats(t *testing.T) {
	err := Newf(ErrorTypeSchemaMismatch, "row %d has %d fields", 7, 3)
	assert.Equal(t, "schema_mismatch: row 7 has 3 fields", err.Error())
	assert.NotEmpty(t, err.Stack)
}

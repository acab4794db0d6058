package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestNewDefaults(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New(Config{Level: "debug", Encoding: "console", Development: true})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithRun(context.Background(), "run-1", "export", "in.bin")

	FromContext(zap.New(core), ctx).Info("started")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "export", fields["direction"])
	assert.Equal(t, "in.bin", fields["input"])
}

func TestErrorFields(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	err := errors.New(errors.ErrorTypeValueOverflow, "too long").
		WithDetail("column", "NAME").
		WithDetail("row", 7)

	zap.New(core).Warn("row skipped", ErrorFields(errors.Wrap(err, errors.ErrorTypeValueOverflow, "row 7"))...)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "value_overflow", fields["error_type"])
	assert.Equal(t, "NAME", fields["column"])
	assert.EqualValues(t, 7, fields["row"])
	assert.NotContains(t, fields, "value")
}

func TestInitReplacesGlobal(t *testing.T) {
	require.NoError(t, Init(Config{Level: "error", OutputPaths: []string{"stderr"}}))
	assert.False(t, Get().Core().Enabled(zapcore.WarnLevel))
	assert.NotNil(t, WithContext(context.Background()))
	assert.NotNil(t, With(zap.String("k", "v")))
	_ = Sync()
}

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

func TestRowCounters(t *testing.T) {
	c := NewCollector()

	c.RowConverted("import", 12)
	c.RowConverted("import", 40)
	c.RowSkipped("import", errors.New(errors.ErrorTypeValueOverflow, "too long"))
	c.RecordError(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.rows.WithLabelValues("import", StatusConverted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rows.WithLabelValues("import", StatusSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errorsTotal.WithLabelValues("value_overflow")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.errorsTotal))
	assert.Equal(t, 1, testutil.CollectAndCount(c.frameBytes))
}

func TestBytesAndDuration(t *testing.T) {
	c := NewCollector()
	c.AddBytes("export", StreamInput, 1024)
	c.AddBytes("export", StreamInput, 0)
	c.AddBytes("export", StreamOutput, 300)
	c.ObserveDuration("export", 250*time.Millisecond)

	expected := `
# HELP fexport_bytes_total Bytes read from inputs and written to outputs
# TYPE fexport_bytes_total counter
fexport_bytes_total{direction="export",stream="input"} 1024
fexport_bytes_total{direction="export",stream="output"} 300
`
	require.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "fexport_bytes_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestCollectorsAreIndependent(t *testing.T) {
	a, b := NewCollector(), NewCollector()
	a.RowConverted("export", 10)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.rows.WithLabelValues("export", StatusConverted)))
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.RowConverted("export", 64)

	path := filepath.Join(t.TempDir(), "fexport.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fexport_rows_total{direction="export",status="converted"} 1`)
	assert.Contains(t, string(data), "fexport_frame_bytes_bucket")

	err = c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}

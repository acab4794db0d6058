package convert

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/record"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

func customerColumns() []schema.Column {
	return []schema.Column{
		{Name: "ID", Kind: schema.KindInteger},
		{Name: "NAME", Title: "Customer Name", Kind: schema.KindVarchar, Length: 20, Nullable: true},
		{Name: "BAL", Kind: schema.KindDecimal, Length: 8, Scale: 2, Nullable: true},
		{Name: "JOINED", Title: "Joined", Kind: schema.KindDate, Nullable: true},
	}
}

func customerRecords() []record.Record {
	return []record.Record{
		record.Texts("1", "Smith, J", "100.50", "2020-01-15"),
		{record.TextValue("2"), record.NullValue(), record.NullValue(), record.NullValue()},
		record.Texts("3", "", "-0.25", "1999-12-31"),
	}
}

const customerCSV = `ID,NAME,BAL,JOINED
1,"Smith, J",100.50,2020-01-15
2,,,
3,,-0.25,1999-12-31
`

func encodeFrames(t *testing.T, cols []schema.Column, recs []record.Record, opts record.Options) []byte {
	t.Helper()
	rc, err := record.NewCodec(cols, opts)
	require.NoError(t, err)

	var out []byte
	for _, rec := range recs {
		out, err = rc.AppendFrame(out, rec)
		require.NoError(t, err)
	}
	return out
}

func decodeFrames(t *testing.T, cols []schema.Column, data []byte, opts record.Options) []record.Record {
	t.Helper()
	rc, err := record.NewCodec(cols, opts)
	require.NoError(t, err)

	fr := record.NewFrameReader(bytes.NewReader(data), opts.Order)
	var recs []record.Record
	for {
		body, err := fr.ReadFrame()
		if err == io.EOF {
			return recs
		}
		require.NoError(t, err)
		rec, err := rc.Decode(body)
		require.NoError(t, err)
		recs = append(recs, rec)
	}
}

type countingObserver struct {
	mu        sync.Mutex
	converted map[string]int
	skipped   map[string]int
	bytes     int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{converted: map[string]int{}, skipped: map[string]int{}}
}

func (o *countingObserver) RowConverted(direction string, frameSize int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.converted[direction]++
	o.bytes += frameSize
}

func (o *countingObserver) RowSkipped(direction string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped[direction]++
}

func TestExport(t *testing.T) {
	cols := customerColumns()
	data := encodeFrames(t, cols, customerRecords(), record.Options{Order: binary.LittleEndian})

	obs := newCountingObserver()
	var out bytes.Buffer
	res, err := Export(context.Background(), cols, bytes.NewReader(data), &out,
		Options{Order: binary.LittleEndian, Observer: obs})
	require.NoError(t, err)

	assert.Equal(t, customerCSV, out.String())
	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, int64(len(data)), res.Bytes)
	assert.Equal(t, cols, res.Columns)
	assert.Equal(t, 3, obs.converted[DirectionExport])
	assert.Equal(t, len(data)-3*3, obs.bytes)
}

func TestExportUsesTitles(t *testing.T) {
	cols := customerColumns()
	data := encodeFrames(t, cols, customerRecords()[:1], record.Options{})

	var out bytes.Buffer
	_, err := Export(context.Background(), cols, bytes.NewReader(data), &out, Options{UseColumnTitles: true})
	require.NoError(t, err)

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "ID,Customer Name,BAL,Joined", lines[0])
}

func TestExportEmptyInput(t *testing.T) {
	var out bytes.Buffer
	res, err := Export(context.Background(), customerColumns(), bytes.NewReader(nil), &out, Options{})
	require.NoError(t, err)
	assert.Equal(t, "ID,NAME,BAL,JOINED\n", out.String())
	assert.Zero(t, res.Rows)
}

func TestExportTruncatedInput(t *testing.T) {
	cols := customerColumns()
	data := encodeFrames(t, cols, customerRecords(), record.Options{})

	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			_, err := Export(context.Background(), cols, bytes.NewReader(data[:len(data)-4]), io.Discard,
				Options{Workers: workers, BatchSize: 2})
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeRowOverflow))

			var e *errors.Error
			require.True(t, errors.As(err, &e))
			row, ok := e.Detail("row")
			require.True(t, ok)
			assert.Equal(t, int64(3), row)
		})
	}
}

func TestExportParallelMatchesSequential(t *testing.T) {
	cols := customerColumns()
	var recs []record.Record
	for i := 0; i < 2500; i++ {
		rec := record.Texts(fmt.Sprint(i), fmt.Sprintf("name %d", i), fmt.Sprintf("%d.%02d", i, i%100), "2001-02-03")
		if i%7 == 0 {
			rec[2] = record.NullValue()
		}
		recs = append(recs, rec)
	}
	data := encodeFrames(t, cols, recs, record.Options{Order: binary.BigEndian})

	var seq, par bytes.Buffer
	_, err := Export(context.Background(), cols, bytes.NewReader(data), &seq, Options{Order: binary.BigEndian})
	require.NoError(t, err)

	res, err := Export(context.Background(), cols, bytes.NewReader(data), &par,
		Options{Order: binary.BigEndian, Workers: 4, BatchSize: 300})
	require.NoError(t, err)

	assert.Equal(t, int64(2500), res.Rows)
	assert.Equal(t, seq.String(), par.String())
}

func TestExportCancelled(t *testing.T) {
	cols := customerColumns()
	data := encodeFrames(t, cols, customerRecords(), record.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Export(ctx, cols, bytes.NewReader(data), io.Discard, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImport(t *testing.T) {
	cols := customerColumns()
	opts := record.Options{Order: binary.LittleEndian}

	var out bytes.Buffer
	res, err := Import(context.Background(), cols, strings.NewReader(customerCSV), &out,
		Options{Order: binary.LittleEndian})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Rows)
	assert.Equal(t, int64(out.Len()), res.Bytes)
	assert.Equal(t, cols, res.Columns)

	got := decodeFrames(t, cols, out.Bytes(), opts)
	want := customerRecords()
	// an empty field reads back as an empty string for character columns
	want[1][1] = record.TextValue("")
	assert.Equal(t, want, got)
}

func TestEmptyFieldAsymmetry(t *testing.T) {
	cols := []schema.Column{
		{Name: "C", Kind: schema.KindChar, Length: 3, Nullable: true},
		{Name: "V", Kind: schema.KindVarchar, Length: 3},
		{Name: "N", Kind: schema.KindSmallInt, Nullable: true},
		{Name: "D", Kind: schema.KindDate, Nullable: true},
	}

	var out bytes.Buffer
	_, err := Import(context.Background(), cols, strings.NewReader("C,V,N,D\n,,,\n"), &out, Options{})
	require.NoError(t, err)

	got := decodeFrames(t, cols, out.Bytes(), record.Options{})
	require.Len(t, got, 1)
	assert.Equal(t, record.Record{record.TextValue(""), record.TextValue(""), record.NullValue(), record.NullValue()}, got[0])

	// indicator marks only the two non-character columns
	assert.Equal(t, byte(0x30), out.Bytes()[2])
}

func TestImportNullOnNonNullable(t *testing.T) {
	cols := customerColumns()
	input := "ID,NAME\n1,a\n,b\n3,c\n"

	_, err := Import(context.Background(), cols, strings.NewReader(input), io.Discard, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNullOnNonNullable))

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	row, _ := e.Detail("row")
	col, _ := e.Detail("column")
	assert.Equal(t, int64(2), row)
	assert.Equal(t, "ID", col)
}

func TestImportRowErrorBudget(t *testing.T) {
	cols := customerColumns()
	input := "ID,NAME,BAL\n1,a,1.00\n2,this name is far too long,2.00\n3,c,123456.789\n4,d,4\n"

	core, logs := observer.New(zapcore.WarnLevel)
	obs := newCountingObserver()
	var out bytes.Buffer
	res, err := Import(context.Background(), cols, strings.NewReader(input), &out,
		Options{MaxRowErrors: 2, Logger: zap.New(core), Observer: obs})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Rows)
	assert.Equal(t, int64(2), res.Skipped)
	assert.Equal(t, 2, obs.skipped[DirectionImport])
	assert.Equal(t, 2, obs.converted[DirectionImport])

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "value_overflow", logs.All()[0].ContextMap()["error_type"])
	assert.EqualValues(t, 2, logs.All()[0].ContextMap()["row"])

	got := decodeFrames(t, res.Columns, out.Bytes(), record.Options{})
	require.Len(t, got, 2)
	assert.Equal(t, "4.00", got[1][2].Text)

	_, err = Import(context.Background(), cols, strings.NewReader(input), io.Discard, Options{MaxRowErrors: 1})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValueOverflow))
}

func TestImportProjection(t *testing.T) {
	cols := customerColumns()
	input := "Joined,ID\n2021-06-01,7\n"

	var out bytes.Buffer
	res, err := Import(context.Background(), cols, strings.NewReader(input), &out, Options{UseColumnTitles: true})
	require.NoError(t, err)

	require.Len(t, res.Columns, 2)
	assert.Equal(t, "JOINED", res.Columns[0].Name)
	assert.Equal(t, "ID", res.Columns[1].Name)

	got := decodeFrames(t, res.Columns, out.Bytes(), record.Options{})
	assert.Equal(t, []record.Record{record.Texts("2021-06-01", "7")}, got)
}

func TestImportSchemaMismatch(t *testing.T) {
	cols := customerColumns()

	tests := []struct {
		name  string
		input string
		opts  Options
	}{
		{"unknown header", "ID,EMAIL\n1,x\n", Options{}},
		{"title header without titles", "ID,Customer Name\n1,x\n", Options{}},
		{"duplicate header", "ID,ID\n1,1\n", Options{}},
		{"short row", "ID,NAME\n1\n", Options{}},
		{"long row", "ID,NAME\n1,a,b\n", Options{MaxRowErrors: 10}},
		{"no header", "", Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(context.Background(), cols, strings.NewReader(tt.input), io.Discard, tt.opts)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeSchemaMismatch), err.Error())
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestImportMalformedText(t *testing.T) {
	_, err := Import(context.Background(), customerColumns(), strings.NewReader("ID,NAME\n1,\"unterminated\n"), io.Discard, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestRoundTripThroughText(t *testing.T) {
	cols := []schema.Column{
		{Name: "B", Kind: schema.KindByteInt, Nullable: true},
		{Name: "F", Kind: schema.KindFloat, Nullable: true},
		{Name: "C", Kind: schema.KindChar, Length: 5},
		{Name: "V", Kind: schema.KindVarchar, Length: 50, Nullable: true},
		{Name: "T", Kind: schema.KindDate},
	}
	recs := []record.Record{
		record.Texts("-128", "1.5", "abcde", "line\nbreak \"quoted\"", "0001-01-01"),
		{record.NullValue(), record.NullValue(), record.TextValue(" x"), record.TextValue("  "), record.TextValue("9999-12-31")},
		record.Texts("127", "-Inf", "", "", "2024-02-29"),
	}
	opts := record.Options{Order: binary.BigEndian, NullPlaceholders: true}
	data := encodeFrames(t, cols, recs, opts)

	var text bytes.Buffer
	_, err := Export(context.Background(), cols, bytes.NewReader(data), &text,
		Options{Order: binary.BigEndian, NullPlaceholders: true})
	require.NoError(t, err)

	var back bytes.Buffer
	_, err = Import(context.Background(), cols, bytes.NewReader(text.Bytes()), &back,
		Options{Order: binary.BigEndian, NullPlaceholders: true})
	require.NoError(t, err)

	assert.Equal(t, data, back.Bytes())
}

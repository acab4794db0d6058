package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		uri  string
		want Location
	}{
		{"-", Location{Scheme: SchemeStdio}},
		{"out/rows.bin", Location{Scheme: SchemeFile, Path: filepath.Clean("out/rows.bin")}},
		{"file:///tmp/rows.bin", Location{Scheme: SchemeFile, Path: filepath.Clean("/tmp/rows.bin")}},
		{"s3://exports/daily/rows.bin.zst", Location{Scheme: SchemeS3, Bucket: "exports", Path: "daily/rows.bin.zst"}},
		{"gs://exports/rows.csv", Location{Scheme: SchemeGCS, Bucket: "exports", Path: "rows.csv"}},
	}
	for _, tt := range tests {
		got, err := ParseLocation(tt.uri)
		require.NoError(t, err, tt.uri)
		assert.Equal(t, tt.want, got, tt.uri)
	}

	for _, bad := range []string{"", "s3://bucket-only", "s3:///key", "ftp://host/file"} {
		_, err := ParseLocation(bad)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), bad)
	}

	loc, err := ParseLocation("s3://b/k/x.bin")
	require.NoError(t, err)
	assert.Equal(t, "s3://b/k/x.bin", loc.String())
}

func TestLocalAtomicCommit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "rows.csv")
	store := New(Config{Atomic: true})

	w, err := store.Create(context.Background(), target)
	require.NoError(t, err)
	_, err = io.WriteString(w, "ID\n1\n")
	require.NoError(t, err)

	_, err = os.Stat(target)
	assert.True(t, os.IsNotExist(err), "target must not exist before commit")

	require.NoError(t, w.Commit())
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "ID\n1\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")

	assert.NoError(t, w.Abort())
	assert.Error(t, w.Commit())
	_, err = w.Write([]byte("x"))
	assert.Error(t, err)
}

func TestLocalAbort(t *testing.T) {
	for _, atomic := range []bool{true, false} {
		dir := t.TempDir()
		target := filepath.Join(dir, "rows.bin")
		require.NoError(t, os.WriteFile(target, []byte("previous"), 0o644))

		w, err := New(Config{Atomic: atomic}).Create(context.Background(), target)
		require.NoError(t, err)
		_, err = w.Write([]byte("partial"))
		require.NoError(t, err)
		require.NoError(t, w.Abort())

		if atomic {
			data, err := os.ReadFile(target)
			require.NoError(t, err)
			assert.Equal(t, "previous", string(data), "atomic abort keeps the old file")
			entries, _ := os.ReadDir(dir)
			assert.Len(t, entries, 1)
		} else {
			_, err = os.Stat(target)
			assert.True(t, os.IsNotExist(err), "direct abort removes the partial file")
		}
	}
}

func TestLocalOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

	store := New(Config{})
	r, err := store.Open(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, []byte{1, 2, 3}, data)

	_, err = store.Open(context.Background(), filepath.Join(dir, "missing.bin"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))

	_, err = store.Create(context.Background(), filepath.Join(dir, "no", "such", "dir.bin"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestStdio(t *testing.T) {
	var out bytes.Buffer
	store := New(Config{}).WithStdio(strings.NewReader("input"), &out)

	r, err := store.Open(context.Background(), "-")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "input", string(data))

	w, err := store.Create(context.Background(), "-")
	require.NoError(t, err)
	_, err = io.WriteString(w, "output")
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	assert.Equal(t, "output", out.String())
}

func TestPipeWriter(t *testing.T) {
	loc := Location{Scheme: SchemeS3, Bucket: "b", Path: "k"}

	var uploaded bytes.Buffer
	w := newPipeWriter(context.Background(), loc, func(_ context.Context, body io.Reader) error {
		_, err := io.Copy(&uploaded, body)
		return err
	})
	_, err := io.WriteString(w, strings.Repeat("frame", 1000))
	require.NoError(t, err)
	require.NoError(t, w.Commit())
	assert.Equal(t, 5000, uploaded.Len())
	assert.NoError(t, w.Abort())
}

func TestPipeWriterAbortCancelsUpload(t *testing.T) {
	loc := Location{Scheme: SchemeS3, Bucket: "b", Path: "k"}

	cancelled := make(chan bool, 1)
	w := newPipeWriter(context.Background(), loc, func(ctx context.Context, body io.Reader) error {
		_, err := io.Copy(io.Discard, body)
		cancelled <- ctx.Err() != nil
		return err
	})
	_, err := w.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())
	assert.True(t, <-cancelled)
}

func TestPipeWriterUploadFailure(t *testing.T) {
	loc := Location{Scheme: SchemeS3, Bucket: "b", Path: "k"}
	w := newPipeWriter(context.Background(), loc, func(context.Context, io.Reader) error {
		return errors.New(errors.ErrorTypeFile, "access denied")
	})

	err := w.Commit()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
	assert.Contains(t, err.Error(), "access denied")
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("daily/rows.CSV.gz"))
	assert.Equal(t, "application/octet-stream", contentType("rows.bin.zst"))
	assert.Equal(t, "text/plain", contentType("notes.txt"))
}

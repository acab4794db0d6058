package storage

import (
	"os"
	"path/filepath"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// localWriter writes a file directly or, when atomic, through a temporary
// file in the same directory renamed over the target on Commit.
type localWriter struct {
	f      *os.File
	target string
	atomic bool
	done   bool
}

func createLocal(path string, atomic bool) (*localWriter, error) {
	if !atomic {
		f, err := os.Create(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output").WithDetail("path", path)
		}
		return &localWriter{f: f, target: path}, nil
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create temporary output").WithDetail("path", path)
	}
	return &localWriter{f: f, target: path, atomic: true}, nil
}

func (w *localWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, errors.New(errors.ErrorTypeInternal, "write after commit or abort")
	}
	n, err := w.f.Write(p)
	if err != nil {
		return n, errors.Wrap(err, errors.ErrorTypeFile, "failed to write output").WithDetail("path", w.target)
	}
	return n, nil
}

func (w *localWriter) Commit() error {
	if w.done {
		return errors.New(errors.ErrorTypeInternal, "output already finished")
	}
	w.done = true

	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		w.cleanup()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to sync output").WithDetail("path", w.target)
	}
	if err := w.f.Close(); err != nil {
		w.cleanup()
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to close output").WithDetail("path", w.target)
	}
	if w.atomic {
		if err := os.Rename(w.f.Name(), w.target); err != nil {
			w.cleanup()
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to move output into place").WithDetail("path", w.target)
		}
	}
	return nil
}

// Abort removes whatever was written.
func (w *localWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.f.Close()
	w.cleanup()
	return nil
}

func (w *localWriter) cleanup() {
	_ = os.Remove(w.f.Name())
}

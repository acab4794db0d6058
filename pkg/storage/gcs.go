package storage

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

func (s *Store) gcsClient(ctx context.Context) (*storage.Client, error) {
	var opts []option.ClientOption
	if s.cfg.GCS.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.cfg.GCS.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create GCS client")
	}
	return client, nil
}

type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	err := r.Reader.Close()
	_ = r.client.Close()
	return err
}

func (s *Store) openGCS(ctx context.Context, loc Location) (io.ReadCloser, error) {
	client, err := s.gcsClient(ctx)
	if err != nil {
		return nil, err
	}

	r, err := client.Bucket(loc.Bucket).Object(loc.Path).NewReader(ctx)
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read GCS object").WithDetail("location", loc.String())
	}
	return &gcsReader{Reader: r, client: client}, nil
}

// gcsWriter finalizes the object on Commit. Cancelling the writer's context
// before Close discards the upload.
type gcsWriter struct {
	loc    Location
	w      *storage.Writer
	client *storage.Client
	cancel context.CancelFunc
	closed bool
}

func (s *Store) createGCS(ctx context.Context, loc Location) (Writer, error) {
	client, err := s.gcsClient(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := client.Bucket(loc.Bucket).Object(loc.Path).NewWriter(ctx)
	w.ContentType = contentType(loc.Path)

	return &gcsWriter{loc: loc, w: w, client: client, cancel: cancel}, nil
}

func (w *gcsWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil {
		return n, errors.Wrap(err, errors.ErrorTypeFile, "failed to write GCS object").WithDetail("location", w.loc.String())
	}
	return n, nil
}

func (w *gcsWriter) Commit() error {
	if w.closed {
		return errors.New(errors.ErrorTypeInternal, "output already finished")
	}
	w.closed = true
	defer w.release()

	if err := w.w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to finalize GCS object").WithDetail("location", w.loc.String())
	}
	return nil
}

func (w *gcsWriter) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.cancel()
	_ = w.w.Close()
	w.release()
	return nil
}

func (w *gcsWriter) release() {
	w.cancel()
	_ = w.client.Close()
}

package storage

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

func (s *Store) s3Client(ctx context.Context) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if s.cfg.S3.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s.cfg.S3.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to load AWS configuration")
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(s.cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *Store) openS3(ctx context.Context, loc Location) (io.ReadCloser, error) {
	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Path),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to get S3 object").WithDetail("location", loc.String())
	}
	return out.Body, nil
}

// createS3 streams the output into a multipart upload through a pipe.
func (s *Store) createS3(ctx context.Context, loc Location) (Writer, error) {
	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, err
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		if s.cfg.S3.PartSize > 0 {
			u.PartSize = s.cfg.S3.PartSize
		}
	})

	return newPipeWriter(ctx, loc, func(ctx context.Context, body io.Reader) error {
		_, err := uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(loc.Bucket),
			Key:         aws.String(loc.Path),
			Body:        body,
			ContentType: aws.String(contentType(loc.Path)),
		})
		return err
	}), nil
}

// pipeWriter feeds an upload running in its own goroutine. Abort cancels
// the upload so no object is created.
type pipeWriter struct {
	loc    Location
	pw     *io.PipeWriter
	cancel context.CancelFunc
	done   chan error
	closed bool
}

func newPipeWriter(ctx context.Context, loc Location, upload func(context.Context, io.Reader) error) *pipeWriter {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	w := &pipeWriter{loc: loc, pw: pw, cancel: cancel, done: make(chan error, 1)}

	go func() {
		err := upload(ctx, pr)
		pr.CloseWithError(err)
		w.done <- err
	}()
	return w
}

func (w *pipeWriter) Write(p []byte) (int, error) {
	n, err := w.pw.Write(p)
	if err != nil {
		return n, errors.Wrap(err, errors.ErrorTypeFile, "failed to upload output").WithDetail("location", w.loc.String())
	}
	return n, nil
}

func (w *pipeWriter) Commit() error {
	if w.closed {
		return errors.New(errors.ErrorTypeInternal, "output already finished")
	}
	w.closed = true
	defer w.cancel()

	_ = w.pw.Close()
	if err := <-w.done; err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to upload output").WithDetail("location", w.loc.String())
	}
	return nil
}

func (w *pipeWriter) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.cancel()
	_ = w.pw.CloseWithError(context.Canceled)
	<-w.done
	return nil
}

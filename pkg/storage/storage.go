// Package storage opens conversion inputs and creates outputs on the local
// filesystem, S3, Google Cloud Storage or the standard streams.
//
// Outputs are written through a Writer that must be finished with Commit or
// Abort, so that a failed run leaves no partial object behind.
package storage

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// Schemes of a Location.
const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
	SchemeStdio = "-"
)

// Config configures the storage backends.
type Config struct {
	// Atomic writes local outputs to a temporary file renamed on Commit.
	Atomic bool `yaml:"atomic" json:"atomic" mapstructure:"atomic"`

	S3  S3Config  `yaml:"s3" json:"s3" mapstructure:"s3"`
	GCS GCSConfig `yaml:"gcs" json:"gcs" mapstructure:"gcs"`
}

// S3Config configures the S3 client and uploader.
type S3Config struct {
	Region   string `yaml:"region" json:"region" mapstructure:"region"`
	Endpoint string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	PartSize int64  `yaml:"part_size" json:"part_size" mapstructure:"part_size"`
}

// GCSConfig configures the Cloud Storage client.
type GCSConfig struct {
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
}

// Writer is an output being written. Exactly one of Commit or Abort must be
// called; Abort after Commit is a no-op.
type Writer interface {
	io.Writer
	Commit() error
	Abort() error
}

// Location is a parsed input or output address.
type Location struct {
	Scheme string
	Bucket string
	// Path is the object key for S3 and GCS, the file path otherwise.
	Path string
}

func (l Location) String() string {
	switch l.Scheme {
	case SchemeStdio:
		return "-"
	case SchemeS3, SchemeGCS:
		return l.Scheme + "://" + l.Bucket + "/" + l.Path
	default:
		return l.Path
	}
}

// ParseLocation understands "-", plain paths, file://, s3://bucket/key and
// gs://bucket/object.
func ParseLocation(uri string) (Location, error) {
	if uri == "" {
		return Location{}, errors.New(errors.ErrorTypeConfig, "empty location")
	}
	if uri == "-" {
		return Location{Scheme: SchemeStdio}, nil
	}
	if !strings.Contains(uri, "://") {
		return Location{Scheme: SchemeFile, Path: filepath.Clean(uri)}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid location "+uri)
	}

	switch u.Scheme {
	case SchemeFile:
		return Location{Scheme: SchemeFile, Path: filepath.Clean(filepath.FromSlash(u.Host + u.Path))}, nil
	case SchemeS3, SchemeGCS:
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return Location{}, errors.Newf(errors.ErrorTypeConfig, "location %q needs a bucket and an object key", uri)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Path: key}, nil
	default:
		return Location{}, errors.Newf(errors.ErrorTypeConfig, "unsupported location scheme %q", u.Scheme)
	}
}

// Store opens and creates locations with one configuration.
type Store struct {
	cfg    Config
	stdin  io.Reader
	stdout io.Writer
}

// New returns a Store reading "-" from os.Stdin and writing it to os.Stdout.
func New(cfg Config) *Store {
	return &Store{cfg: cfg, stdin: os.Stdin, stdout: os.Stdout}
}

// WithStdio replaces the streams behind "-".
func (s *Store) WithStdio(in io.Reader, out io.Writer) *Store {
	cp := *s
	cp.stdin, cp.stdout = in, out
	return &cp
}

// Open opens uri for reading.
func (s *Store) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case SchemeStdio:
		return io.NopCloser(s.stdin), nil
	case SchemeS3:
		return s.openS3(ctx, loc)
	case SchemeGCS:
		return s.openGCS(ctx, loc)
	default:
		f, err := os.Open(loc.Path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input").WithDetail("path", loc.Path)
		}
		return f, nil
	}
}

// Create starts writing uri.
func (s *Store) Create(ctx context.Context, uri string) (Writer, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}
	switch loc.Scheme {
	case SchemeStdio:
		return &streamWriter{w: s.stdout}, nil
	case SchemeS3:
		return s.createS3(ctx, loc)
	case SchemeGCS:
		return s.createGCS(ctx, loc)
	default:
		return createLocal(loc.Path, s.cfg.Atomic)
	}
}

// contentType labels uploaded objects by the extension under any
// compression suffix.
func contentType(key string) string {
	base := strings.ToLower(key)
	for _, ext := range []string{".gz", ".zst", ".lz4", ".snappy", ".sz", ".s2"} {
		base = strings.TrimSuffix(base, ext)
	}
	switch filepath.Ext(base) {
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

type streamWriter struct {
	w io.Writer
}

func (s *streamWriter) Write(p []byte) (int, error) { return s.w.Write(p) }
func (s *streamWriter) Commit() error               { return nil }
func (s *streamWriter) Abort() error                { return nil }

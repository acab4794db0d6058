package schema

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// Format identifies how a schema file is encoded.
type Format string

const (
	// FormatYAML is a YAML document with a top-level "columns" list
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON document with a top-level "columns" list
	FormatJSON Format = "json"
	// FormatPrepInfo is a raw PrepInfo parcel as captured from the warehouse
	FormatPrepInfo Format = "prepinfo"
)

// File is the document layout of YAML and JSON schema files.
type File struct {
	Columns []Column `yaml:"columns" json:"columns"`
}

// FormatForPath picks a format from a file extension. Unknown extensions are
// treated as YAML.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".prepinfo", ".pcl", ".bin":
		return FormatPrepInfo
	default:
		return FormatYAML
	}
}

// Load decodes a column list from r.
func Load(r io.Reader, format Format, order binary.ByteOrder) ([]Column, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read schema")
	}

	switch format {
	case FormatPrepInfo:
		info, err := ParsePrepInfo(data, order)
		if err != nil {
			return nil, err
		}
		return info.Columns, nil

	case FormatJSON:
		var f File
		dec := gojson.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse JSON schema")
		}
		return f.Columns, nil

	case FormatYAML:
		var f File
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse YAML schema")
		}
		return f.Columns, nil

	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown schema format %q", format)
	}
}

// LoadFile reads a schema from a local file, choosing the format by extension.
func LoadFile(path string, order binary.ByteOrder) ([]Column, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open schema file").WithDetail("path", path)
	}
	defer f.Close()

	cols, err := Load(f, FormatForPath(path), order)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "failed to load schema file").WithDetail("path", path)
	}
	return cols, nil
}

// Encode writes cols to w as a YAML or JSON schema document.
func Encode(w io.Writer, cols []Column, format Format) error {
	f := File{Columns: cols}
	switch format {
	case FormatJSON:
		enc := gojson.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode JSON schema")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return errors.Wrap(err, errors.ErrorTypeInternal, "failed to encode YAML schema")
		}
		return enc.Close()
	default:
		return errors.Newf(errors.ErrorTypeConfig, "cannot encode schema as %q", format)
	}
}

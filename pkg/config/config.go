// Package config provides the configuration of fexport runs.
//
// The configuration is organized into logical sections:
//   - Conversion: header labels, byte order, null layout, parallelism and
//     the row error budget
//   - Compression: stream codecs for input and output
//   - Storage: local, S3 and GCS backends
//   - Logging and Metrics
//
// Example usage:
//
//	cfg, err := config.Load("fexport.yaml")
//	if err != nil {
//	    return err
//	}
//	order, _ := cfg.ByteOrder()
package config

import (
	"encoding/binary"
	"runtime"

	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/fexport/pkg/codec"
	"github.com/ajitpratap0/fexport/pkg/compression"
	"github.com/ajitpratap0/fexport/pkg/errors"
	"github.com/ajitpratap0/fexport/pkg/logger"
	"github.com/ajitpratap0/fexport/pkg/storage"
)

// Config is the complete run configuration.
type Config struct {
	Conversion  ConversionConfig  `yaml:"conversion" json:"conversion" mapstructure:"conversion"`
	Compression CompressionConfig `yaml:"compression" json:"compression" mapstructure:"compression"`
	Storage     storage.Config    `yaml:"storage" json:"storage" mapstructure:"storage"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging" mapstructure:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
}

// ConversionConfig controls the converter.
type ConversionConfig struct {
	// UseColumnTitles labels text headers with column titles
	UseColumnTitles bool `yaml:"use_column_titles" json:"use_column_titles" mapstructure:"use_column_titles"`
	// ByteOrder of the binary format: native, little or big
	ByteOrder string `yaml:"byte_order" json:"byte_order" mapstructure:"byte_order"`
	// NullPlaceholders keeps null fields at full width
	NullPlaceholders bool `yaml:"null_placeholders" json:"null_placeholders" mapstructure:"null_placeholders"`
	// Workers decoding export frames in parallel
	Workers int `yaml:"workers" json:"workers" mapstructure:"workers"`
	// BatchSize of frames per parallel decode
	BatchSize int `yaml:"batch_size" json:"batch_size" mapstructure:"batch_size"`
	// MaxRowErrors skipped before aborting
	MaxRowErrors int `yaml:"max_row_errors" json:"max_row_errors" mapstructure:"max_row_errors"`
}

// CompressionConfig selects stream codecs.
type CompressionConfig struct {
	Input  string `yaml:"input" json:"input" mapstructure:"input"`
	Output string `yaml:"output" json:"output" mapstructure:"output"`
	Level  string `yaml:"level" json:"level" mapstructure:"level"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" mapstructure:"level"`
	Encoding    string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
	Development bool   `yaml:"development" json:"development" mapstructure:"development"`
}

// MetricsConfig configures run metrics.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Textfile string `yaml:"textfile" json:"textfile" mapstructure:"textfile"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Conversion: ConversionConfig{
			ByteOrder: "native",
			Workers:   runtime.NumCPU(),
			BatchSize: 1024,
		},
		Compression: CompressionConfig{
			Input:  string(compression.Auto),
			Output: string(compression.Auto),
			Level:  "default",
		},
		Storage: storage.Config{
			Atomic: true,
			S3:     storage.S3Config{PartSize: 16 * 1024 * 1024},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if _, err := c.ByteOrder(); err != nil {
		return err
	}
	if c.Conversion.Workers < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "conversion.workers must not be negative, got %d", c.Conversion.Workers)
	}
	if c.Conversion.BatchSize <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "conversion.batch_size must be positive, got %d", c.Conversion.BatchSize)
	}
	if c.Conversion.MaxRowErrors < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "conversion.max_row_errors must not be negative, got %d", c.Conversion.MaxRowErrors)
	}

	for _, name := range []string{c.Compression.Input, c.Compression.Output} {
		if _, err := compression.ParseAlgorithm(name); err != nil {
			return err
		}
	}
	if _, err := compression.ParseLevel(c.Compression.Level); err != nil {
		return err
	}

	if c.Storage.S3.PartSize != 0 && c.Storage.S3.PartSize < 5*1024*1024 {
		return errors.Newf(errors.ErrorTypeConfig, "storage.s3.part_size must be at least 5MiB, got %d", c.Storage.S3.PartSize)
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid logging.level")
	}
	switch c.Logging.Encoding {
	case "json", "console":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "logging.encoding must be json or console, got %q", c.Logging.Encoding)
	}

	if c.Metrics.Textfile != "" && !c.Metrics.Enabled {
		return errors.New(errors.ErrorTypeConfig, "metrics.textfile is set but metrics are disabled")
	}
	return nil
}

// ByteOrder resolves conversion.byte_order.
func (c *Config) ByteOrder() (binary.ByteOrder, error) {
	return codec.ParseByteOrder(c.Conversion.ByteOrder)
}

// LoggerConfig maps the logging section onto the logger package.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:       c.Logging.Level,
		Development: c.Logging.Development,
		Encoding:    c.Logging.Encoding,
		OutputPaths: []string{"stderr"},
	}
}

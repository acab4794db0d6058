package config

import (
	"bytes"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/fexport/pkg/errors"
)

// EnvPrefix prefixes environment overrides: FEXPORT_CONVERSION_WORKERS
// overrides conversion.workers.
const EnvPrefix = "FEXPORT"

// Load reads the YAML file at path over the defaults, applies environment
// overrides and validates the result. An empty path loads defaults and
// environment only. ${VAR} references in the file are expanded first.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file").WithDetail("path", path)
		}
		if err := v.ReadConfig(bytes.NewReader([]byte(substituteEnvVars(string(data))))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file").WithDetail("path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to marshal YAML")
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write config file").WithDetail("path", path)
	}
	return nil
}

// setDefaults registers every key so that environment overrides reach
// Unmarshal even when the file omits them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("conversion.use_column_titles", d.Conversion.UseColumnTitles)
	v.SetDefault("conversion.byte_order", d.Conversion.ByteOrder)
	v.SetDefault("conversion.null_placeholders", d.Conversion.NullPlaceholders)
	v.SetDefault("conversion.workers", d.Conversion.Workers)
	v.SetDefault("conversion.batch_size", d.Conversion.BatchSize)
	v.SetDefault("conversion.max_row_errors", d.Conversion.MaxRowErrors)

	v.SetDefault("compression.input", d.Compression.Input)
	v.SetDefault("compression.output", d.Compression.Output)
	v.SetDefault("compression.level", d.Compression.Level)

	v.SetDefault("storage.atomic", d.Storage.Atomic)
	v.SetDefault("storage.s3.region", d.Storage.S3.Region)
	v.SetDefault("storage.s3.endpoint", d.Storage.S3.Endpoint)
	v.SetDefault("storage.s3.part_size", d.Storage.S3.PartSize)
	v.SetDefault("storage.gcs.credentials_file", d.Storage.GCS.CredentialsFile)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.development", d.Logging.Development)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		content = content[:start] + os.Getenv(varName) + content[end+1:]
	}
	return content
}

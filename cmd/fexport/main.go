package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/fexport/internal/pipeline"
	"github.com/ajitpratap0/fexport/pkg/codec"
	"github.com/ajitpratap0/fexport/pkg/config"
	"github.com/ajitpratap0/fexport/pkg/convert"
	"github.com/ajitpratap0/fexport/pkg/logger"
	"github.com/ajitpratap0/fexport/pkg/observability"
	"github.com/ajitpratap0/fexport/pkg/schema"
)

var version = "0.1.0"

// globalFlags are shared by every command
type globalFlags struct {
	configFile string
	logLevel   string
	trace      bool
}

// jobFlags are the per-run overrides of the configuration file
type jobFlags struct {
	schema           string
	input            string
	output           string
	titles           bool
	byteOrder        string
	nullPlaceholders bool
	workers          int
	maxRowErrors     int
	compressIn       string
	compressOut      string
	timeout          time.Duration
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "fexport",
		Short: "Convert warehouse FastExport binary files to and from delimited text",
		Long: `fexport converts the framed binary records written by warehouse bulk export
utilities into CSV with a header row, and CSV back into binary records for
bulk load. Column layouts come from a YAML, JSON or PrepInfo schema file.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.configFile, "config", "c", "", "Path to YAML configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&g.trace, "trace", false, "Write OpenTelemetry spans to stderr")

	root.AddCommand(
		newRunCommand(&g, convert.DirectionExport, "Convert binary records to CSV"),
		newRunCommand(&g, convert.DirectionImport, "Convert CSV to binary records"),
		newSchemaCommand(&g),
		newConfigCommand(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("fexport v%s\n", version)
				fmt.Printf("Go version: %s\n", runtime.Version())
				fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			},
		},
	)
	return root
}

func newRunCommand(g *globalFlags, direction, short string) *cobra.Command {
	var f jobFlags

	cmd := &cobra.Command{
		Use:   direction,
		Short: short,
		Example: fmt.Sprintf(`  fexport %s --schema customers.yaml --input in.bin --output out.csv
  fexport %s -s customers.yaml -i s3://exports/in.bin.zst -o - --titles`, direction, direction),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(g)
			if err != nil {
				return err
			}
			applyJobFlags(cmd, cfg, &f)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), g, cfg, pipeline.Job{
				Direction: direction,
				Schema:    f.schema,
				Input:     f.input,
				Output:    f.output,
			}, f.timeout)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.schema, "schema", "s", "", "Schema file: YAML, JSON or PrepInfo parcel (required)")
	flags.StringVarP(&f.input, "input", "i", "-", "Input location: path, s3://, gs:// or - for stdin")
	flags.StringVarP(&f.output, "output", "o", "-", "Output location: path, s3://, gs:// or - for stdout")
	flags.BoolVar(&f.titles, "titles", false, "Use column titles instead of names in the header row")
	flags.StringVar(&f.byteOrder, "byte-order", "native", "Byte order of binary records (native, little, big)")
	flags.BoolVar(&f.nullPlaceholders, "null-placeholders", false, "Null fields keep their full width in binary records")
	flags.IntVar(&f.workers, "workers", runtime.NumCPU(), "Parallel frame decoders for export")
	flags.IntVar(&f.maxRowErrors, "max-row-errors", 0, "Rows that may be skipped for bad values before aborting")
	flags.StringVar(&f.compressIn, "input-compression", "auto", "Input compression (auto, none, gzip, zstd, lz4, snappy, s2)")
	flags.StringVar(&f.compressOut, "output-compression", "auto", "Output compression (auto, none, gzip, zstd, lz4, snappy, s2)")
	flags.DurationVar(&f.timeout, "timeout", 0, "Abort the run after this long (0 for no limit)")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

// applyJobFlags overrides the configuration with flags set explicitly
func applyJobFlags(cmd *cobra.Command, cfg *config.Config, f *jobFlags) {
	changed := cmd.Flags().Changed
	if changed("titles") {
		cfg.Conversion.UseColumnTitles = f.titles
	}
	if changed("byte-order") {
		cfg.Conversion.ByteOrder = f.byteOrder
	}
	if changed("null-placeholders") {
		cfg.Conversion.NullPlaceholders = f.nullPlaceholders
	}
	if changed("workers") {
		cfg.Conversion.Workers = f.workers
	}
	if changed("max-row-errors") {
		cfg.Conversion.MaxRowErrors = f.maxRowErrors
	}
	if changed("input-compression") {
		cfg.Compression.Input = f.compressIn
	}
	if changed("output-compression") {
		cfg.Compression.Output = f.compressOut
	}
}

func loadConfig(g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	return cfg, nil
}

func run(ctx context.Context, g *globalFlags, cfg *config.Config, job pipeline.Job, timeout time.Duration) error {
	if err := logger.Init(cfg.LoggerConfig()); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.With(zap.String("component", "fexport-cli"))

	if g.trace {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    "fexport",
			ServiceVersion: version,
			SamplingRate:   1,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn("failed to flush spans", zap.Error(err))
			}
		}()
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := pipeline.New(cfg, log).Run(ctx, job)
	if err != nil {
		return err
	}

	log.Info("conversion finished",
		zap.String("run_id", res.RunID),
		zap.Int64("rows", res.Rows),
		zap.Int64("skipped", res.Skipped),
		zap.Duration("duration", res.Duration))
	return nil
}

func newSchemaCommand(g *globalFlags) *cobra.Command {
	var format, byteOrder string

	cmd := &cobra.Command{
		Use:   "schema FILE",
		Short: "Print a schema file as YAML or JSON",
		Long: `Reads a YAML, JSON or PrepInfo schema file and prints its columns. Use it to
turn a captured PrepInfo parcel into an editable YAML schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := codec.ParseByteOrder(byteOrder)
			if err != nil {
				return err
			}
			cols, err := schema.LoadFile(args[0], order)
			if err != nil {
				return err
			}
			if err := schema.Validate(cols, false); err != nil {
				return err
			}
			return schema.Encode(cmd.OutOrStdout(), cols, schema.Format(format))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml, json)")
	cmd.Flags().StringVar(&byteOrder, "byte-order", "native", "Byte order of PrepInfo parcels")
	return cmd
}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init FILE",
		Short: "Write the default configuration to FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	})
	return cmd
}

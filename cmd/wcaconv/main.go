package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"wcabridge/internal/config"
	"wcabridge/internal/exporter"
	"wcabridge/internal/files"
	"wcabridge/internal/infrastructure"
	"wcabridge/internal/services"
	"wcabridge/internal/validation"
	"wcabridge/pkg/contracts"
	"wcabridge/pkg/contracts/domain"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	usageHeader = `usage: wcaconv [flags] input [input...]

Converts LTspice/SIMetrix netlists, BoMs and value CSVs into the WCA dataset
workbook. Directories are scanned for known input files; glob patterns are
expanded. With several inputs, -o names a directory and every input gets its
own <name>/%s inside it.

`
)

var errVersion = errors.New("version requested")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	output      string
	transfer    string
	dialect     domain.Dialect
	reviewCSV   bool
	metricsFile string
	configPath  string
	workers     int
	logLevel    string
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}
	fs := flag.NewFlagSet("wcaconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, usageHeader, config.DefaultDatasetFileName)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.output, "o", "", "output workbook (one input) or directory (several inputs)")
	fs.StringVar(&opts.transfer, "hs", "", "transfer function written to the Transfer sheet")
	fs.StringVar(&opts.transfer, "transfer", "", "alias of -hs")
	dialect := fs.String("dialect", "", "force the input dialect: ltspice, simetrix, bom or csv")
	fs.BoolVar(&opts.reviewCSV, "csv", false, "also write every sheet as CSV next to the workbook")
	fs.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format on exit")
	fs.StringVar(&opts.configPath, "config", "", "configuration file (defaults to config.yaml if present)")
	fs.IntVar(&opts.workers, "workers", 0, "concurrent conversions (defaults to GOMAXPROCS)")
	fs.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	version := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if *version {
		return nil, nil, errVersion
	}
	if *dialect != "" {
		d, err := domain.ParseDialect(*dialect)
		if err != nil {
			return nil, nil, err
		}
		opts.dialect = d
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return nil, nil, fmt.Errorf("no input files")
	}
	return opts, fs.Args(), nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, args, err := parseFlags(args, stderr)
	if errors.Is(err, errVersion) {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return exitOK
	}
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintln(stderr, "wcaconv:", err)
		}
		return exitUsage
	}

	cfg, loadErr := config.Load(opts.configPath)
	if loadErr != nil {
		if opts.configPath != "" {
			fmt.Fprintln(stderr, "wcaconv:", loadErr)
			return exitFailed
		}
		cfg = config.Default()
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	logger := infrastructure.NewLogger(cfg.Logging, stderr)
	if loadErr != nil {
		logger.Warn("Falling back to default configuration", slog.String("error", loadErr.Error()))
	}
	ctx = infrastructure.EnsureTraceID(ctx)

	telemetry := infrastructure.OTelConfigFrom(cfg.Telemetry)
	telemetry.EnableMetrics = opts.metricsFile != ""
	providers, err := infrastructure.InitializeOTel(telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry", slog.String("error", err.Error()))
		return exitFailed
	}
	defer func() {
		if err := providers.WriteMetricsFile(opts.metricsFile); err != nil {
			logger.Error("Failed to write metrics file", slog.String("error", err.Error()))
		}
		providers.Shutdown(context.Background())
	}()

	metrics, err := infrastructure.NewConversionMetrics(providers.Meter)
	if err != nil {
		logger.Error("Failed to create metrics", slog.String("error", err.Error()))
		return exitFailed
	}

	inputs, err := files.NewDiscovery("", config.InputExtensions...).Expand(args)
	if err != nil {
		logger.Error("Failed to expand inputs", slog.String("error", err.Error()))
		return exitFailed
	}
	if len(inputs) == 0 {
		fmt.Fprintln(stderr, "wcaconv: no input files found")
		return exitFailed
	}

	items, err := planOutputs(inputs, opts.output, cfg.Conversion.DatasetFileName)
	if err != nil {
		fmt.Fprintln(stderr, "wcaconv:", err)
		return exitFailed
	}
	validator := validation.NewFileValidator(logger)
	for _, item := range items {
		if err := validator.ValidateDatasetPath(item.Output); err != nil {
			fmt.Fprintln(stderr, "wcaconv:", err)
			return exitFailed
		}
	}

	svc := services.NewConversionService(cfg.Conversion, nil, logger,
		services.WithMetrics(metrics),
		services.WithTracer(providers.Tracer),
		services.WithReviewExporter(exporter.NewReviewExporter(exporter.NewCSVWriter(nil), logger)),
	)

	convOpts := services.ConversionOptions{
		Transfer:  opts.transfer,
		Dialect:   opts.dialect,
		ReviewCSV: opts.reviewCSV || cfg.Conversion.ReviewCSV,
	}

	logger.Debug("Starting conversion",
		slog.Int("inputs", len(items)),
		slog.String("dialect", string(opts.dialect)))

	if len(items) == 1 {
		convOpts.Output = items[0].Output
		result, err := svc.ProcessFile(ctx, items[0].Input, convOpts)
		return report(stdout, stderr, services.BatchOutcome{Input: items[0].Input, Result: result, Err: err})
	}

	outcomes, err := svc.ProcessBatch(ctx, items, opts.workers, convOpts)
	if err != nil {
		fmt.Fprintln(stderr, "wcaconv:", err)
	}
	code := exitOK
	if err != nil {
		code = exitFailed
	}
	for _, o := range outcomes {
		if report(stdout, stderr, o) != exitOK {
			code = exitFailed
		}
	}
	return code
}

// planOutputs assigns a dataset path to every input. A single input writes
// to output (or the dataset file name in the working directory); several
// inputs each get a sub-directory of output named after the input.
func planOutputs(inputs []string, output, datasetFileName string) ([]services.BatchItem, error) {
	if len(inputs) == 1 {
		if output == "" {
			output = datasetFileName
		}
		if info, err := os.Stat(output); err == nil && info.IsDir() {
			output = filepath.Join(output, datasetFileName)
		}
		return []services.BatchItem{{Input: inputs[0], Output: output}}, nil
	}

	if output == "" {
		output = "."
	}
	if strings.EqualFold(filepath.Ext(output), ".xlsx") {
		return nil, fmt.Errorf("-o must be a directory when converting %d inputs", len(inputs))
	}

	items := make([]services.BatchItem, 0, len(inputs))
	used := make(map[string]int)
	for _, in := range inputs {
		base := filepath.Base(in)
		name := files.SafeName(strings.TrimSuffix(base, filepath.Ext(base)))
		used[name]++
		if n := used[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		items = append(items, services.BatchItem{
			Input:  in,
			Output: filepath.Join(output, name, datasetFileName),
		})
	}
	return items, nil
}

func report(stdout, stderr io.Writer, o services.BatchOutcome) int {
	if o.Err != nil {
		fmt.Fprintf(stderr, "✘ %s: %v\n", o.Input, o.Err)
		return exitFailed
	}
	fmt.Fprintln(stdout, o.Result.Summary())
	fmt.Fprintf(stdout, "  → %s\n", o.Result.Output)
	for _, p := range o.Result.ReviewCSVs {
		fmt.Fprintf(stdout, "  → %s\n", p)
	}
	return exitOK
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"wcabridge/internal/config"
	"wcabridge/internal/dataprocessing"
	apperrors "wcabridge/internal/errors"
	"wcabridge/internal/exporter"
	"wcabridge/internal/infrastructure"
	"wcabridge/pkg/contracts/domain"
)

// ConversionOptions tunes a single conversion call
type ConversionOptions struct {
	// RunID fixes the run identifier. Empty means a fresh UUID.
	RunID string
	// Output is the dataset workbook path. Empty means the configured
	// dataset file name in the working directory.
	Output string
	// Transfer overrides the configured transfer function.
	Transfer string
	// Dialect forces a parser instead of classifying the input.
	Dialect domain.Dialect
	// ReviewCSV also writes the sheets as CSV next to the workbook.
	ReviewCSV bool
}

// ConversionResult is returned by every conversion call. It owns its
// warnings; nothing is shared between calls.
type ConversionResult struct {
	RunID      string           `json:"run_id"`
	Source     string           `json:"source"`
	Dialect    domain.Dialect   `json:"dialect"`
	Output     string           `json:"output"`
	Components int              `json:"components"`
	Dataset    *domain.Dataset  `json:"dataset"`
	Warnings   []domain.Warning `json:"warnings"`
	ReviewCSVs []string         `json:"review_csvs,omitempty"`
	Duration   time.Duration    `json:"duration"`
}

// Summary returns the one-line outcome followed by a bulleted warning list.
func (r *ConversionResult) Summary() string {
	var b strings.Builder
	switch {
	case r.Dialect.IsNetlist():
		fmt.Fprintf(&b, "✔ %d components (%s)", r.Components, r.Source)
	case r.Dialect == domain.DialectBoM:
		fmt.Fprintf(&b, "✔ %d BoM rows (%s)", r.Components, r.Source)
	default:
		fmt.Fprintf(&b, "✔ CSV %s", r.Source)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "\n⚠ %d warning(s)", len(r.Warnings))
		for _, w := range r.Warnings {
			b.WriteString("\n  - ")
			b.WriteString(w.Message)
		}
	}
	return b.String()
}

// WarningCounts groups the warnings by kind.
func (r *ConversionResult) WarningCounts() map[string]int {
	counts := make(map[string]int)
	for _, w := range r.Warnings {
		counts[string(w.Kind)]++
	}
	return counts
}

// ConversionService turns netlists and BoMs into WCA datasets
type ConversionService struct {
	cfg      config.ConversionConfig
	defaults dataprocessing.PackageDefaults
	writer   *exporter.DatasetWriter
	review   *exporter.ReviewExporter
	metrics  *infrastructure.ConversionMetrics
	tracer   trace.Tracer
	logger   *slog.Logger
}

// ConversionServiceOption customizes a ConversionService
type ConversionServiceOption func(*ConversionService)

// WithMetrics records conversions on m
func WithMetrics(m *infrastructure.ConversionMetrics) ConversionServiceOption {
	return func(s *ConversionService) { s.metrics = m }
}

// WithTracer replaces the global tracer
func WithTracer(t trace.Tracer) ConversionServiceOption {
	return func(s *ConversionService) { s.tracer = t }
}

// WithReviewExporter enables review CSV output through e
func WithReviewExporter(e *exporter.ReviewExporter) ConversionServiceOption {
	return func(s *ConversionService) { s.review = e }
}

// NewConversionService creates a conversion service. A nil writer writes
// through excelize.
func NewConversionService(cfg config.ConversionConfig, writer *exporter.DatasetWriter, logger *slog.Logger, opts ...ConversionServiceOption) *ConversionService {
	if logger == nil {
		logger = slog.Default()
	}
	if writer == nil {
		writer = exporter.NewDatasetWriter(nil, logger)
	}
	if cfg.DatasetFileName == "" {
		cfg.DatasetFileName = config.DefaultDatasetFileName
	}
	if cfg.SniffLines <= 0 {
		cfg.SniffLines = config.DefaultSniffLines
	}

	overrides := make(map[string]domain.Deviation, len(cfg.PackageDefaults))
	for pkg, d := range cfg.PackageDefaults {
		overrides[pkg] = domain.Deviation{
			Tolerance:   d.Tolerance,
			Temperature: d.Temperature,
			Ageing:      d.Ageing,
			Radiation:   d.Radiation,
		}
	}

	s := &ConversionService{
		cfg:      cfg,
		defaults: dataprocessing.DefaultPackageDefaults().Merge(overrides),
		writer:   writer,
		tracer:   otel.Tracer(infrastructure.InstrumentationName),
		logger:   logger.With(slog.String("component", "conversion_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessFile reads path, classifies it unless opts.Dialect is set, and
// converts it.
func (s *ConversionService) ProcessFile(ctx context.Context, path string, opts ConversionOptions) (*ConversionResult, error) {
	src, err := dataprocessing.ReadSource(path)
	if err != nil {
		return nil, err
	}
	dialect := opts.Dialect
	if dialect == "" {
		dialect = dataprocessing.Classify(src)
	}
	return s.ProcessSource(ctx, src, dialect, opts)
}

// ProcessNetlist converts an LTspice or SIMetrix netlist.
func (s *ConversionService) ProcessNetlist(ctx context.Context, path string, opts ConversionOptions) (*ConversionResult, error) {
	src, err := dataprocessing.ReadSource(path)
	if err != nil {
		return nil, err
	}
	return s.ProcessSource(ctx, src, dataprocessing.NetlistDialect(src), opts)
}

// ProcessBoM converts a bill of materials.
func (s *ConversionService) ProcessBoM(ctx context.Context, path string, opts ConversionOptions) (*ConversionResult, error) {
	src, err := dataprocessing.ReadSource(path)
	if err != nil {
		return nil, err
	}
	return s.ProcessSource(ctx, src, domain.DialectBoM, opts)
}

// ProcessGeneric converts a headerless ref,value[,tol%] CSV.
func (s *ConversionService) ProcessGeneric(ctx context.Context, path string, opts ConversionOptions) (*ConversionResult, error) {
	src, err := dataprocessing.ReadSource(path)
	if err != nil {
		return nil, err
	}
	return s.ProcessSource(ctx, src, domain.DialectCSV, opts)
}

// ProcessSource converts an in-memory source with the given dialect. Parse
// errors abort before anything is written.
func (s *ConversionService) ProcessSource(ctx context.Context, src dataprocessing.Source, dialect domain.Dialect, opts ConversionOptions) (*ConversionResult, error) {
	start := time.Now()
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, span := s.tracer.Start(ctx, "conversion.process", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("source.name", src.Name),
		attribute.String("dialect", string(dialect)),
	))
	defer span.End()

	logger := infrastructure.WithRun(s.logger, runID, src.Name)

	result, err := s.convert(ctx, logger, runID, src, dialect, opts)

	outcome := infrastructure.ConversionOutcome{
		Dialect:  string(dialect),
		Duration: time.Since(start),
		Err:      err,
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordConversion(ctx, outcome)
		logger.ErrorContext(ctx, "Conversion failed",
			slog.String("dialect", string(dialect)),
			slog.String("error", err.Error()))
		return nil, err
	}

	result.Duration = outcome.Duration
	outcome.Components = result.Components
	outcome.Warnings = result.WarningCounts()
	s.metrics.RecordConversion(ctx, outcome)

	span.SetAttributes(
		attribute.Int("components", result.Components),
		attribute.Int("warnings", len(result.Warnings)),
	)
	logger.InfoContext(ctx, "Conversion complete",
		slog.String("dialect", string(dialect)),
		slog.String("output", result.Output),
		slog.Int("components", result.Components),
		slog.Int("warnings", len(result.Warnings)),
		slog.Duration("duration", result.Duration))

	return result, nil
}

func (s *ConversionService) convert(ctx context.Context, logger *slog.Logger, runID string, src dataprocessing.Source, dialect domain.Dialect, opts ConversionOptions) (*ConversionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := dataprocessing.ParserFor(dialect, s.cfg.SniffLines)
	if parser == nil {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unsupported dialect %q", dialect)).
			WithContext("source", src.Name)
	}

	warnings := dataprocessing.NewWarningLog()
	parts, err := parser.Parse(src, warnings)
	if err != nil {
		return nil, err
	}
	logger.DebugContext(ctx, "Source parsed",
		slog.Int("references", parts.Len()),
		slog.Int("warnings", warnings.Len()))

	transfer := opts.Transfer
	if transfer == "" {
		transfer = s.cfg.TransferFunc
	}
	ds := &domain.Dataset{
		Parts:      parts,
		Deviations: dataprocessing.AggregateDeviations(parts, s.defaults),
		Transfer:   transfer,
	}

	output := opts.Output
	if output == "" {
		output = s.cfg.DatasetFileName
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.writer.Write(output, ds); err != nil {
		return nil, err
	}

	result := &ConversionResult{
		RunID:      runID,
		Source:     src.Name,
		Dialect:    dialect,
		Output:     output,
		Components: parts.Len(),
		Dataset:    ds,
		Warnings:   warnings.Warnings(),
	}
	for _, w := range result.Warnings {
		logger.WarnContext(ctx, "Conversion warning",
			slog.String("kind", string(w.Kind)),
			slog.String("input", w.Input),
			slog.String("ref", w.Ref))
	}

	if (opts.ReviewCSV || s.cfg.ReviewCSV) && s.review != nil {
		files, err := s.review.Export(output, ds)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to write review CSVs", err).WithContext("output", output)
		}
		result.ReviewCSVs = files
	}

	return result, nil
}

package wca

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"wcabridge/internal/config"
	apperrors "wcabridge/internal/errors"
	"wcabridge/internal/exporter"
	"wcabridge/internal/files"
	"wcabridge/internal/infrastructure"
	"wcabridge/pkg/contracts/domain"
)

// PopulateReport summarizes one population run.
type PopulateReport struct {
	Worksheet    string   `json:"worksheet"`
	DatasetCopy  string   `json:"dataset_copy,omitempty"`
	Assigned     int      `json:"assigned"`
	Rejected     []string `json:"rejected,omitempty"`
	Recalculated bool     `json:"recalculated"`
}

// RowReader loads the Parts Value rows of a dataset workbook.
type RowReader func(path string) ([]domain.PartsValueRow, error)

// Populator pushes dataset values into the active worksheet of a WCA host.
type Populator struct {
	connector       Connector
	datasetFileName string
	readRows        RowReader
	metrics         *infrastructure.ConversionMetrics
	tracer          trace.Tracer
	logger          *slog.Logger
}

// PopulatorOption customizes a Populator.
type PopulatorOption func(*Populator)

// WithRowReader replaces the excelize dataset reader.
func WithRowReader(r RowReader) PopulatorOption {
	return func(p *Populator) { p.readRows = r }
}

// WithPopulateMetrics records runs on m.
func WithPopulateMetrics(m *infrastructure.ConversionMetrics) PopulatorOption {
	return func(p *Populator) { p.metrics = m }
}

// NewPopulator creates a populator. An empty datasetFileName means the
// default dataset name the templates link to.
func NewPopulator(connector Connector, datasetFileName string, logger *slog.Logger, opts ...PopulatorOption) *Populator {
	if datasetFileName == "" {
		datasetFileName = config.DefaultDatasetFileName
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Populator{
		connector:       connector,
		datasetFileName: datasetFileName,
		readRows:        exporter.ReadPartsValue,
		tracer:          otel.Tracer(infrastructure.InstrumentationName),
		logger:          infrastructure.WithComponent(logger, "wca_populator"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Populate assigns every Parts Value entry of the dataset to the worksheet
// variable of the same name. templatePath is optional; without it the
// host's active worksheet is used. Variables the worksheet rejects are
// collected, not fatal.
func (p *Populator) Populate(ctx context.Context, datasetPath, templatePath string) (*PopulateReport, error) {
	ctx, span := p.tracer.Start(ctx, "wca.populate", trace.WithAttributes(
		attribute.String("dataset", datasetPath),
		attribute.String("template", templatePath),
	))
	defer span.End()

	report, err := p.populate(ctx, datasetPath, templatePath)
	p.metrics.RecordPopulate(ctx, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"assigned":     report.Assigned,
		"rejected":     len(report.Rejected),
		"recalculated": report.Recalculated,
	})
	return report, nil
}

func (p *Populator) populate(ctx context.Context, datasetPath, templatePath string) (*PopulateReport, error) {
	dataset, err := filepath.Abs(datasetPath)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to resolve dataset path", err)
	}
	if _, err := os.Stat(dataset); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("dataset %s", dataset)).WithContext("path", dataset)
		}
		return nil, apperrors.NewStorageError("failed to stat dataset", err).WithContext("path", dataset)
	}

	app, err := p.connector.Connect(ctx)
	if err != nil {
		return nil, apperrors.NewAutomationError("could not connect to the WCA host; open it first", err)
	}
	if c, ok := app.(io.Closer); ok {
		defer c.Close()
	}

	if templatePath != "" {
		template, err := filepath.Abs(templatePath)
		if err != nil {
			return nil, apperrors.NewStorageError("failed to resolve template path", err)
		}
		p.logger.InfoContext(ctx, "Opening template", slog.String("template", template))
		if err := app.Open(template); err != nil {
			return nil, apperrors.NewAutomationError("failed to open template", err).WithContext("template", template)
		}
	}

	ws, err := app.ActiveWorksheet()
	if err != nil {
		return nil, apperrors.NewAutomationError("no active worksheet in the WCA host", err)
	}
	report := &PopulateReport{Worksheet: ws.FullName()}
	report.DatasetCopy = p.placeDataset(ctx, dataset, ws.FullName())

	rows, err := p.readRows(dataset)
	if err != nil {
		return nil, err
	}
	p.logger.InfoContext(ctx, "Variables to transfer", slog.Int("count", len(rows)))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := ws.SetRealValue(row.Variable, row.Value); err != nil {
			report.Rejected = append(report.Rejected, row.Variable)
			infrastructure.WithError(p.logger, err).DebugContext(ctx, "Variable rejected",
				slog.String("variable", row.Variable))
			continue
		}
		report.Assigned++
	}

	report.Recalculated = p.recalculate(ctx, ws)

	if saver, ok := ws.(Saver); ok && report.Assigned > 0 {
		if err := saver.Save(); err != nil {
			return nil, apperrors.NewStorageError("failed to save worksheet", err).
				WithContext("worksheet", report.Worksheet)
		}
	}

	if len(report.Rejected) > 0 {
		p.logger.WarnContext(ctx, "Variables not found in worksheet",
			slog.Any("variables", report.Rejected))
	} else {
		p.logger.InfoContext(ctx, "Worksheet updated",
			slog.String("worksheet", report.Worksheet),
			slog.Int("assigned", report.Assigned))
	}
	return report, nil
}

// placeDataset copies the dataset beside the worksheet under the name its
// links expect. Failure is logged and otherwise ignored.
func (p *Populator) placeDataset(ctx context.Context, dataset, worksheet string) string {
	if worksheet == "" {
		return ""
	}
	dst := filepath.Join(filepath.Dir(worksheet), p.datasetFileName)
	if abs, err := filepath.Abs(dst); err == nil && abs == dataset {
		return dst
	}
	if err := files.CopyFile(dataset, dst); err != nil {
		p.logger.WarnContext(ctx, "Could not copy dataset beside worksheet",
			slog.String("destination", dst),
			slog.String("error", err.Error()))
		return ""
	}
	p.logger.InfoContext(ctx, "Dataset placed beside worksheet", slog.String("destination", dst))
	infrastructure.AddSpanEvent(ctx, "dataset.placed", map[string]interface{}{"destination": dst})
	return dst
}

// recalculate asks the host to recompute, trying Synchronize first.
func (p *Populator) recalculate(ctx context.Context, ws Worksheet) bool {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"synchronize", ws.Synchronize},
		{"resume_calculation", ws.ResumeCalculation},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			p.logger.DebugContext(ctx, "Recalculation step failed",
				slog.String("step", step.name),
				slog.String("error", err.Error()))
			continue
		}
		return true
	}
	p.logger.WarnContext(ctx, "Worksheet could not be recalculated")
	return false
}

package exporter

import (
	"log/slog"
	"strings"

	"wcabridge/pkg/contracts/domain"
)

// ReviewExporter writes the dataset sheets as CSV files for review in tools
// that cannot open the workbook.
type ReviewExporter struct {
	csv    *CSVWriter
	logger *slog.Logger
}

// NewReviewExporter creates a review exporter writing through w.
func NewReviewExporter(w *CSVWriter, logger *slog.Logger) *ReviewExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewExporter{csv: w, logger: logger.With(slog.String("component", "review_exporter"))}
}

// Export writes <base>_parts_value.csv and <base>_parts_deviation.csv and
// returns the written paths.
func (e *ReviewExporter) Export(base string, ds *domain.Dataset) ([]string, error) {
	var values [][]string
	for _, r := range ds.PartsValueRows() {
		values = append(values, []string{r.Variable, r.Type, formatFloat(r.Value)})
	}

	var devs [][]string
	for _, d := range ds.Deviations {
		row := []string{d.Package}
		for _, v := range d.Values() {
			row = append(row, formatFloat(v))
		}
		devs = append(devs, row)
	}

	base = strings.TrimSuffix(base, ".xlsx")
	var written []string
	for _, f := range []struct {
		name    string
		header  []string
		records [][]string
	}{
		{base + "_parts_value.csv", PartsValueHeader, values},
		{base + "_parts_deviation.csv", PartsDeviationHeader, devs},
	} {
		path, err := e.csv.WriteSimpleCSV(f.name, f.header, f.records)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	e.logger.Info("Review CSVs written", slog.Any("files", written))
	return written, nil
}

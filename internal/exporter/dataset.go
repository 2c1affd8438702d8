package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	apperrors "wcabridge/internal/errors"
	"wcabridge/pkg/contracts/domain"
)

// Sheet names of the canonical dataset workbook.
const (
	SheetPartsValue     = "Parts Value"
	SheetPartsDeviation = "Parts Deviation"
	SheetTransfer       = "Transfer"
)

// Header rows of the three dataset sheets.
var (
	PartsValueHeader     = []string{"Variable", "Type", "Value"}
	PartsDeviationHeader = []string{"Parameter", "Tolerance", "Temperature", "Ageing", "Radiation"}
	TransferHeader       = []string{"H(s)"}
)

// DatasetWriter writes canonical datasets into workbooks. The three dataset
// sheets are replaced wholesale; any other sheet of an existing workbook is
// left alone.
type DatasetWriter struct {
	opener WorkbookOpener
	logger *slog.Logger
}

// NewDatasetWriter creates a writer. A nil opener means excelize.
func NewDatasetWriter(opener WorkbookOpener, logger *slog.Logger) *DatasetWriter {
	if opener == nil {
		opener = ExcelizeOpener{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetWriter{
		opener: opener,
		logger: logger.With(slog.String("component", "dataset_writer")),
	}
}

// Write stores ds at path.
func (w *DatasetWriter) Write(path string, ds *domain.Dataset) error {
	wb, err := w.opener.Open(path)
	if err != nil {
		return apperrors.NewStorageError("failed to open dataset workbook", err).WithContext("path", path)
	}
	defer wb.Close()

	valueRows := ds.PartsValueRows()
	sheets := []struct {
		name   string
		header []string
		rows   [][]interface{}
	}{
		{SheetPartsValue, PartsValueHeader, partsValueCells(valueRows)},
		{SheetPartsDeviation, PartsDeviationHeader, deviationCells(ds.Deviations)},
		{SheetTransfer, TransferHeader, [][]interface{}{{strings.TrimSpace(ds.Transfer)}}},
	}

	for _, s := range sheets {
		if err := w.replaceSheet(wb, s.name, s.header, s.rows); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write sheet %q", s.name), err).
				WithContext("path", path)
		}
	}

	if err := dropBlankDefault(wb); err != nil {
		return apperrors.NewStorageError("failed to remove default sheet", err).WithContext("path", path)
	}

	if err := wb.Save(); err != nil {
		return apperrors.NewStorageError("failed to save dataset workbook", err).WithContext("path", path)
	}

	w.logger.Info("Dataset written",
		slog.String("path", path),
		slog.Int("parts", len(valueRows)),
		slog.Int("packages", len(ds.Deviations)))
	return nil
}

func (w *DatasetWriter) replaceSheet(wb Workbook, name string, header []string, rows [][]interface{}) error {
	if err := wb.DeleteSheet(name); err != nil {
		return err
	}
	if err := wb.CreateSheet(name); err != nil {
		return err
	}
	if err := wb.AppendRow(name, stringsToCells(header)...); err != nil {
		return err
	}
	for _, row := range rows {
		if err := wb.AppendRow(name, row...); err != nil {
			return err
		}
	}
	return nil
}

// dropBlankDefault removes the default sheet when it holds no data.
func dropBlankDefault(wb Workbook) error {
	names := wb.SheetNames()
	if len(names) < 2 {
		return nil
	}
	for _, name := range names {
		if name != defaultSheet {
			continue
		}
		rows, err := wb.Rows(name)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return wb.DeleteSheet(name)
		}
	}
	return nil
}

func partsValueCells(rows []domain.PartsValueRow) [][]interface{} {
	out := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		out = append(out, []interface{}{r.Variable, r.Type, r.Value})
	}
	return out
}

func deviationCells(devs []domain.PackageDeviation) [][]interface{} {
	out := make([][]interface{}, 0, len(devs))
	for _, d := range devs {
		out = append(out, []interface{}{d.Package, d.Tolerance, d.Temperature, d.Ageing, d.Radiation})
	}
	return out
}

func stringsToCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// ReadPartsValue reads the Parts Value sheet of the workbook at path. Rows
// whose variable or value cell is empty are skipped, as are values that are
// not numbers.
func (w *DatasetWriter) ReadPartsValue(path string) ([]domain.PartsValueRow, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("dataset %s", path)).WithContext("path", path)
	}

	wb, err := w.opener.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open dataset workbook", err).WithContext("path", path)
	}
	defer wb.Close()

	rows, err := wb.Rows(SheetPartsValue)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %q not readable", SheetPartsValue), err).
			WithContext("path", path)
	}

	var out []domain.PartsValueRow
	for i, row := range rows {
		if i == 0 {
			continue
		}
		variable, typ, value := cellAt(row, 0), cellAt(row, 1), cellAt(row, 2)
		if variable == "" || value == "" {
			continue
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			w.logger.Warn("Skipping non-numeric dataset value",
				slog.String("variable", variable),
				slog.String("value", value))
			continue
		}
		out = append(out, domain.PartsValueRow{Variable: variable, Type: typ, Value: v})
	}
	return out, nil
}

// ReadPartsValue reads the Parts Value sheet with the excelize opener.
func ReadPartsValue(path string) ([]domain.PartsValueRow, error) {
	return NewDatasetWriter(nil, nil).ReadPartsValue(path)
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

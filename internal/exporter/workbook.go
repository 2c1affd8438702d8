package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// defaultSheet is the blank sheet a new excelize workbook starts with.
const defaultSheet = "Sheet1"

// Workbook is the tabular I/O surface the dataset writer needs.
type Workbook interface {
	SheetNames() []string
	DeleteSheet(name string) error
	CreateSheet(name string) error
	AppendRow(sheet string, values ...interface{}) error
	Rows(sheet string) ([][]string, error)
	Save() error
	Close() error
}

// WorkbookOpener opens the workbook at path, creating an empty one when the
// file does not exist yet.
type WorkbookOpener interface {
	Open(path string) (Workbook, error)
}

// ExcelizeOpener opens .xlsx workbooks with excelize.
type ExcelizeOpener struct{}

// Open implements WorkbookOpener.
func (ExcelizeOpener) Open(path string) (Workbook, error) {
	if _, err := os.Stat(path); err == nil {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		return newExcelizeWorkbook(f, path), nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat workbook: %w", err)
	}
	return newExcelizeWorkbook(excelize.NewFile(), path), nil
}

type excelizeWorkbook struct {
	f       *excelize.File
	path    string
	nextRow map[string]int
}

func newExcelizeWorkbook(f *excelize.File, path string) *excelizeWorkbook {
	return &excelizeWorkbook{f: f, path: path, nextRow: make(map[string]int)}
}

func (w *excelizeWorkbook) SheetNames() []string {
	return w.f.GetSheetList()
}

func (w *excelizeWorkbook) has(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// DeleteSheet removes name. excelize refuses to delete the only sheet, so a
// blank default sheet is added first in that case.
func (w *excelizeWorkbook) DeleteSheet(name string) error {
	if !w.has(name) {
		return nil
	}
	if w.f.SheetCount == 1 {
		if _, err := w.f.NewSheet(defaultSheet); err != nil {
			return err
		}
	}
	delete(w.nextRow, name)
	if err := w.f.DeleteSheet(name); err != nil {
		return err
	}
	w.f.SetActiveSheet(0)
	return nil
}

func (w *excelizeWorkbook) CreateSheet(name string) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	rows, err := w.f.GetRows(name)
	if err != nil {
		return err
	}
	w.nextRow[name] = len(rows) + 1
	return nil
}

func (w *excelizeWorkbook) AppendRow(sheet string, values ...interface{}) error {
	row, ok := w.nextRow[sheet]
	if !ok {
		rows, err := w.f.GetRows(sheet)
		if err != nil {
			return err
		}
		row = len(rows) + 1
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return err
	}
	w.nextRow[sheet] = row + 1
	return nil
}

func (w *excelizeWorkbook) Rows(sheet string) ([][]string, error) {
	return w.f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

func (w *excelizeWorkbook) Save() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return w.f.SaveAs(w.path)
}

func (w *excelizeWorkbook) Close() error {
	return w.f.Close()
}

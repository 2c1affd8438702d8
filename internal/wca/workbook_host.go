package wca

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WorkbookHost is a WCA host backed by a spreadsheet template: every defined
// name of the workbook is a variable, and recalculation is left to the
// spreadsheet application that opens the saved file.
type WorkbookHost struct {
	// Worksheet, when set, is opened on Connect and stands in for the
	// document already open in a running host.
	Worksheet string
}

// Connect implements Connector.
func (h WorkbookHost) Connect(ctx context.Context) (Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	app := &workbookApp{}
	if h.Worksheet != "" {
		if err := app.Open(h.Worksheet); err != nil {
			return nil, err
		}
	}
	return app, nil
}

type workbookApp struct {
	active *workbookSheet
}

// Open implements Application.
func (a *workbookApp) Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	f, err := excelize.OpenFile(abs)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", abs, err)
	}
	if a.active != nil {
		a.active.f.Close()
	}
	a.active = &workbookSheet{f: f, path: abs, names: definedCells(f)}
	return nil
}

// ActiveWorksheet implements Application.
func (a *workbookApp) ActiveWorksheet() (Worksheet, error) {
	if a.active == nil {
		return nil, ErrNoActiveWorksheet
	}
	return a.active, nil
}

// Close releases the open workbook.
func (a *workbookApp) Close() error {
	if a.active == nil {
		return nil
	}
	err := a.active.f.Close()
	a.active = nil
	return err
}

type cellRef struct {
	sheet string
	cell  string
}

type workbookSheet struct {
	f     *excelize.File
	path  string
	names map[string]cellRef
}

func (s *workbookSheet) FullName() string { return s.path }

// SetRealValue writes value into the cell the defined name refers to.
// Names match case-insensitively, as in spreadsheet formulas.
func (s *workbookSheet) SetRealValue(name string, value float64) error {
	ref, ok := s.names[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	}
	return s.f.SetCellFloat(ref.sheet, ref.cell, value, -1, 64)
}

// Synchronize flags the workbook for a full recalculation on next load.
func (s *workbookSheet) Synchronize() error {
	full := true
	return s.f.SetCalcProps(&excelize.CalcPropsOptions{FullCalcOnLoad: &full})
}

// ResumeCalculation drops cached formula results.
func (s *workbookSheet) ResumeCalculation() error {
	return s.f.UpdateLinkedValue()
}

// Save implements Saver.
func (s *workbookSheet) Save() error {
	return s.f.Save()
}

// definedCells maps lower-cased defined names to the first cell they refer to.
// Names pointing at anything other than a cell or range are ignored.
func definedCells(f *excelize.File) map[string]cellRef {
	names := make(map[string]cellRef)
	for _, dn := range f.GetDefinedName() {
		if ref, ok := parseRefersTo(dn.RefersTo); ok {
			names[strings.ToLower(dn.Name)] = ref
		}
	}
	return names
}

// parseRefersTo reads references such as "Sheet1!$B$2", "'Input Data'!B2"
// or "=Sheet1!$B$2:$B$4".
func parseRefersTo(refersTo string) (cellRef, bool) {
	refersTo = strings.TrimPrefix(strings.TrimSpace(refersTo), "=")
	bang := strings.LastIndex(refersTo, "!")
	if bang <= 0 {
		return cellRef{}, false
	}

	sheet := refersTo[:bang]
	if strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") && len(sheet) >= 2 {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}

	cell := refersTo[bang+1:]
	if i := strings.Index(cell, ":"); i >= 0 {
		cell = cell[:i]
	}
	cell = strings.ReplaceAll(cell, "$", "")
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return cellRef{}, false
	}
	return cellRef{sheet: sheet, cell: cell}, true
}

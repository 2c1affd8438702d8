package exporter

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "wcabridge/internal/errors"
	"wcabridge/internal/shared/testutil"
	"wcabridge/pkg/contracts/domain"
)

func sampleDataset() *domain.Dataset {
	parts := domain.NewPartSet()
	parts.Set("R2", 4700, "P0805", domain.Deviation{})
	parts.Set("R1", 10000, "RM0805", domain.Deviation{Tolerance: 0.01})
	parts.Set("C1", 1e-7, "C0805", domain.Deviation{Tolerance: 0.1})
	parts.Set("TOLR", 0.01, "TOLR", domain.Deviation{Tolerance: 0.01})
	return &domain.Dataset{
		Parts: parts,
		Deviations: []domain.PackageDeviation{
			{Package: "C0805", Deviation: domain.Deviation{Tolerance: 0.1, Temperature: 200e-6}},
			{Package: "P0805", Deviation: domain.Deviation{Tolerance: 2e-3, Temperature: 10e-6}},
		},
		Transfer: "  1/(1+s*R1*C1)  ",
	}
}

func TestDatasetWriter_WriteAndRead(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	w := NewDatasetWriter(nil, logger)
	path := filepath.Join(t.TempDir(), "out", "dataset.xlsx")

	require.NoError(t, w.Write(path, sampleDataset()))
	assert.True(t, logs.ContainsAttr("component", "dataset_writer"))

	rows, err := w.ReadPartsValue(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.PartsValueRow{
		{Variable: "C1", Type: "C0805", Value: 1e-7},
		{Variable: "R1", Type: "RM0805", Value: 10000},
		{Variable: "R2", Type: "P0805", Value: 4700},
	}, rows)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetPartsValue, SheetPartsDeviation, SheetTransfer}, f.GetSheetList())

	header, err := f.GetRows(SheetPartsDeviation)
	require.NoError(t, err)
	assert.Equal(t, PartsDeviationHeader, header[0])
	assert.Equal(t, "C0805", header[1][0])

	cellType, err := f.GetCellType(SheetPartsValue, "C3")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType, "values are stored as numbers")
	assert.NotEqual(t, excelize.CellTypeInlineString, cellType)

	transfer, err := f.GetCellValue(SheetTransfer, "A2")
	require.NoError(t, err)
	assert.Equal(t, "1/(1+s*R1*C1)", transfer)
}

func TestDatasetWriter_Idempotent(t *testing.T) {
	w := NewDatasetWriter(nil, nil)
	path := filepath.Join(t.TempDir(), "dataset.xlsx")
	ds := sampleDataset()

	require.NoError(t, w.Write(path, ds))
	first, err := w.ReadPartsValue(path)
	require.NoError(t, err)

	require.NoError(t, w.Write(path, ds))
	second, err := w.ReadPartsValue(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetPartsValue)
	require.NoError(t, err)
	assert.Len(t, rows, 4, "header plus three parts, no duplication")
}

func TestDatasetWriter_KeepsOtherSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "keep me"))
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "user data"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	require.NoError(t, NewDatasetWriter(nil, nil).Write(path, sampleDataset()))

	f, err = excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	names := f.GetSheetList()
	assert.Contains(t, names, "Notes")
	assert.Contains(t, names, "Sheet1", "non-blank default sheet is kept")
	v, err := f.GetCellValue("Notes", "A1")
	require.NoError(t, err)
	assert.Equal(t, "keep me", v)
}

func TestReadPartsValue_SkipsIncompleteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetPartsValue))
	require.NoError(t, f.SetSheetRow(SheetPartsValue, "A1", &[]interface{}{"Variable", "Type", "Value"}))
	require.NoError(t, f.SetSheetRow(SheetPartsValue, "A2", &[]interface{}{"R1", "P0805", 100.0}))
	require.NoError(t, f.SetSheetRow(SheetPartsValue, "A3", &[]interface{}{"", "P0805", 5.0}))
	require.NoError(t, f.SetSheetRow(SheetPartsValue, "A4", &[]interface{}{"R3", "P0805"}))
	require.NoError(t, f.SetSheetRow(SheetPartsValue, "A5", &[]interface{}{"R4", "P0805", "open"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := ReadPartsValue(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.PartsValueRow{{Variable: "R1", Type: "P0805", Value: 100}}, rows)
}

func TestReadPartsValue_Missing(t *testing.T) {
	_, err := ReadPartsValue(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

type failingOpener struct{ err error }

func (o failingOpener) Open(string) (Workbook, error) { return nil, o.err }

func TestDatasetWriter_OpenFailure(t *testing.T) {
	cause := errors.New("locked")
	err := NewDatasetWriter(failingOpener{err: cause}, nil).Write("x.xlsx", sampleDataset())

	assert.ErrorIs(t, err, cause)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
}

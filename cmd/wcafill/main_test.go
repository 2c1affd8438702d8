package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wcabridge/internal/config"
	"wcabridge/internal/exporter"
	"wcabridge/internal/wca"
	"wcabridge/pkg/contracts"
	"wcabridge/pkg/contracts/domain"
)

func writeTemplate(t *testing.T, dir string, names map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, "wca.xlsx")
	f := excelize.NewFile()
	for name, ref := range names {
		require.NoError(t, f.SetDefinedName(&excelize.DefinedName{Name: name, RefersTo: ref}))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	parts := domain.NewPartSet()
	parts.Set("R1", 4700, "RM0805", domain.Deviation{Tolerance: 0.01})
	parts.Set("C9", 1e-6, "C0805", domain.Deviation{})
	path := filepath.Join(dir, "in", "dataset.xlsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, exporter.NewDatasetWriter(nil, nil).Write(path, &domain.Dataset{Parts: parts}))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "-version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, contracts.GetVersionString())
}

func TestRun_Fill(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir, map[string]string{"R1": "Sheet1!$C$4"})
	dataset := writeDataset(t, dir)

	code, stdout, stderr := runCLI(t, "-p", template, "-log-level", "error", dataset)
	require.Equal(t, exitOK, code, stderr)

	assert.Contains(t, stdout, "✔ 1 variable(s) assigned")
	assert.Contains(t, stdout, "not found in template: C9")
	assert.FileExists(t, filepath.Join(dir, config.DefaultDatasetFileName))

	f, err := excelize.OpenFile(template)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Sheet1", "C4")
	require.NoError(t, err)
	assert.Equal(t, "4700", v)
}

func TestRun_FillJSON(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir, map[string]string{"R1": "Sheet1!$A$1", "C9": "Sheet1!$A$2"})
	dataset := writeDataset(t, dir)

	code, stdout, stderr := runCLI(t, "-template", template, "-json", dataset)
	require.Equal(t, exitOK, code, stderr)

	var report wca.PopulateReport
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Equal(t, 2, report.Assigned)
	assert.Empty(t, report.Rejected)
	assert.True(t, report.Recalculated)
}

func TestRun_FillErrors(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir, nil)
	dataset := writeDataset(t, dir)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"template required", []string{dataset}, exitUsage},
		{"too many args", []string{"-p", template, dataset, dataset}, exitUsage},
		{"missing template", []string{"-p", filepath.Join(dir, "none.xlsx"), dataset}, exitFailed},
		{"missing dataset", []string{"-p", template, filepath.Join(dir, "none.xlsx")}, exitFailed},
		{"not a workbook", []string{"-p", dataset + ".txt", dataset}, exitFailed},
	}
	require.NoError(t, os.WriteFile(dataset+".txt", []byte("plain"), 0o644))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, tt.want, code, stderr)
			if tt.want == exitFailed {
				assert.True(t, strings.TrimSpace(stderr) != "")
			}
		})
	}
}

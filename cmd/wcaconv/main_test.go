package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wcabridge/internal/config"
	"wcabridge/internal/exporter"
	"wcabridge/internal/shared/testutil"
	"wcabridge/pkg/contracts"
)

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

func TestRun_SingleInput(t *testing.T) {
	input := testutil.WriteFixture(t, "rc_filter.net", testutil.LTspiceNetlist)
	out := filepath.Join(t.TempDir(), "dataset.xlsx")

	code, stdout, stderr := runCLI(t, "-o", out, "-hs", "Vout/Vin", "-log-level", "error", input)
	require.Equal(t, exitOK, code, stderr)

	assert.True(t, strings.HasPrefix(stdout, "✔ 6 components (rc_filter.net)"), stdout)
	assert.Contains(t, stdout, out)
	require.FileExists(t, out)

	rows, err := exporter.ReadPartsValue(out)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
}

func TestRun_OutputDirectory(t *testing.T) {
	input := testutil.WriteFixture(t, "values.csv", testutil.GenericCSV)
	dir := t.TempDir()

	code, _, stderr := runCLI(t, "-o", dir, "-csv", input)
	require.Equal(t, exitOK, code, stderr)

	assert.FileExists(t, filepath.Join(dir, config.DefaultDatasetFileName))
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestRun_Batch(t *testing.T) {
	inDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "amp.net"), []byte(testutil.LTspiceNetlist), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "amp.csv"), []byte(testutil.GenericCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "board.bom"), []byte(testutil.DelimitedBoM), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "notes.md"), []byte("ignored"), 0o644))
	outDir := t.TempDir()
	metricsFile := filepath.Join(t.TempDir(), "wca.prom")

	code, stdout, stderr := runCLI(t, "-o", outDir, "-workers", "2", "-metrics-file", metricsFile, inDir)
	require.Equal(t, exitOK, code, stderr)

	assert.Equal(t, 3, strings.Count(stdout, "✔"))
	for _, name := range []string{"amp", "amp_2", "board"} {
		assert.FileExists(t, filepath.Join(outDir, name, config.DefaultDatasetFileName), name)
	}

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "wca_conversions_total")
}

func TestRun_BatchReportsFailures(t *testing.T) {
	inDir := t.TempDir()
	good := filepath.Join(inDir, "good.net")
	bad := filepath.Join(inDir, "bad.bom")
	require.NoError(t, os.WriteFile(good, []byte(testutil.LTspiceNetlist), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte("R1 10k\n"), 0o644))
	outDir := t.TempDir()

	code, stdout, stderr := runCLI(t, "-o", outDir, good, bad)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, stdout, "good.net")
	assert.Contains(t, stderr, "✘ "+bad)
	assert.FileExists(t, filepath.Join(outDir, "good", config.DefaultDatasetFileName))
	assert.NoFileExists(t, filepath.Join(outDir, "bad", config.DefaultDatasetFileName))
}

func TestRun_Errors(t *testing.T) {
	input := testutil.WriteFixture(t, "rc_filter.net", testutil.LTspiceNetlist)
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no inputs", nil, exitUsage},
		{"unknown flag", []string{"-x", input}, exitUsage},
		{"unknown dialect", []string{"-dialect", "kicad", input}, exitUsage},
		{"missing input", []string{"-o", filepath.Join(dir, "a.xlsx"), filepath.Join(dir, "missing.net")}, exitFailed},
		{"non-xlsx output", []string{"-o", filepath.Join(dir, "a.xls"), input}, exitFailed},
		{"batch into workbook", []string{"-o", filepath.Join(dir, "a.xlsx"), input, input + "x"}, exitFailed},
		{"missing config", []string{"-config", filepath.Join(dir, "none.yaml"), input}, exitFailed},
		{"empty directory", []string{t.TempDir()}, exitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(t, tt.args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestRun_InvalidEnvironmentFallsBack(t *testing.T) {
	t.Setenv("WCA_SERVER_PORT", "not-a-port")
	input := testutil.WriteFixture(t, "rc_filter.net", testutil.LTspiceNetlist)
	out := filepath.Join(t.TempDir(), "dataset.xlsx")

	code, _, stderr := runCLI(t, "-o", out, input)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stderr, "Falling back to default configuration")
	assert.Contains(t, stderr, "WCA_SERVER_PORT")
	assert.FileExists(t, out)
}

func TestRun_ForcedDialect(t *testing.T) {
	input := testutil.WriteFixture(t, "values.txt", testutil.GenericCSV)
	out := filepath.Join(t.TempDir(), "dataset.xlsx")

	code, stdout, stderr := runCLI(t, "-dialect", "csv", "-o", out, input)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "✔ CSV values.txt")
}

func TestPlanOutputs(t *testing.T) {
	items, err := planOutputs([]string{"a.net"}, "", "ds.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "ds.xlsx", items[0].Output)

	dir := t.TempDir()
	items, err = planOutputs([]string{"a.net"}, dir, "ds.xlsx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ds.xlsx"), items[0].Output)

	items, err = planOutputs([]string{"x/a.net", "y/a.net", "b c.bom"}, "out", "ds.xlsx")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, filepath.Join("out", "a", "ds.xlsx"), items[0].Output)
	assert.Equal(t, filepath.Join("out", "a_2", "ds.xlsx"), items[1].Output)
	assert.Equal(t, filepath.Join("out", "b_c", "ds.xlsx"), items[2].Output)

	_, err = planOutputs([]string{"a.net", "b.net"}, "out.xlsx", "ds.xlsx")
	assert.Error(t, err)
}

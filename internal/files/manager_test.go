package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wcabridge/internal/config"
)

func newTestManager(t *testing.T) (*Manager, *config.Paths) {
	t.Helper()
	paths := config.NewPaths(t.TempDir(), config.Default().Paths)
	require.NoError(t, paths.EnsureDirectories())
	return NewManager(paths), paths
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"amp.net", "amp.net"},
		{"../../etc/passwd", "passwd"},
		{`C:\boards\main board.bom`, "main_board.bom"},
		{"...", "upload"},
		{"", "upload"},
		{"résumé.csv", "r_sum_.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeName(tt.in))
		})
	}
}

func TestSaveUpload(t *testing.T) {
	m, paths := newTestManager(t)

	path, err := m.SaveUpload("run-1", "../evil.net", strings.NewReader("R1 a b 1k\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.UploadsDir, "run-1", "evil.net"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "R1 a b 1k\n", string(data))
	assert.True(t, m.FileExists("uploads/run-1/evil.net"))
}

func TestDatasetPath(t *testing.T) {
	m, paths := newTestManager(t)
	assert.Equal(t, filepath.Join(paths.DatasetsDir, "run-1", "Entrada_Datos_01.xlsx"),
		m.DatasetPath("run-1", "Entrada_Datos_01.xlsx"))
}

func TestRemoveRun(t *testing.T) {
	m, paths := newTestManager(t)

	_, err := m.SaveUpload("run-1", "amp.net", strings.NewReader("R1 a b 1k\n"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(paths.DatasetsDir, "run-1"), 0o755))

	require.NoError(t, m.RemoveRun("run-1"))
	assert.NoDirExists(t, filepath.Join(paths.UploadsDir, "run-1"))
	assert.NoDirExists(t, filepath.Join(paths.DatasetsDir, "run-1"))
	assert.DirExists(t, paths.DatasetsDir)

	assert.Error(t, m.RemoveRun("../datasets"))
	assert.Error(t, m.RemoveRun(""))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.xlsx")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	dst := filepath.Join(dir, "nested", "dst.xlsx")
	require.NoError(t, CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	assert.Error(t, CopyFile(filepath.Join(dir, "missing"), dst))
}

func TestManagerRelativePaths(t *testing.T) {
	m, paths := newTestManager(t)
	require.NoError(t, os.WriteFile(filepath.Join(paths.ReportsDir, "r.csv"), []byte("a"), 0o644))

	require.NoError(t, m.CopyFile("reports/r.csv", "datasets/copy.csv"))
	assert.FileExists(t, filepath.Join(paths.DatasetsDir, "copy.csv"))

	names, err := m.ListFiles("reports/")
	require.NoError(t, err)
	assert.Equal(t, []string{"r.csv"}, names)

	assert.False(t, m.FileExists("missing.txt"))
}

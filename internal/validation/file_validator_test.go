package validation

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wcabridge/internal/errors"
)

func writeFile(t *testing.T, name string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(file, []byte("R1 N001 0 10k\n"), 0644))
	return file
}

func TestFileValidator_ValidateInputFile(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		errType       apperrors.ErrorType
		errorContains string
	}{
		{
			name:      "LTspice netlist",
			setupFunc: func(t *testing.T) string { return writeFile(t, "filter.net") },
		},
		{
			name:      "upper-case extension",
			setupFunc: func(t *testing.T) string { return writeFile(t, "FILTER.CIR") },
		},
		{
			name:      "BoM workbook",
			setupFunc: func(t *testing.T) string { return writeFile(t, "bom.xlsx") },
		},
		{
			name:          "temporary office file",
			setupFunc:     func(t *testing.T) string { return writeFile(t, "~$bom.xlsx") },
			wantErr:       true,
			errType:       apperrors.ErrTypeValidation,
			errorContains: "temporary",
		},
		{
			name:          "unsupported extension",
			setupFunc:     func(t *testing.T) string { return writeFile(t, "schematic.pdf") },
			wantErr:       true,
			errType:       apperrors.ErrTypeValidation,
			errorContains: "unsupported extension",
		},
		{
			name:          "non-existent file",
			setupFunc:     func(t *testing.T) string { return "/non/existent/file.net" },
			wantErr:       true,
			errType:       apperrors.ErrTypeNotFound,
			errorContains: "not found",
		},
		{
			name: "directory with input extension",
			setupFunc: func(t *testing.T) string {
				dir := filepath.Join(t.TempDir(), "odd.net")
				require.NoError(t, os.Mkdir(dir, 0755))
				return dir
			},
			wantErr:       true,
			errType:       apperrors.ErrTypeValidation,
			errorContains: "not a file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewFileValidator(slog.Default())
			file := tt.setupFunc(t)

			err := validator.ValidateInputFile(file)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.errType, apperrors.TypeOf(err))
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_IsSupportedInput(t *testing.T) {
	v := NewFileValidator(nil)
	assert.True(t, v.IsSupportedInput("a.net"))
	assert.True(t, v.IsSupportedInput("a.sxsch"))
	assert.True(t, v.IsSupportedInput("B.CSV"))
	assert.False(t, v.IsSupportedInput("a.exe"))
	assert.False(t, v.IsSupportedInput("noext"))
}

func TestFileValidator_ValidateDatasetPath(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	assert.NoError(t, v.ValidateDatasetPath(filepath.Join(dir, "out", "Entrada_Datos_01.xlsx")))
	assert.DirExists(t, filepath.Join(dir, "out"))

	err := v.ValidateDatasetPath(filepath.Join(dir, "dataset.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestFileValidator_ValidateTemplate(t *testing.T) {
	v := NewFileValidator(nil)
	assert.NoError(t, v.ValidateTemplate(""))
	assert.NoError(t, v.ValidateTemplate(writeFile(t, "wca.mcdx")))

	err := v.ValidateTemplate(filepath.Join(t.TempDir(), "missing.mcdx"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		errorContains string
	}{
		{
			name: "existing directory",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			wantErr: false,
		},
		{
			name: "non-existent directory (should be created)",
			setupFunc: func(t *testing.T) string {
				base := t.TempDir()
				return filepath.Join(base, "new", "nested", "dir")
			},
			wantErr: false,
		},
		{
			name: "path is a file",
			setupFunc: func(t *testing.T) string {
				return writeFile(t, "blocker")
			},
			wantErr:       true,
			errorContains: "failed to create output directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewFileValidator(slog.Default())
			dir := tt.setupFunc(t)

			err := validator.ValidateOutputDirectory(dir)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				assert.NoError(t, err)
				// Verify directory exists
				info, err := os.Stat(dir)
				assert.NoError(t, err)
				assert.True(t, info.IsDir())
			}
		})
	}
}

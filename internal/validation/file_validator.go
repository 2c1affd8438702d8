package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wcabridge/internal/config"
	apperrors "wcabridge/internal/errors"
)

// FileValidator provides common file validation functions for all executables
type FileValidator struct {
	extensions map[string]bool
	logger     *slog.Logger
}

// NewFileValidator creates a new file validator accepting the default input extensions
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	exts := make(map[string]bool, len(config.InputExtensions))
	for _, ext := range config.InputExtensions {
		exts[ext] = true
	}
	return &FileValidator{
		extensions: exts,
		logger:     logger,
	}
}

// IsSupportedInput reports whether name carries an input extension.
func (v *FileValidator) IsSupportedInput(name string) bool {
	return v.extensions[strings.ToLower(filepath.Ext(name))]
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path)).WithContext("path", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile checks a netlist, BoM or CSV before conversion
func (v *FileValidator) ValidateInputFile(path string) error {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary office file",
			slog.String("file", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("file %s is a temporary office file", path))
	}
	if !v.IsSupportedInput(base) {
		v.logger.Error("Unsupported input extension",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return apperrors.NewAppValidationError(
			fmt.Sprintf("file %s has an unsupported extension (supported: %s)", path, strings.Join(config.InputExtensions, " ")))
	}
	return v.ValidateFile(path)
}

// ValidateDatasetPath checks that path names a workbook that can be written
func (v *FileValidator) ValidateDatasetPath(path string) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".xlsx" {
		v.logger.Error("Dataset is not an xlsx workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewAppValidationError(fmt.Sprintf("dataset %s must have the .xlsx extension", path))
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateTemplate checks the worksheet template handed to the WCA host.
// An empty path is valid and means the host's active worksheet.
func (v *FileValidator) ValidateTemplate(path string) error {
	if path == "" {
		return nil
	}
	return v.ValidateFile(path)
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if dir == "" {
		dir = "."
	}
	// Try to create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	file, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	name := file.Name()
	file.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

package files

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"wcabridge/internal/config"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Manager provides file management operations
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	_, err := os.Stat(m.resolvePath(path))
	return err == nil
}

// CopyFile copies a file from source to destination
func (m *Manager) CopyFile(src, dst string) error {
	return CopyFile(m.resolvePath(src), m.resolvePath(dst))
}

// SaveUpload stores r in the uploads directory under dir and returns the
// stored path. The client file name is reduced to a safe base name.
func (m *Manager) SaveUpload(dir, name string, r io.Reader) (string, error) {
	dst := filepath.Join(m.paths.UploadsDir, dir, SafeName(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	slog.Debug("Upload stored", slog.String("path", dst))
	return dst, nil
}

// DatasetPath returns where the dataset of run runID is written
func (m *Manager) DatasetPath(runID, fileName string) string {
	return m.paths.GetDatasetPath(filepath.Join(runID, fileName))
}

// RemoveRun deletes the upload and dataset directories of run runID
func (m *Manager) RemoveRun(runID string) error {
	if runID == "" || SafeName(runID) != runID {
		return fmt.Errorf("invalid run id %q", runID)
	}
	var errs []error
	for _, dir := range []string{m.paths.GetUploadPath(runID), m.paths.GetDatasetPath(runID)} {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListFiles returns all files in a directory (non-recursive)
func (m *Manager) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(m.resolvePath(dir))
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// resolvePath resolves a path relative to the appropriate base directory
func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) || m.paths == nil {
		return path
	}

	switch {
	case strings.HasPrefix(path, "uploads/"):
		return m.paths.GetUploadPath(strings.TrimPrefix(path, "uploads/"))
	case strings.HasPrefix(path, "datasets/"):
		return m.paths.GetDatasetPath(strings.TrimPrefix(path, "datasets/"))
	case strings.HasPrefix(path, "reports/"):
		return m.paths.GetReportPath(strings.TrimPrefix(path, "reports/"))
	case strings.HasPrefix(path, "logs/"):
		return m.paths.GetLogPath(strings.TrimPrefix(path, "logs/"))
	default:
		return filepath.Join(m.paths.DataDir, path)
	}
}

// SafeName strips directories and unusual characters from a client
// supplied file name, keeping its extension.
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

// CopyFile copies src to dst, creating the destination directory.
func CopyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file content: %w", err)
	}

	// Sync to ensure write is complete
	return dstFile.Sync()
}

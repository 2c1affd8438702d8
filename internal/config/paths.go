package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the resolved application paths
type Paths struct {
	BaseDir     string
	DataDir     string
	LogsDir     string
	UploadsDir  string
	DatasetsDir string
	ReportsDir  string
}

// executableDir returns the directory of the running binary, symlinks resolved.
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// NewPaths resolves the configured directories against baseDir.
func NewPaths(baseDir string, cfg PathsConfig) *Paths {
	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return dir
		}
		return filepath.Join(baseDir, dir)
	}
	return &Paths{
		BaseDir:     baseDir,
		DataDir:     resolve(cfg.DataDir),
		LogsDir:     resolve(cfg.LogsDir),
		UploadsDir:  resolve(cfg.UploadsDir),
		DatasetsDir: resolve(cfg.DatasetsDir),
		ReportsDir:  resolve(cfg.ReportsDir),
	}
}

// ResolvePaths returns the paths of this configuration. An empty base
// directory means the executable directory.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		dir, err := executableDir()
		if err != nil {
			return nil, err
		}
		base = dir
	}
	return NewPaths(base, c.Paths), nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.LogsDir, p.UploadsDir, p.DatasetsDir, p.ReportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// GetUploadPath returns the path for an uploaded input file
func (p *Paths) GetUploadPath(filename string) string {
	return filepath.Join(p.UploadsDir, filename)
}

// GetDatasetPath returns the path for a generated dataset workbook
func (p *Paths) GetDatasetPath(filename string) string {
	return filepath.Join(p.DatasetsDir, filename)
}

// GetReportPath returns the path for a review report
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs the resolved directories
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("uploads", p.UploadsDir),
			slog.String("datasets", p.DatasetsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

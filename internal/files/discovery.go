package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"wcabridge/internal/config"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// Discovery finds convertible input files
type Discovery struct {
	basePath   string
	extensions map[string]bool
}

// NewDiscovery creates a discovery instance resolving relative directories
// against basePath. No extensions means config.InputExtensions.
func NewDiscovery(basePath string, extensions ...string) *Discovery {
	if len(extensions) == 0 {
		extensions = config.InputExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Discovery{basePath: basePath, extensions: exts}
}

// IsInput reports whether name has a known input extension
func (d *Discovery) IsInput(name string) bool {
	return d.extensions[strings.ToLower(filepath.Ext(name))]
}

// FindInputs lists the input files of dir, sorted by name. Lock and temp
// files written by office tools ("~$...") are skipped.
func (d *Discovery) FindInputs(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "~$") || !d.IsInput(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// FindFilesByPattern finds input files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	searchPattern := pattern
	if !filepath.IsAbs(pattern) {
		searchPattern = filepath.Join(d.resolve(dir), pattern)
	}

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

// Expand turns command-line arguments into input paths: directories are
// scanned, glob patterns expanded, and anything else is passed through
// unchanged so a missing file is reported by the conversion itself.
func (d *Discovery) Expand(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			found, err := d.FindInputs(arg)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f.Path)
			}
			continue
		}
		if strings.ContainsAny(arg, "*?[") {
			found, err := d.FindFilesByPattern("", arg)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f.Path)
			}
			continue
		}
		add(arg)
	}
	return out, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// Package files provides file system helpers for wcabridge.
//
// Discovery finds convertible inputs (netlists, BoMs, CSV and spreadsheet
// files) in directories and expands command-line arguments:
//
//	inputs, err := files.NewDiscovery("").Expand([]string{"boards/", "*.net"})
//
// Manager stores HTTP uploads, places per-run datasets and copies files
// relative to the configured directories.
package files

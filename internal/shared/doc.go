// Package shared holds helpers used across the wcabridge packages.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and sample netlist/BoM fixtures written into t.TempDir().
package shared

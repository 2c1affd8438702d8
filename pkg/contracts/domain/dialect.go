package domain

import (
	"fmt"
	"strings"
)

// Dialect identifies the source format of an input file.
type Dialect string

const (
	DialectLTspice  Dialect = "ltspice"
	DialectSIMetrix Dialect = "simetrix"
	DialectBoM      Dialect = "bom"
	DialectCSV      Dialect = "csv"
)

// Dialects lists every supported dialect.
var Dialects = []Dialect{DialectLTspice, DialectSIMetrix, DialectBoM, DialectCSV}

// IsNetlist reports whether the dialect is a netlist dialect.
func (d Dialect) IsNetlist() bool {
	return d == DialectLTspice || d == DialectSIMetrix
}

// ParseDialect converts a user supplied name into a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ltspice", "lt":
		return DialectLTspice, nil
	case "simetrix", "simplis", "sxsch":
		return DialectSIMetrix, nil
	case "bom":
		return DialectBoM, nil
	case "csv", "generic":
		return DialectCSV, nil
	}
	return "", fmt.Errorf("unknown dialect %q", s)
}

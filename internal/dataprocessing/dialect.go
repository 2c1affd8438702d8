package dataprocessing

import (
	"strings"

	"wcabridge/pkg/contracts/domain"
)

// headerProbeLines bounds the search for a BoM header during classification.
const headerProbeLines = 50

var netlistExts = map[string]bool{
	".net": true, ".cir": true, ".asc": true, ".sp": true, ".spi": true, ".sxsch": true,
}

// Classify picks the dialect of a source from its name and content.
func Classify(src Source) domain.Dialect {
	ext := src.Ext()
	switch {
	case netlistExts[ext]:
		return NetlistDialect(src)
	case ext == ".bom" || isSpreadsheet(ext):
		return domain.DialectBoM
	}

	lines := src.Lines()
	if ext == ".txt" && hasParamDirective(lines) {
		return NetlistDialect(src)
	}
	if len(lines) > headerProbeLines {
		lines = lines[:headerProbeLines]
	}
	if findHeader(lines) >= 0 {
		return domain.DialectBoM
	}
	return domain.DialectCSV
}

// NetlistDialect chooses between the two netlist dialects: SIMetrix when the
// name says so or the content uses gauss() annotations, LTspice otherwise.
func NetlistDialect(src Source) domain.Dialect {
	if src.Ext() == ".sxsch" || strings.Contains(strings.ToLower(src.Name), "simetrix") {
		return domain.DialectSIMetrix
	}
	if strings.Contains(strings.ToLower(src.Text()), "gauss(") {
		return domain.DialectSIMetrix
	}
	return domain.DialectLTspice
}

func hasParamDirective(lines []string) bool {
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) >= len(paramDirective) && strings.EqualFold(line[:len(paramDirective)], paramDirective) {
			return true
		}
	}
	return false
}

// ParserFor returns the parser for a dialect, or nil for an unknown one.
func ParserFor(d domain.Dialect, sniffLines int) Parser {
	switch d {
	case domain.DialectLTspice:
		return LTspiceParser{}
	case domain.DialectSIMetrix:
		return SIMetrixParser{}
	case domain.DialectBoM:
		return NewBoMParser(sniffLines)
	case domain.DialectCSV:
		return GenericCSVParser{}
	}
	return nil
}

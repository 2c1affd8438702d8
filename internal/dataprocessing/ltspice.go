package dataprocessing

import (
	"regexp"
	"strings"

	"wcabridge/pkg/contracts/domain"
)

// {mc(<nominal>,<group>)}
var mcAnnotation = regexp.MustCompile(`(?i)\{\s*mc\(([^,]+),([^}]+)\)\s*\}`)

// LTspiceParser reads LTspice netlists, resolving {mc(value,group)} annotations
// against the .param deviation groups.
type LTspiceParser struct{}

// Dialect implements Parser.
func (LTspiceParser) Dialect() domain.Dialect { return domain.DialectLTspice }

// Parse implements Parser.
func (LTspiceParser) Parse(src Source, log *WarningLog) (*domain.PartSet, error) {
	lines := src.Lines()
	norm := NewNormalizer(log)
	parts := domain.NewPartSet()
	groups := scanParams(lines, norm, parts)

	for _, c := range scanComponents(lines, ".*+") {
		n := norm.WithRef(c.ref)
		var (
			value float64
			dev   domain.Deviation
		)
		if m := mcAnnotation.FindStringSubmatch(c.field); m != nil {
			value = n.Value(strings.TrimSpace(m[1]))
			dev = groups.deviation(strings.ToUpper(strings.TrimSpace(m[2])))
		} else {
			value = n.Value(c.token)
		}
		parts.Set(c.ref, value, PackageForTolerance(c.ref, dev.Tolerance), dev)
	}
	return parts, nil
}

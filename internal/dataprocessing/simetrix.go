package dataprocessing

import (
	"regexp"
	"strings"

	"wcabridge/pkg/contracts/domain"
)

var (
	gaussAnnotation = regexp.MustCompile(`(?i)\{([^}]*gauss\([^}]+\)[^}]*)\}`)
	gaussArgs       = regexp.MustCompile(`(?i)gauss\(([^)]+)\)`)
)

// SIMetrixParser reads SIMetrix/SIMPLIS netlists with {value*(1+gauss(tol))}
// style annotations. Only the tolerance axis is populated.
type SIMetrixParser struct{}

// Dialect implements Parser.
func (SIMetrixParser) Dialect() domain.Dialect { return domain.DialectSIMetrix }

// Parse implements Parser.
func (SIMetrixParser) Parse(src Source, log *WarningLog) (*domain.PartSet, error) {
	lines := src.Lines()
	norm := NewNormalizer(log)
	parts := domain.NewPartSet()
	groups := scanParams(lines, norm, parts)

	for _, c := range scanComponents(lines, ".*") {
		n := norm.WithRef(c.ref)
		var value, tol float64
		if m := gaussAnnotation.FindStringSubmatch(c.field); m != nil {
			content := m[1]
			nominal, _, _ := strings.Cut(content, "*")
			value = n.Value(nominal)
			tol = 1
			if inner := gaussArgs.FindStringSubmatch(content); inner != nil {
				for _, factor := range strings.Split(inner[1], "*") {
					tol *= groups.factor(n, factor)
				}
			}
		} else {
			value = n.Value(c.token)
		}
		parts.Set(c.ref, value, PackageForTolerance(c.ref, tol), domain.Deviation{Tolerance: tol})
	}
	return parts, nil
}

// factor resolves one gauss() factor: a declared parameter name, else a literal.
func (g *paramGroups) factor(n *Normalizer, text string) float64 {
	text = strings.TrimSpace(text)
	if v, ok := g.declared[strings.ToUpper(text)]; ok {
		return v
	}
	return n.Value(text)
}

package dataprocessing

import (
	"regexp"
	"strings"

	"wcabridge/pkg/contracts/domain"
)

const paramDirective = ".param"

var (
	toleranceParam   = regexp.MustCompile(`^TOL[RCL]\w*$`)
	temperatureParam = regexp.MustCompile(`^(?:TC|TEMP)`)
	ageingParam      = regexp.MustCompile(`^AGE`)
	radiationParam   = regexp.MustCompile(`^RAD`)

	spacedAssign = regexp.MustCompile(`\s*=\s*`)
)

// paramGroups holds the .param declarations of one netlist, split by the
// deviation axis their name selects.
type paramGroups struct {
	declared map[string]float64
	axes     [domain.AxisCount]map[string]float64
}

func newParamGroups() *paramGroups {
	g := &paramGroups{declared: make(map[string]float64)}
	for i := range g.axes {
		g.axes[i] = make(map[string]float64)
	}
	return g
}

// deviation resolves a Monte-Carlo group name against the four axis tables.
func (g *paramGroups) deviation(name string) domain.Deviation {
	var dev domain.Deviation
	for i, table := range g.axes {
		dev = dev.WithAxis(i, table[name])
	}
	return dev
}

// paramAxis returns the deviation axis a parameter name belongs to, or -1.
func paramAxis(key string) int {
	switch {
	case toleranceParam.MatchString(key):
		return domain.AxisTolerance
	case temperatureParam.MatchString(key):
		return domain.AxisTemperature
	case ageingParam.MatchString(key):
		return domain.AxisAgeing
	case radiationParam.MatchString(key):
		return domain.AxisRadiation
	}
	return -1
}

// stripComment drops everything after the ';' comment marker.
func stripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// scanParams is the first pass: every .param key=value becomes a nominal value
// with itself as package, and deviation parameters fill the group tables.
func scanParams(lines []string, norm *Normalizer, parts *domain.PartSet) *paramGroups {
	groups := newParamGroups()
	for _, raw := range lines {
		line := stripComment(raw)
		if len(line) < len(paramDirective) || !strings.EqualFold(line[:len(paramDirective)], paramDirective) {
			continue
		}
		body := spacedAssign.ReplaceAllString(line[len(paramDirective):], "=")
		for _, tok := range strings.Fields(body) {
			k, v, ok := strings.Cut(tok, "=")
			key := strings.ToUpper(strings.TrimSpace(k))
			if !ok || key == "" {
				continue
			}
			val := norm.WithRef(key).Value(v)
			groups.declared[key] = val

			var dev domain.Deviation
			if axis := paramAxis(key); axis >= 0 {
				groups.axes[axis][key] = val
				dev = dev.WithAxis(axis, val)
			}
			parts.Set(key, val, key, dev)
		}
	}
	return groups
}

// componentLine is one R/C/L line of the second pass.
type componentLine struct {
	ref   string
	token string // value token: 4th if present, else 3rd
	field string // value token through end of line, for annotations split by spaces
}

// scanComponents is the second pass. Lines starting with any rune in skip are
// ignored, as are lines too short to carry a value.
func scanComponents(lines []string, skip string) []componentLine {
	var out []componentLine
	for _, raw := range lines {
		line := stripComment(raw)
		if line == "" || strings.ContainsRune(skip, rune(line[0])) {
			continue
		}
		toks := strings.Fields(line)
		if len(toks) < 3 {
			continue
		}
		ref := strings.ToUpper(toks[0])
		if !strings.ContainsRune("RCL", rune(ref[0])) {
			continue
		}
		c := componentLine{ref: ref, token: toks[2], field: toks[2]}
		if len(toks) > 3 {
			c.token = toks[3]
			c.field = strings.Join(toks[3:], " ")
		}
		out = append(out, c)
	}
	return out
}

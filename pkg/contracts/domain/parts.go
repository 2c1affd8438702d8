package domain

import (
	"sort"
	"strings"
)

// TolerancePrefix marks Monte-Carlo tolerance parameters. They are kept in the
// parts set (they feed deviation aggregation) but never written to Parts Value.
const TolerancePrefix = "TOL"

// PartSet is the canonical triple produced by every dialect parser:
// nominal values, package labels and per-reference deviation tuples.
type PartSet struct {
	Values     map[string]float64   `json:"values"`
	Packages   map[string]string    `json:"packages"`
	Deviations map[string]Deviation `json:"deviations"`
}

// NewPartSet returns an empty part set.
func NewPartSet() *PartSet {
	return &PartSet{
		Values:     make(map[string]float64),
		Packages:   make(map[string]string),
		Deviations: make(map[string]Deviation),
	}
}

// Set records a reference. A later call for the same reference overwrites it.
func (p *PartSet) Set(ref string, value float64, pkg string, dev Deviation) {
	p.Values[ref] = value
	p.Packages[ref] = pkg
	p.Deviations[ref] = dev
}

// Len returns the number of references.
func (p *PartSet) Len() int {
	return len(p.Values)
}

// Refs returns all references in sorted order.
func (p *PartSet) Refs() []string {
	refs := make([]string, 0, len(p.Values))
	for ref := range p.Values {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// PartsValueRow is one row of the Parts Value sheet: variable, type, value.
type PartsValueRow struct {
	Variable string  `json:"variable"`
	Type     string  `json:"type"`
	Value    float64 `json:"value"`
}

// Dataset is the canonical dataset written to the workbook.
type Dataset struct {
	Parts      *PartSet           `json:"parts"`
	Deviations []PackageDeviation `json:"deviations"`
	Transfer   string             `json:"transfer"`
}

// PartsValueRows returns the Parts Value rows sorted by reference, leaving out
// tolerance parameters.
func (d *Dataset) PartsValueRows() []PartsValueRow {
	if d.Parts == nil {
		return nil
	}
	var rows []PartsValueRow
	for _, ref := range d.Parts.Refs() {
		if strings.HasPrefix(ref, TolerancePrefix) {
			continue
		}
		rows = append(rows, PartsValueRow{
			Variable: ref,
			Type:     d.Parts.Packages[ref],
			Value:    d.Parts.Values[ref],
		})
	}
	return rows
}

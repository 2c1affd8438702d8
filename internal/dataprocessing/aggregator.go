package dataprocessing

import (
	"sort"

	"wcabridge/pkg/contracts/domain"
)

// AggregateDeviations collapses per-reference deviation tuples into one record
// per package label. For every axis the first nonzero value, in sorted
// reference order, wins; axes left at zero take the package default when the
// label is known.
func AggregateDeviations(parts *domain.PartSet, defaults PackageDefaults) []domain.PackageDeviation {
	if parts == nil {
		return nil
	}
	byPackage := make(map[string]domain.Deviation)
	for _, ref := range parts.Refs() {
		pkg := parts.Packages[ref]
		cur := byPackage[pkg]
		src := parts.Deviations[ref]
		for axis := 0; axis < domain.AxisCount; axis++ {
			if cur.Axis(axis) == 0 && src.Axis(axis) != 0 {
				cur = cur.WithAxis(axis, src.Axis(axis))
			}
		}
		byPackage[pkg] = cur
	}

	out := make([]domain.PackageDeviation, 0, len(byPackage))
	for pkg, dev := range byPackage {
		if def, ok := defaults[pkg]; ok {
			for axis := 0; axis < domain.AxisCount; axis++ {
				if dev.Axis(axis) == 0 {
					dev = dev.WithAxis(axis, def.Axis(axis))
				}
			}
		}
		out = append(out, domain.PackageDeviation{Package: pkg, Deviation: dev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}

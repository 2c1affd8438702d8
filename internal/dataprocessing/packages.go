package dataprocessing

import (
	"regexp"
	"strings"

	"wcabridge/pkg/contracts/domain"
)

// Package labels inferred for simple R/C/L references.
const (
	PackagePrecisionResistor = "RM0805"
	PackageResistor          = "P0805"
	PackageCapacitor         = "C0805"
	PackageInductor          = "L0805"
)

// precisionTolerance is the largest tolerance still classed as a precision resistor.
const precisionTolerance = 0.01

var simpleRef = regexp.MustCompile(`(?i)^([RCL])\d+$`)

// PackageFor returns the package label of ref when no tolerance is known.
func PackageFor(ref string) string {
	return guessPackage(ref, 0, false)
}

// PackageForTolerance returns the package label of ref given its tolerance fraction.
func PackageForTolerance(ref string, tol float64) string {
	return guessPackage(ref, tol, true)
}

func guessPackage(ref string, tol float64, hasTol bool) string {
	m := simpleRef.FindStringSubmatch(ref)
	if m == nil {
		return ref
	}
	switch strings.ToUpper(m[1]) {
	case "R":
		if hasTol && tol <= precisionTolerance {
			return PackagePrecisionResistor
		}
		return PackageResistor
	case "C":
		return PackageCapacitor
	case "L":
		return PackageInductor
	}
	return ref
}

// PackageDefaults holds the deviation tuple used to back-fill empty axes of a package.
type PackageDefaults map[string]domain.Deviation

// DefaultPackageDefaults returns a fresh copy of the built-in package defaults.
func DefaultPackageDefaults() PackageDefaults {
	return PackageDefaults{
		PackagePrecisionResistor: {Tolerance: 1e-2, Temperature: 100e-6},
		PackageResistor:          {Tolerance: 2e-3, Temperature: 10e-6},
		PackageCapacitor:         {Tolerance: 5e-2, Temperature: 200e-6},
	}
}

// Merge returns the defaults with overrides applied on top.
func (d PackageDefaults) Merge(overrides map[string]domain.Deviation) PackageDefaults {
	out := make(PackageDefaults, len(d)+len(overrides))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

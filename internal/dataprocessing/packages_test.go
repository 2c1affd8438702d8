package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wcabridge/pkg/contracts/domain"
)

func TestPackageClassification(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		tol  *float64
		want string
	}{
		{name: "precision resistor", ref: "R5", tol: float64Ptr(0.005), want: PackagePrecisionResistor},
		{name: "boundary resistor", ref: "R5", tol: float64Ptr(0.01), want: PackagePrecisionResistor},
		{name: "standard resistor", ref: "R5", tol: float64Ptr(0.02), want: PackageResistor},
		{name: "resistor without tolerance", ref: "R5", want: PackageResistor},
		{name: "lower case resistor", ref: "r12", tol: float64Ptr(0.05), want: PackageResistor},
		{name: "capacitor", ref: "C10", want: PackageCapacitor},
		{name: "inductor", ref: "L3", tol: float64Ptr(0.2), want: PackageInductor},
		{name: "other designator", ref: "U1", want: "U1"},
		{name: "parameter name", ref: "TOLR", want: "TOLR"},
		{name: "suffixed reference", ref: "R1A", want: "R1A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tol == nil {
				assert.Equal(t, tt.want, PackageFor(tt.ref))
				return
			}
			assert.Equal(t, tt.want, PackageForTolerance(tt.ref, *tt.tol))
		})
	}
}

func TestPackageDefaultsMerge(t *testing.T) {
	base := DefaultPackageDefaults()
	merged := base.Merge(map[string]domain.Deviation{
		PackageCapacitor: {Tolerance: 0.1},
		"SOT23":          {Tolerance: 0.03},
	})

	assert.Equal(t, domain.Deviation{Tolerance: 0.1}, merged[PackageCapacitor])
	assert.Equal(t, domain.Deviation{Tolerance: 0.03}, merged["SOT23"])
	assert.Equal(t, base[PackageResistor], merged[PackageResistor])
	assert.Equal(t, domain.Deviation{Tolerance: 5e-2, Temperature: 200e-6}, base[PackageCapacitor], "base must be unchanged")
}

func float64Ptr(v float64) *float64 { return &v }

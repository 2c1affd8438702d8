package domain

// Deviation axes in the order they appear in the Parts Deviation sheet.
const (
	AxisTolerance = iota
	AxisTemperature
	AxisAgeing
	AxisRadiation

	AxisCount
)

// Deviation is the per-component (or per-package) deviation tuple.
// Every field defaults to 0.0 when the source does not specify it.
type Deviation struct {
	Tolerance   float64 `json:"tolerance" yaml:"tolerance"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	Ageing      float64 `json:"ageing" yaml:"ageing"`
	Radiation   float64 `json:"radiation" yaml:"radiation"`
}

// Axis returns the value of axis i (AxisTolerance..AxisRadiation).
func (d Deviation) Axis(i int) float64 {
	switch i {
	case AxisTolerance:
		return d.Tolerance
	case AxisTemperature:
		return d.Temperature
	case AxisAgeing:
		return d.Ageing
	case AxisRadiation:
		return d.Radiation
	}
	return 0
}

// WithAxis returns a copy of d with axis i set to v.
func (d Deviation) WithAxis(i int, v float64) Deviation {
	switch i {
	case AxisTolerance:
		d.Tolerance = v
	case AxisTemperature:
		d.Temperature = v
	case AxisAgeing:
		d.Ageing = v
	case AxisRadiation:
		d.Radiation = v
	}
	return d
}

// IsZero reports whether no axis carries a value.
func (d Deviation) IsZero() bool {
	return d == Deviation{}
}

// Values returns the four axes as a slice, in sheet column order.
func (d Deviation) Values() []float64 {
	return []float64{d.Tolerance, d.Temperature, d.Ageing, d.Radiation}
}

// PackageDeviation is one aggregated row of the Parts Deviation sheet.
type PackageDeviation struct {
	Package string `json:"package"`
	Deviation
}

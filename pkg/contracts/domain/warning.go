package domain

// WarningKind classifies a soft conversion problem.
type WarningKind string

const (
	WarningNonNumeric    WarningKind = "non_numeric"
	WarningUnknownSuffix WarningKind = "unknown_suffix"
	WarningParseFailure  WarningKind = "parse_failure"
	WarningCSVValue      WarningKind = "csv_value"
	WarningCSVTolerance  WarningKind = "csv_tolerance"
)

// Warning describes one value that could not be interpreted confidently.
// Warnings never stop a conversion.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Input   string      `json:"input"`
	Ref     string      `json:"ref,omitempty"`
	Message string      `json:"message"`
}

// String returns the human readable message.
func (w Warning) String() string {
	return w.Message
}

package dataprocessing

import (
	"fmt"

	"wcabridge/pkg/contracts/domain"
)

// WarningLog collects soft conversion problems in arrival order. A log belongs to
// a single conversion call; it is not safe for concurrent use.
type WarningLog struct {
	warnings []domain.Warning
}

// NewWarningLog creates an empty log.
func NewWarningLog() *WarningLog {
	return &WarningLog{}
}

// Add appends a warning. Adding to a nil log is a no-op.
func (l *WarningLog) Add(kind domain.WarningKind, input, ref, format string, args ...any) {
	if l == nil {
		return
	}
	l.warnings = append(l.warnings, domain.Warning{
		Kind:    kind,
		Input:   input,
		Ref:     ref,
		Message: fmt.Sprintf(format, args...),
	})
}

// Warnings returns a copy of the collected warnings.
func (l *WarningLog) Warnings() []domain.Warning {
	if l == nil || len(l.warnings) == 0 {
		return nil
	}
	out := make([]domain.Warning, len(l.warnings))
	copy(out, l.warnings)
	return out
}

// Len returns the number of collected warnings.
func (l *WarningLog) Len() int {
	if l == nil {
		return 0
	}
	return len(l.warnings)
}

package wca

import (
	"context"
	"errors"
)

var (
	// ErrNoActiveWorksheet is returned when the host has no worksheet open.
	ErrNoActiveWorksheet = errors.New("no active worksheet in the WCA host")
	// ErrUnknownVariable is returned when a worksheet has no variable of that name.
	ErrUnknownVariable = errors.New("variable not defined in worksheet")
)

// Connector attaches to a running WCA host or launches one.
type Connector interface {
	Connect(ctx context.Context) (Application, error)
}

// Application is a connected WCA host.
type Application interface {
	// Open loads a template worksheet and makes it active.
	Open(path string) error
	ActiveWorksheet() (Worksheet, error)
}

// Worksheet is the document whose variables receive the dataset values.
type Worksheet interface {
	// FullName is the absolute path of the worksheet file.
	FullName() string
	SetRealValue(name string, value float64) error
	Synchronize() error
	ResumeCalculation() error
}

// Saver is implemented by worksheets that keep assigned values in memory
// until they are written back.
type Saver interface {
	Save() error
}

package services

import "errors"

// Conversion service errors
var (
	ErrConversionNotFound = errors.New("conversion not found")
	ErrNoInputFiles       = errors.New("no input files")
)

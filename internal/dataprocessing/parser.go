package dataprocessing

import "wcabridge/pkg/contracts/domain"

// Parser turns one source file into the canonical part set. Soft problems go
// to log; only structural failures are returned as errors.
type Parser interface {
	Dialect() domain.Dialect
	Parse(src Source, log *WarningLog) (*domain.PartSet, error)
}

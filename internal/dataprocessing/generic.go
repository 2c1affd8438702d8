package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "wcabridge/internal/errors"
	"wcabridge/pkg/contracts/domain"
)

// GenericCSVParser reads headerless "ref,value[,tolerance%]" rows. Values are
// plain numbers; engineering suffixes are not interpreted.
type GenericCSVParser struct{}

// Dialect implements Parser.
func (GenericCSVParser) Dialect() domain.Dialect { return domain.DialectCSV }

// Parse implements Parser.
func (GenericCSVParser) Parse(src Source, log *WarningLog) (*domain.PartSet, error) {
	r := csv.NewReader(strings.NewReader(src.Text()))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	parts := domain.NewPartSet()
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("%s: malformed csv row", src.Name), err).
				WithContext("source", src.Name)
		}
		if len(rec) < 2 {
			continue
		}
		ref := strings.ToUpper(strings.TrimSpace(rec[0]))
		if ref == "" {
			continue
		}

		valText := strings.TrimSpace(rec[1])
		value, err := strconv.ParseFloat(valText, 64)
		if err != nil {
			log.Add(domain.WarningCSVValue, valText, ref, "non-numeric csv value %q (ref %s)", valText, ref)
			value = 0
		}

		var tol float64
		if len(rec) > 2 {
			if tolText := strings.TrimSpace(rec[2]); tolText != "" {
				pct, err := strconv.ParseFloat(tolText, 64)
				if err != nil {
					log.Add(domain.WarningCSVTolerance, tolText, ref, "non-numeric csv tolerance %q (ref %s)", tolText, ref)
				} else {
					tol = pct / 100
				}
			}
		}
		parts.Set(ref, value, PackageForTolerance(ref, tol), domain.Deviation{Tolerance: tol})
	}
	return parts, nil
}

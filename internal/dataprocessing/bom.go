package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "wcabridge/internal/errors"
	"wcabridge/pkg/contracts/domain"
)

// DefaultSniffLines is how many lines after the header the delimiter sniffer
// inspects.
const DefaultSniffLines = 20

var (
	// ErrHeaderNotFound is returned when no line looks like a BoM header.
	ErrHeaderNotFound = errors.New("bom header with reference and value columns not found")
	// ErrColumnsNotFound is returned when the header lacks reference or value columns.
	ErrColumnsNotFound = errors.New("bom reference/value columns not found")
)

var (
	plainSplit = regexp.MustCompile(`\t+| {2,}`)
	refSplit   = regexp.MustCompile(`[\s,]+`)

	delimiterCandidates = []rune{',', ';', '|'}

	refKeys     = []string{"ref", "design"}
	valueKeys   = []string{"value", "val", "part", "component"}
	tolKeys     = []string{"toler", "tol"}
	tempKeys    = []string{"temp", "temperature", "tc"}
	packageKeys = []string{"package", "footprint", "type"}
)

// BoMParser reads bills of materials: delimited text, whitespace-aligned text
// or spreadsheets.
type BoMParser struct {
	SniffLines int
}

// NewBoMParser returns a parser sniffing sniffLines lines after the header.
func NewBoMParser(sniffLines int) *BoMParser {
	if sniffLines <= 0 {
		sniffLines = DefaultSniffLines
	}
	return &BoMParser{SniffLines: sniffLines}
}

// Dialect implements Parser.
func (p *BoMParser) Dialect() domain.Dialect { return domain.DialectBoM }

// Parse implements Parser.
func (p *BoMParser) Parse(src Source, log *WarningLog) (*domain.PartSet, error) {
	if isSpreadsheet(src.Ext()) {
		return p.parseSpreadsheet(src, log)
	}

	lines := src.Lines()
	hdr := findHeader(lines)
	if hdr < 0 {
		return nil, bomError(src, ErrHeaderNotFound)
	}

	end := hdr + 1 + p.SniffLines
	if end > len(lines) {
		end = len(lines)
	}
	if delim, ok := sniffDelimiter(lines[hdr:end]); ok {
		return p.parseDelimited(src, lines[hdr:], delim, log)
	}
	return p.parsePlain(src, lines[hdr:], log)
}

func bomError(src Source, cause error) error {
	return apperrors.NewParsingError(fmt.Sprintf("%s: %v", src.Name, cause), cause).
		WithContext("source", src.Name)
}

func isSpreadsheet(ext string) bool {
	return ext == ".xlsx" || ext == ".xlsm"
}

// isHeader reports whether text mentions a reference and a value-like column.
func isHeader(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "ref") && containsAny(lower, valueKeys)
}

func findHeader(lines []string) int {
	for i, line := range lines {
		if isHeader(line) {
			return i
		}
	}
	return -1
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// sniffDelimiter picks the candidate delimiter that occurs in the header and
// most consistently in the sample lines. Whitespace is never a delimiter; the
// caller falls back to the aligned-column reader.
func sniffDelimiter(sample []string) (rune, bool) {
	if len(sample) == 0 {
		return 0, false
	}
	var (
		best      rune
		bestScore int
	)
	for _, cand := range delimiterCandidates {
		want := strings.Count(sample[0], string(cand))
		if want == 0 {
			continue
		}
		score := 0
		for _, line := range sample {
			if strings.Count(line, string(cand)) == want {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best, bestScore > 0
}

// columnIndex returns the first header containing any of keys, or -1.
func columnIndex(headers []string, keys []string) int {
	for i, h := range headers {
		if h != "" && containsAny(strings.ToLower(h), keys) {
			return i
		}
	}
	return -1
}

// bomColumns maps the logical BoM columns to record positions.
type bomColumns struct {
	ref, value, tol, temp, pkg int
}

func (c bomColumns) cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (p *BoMParser) parseDelimited(src Source, lines []string, delim rune, log *WarningLog) (*domain.PartSet, error) {
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = delim
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("%s: malformed delimited row", src.Name), err).
				WithContext("source", src.Name)
		}
		records = append(records, rec)
	}
	return tableParts(src, records, log)
}

// tableParts reads a header row followed by data rows, as produced by the
// delimited reader or a spreadsheet sheet.
func tableParts(src Source, records [][]string, log *WarningLog) (*domain.PartSet, error) {
	if len(records) == 0 {
		return nil, bomError(src, ErrHeaderNotFound)
	}
	header := records[0]
	cols := bomColumns{
		ref:   columnIndex(header, refKeys),
		value: columnIndex(header, valueKeys),
		tol:   columnIndex(header, tolKeys),
		temp:  columnIndex(header, tempKeys),
		pkg:   columnIndex(header, packageKeys),
	}
	if cols.ref < 0 || cols.value < 0 {
		return nil, bomError(src, ErrColumnsNotFound)
	}

	norm := NewNormalizer(log)
	parts := domain.NewPartSet()
	for _, row := range records[1:] {
		refs, value := cols.cell(row, cols.ref), cols.cell(row, cols.value)
		if refs == "" || value == "" || !hasDigit(value) {
			continue
		}
		addBoMRow(parts, norm, refs, value, cols.cell(row, cols.tol), cols.cell(row, cols.temp), cols.cell(row, cols.pkg))
	}
	return parts, nil
}

func (p *BoMParser) parsePlain(src Source, lines []string, log *WarningLog) (*domain.PartSet, error) {
	headers := tokenizePlain(strings.ToLower(lines[0]))
	cols := bomColumns{
		ref:   columnIndex(headers, []string{"ref"}),
		value: columnIndex(headers, valueKeys),
		tol:   columnIndex(headers, []string{"tol"}),
		temp:  columnIndex(headers, []string{"temp", "tc"}),
		pkg:   columnIndex(headers, packageKeys),
	}
	if cols.ref < 0 || cols.value < 0 {
		return nil, bomError(src, ErrColumnsNotFound)
	}

	norm := NewNormalizer(log)
	parts := domain.NewPartSet()
	for _, line := range lines[1:] {
		if !hasDigit(line) {
			continue
		}
		toks := tokenizePlain(line)
		if len(toks) <= cols.ref || len(toks) <= cols.value {
			continue
		}
		addBoMRow(parts, norm, toks[cols.ref], toks[cols.value], cols.cell(toks, cols.tol), cols.cell(toks, cols.temp), cols.cell(toks, cols.pkg))
	}
	return parts, nil
}

func (p *BoMParser) parseSpreadsheet(src Source, log *WarningLog) (*domain.PartSet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(src.Data))
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("%s: failed to open workbook", src.Name), err).
			WithContext("source", src.Name)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for i, row := range rows {
			if isHeader(strings.Join(row, " ")) {
				return tableParts(src, rows[i:], log)
			}
		}
	}
	return nil, bomError(src, ErrHeaderNotFound)
}

// addBoMRow expands a possibly multi-reference cell into one entry per
// reference, all sharing the row's value and deviation tuple.
func addBoMRow(parts *domain.PartSet, norm *Normalizer, refs, value, tolText, tempText, pkg string) {
	expanded := splitRefs(refs)
	if len(expanded) == 0 {
		return
	}
	n := norm.WithRef(expanded[0])
	nominal := n.Value(value)

	var dev domain.Deviation
	if tolText != "" {
		dev.Tolerance = n.Value(tolText) / 100
	}
	if tempText != "" {
		dev.Temperature = n.Value(tempText)
	}
	for _, ref := range expanded {
		label := pkg
		if label == "" {
			label = PackageForTolerance(ref, dev.Tolerance)
		}
		parts.Set(ref, nominal, label, dev)
	}
}

func splitRefs(cell string) []string {
	var refs []string
	for _, ref := range refSplit.Split(strings.TrimSpace(cell), -1) {
		if ref != "" {
			refs = append(refs, strings.ToUpper(ref))
		}
	}
	return refs
}

func tokenizePlain(line string) []string {
	var toks []string
	for _, t := range plainSplit.Split(strings.TrimSpace(line), -1) {
		if t != "" {
			toks = append(toks, t)
		}
	}
	return toks
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, isDigit) >= 0
}

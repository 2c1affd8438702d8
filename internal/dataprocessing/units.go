package dataprocessing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"wcabridge/pkg/contracts/domain"
)

// prefixFactors maps an engineering suffix (upper case) to its multiplier.
// M is milli, as in SPICE; mega is MEG.
var prefixFactors = map[string]float64{
	"T":   1e12,
	"G":   1e9,
	"MEG": 1e6,
	"K":   1e3,
	"":    1,
	"M":   1e-3,
	"U":   1e-6,
	"µ":   1e-6,
	"N":   1e-9,
	"P":   1e-12,
	"F":   1e-15,
}

const maxSuffixLetters = 3

var (
	// ErrNoMagnitude is returned when the text holds no digit run at all.
	ErrNoMagnitude = errors.New("no numeric magnitude")
	// ErrBadLiteral is returned when the numeric literal cannot be converted.
	ErrBadLiteral = errors.New("invalid numeric literal")
)

// Magnitude is the lexed form of a value such as "4.7uF".
type Magnitude struct {
	Literal     string
	Suffix      string
	Factor      float64
	KnownSuffix bool
	Value       float64
}

// ParseMagnitude lexes the first magnitude in text: digits, an optional decimal
// separator (comma or dot) with more digits, an optional exponent, then up to
// three suffix letters.
// Embedded-decimal notation is accepted when the suffix is a bare prefix
// directly followed by digits, so "4k7" is 4.7e3 and "2n2" is 2.2e-9, while
// "10k 1%" stays 10e3.
//
// An unknown suffix is not an error: the factor falls back to 1 and
// KnownSuffix is false.
func ParseMagnitude(text string) (Magnitude, error) {
	runes, spaced := stripSpace(text)

	start := -1
	for i, r := range runes {
		if isDigit(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return Magnitude{}, ErrNoMagnitude
	}

	i := scanDigits(runes, start)
	if i+1 < len(runes) && (runes[i] == '.' || runes[i] == ',') && isDigit(runes[i+1]) {
		i = scanDigits(runes, i+1)
	}
	exponent := false
	if e := scanExponent(runes, i); e > i {
		i, exponent = e, true
	}
	literal := string(runes[start:i])

	j := i
	for j < len(runes) && j-i < maxSuffixLetters && isSuffixLetter(runes[j]) {
		j++
	}
	suffix := foldSuffix(runes[i:j])

	if _, ok := prefixFactors[suffix]; ok && suffix != "" && !exponent && !strings.ContainsAny(literal, ".,") &&
		j < len(runes) && isDigit(runes[j]) && !spaced[j] {
		k := scanDigits(runes, j)
		literal = literal + "." + string(runes[j:k])
	}

	m := Magnitude{Literal: literal, Suffix: suffix, Factor: 1}
	if f, ok := prefixFactors[suffix]; ok {
		m.Factor, m.KnownSuffix = f, true
	} else if n := len([]rune(suffix)); n > 1 {
		if f, ok := prefixFactors[string([]rune(suffix)[:n-1])]; ok {
			m.Factor, m.KnownSuffix = f, true
		}
	}

	num, err := strconv.ParseFloat(strings.Replace(literal, ",", ".", 1), 64)
	if err != nil {
		return Magnitude{}, fmt.Errorf("%w %q: %v", ErrBadLiteral, literal, err)
	}
	m.Value = num * m.Factor
	return m, nil
}

// stripSpace drops whitespace from text. spaced[i] reports whether
// whitespace preceded runes[i] in the original text.
func stripSpace(text string) (runes []rune, spaced []bool) {
	gap := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			gap = true
			continue
		}
		runes = append(runes, r)
		spaced = append(spaced, gap)
		gap = false
	}
	return runes, spaced
}

func scanDigits(runes []rune, i int) int {
	for i < len(runes) && isDigit(runes[i]) {
		i++
	}
	return i
}

// scanExponent returns the end of an "e[+-]digits" exponent starting at i,
// or i when there is none.
func scanExponent(runes []rune, i int) int {
	if i >= len(runes) || (runes[i] != 'e' && runes[i] != 'E') {
		return i
	}
	j := i + 1
	if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
		j++
	}
	if j >= len(runes) || !isDigit(runes[j]) {
		return i
	}
	return scanDigits(runes, j)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isMicro(r rune) bool {
	return r == 'µ' || r == 'μ'
}

func isSuffixLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || isMicro(r)
}

// foldSuffix upper-cases ASCII letters and maps both micro signs to 'µ'.
func foldSuffix(runes []rune) string {
	var b strings.Builder
	for _, r := range runes {
		if isMicro(r) {
			b.WriteRune('µ')
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Normalizer converts free-form value strings to floats. It never fails:
// anything it cannot interpret becomes a warning in its log.
type Normalizer struct {
	log *WarningLog
	ref string
}

// NewNormalizer returns a normalizer reporting into log.
func NewNormalizer(log *WarningLog) *Normalizer {
	return &Normalizer{log: log}
}

// WithRef returns a normalizer whose warnings name ref.
func (n *Normalizer) WithRef(ref string) *Normalizer {
	return &Normalizer{log: n.log, ref: ref}
}

// Value returns the magnitude of text, or 0.0 when it has none.
func (n *Normalizer) Value(text string) float64 {
	m, err := ParseMagnitude(text)
	switch {
	case errors.Is(err, ErrNoMagnitude):
		n.warn(domain.WarningNonNumeric, text, "non-numeric value ignored: %q", text)
		return 0
	case err != nil:
		n.warn(domain.WarningParseFailure, text, "could not convert %q to a number", text)
		return 0
	}
	if !m.KnownSuffix {
		n.warn(domain.WarningUnknownSuffix, text, "unknown suffix %q in %q, assuming 1", m.Suffix, text)
	}
	return m.Value
}

func (n *Normalizer) warn(kind domain.WarningKind, text, format string, args ...any) {
	if n.ref != "" {
		format += " (ref %s)"
		args = append(args, n.ref)
	}
	n.log.Add(kind, text, n.ref, format, args...)
}

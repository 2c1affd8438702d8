package dataprocessing

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	apperrors "wcabridge/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Source is one input file held in memory.
type Source struct {
	Name string
	Data []byte
}

// Ext returns the lower-case file extension of the source name.
func (s Source) Ext() string {
	return strings.ToLower(filepath.Ext(s.Name))
}

// ReadSource loads path. A missing file is a structural NOT_FOUND error.
func ReadSource(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Source{}, apperrors.NewNotFoundError(fmt.Sprintf("input file %s", path)).
			WithContext("path", path)
	}
	if err != nil {
		return Source{}, apperrors.NewStorageError(fmt.Sprintf("failed to read %s", path), err)
	}
	return Source{Name: filepath.Base(path), Data: data}, nil
}

// Text decodes the source bytes. UTF-16 (with a BOM, or the BOM-less
// little-endian files LTspice writes) and UTF-8 are recognised; anything else
// is read as Latin-1 so that stray bytes never abort a conversion.
func (s Source) Text() string {
	data := s.Data
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		if out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(data); err == nil {
			return string(out)
		}
	case bytes.HasPrefix(data, utf8BOM):
		return string(data[len(utf8BOM):])
	case looksUTF16LE(data):
		if out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data); err == nil {
			return string(out)
		}
	}
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// Lines returns the decoded text split into lines.
func (s Source) Lines() []string {
	text := strings.ReplaceAll(s.Text(), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// looksUTF16LE reports whether the first bytes look like ASCII stored as UTF-16LE.
func looksUTF16LE(data []byte) bool {
	n := len(data)
	if n > 64 {
		n = 64
	}
	n -= n % 2
	if n < 4 {
		return false
	}
	for i := 0; i < n; i += 2 {
		if data[i+1] != 0 || data[i] == 0 {
			return false
		}
	}
	return true
}

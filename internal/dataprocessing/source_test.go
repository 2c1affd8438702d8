package dataprocessing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wcabridge/internal/errors"
)

func utf16LE(s string, bom bool) []byte {
	var out []byte
	if bom {
		out = append(out, 0xFF, 0xFE)
	}
	for _, r := range s {
		out = append(out, byte(r), 0)
	}
	return out
}

func TestSourceText(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "utf8", data: []byte("R1 a b 4.7µ"), want: "R1 a b 4.7µ"},
		{name: "utf8 bom", data: append([]byte{0xEF, 0xBB, 0xBF}, "R1 a b 1k"...), want: "R1 a b 1k"},
		{name: "utf16 with bom", data: utf16LE("R1 a b 1k", true), want: "R1 a b 1k"},
		{name: "utf16 without bom", data: utf16LE("* netlist", false), want: "* netlist"},
		{name: "latin1", data: []byte{'1', '0', 0xB5}, want: "10µ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Source{Data: tt.data}.Text())
		})
	}
}

func TestSourceLines(t *testing.T) {
	lines := Source{Data: []byte("a\r\nb\rc\n")}.Lines()
	assert.Equal(t, []string{"a", "b", "c", ""}, lines)
}

func TestReadSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Board.NET")
	require.NoError(t, os.WriteFile(path, []byte("R1 a b 1k\n"), 0o644))

	src, err := ReadSource(path)
	require.NoError(t, err)
	assert.Equal(t, "Board.NET", src.Name)
	assert.Equal(t, ".net", src.Ext())

	_, err = ReadSource(filepath.Join(dir, "missing.net"))
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeNotFound, appErr.Type)
}

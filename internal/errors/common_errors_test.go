package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name:        "error without cause",
			appError:    NewNotFoundError("input file board.net"),
			wantMessage: "[NOT_FOUND] input file board.net not found",
		},
		{
			name:        "error with cause",
			appError:    NewParsingError("board.bom", errors.New("bom header not found")),
			wantMessage: "[PARSING] board.bom: bom header not found",
		},
		{
			name:        "automation error",
			appError:    NewAutomationError("no active worksheet", nil),
			wantMessage: "[AUTOMATION] no active worksheet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	sentinel := errors.New("columns not found")
	err := fmt.Errorf("convert: %w", NewParsingError("x.bom", sentinel))

	assert.ErrorIs(t, err, sentinel)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, ErrTypeParsing, appErr.Type)
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeStorage, Message: "write failed"}
	err.WithContext("path", "/tmp/out.xlsx").WithContext("sheet", "Parts Value")

	assert.Equal(t, "/tmp/out.xlsx", err.Context["path"])
	assert.Equal(t, "Parts Value", err.Context["sheet"])
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: errors.New("boom"), want: ""},
		{name: "config", err: NewConfigError("bad yaml", nil), want: ErrTypeConfig},
		{name: "wrapped storage", err: fmt.Errorf("save: %w", NewStorageError("disk full", nil)), want: ErrTypeStorage},
		{name: "validation", err: NewAppValidationError("empty path"), want: ErrTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
			if tt.want != "" {
				assert.True(t, IsType(tt.err, tt.want))
			}
		})
	}
}

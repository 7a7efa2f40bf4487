package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/spaceandtimelabs/sxt-go-sdk/internal/errors"
)

func TestIdentifier(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{name: "schema qualified", input: "SXTDEMO.Customers", shouldErr: false},
		{name: "bare name", input: "my_table_01", shouldErr: false},
		{name: "leading underscore", input: "_tmp", shouldErr: false},
		{name: "leading digit", input: "1table", shouldErr: true},
		{name: "two dots", input: "a.b.c", shouldErr: true},
		{name: "embedded space", input: "my table", shouldErr: true},
		{name: "sql injection", input: "t; DROP TABLE x", shouldErr: true},
		{name: "empty is left to Required", input: "", shouldErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Identifier.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "identifier")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEd25519Key(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		shouldErr bool
	}{
		{name: "base64 key", input: "4G7l7Zu4zTTMsV/p3i7qjNEqf2LV92LSXfntQXWkH+c=", shouldErr: false},
		{name: "hex key", input: "e06ee5ed9bb8cd34ccb15fe9de2eea8cd12a7f62d5f762d25df9ed4175a41fe7", shouldErr: false},
		{name: "short hex", input: "e06ee5ed", shouldErr: true},
		{name: "not hex", input: "zz6ee5ed9bb8cd34ccb15fe9de2eea8cd12a7f62d5f762d25df9ed4175a41fe7", shouldErr: true},
		{name: "32 raw characters", input: "abcdefghijklmnopqrstuvwxyz012345", shouldErr: true},
		{name: "not a string", input: 42, shouldErr: true},
		{name: "empty", input: "", shouldErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Ed25519Key.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNoWhitespace(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{
			name:      "no whitespace",
			input:     "validstring",
			shouldErr: false,
		},
		{
			name:      "leading whitespace",
			input:     " validstring",
			shouldErr: true,
		},
		{
			name:      "trailing whitespace",
			input:     "validstring ",
			shouldErr: true,
		},
		{
			name:      "both leading and trailing",
			input:     " validstring ",
			shouldErr: true,
		},
		{
			name:      "internal spaces allowed",
			input:     "valid string",
			shouldErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NoWhitespace.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotBlank(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{
			name:      "valid string",
			input:     "validstring",
			shouldErr: false,
		},
		{
			name:      "only spaces",
			input:     "   ",
			shouldErr: true,
		},
		{
			name:      "only tabs",
			input:     "\t\t",
			shouldErr: true,
		},
		{
			name:      "only newlines",
			input:     "\n\n",
			shouldErr: true,
		},
		{
			name:      "mixed whitespace",
			input:     " \t\n ",
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NotBlank.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWrapValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error returns nil",
			err:      nil,
			expected: false,
		},
		{
			name:     "wraps validation error",
			err:      assert.AnError,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapValidationError(tt.err)
			if tt.expected {
				assert.Error(t, result)
				assert.Contains(t, result.Error(), "argument error")
				assert.ErrorIs(t, result, apperrors.ErrArgument)
			} else {
				assert.NoError(t, result)
			}
		})
	}
}

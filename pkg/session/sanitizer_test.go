package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizer_SizeLimit(t *testing.T) {
	limit := 16
	sanitize := NewSanitizer(limit)

	tests := []struct {
		name      string
		inputSize int
		wantErr   bool
	}{
		{"Under Limit", limit - 1, false},
		{"Exact Limit", limit, false},
		{"Over Limit", limit + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sanitize(strings.Repeat("a", tt.inputSize))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizer_ControlChars(t *testing.T) {
	sanitize := NewSanitizer(0)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal Text", "SELECT 1;", "SELECT 1;"},
		{"Safe Controls", "SELECT\n\t1;\r\n", "SELECT\n\t1;\r\n"},
		{"ANSI Code", "\x1b[31mSELECT\x1b[0m", "[31mSELECT[0m"},
		{"Null Byte", "SEL\x00ECT", "SELECT"},
		{"Bell", "SELECT 1;\x07", "SELECT 1;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSanitizer_InvalidUTF8(t *testing.T) {
	_, err := NewSanitizer(0)("SELECT '\xff';")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitizer_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")
	sanitize := NewSanitizer(0)

	_, err := sanitize("12345678901")
	assert.Error(t, err)

	_, err = sanitize("12345")
	assert.NoError(t, err)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name      string
		code      int
		output    string
		success   bool
		truncated bool
		errText   string
	}{
		{"OK", 0, "1 row", true, false, ""},
		{"Truncated", 1, "partial", true, true, ""},
		{"Failure With Output", 2, "syntax error", false, false, "syntax error"},
		{"Failure Without Output", -1, "", false, false, "command failed with return code -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := DecodeResult(tt.code, "bustub> ", tt.output)
			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.truncated, res.Truncated())
			assert.Equal(t, tt.errText, res.Error)
			assert.True(t, res.HasReturnCode)
			assert.Equal(t, tt.code, res.ReturnCode)
			assert.Equal(t, "bustub> ", res.Prompt)
		})
	}
}

func TestFailedResult_HasNoReturnCode(t *testing.T) {
	res := FailedResult(ErrEngineNotReady)
	assert.False(t, res.Success)
	assert.False(t, res.HasReturnCode)
	assert.Equal(t, ErrEngineNotReady.Error(), res.Error)
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusUnloaded.Terminal())
	assert.False(t, StatusLoading.Terminal())
	assert.True(t, StatusReady.Terminal())
	assert.True(t, StatusFallback.Terminal())
	assert.Equal(t, "Not initialized", StatusUnloaded.Label())
}

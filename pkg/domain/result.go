package domain

import (
	"fmt"
	"time"
)

// Return codes of the engine's execute export.
const (
	CodeOK        = 0
	CodeTruncated = 1
)

// EngineResult is the decoded outcome of one execute call.
//
// Success holds for return codes 0 and 1. Results produced without reaching
// the engine carry no return code and are never successful.
type EngineResult struct {
	Success       bool          `json:"success"`
	ReturnCode    int           `json:"return_code"`
	HasReturnCode bool          `json:"has_return_code"`
	Prompt        string        `json:"prompt,omitempty"`
	Output        string        `json:"output,omitempty"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Truncated reports whether the engine cut its output at the buffer capacity.
func (r EngineResult) Truncated() bool {
	return r.HasReturnCode && r.ReturnCode == CodeTruncated
}

// DecodeResult maps an engine return code and the two returned strings to a result.
// Code 1 means the output was truncated and is still a success.
func DecodeResult(code int, prompt, output string) EngineResult {
	res := EngineResult{
		ReturnCode:    code,
		HasReturnCode: true,
		Prompt:        prompt,
		Output:        output,
	}
	switch code {
	case CodeOK, CodeTruncated:
		res.Success = true
	default:
		if output != "" {
			res.Error = output
		} else {
			res.Error = fmt.Sprintf("command failed with return code %d", code)
		}
	}
	return res
}

// FailedResult builds a result for a command that never reached the engine.
func FailedResult(err error) EngineResult {
	return EngineResult{Error: err.Error()}
}

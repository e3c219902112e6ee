package session

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize matches the engine's buffer capacity.
const DefaultMaxInputSize = 64 * 1024

// EnvMaxInputSize overrides the input size limit.
const EnvMaxInputSize = "BUSTUB_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer validates a submitted line before it enters the pending buffer.
type Sanitizer func(line string) (string, error)

// NewSanitizer returns a Sanitizer enforcing maxSize bytes per line. A
// non-positive maxSize uses EnvMaxInputSize or DefaultMaxInputSize.
func NewSanitizer(maxSize int) Sanitizer {
	if maxSize <= 0 {
		maxSize = maxInputSizeFromEnv()
	}
	return func(line string) (string, error) {
		return sanitize(line, maxSize)
	}
}

// sanitize rejects oversized or invalid UTF-8 input and strips control
// characters other than newline, tab and carriage return.
func sanitize(input string, limit int) (string, error) {
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxInputSizeFromEnv() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}

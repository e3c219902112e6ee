// Package classify decides how engine output is displayed.
//
// Output that carries block-level markup (tables, preformatted blocks and the
// like) or HTML character escapes is Structured and rendered as one unit.
// Everything else is Plain text split into lines.
package classify

import (
	"regexp"
	"strings"
)

// Kind is the display class of a piece of output.
type Kind int

const (
	Plain Kind = iota
	Structured
)

func (k Kind) String() string {
	if k == Structured {
		return "structured"
	}
	return "plain"
}

var (
	blockTag = regexp.MustCompile(`(?i)</?(table|thead|tbody|tfoot|tr|td|th|caption|pre|div|p|br|ul|ol|li)\b[^>]*>`)
	escape   = regexp.MustCompile(`&(lt|gt|amp|quot|apos|nbsp|#[0-9]+|#x[0-9a-fA-F]+);`)
)

// Classify reports whether text is Structured or Plain.
func Classify(text string) Kind {
	if blockTag.MatchString(text) || escape.MatchString(text) {
		return Structured
	}
	return Plain
}

// ToLines splits text into display units. Structured text is a single unit.
// Plain text is split on line breaks with one trailing empty line dropped.
// Empty text has no units.
func ToLines(text string) []string {
	if text == "" {
		return nil
	}
	if Classify(text) == Structured {
		return []string{text}
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

package domain

import "time"

// LineKind tags a transcript line for presentation.
type LineKind string

const (
	LineInput  LineKind = "input"
	LineOutput LineKind = "output"
	LineError  LineKind = "error"
	LineSystem LineKind = "system"
)

// SessionLine is one immutable transcript entry.
type SessionLine struct {
	ID           string    `json:"id"`
	Kind         LineKind  `json:"kind"`
	Text         string    `json:"text"`
	IsStructured bool      `json:"is_structured"`
	Timestamp    time.Time `json:"timestamp"`
}

package session

// DefaultHistorySize caps the number of remembered statements.
const DefaultHistorySize = 1000

// History is an append-only list of submitted statements, oldest dropped first
// once the cap is reached. Duplicates are kept.
type History struct {
	entries []string
	maxSize int
}

// NewHistory creates a History holding at most maxSize entries.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{maxSize: maxSize}
}

// Add appends a statement.
func (h *History) Add(stmt string) {
	h.entries = append(h.entries, stmt)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
}

// Get returns the entry at index (0 = most recent), or "" when out of range.
func (h *History) Get(index int) string {
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

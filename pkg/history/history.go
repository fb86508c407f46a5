// Package history keeps the session's command history: the line as
// typed and the line after alias and macro expansion, with binary file
// persistence between sessions.
package history

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one executed input.
type Entry struct {
	Raw      string    `cbor:"raw"`      // line as typed
	Expanded string    `cbor:"expanded"` // line after expansion
	At       time.Time `cbor:"at"`
}

// DefaultLimit is the ring size used when none is given.
const DefaultLimit = 1000

// History is a bounded list of entries, oldest first. It is owned by
// the shell's control thread; no locking.
type History struct {
	entries []Entry
	limit   int
}

// New returns a History keeping at most limit entries; limit <= 0
// selects DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Add appends one entry, evicting the oldest past the limit.
func (h *History) Add(raw, expanded string) {
	h.entries = append(h.entries, Entry{Raw: raw, Expanded: expanded, At: time.Now()})
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

// Len returns the number of stored entries.
func (h *History) Len() int { return len(h.entries) }

// All returns a copy of the entries, oldest first.
func (h *History) All() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Get returns the 1-based entry n, counting from the oldest.
func (h *History) Get(n int) (Entry, error) {
	if n < 1 || n > len(h.entries) {
		return Entry{}, fmt.Errorf("history entry %d out of range 1..%d", n, len(h.entries))
	}
	return h.entries[n-1], nil
}

// Last returns up to n most recent entries, oldest first.
func (h *History) Last(n int) []Entry {
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]Entry, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

// Search returns entries whose raw or expanded line contains the
// pattern, case-insensitively, oldest first.
func (h *History) Search(pattern string) []Entry {
	pattern = strings.ToLower(pattern)
	var out []Entry
	for _, e := range h.entries {
		if strings.Contains(strings.ToLower(e.Raw), pattern) ||
			strings.Contains(strings.ToLower(e.Expanded), pattern) {
			out = append(out, e)
		}
	}
	return out
}

// Clear discards all entries.
func (h *History) Clear() { h.entries = nil }

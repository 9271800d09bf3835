package activity

import (
	"fmt"
	"time"
)

// HistorySize is the number of entries kept for the on-screen log.
const HistorySize = 3

// Entry is one line of the on-screen history.
type Entry struct {
	Text      string
	Timestamp string // wall clock MM:SS:mmm at receipt
}

// History is a fixed-capacity FIFO ring. It is not safe for concurrent use;
// State guards it.
type History struct {
	entries []Entry
	size    int
}

// NewHistory creates a history holding at most size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = HistorySize
	}
	return &History{
		entries: make([]Entry, 0, size),
		size:    size,
	}
}

// Append adds e, evicting the oldest entry when full.
func (h *History) Append(e Entry) {
	if len(h.entries) == h.size {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.size-1]
	}
	h.entries = append(h.entries, e)
}

// Entries returns a copy of the entries, oldest first.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return len(h.entries)
}

// FormatTimestamp renders t as minutes:seconds:milliseconds.
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%02d:%02d:%03d", t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
}

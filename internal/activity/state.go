// Package activity holds the most recent gesture and a short history of
// decoded events. It is written by the link supervisor and read by
// presentation code running on its own schedule.
package activity

import (
	"sync"

	"github.com/chaz8081/gesturelink/internal/gesture"
)

// Snapshot is the most-recent-wins view read by renderers.
type Snapshot struct {
	Gesture          gesture.Gesture
	ShouldRedrawIcon bool
	Seq              uint64 // incremented on every Record
}

// State is safe for concurrent use by one writer and many readers.
type State struct {
	mu      sync.RWMutex
	current gesture.Gesture
	redraw  bool
	seq     uint64
	history *History
}

// NewState returns a State showing the unknown gesture.
func NewState() *State {
	return &State{
		current: gesture.Unknown,
		redraw:  true,
		history: NewHistory(HistorySize),
	}
}

// Record applies a decoded event. A repeated unknown gesture does not
// request an icon redraw.
func (s *State) Record(ev gesture.Event) {
	entry := Entry{
		Text:      ev.Text(),
		Timestamp: FormatTimestamp(ev.ObservedAt),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.redraw = !(s.current == ev.Gesture && ev.Gesture == gesture.Unknown)
	s.current = ev.Gesture
	s.seq++
	s.history.Append(entry)
}

// Snapshot returns the current gesture and redraw flag.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Gesture:          s.current,
		ShouldRedrawIcon: s.redraw,
		Seq:              s.seq,
	}
}

// History returns the recorded entries, oldest first.
func (s *State) History() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Entries()
}

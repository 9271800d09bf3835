package action

import (
	"log/slog"

	"github.com/chaz8081/gesturelink/internal/gesture"
)

// Binding is the key tap fired for one gesture.
type Binding struct {
	Key       string
	Modifiers []string
}

// Dispatcher fires bound key taps for incoming gesture events.
type Dispatcher struct {
	tapper        KeyTapper
	bindings      map[gesture.Gesture]Binding
	minConfidence int
}

// NewDispatcher creates a Dispatcher. Events below minConfidence are ignored.
// Panics if tapper is nil (programmer error).
func NewDispatcher(tapper KeyTapper, bindings map[gesture.Gesture]Binding, minConfidence int) *Dispatcher {
	if tapper == nil {
		panic("action: NewDispatcher called with nil tapper")
	}
	return &Dispatcher{
		tapper:        tapper,
		bindings:      bindings,
		minConfidence: minConfidence,
	}
}

// Empty reports whether no gesture is bound.
func (d *Dispatcher) Empty() bool {
	return len(d.bindings) == 0
}

// Handle taps the key bound to ev's gesture, if any. It reports whether a
// tap was attempted. Tap errors are logged.
func (d *Dispatcher) Handle(ev gesture.Event) bool {
	b, ok := d.bindings[ev.Gesture]
	if !ok || ev.Confidence < d.minConfidence {
		return false
	}
	if err := d.tapper.Tap(b.Key, b.Modifiers...); err != nil {
		slog.Error("[ACTION] key tap failed", "gesture", ev.Gesture, "key", b.Key, "error", err)
	} else {
		slog.Debug("[ACTION] key tapped", "gesture", ev.Gesture, "key", b.Key)
	}
	return true
}

// Package render draws the current gesture and the recent history to a
// terminal on a fixed cadence, independent of notification timing.
package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chaz8081/gesturelink/internal/activity"
)

// Source is the read side of activity.State.
type Source interface {
	Snapshot() activity.Snapshot
	History() []activity.Entry
}

// Renderer polls a Source and writes a frame whenever it changed.
type Renderer struct {
	w       io.Writer
	src     Source
	lastSeq uint64
	drawn   bool
}

// New creates a Renderer writing to w.
func New(w io.Writer, src Source) *Renderer {
	return &Renderer{w: w, src: src}
}

// Run redraws every interval until ctx is done.
func (r *Renderer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Tick draws one frame if the source changed since the last frame. It
// reports whether anything was written.
func (r *Renderer) Tick() bool {
	snap := r.src.Snapshot()
	if r.drawn && snap.Seq == r.lastSeq {
		return false
	}
	r.lastSeq = snap.Seq
	r.drawn = true
	fmt.Fprint(r.w, Frame(snap, r.src.History()))
	return true
}

// Frame formats a snapshot and history, newest history entry first.
func Frame(snap activity.Snapshot, history []activity.Entry) string {
	var b strings.Builder
	icon := " "
	if snap.ShouldRedrawIcon {
		icon = "*"
	}
	fmt.Fprintf(&b, "[%s] %s\n", icon, snap.Gesture.Label())
	for i := len(history) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "    (%s) %s\n", history[i].Timestamp, history[i].Text)
	}
	return b.String()
}

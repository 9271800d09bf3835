// Package gesture defines the gesture classes reported by the Neuton
// remote-control peripheral and decodes its notification payloads.
package gesture

import (
	"fmt"
	"time"
)

// Gesture is a gesture class as identified on the wire. The wire id is the
// device-side class index plus one.
type Gesture int

const (
	Idle Gesture = iota + 1
	Unknown
	SwipeRight
	SwipeLeft
	DoubleShake
	DoubleThumb
	RotationRight
	RotationLeft
)

var names = map[Gesture]string{
	Idle:          "IDLE",
	Unknown:       "UNKNOWN",
	SwipeRight:    "SWIPE_RIGHT",
	SwipeLeft:     "SWIPE_LEFT",
	DoubleShake:   "DOUBLE_SHAKE",
	DoubleThumb:   "DOUBLE_THUMB",
	RotationRight: "ROTATION_RIGHT",
	RotationLeft:  "ROTATION_LEFT",
}

var labels = map[Gesture]string{
	Idle:          "NO MOVEMENTS",
	Unknown:       "UNKNOWN GESTURE",
	SwipeRight:    "SWIPE RIGHT",
	SwipeLeft:     "SWIPE LEFT",
	DoubleShake:   "DOUBLE SHAKE",
	DoubleThumb:   "DOUBLE THUMB",
	RotationRight: "ROTATION RIGHT",
	RotationLeft:  "ROTATION LEFT",
}

// All returns every declared gesture in wire order.
func All() []Gesture {
	return []Gesture{Idle, Unknown, SwipeRight, SwipeLeft, DoubleShake, DoubleThumb, RotationRight, RotationLeft}
}

// Valid reports whether g is a declared gesture.
func (g Gesture) Valid() bool {
	return g >= Idle && g <= RotationLeft
}

// String returns the enum name, e.g. "SWIPE_RIGHT".
func (g Gesture) String() string {
	if n, ok := names[g]; ok {
		return n
	}
	return fmt.Sprintf("Gesture(%d)", int(g))
}

// Label returns the human-readable label shown to users.
func (g Gesture) Label() string {
	if l, ok := labels[g]; ok {
		return l
	}
	return g.String()
}

// ParseGesture resolves an enum name such as "SWIPE_LEFT".
func ParseGesture(name string) (Gesture, error) {
	for g, n := range names {
		if n == name {
			return g, nil
		}
	}
	return 0, fmt.Errorf("gesture: unknown gesture name %q", name)
}

// Event is one decoded gesture classification.
type Event struct {
	Gesture    Gesture
	Confidence int // percent, passed through as reported
	ObservedAt time.Time
}

// Text formats the event the way the on-screen history shows it.
func (e Event) Text() string {
	return fmt.Sprintf("%s, %d%%", e.Gesture.Label(), e.Confidence)
}

package gesture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	// ErrMalformed is returned for payloads that are not "<int>,<int>" text.
	ErrMalformed = errors.New("gesture: malformed payload")
	// ErrUnknownGesture is returned when the class index maps to no gesture.
	ErrUnknownGesture = errors.New("gesture: unknown gesture")
)

// Decode parses a raw notification payload of the form
// "<classIndex>,<confidence>". Fields past the second are ignored.
// The confidence is not clamped.
func Decode(raw []byte, at time.Time) (Event, error) {
	if !utf8.Valid(raw) {
		return Event{}, fmt.Errorf("%w: payload is not valid UTF-8", ErrMalformed)
	}
	text := strings.TrimSpace(string(raw))

	fields := strings.Split(text, ",")
	if len(fields) < 2 {
		return Event{}, fmt.Errorf("%w: %q has no confidence field", ErrMalformed, text)
	}

	classIndex, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Event{}, fmt.Errorf("%w: class index %q", ErrMalformed, fields[0])
	}
	confidence, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Event{}, fmt.Errorf("%w: confidence %q", ErrMalformed, fields[1])
	}

	g := Gesture(classIndex + 1)
	if !g.Valid() {
		return Event{}, fmt.Errorf("%w: class index %d", ErrUnknownGesture, classIndex)
	}

	return Event{
		Gesture:    g,
		Confidence: confidence,
		ObservedAt: at,
	}, nil
}

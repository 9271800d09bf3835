// Package action turns recognised gestures into key taps in the active
// application, so the peripheral can act as a presentation remote.
package action

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// KeyTapper presses a key with optional modifiers.
type KeyTapper interface {
	Tap(key string, modifiers ...string) error
}

// RobotgoTapper taps keys through robotgo keystroke simulation.
type RobotgoTapper struct{}

// Compile-time interface satisfaction check.
var _ KeyTapper = RobotgoTapper{}

// Tap presses key while holding modifiers, e.g. Tap("tab", "alt").
func (RobotgoTapper) Tap(key string, modifiers ...string) error {
	args := make([]interface{}, len(modifiers))
	for i, m := range modifiers {
		args[i] = m
	}
	if err := robotgo.KeyTap(key, args...); err != nil {
		return fmt.Errorf("action: key tap %s: %w", key, err)
	}
	return nil
}

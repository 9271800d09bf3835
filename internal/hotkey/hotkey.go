// Package hotkey provides a global quit hotkey using gohook.
package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// Listener watches a global key combination and signals each press.
type Listener struct {
	keys    []string
	pressed chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewListener creates a Listener for the given key combo.
// keys should be lowercase key names (e.g., ["ctrl", "shift", "q"]).
func NewListener(keys []string) *Listener {
	return &Listener{
		keys:    keys,
		pressed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Pressed returns a channel that receives a value when the combo is
// pressed. Presses arriving while one is pending are coalesced.
func (l *Listener) Pressed() <-chan struct{} {
	return l.pressed
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		select {
		case l.pressed <- struct{}{}:
		default: // don't block the hook thread
		}
	})

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}

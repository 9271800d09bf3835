// Command test-action is a manual test for gesture key bindings.
// It waits 3 seconds, then fires the key bound to a gesture.
// Focus the target application before the countdown finishes.
//
// Usage:
//
//	go run ./cmd/test-action [--gesture SWIPE_RIGHT] [--key right] [--mods alt,shift]
package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/chaz8081/gesturelink/internal/action"
	"github.com/chaz8081/gesturelink/internal/gesture"
)

func main() {
	name := flag.String("gesture", "SWIPE_RIGHT", "gesture to simulate")
	key := flag.String("key", "right", "key to bind to the gesture")
	mods := flag.String("mods", "", "comma-separated modifiers")
	flag.Parse()

	g, err := gesture.ParseGesture(*name)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var modifiers []string
	if *mods != "" {
		modifiers = strings.Split(*mods, ",")
	}

	fmt.Printf("Will fire %q for %s in 3 seconds...\n", *key, g.Label())
	fmt.Println("Focus the target application now!")

	for i := 3; i > 0; i-- {
		fmt.Printf("%d...\n", i)
		time.Sleep(time.Second)
	}

	d := action.NewDispatcher(action.RobotgoTapper{}, map[gesture.Gesture]action.Binding{
		g: {Key: *key, Modifiers: modifiers},
	}, 0)
	d.Handle(gesture.Event{Gesture: g, Confidence: 100, ObservedAt: time.Now()})

	fmt.Println("\nDone!")
}

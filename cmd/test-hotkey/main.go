// Command test-hotkey is a manual test for the global quit hotkey.
// Run it, then press the combo to see presses.
// Press Ctrl+C to exit.
//
// Usage:
//
//	go run ./cmd/test-hotkey [--keys ctrl,shift,q]
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chaz8081/gesturelink/internal/hotkey"
)

func main() {
	keysFlag := flag.String("keys", "ctrl,shift,q", "comma-separated key combo")
	flag.Parse()

	keys := strings.Split(*keysFlag, ",")
	fmt.Printf("Listening for %s...\n", strings.Join(keys, "+"))
	fmt.Println("Press Ctrl+C to exit.")

	listener := hotkey.NewListener(keys)

	// Handle Ctrl+C
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\nShutting down...")
		listener.Stop()
	}()

	// Read presses
	go func() {
		for range listener.Pressed() {
			fmt.Println(">>> PRESSED")
		}
	}()

	// Blocks until stopped
	listener.Start()
	fmt.Println("Done.")
}

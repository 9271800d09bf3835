// Command test-scan runs one discovery pass and lists every advertisement
// seen, marking the ones the supervisor would accept.
//
// Usage:
//
//	go run ./cmd/test-scan [--name "Neuton NRF RemoteControl"] [--timeout 5s]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaz8081/gesturelink/internal/ble"
)

func main() {
	name := flag.String("name", ble.DefaultPeripheralName, "target peripheral name")
	timeout := flag.Duration("timeout", 5*time.Second, "scan duration")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter := ble.NewTinyGoAdapter()
	if err := adapter.Enable(); err != nil {
		fmt.Printf("Error: enable adapter: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scanning for %s...\n", *timeout)
	scanCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	devices, err := adapter.Scan(scanCtx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	target := ble.Identity{Name: *name}
	for _, d := range devices {
		mark := " "
		if target.Matches(d.Name) {
			mark = "*"
		}
		fmt.Printf("%s %-20s %4d dBm  %q\n", mark, d.Address, d.RSSI, d.Name)
	}
	fmt.Printf("\n%d devices seen.\n", len(devices))
}

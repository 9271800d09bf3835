package ble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Identity describes the peripheral to look for.
type Identity struct {
	Name string
}

// Matches reports whether an advertised name selects this peripheral. A name
// matches when it equals the target or is a substring of it; unnamed
// advertisements never match.
func (id Identity) Matches(scanned string) bool {
	if scanned == "" {
		return false
	}
	return scanned == id.Name || strings.Contains(id.Name, scanned)
}

// Scanner runs bounded discovery passes.
type Scanner struct {
	adapter Adapter
}

// NewScanner creates a Scanner on top of adapter.
func NewScanner(adapter Adapter) *Scanner {
	return &Scanner{adapter: adapter}
}

// ScanOnce runs one discovery pass of at most timeout and returns the first
// device, in arrival order, matching target. The boolean is false when
// nothing matched.
func (s *Scanner) ScanOnce(ctx context.Context, target Identity, timeout time.Duration) (Device, bool, error) {
	scanCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	devices, err := s.adapter.Scan(scanCtx)
	if err != nil {
		return Device{}, false, fmt.Errorf("ble: scan: %w", err)
	}

	for _, d := range devices {
		if target.Matches(d.Name) {
			slog.Info("[BLE] peripheral found", "target", target.Name, "scanned_as", d.Name, "address", d.Address, "rssi", d.RSSI)
			return d, true, nil
		}
	}
	slog.Debug("[BLE] scan pass finished without a match", "seen", len(devices))
	return Device{}, false, nil
}

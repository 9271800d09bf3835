package ble

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIdentityMatches(t *testing.T) {
	id := Identity{Name: "Neuton NRF RemoteControl"}

	tests := []struct {
		scanned string
		want    bool
	}{
		{"Neuton NRF RemoteControl", true}, // exact
		{"Neuton", true},                   // scanned name is part of the target
		{"NRF Remote", true},
		{"Other", false},
		{"Neuton NRF RemoteControl v2", false}, // target inside scanned does not match
		{"neuton", false},                      // case sensitive
		{"", false},
	}

	for _, tt := range tests {
		if got := id.Matches(tt.scanned); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.scanned, got, tt.want)
		}
	}
}

func TestScanOnceReturnsFirstMatchInArrivalOrder(t *testing.T) {
	adapter := newMockAdapter([]Device{
		{Name: "", Address: "00:00:00:00:00:01"},
		{Name: "Other", Address: "00:00:00:00:00:02"},
		{Name: "Neuton", Address: "00:00:00:00:00:03"},
		{Name: "Neuton NRF RemoteControl", Address: "00:00:00:00:00:04"},
	})
	scanner := NewScanner(adapter)

	d, ok, err := scanner.ScanOnce(context.Background(), Identity{Name: DefaultPeripheralName}, time.Second)
	if err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}
	if !ok {
		t.Fatal("ScanOnce() found nothing")
	}
	if d.Address != "00:00:00:00:00:03" {
		t.Errorf("ScanOnce() address = %q, want first match 00:00:00:00:00:03", d.Address)
	}
}

func TestScanOnceNoMatch(t *testing.T) {
	adapter := newMockAdapter([]Device{{Name: "Other", Address: "00:00:00:00:00:02"}})
	scanner := NewScanner(adapter)

	_, ok, err := scanner.ScanOnce(context.Background(), Identity{Name: DefaultPeripheralName}, time.Second)
	if err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}
	if ok {
		t.Error("ScanOnce() should report no match")
	}
}

func TestScanOnceRespectsTimeout(t *testing.T) {
	adapter := newMockAdapter(nil)
	adapter.scanBlocks = true
	scanner := NewScanner(adapter)

	start := time.Now()
	_, ok, _ := scanner.ScanOnce(context.Background(), Identity{Name: DefaultPeripheralName}, 30*time.Millisecond)
	if ok {
		t.Error("ScanOnce() should not find anything")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("ScanOnce() took %v, should end near its 30ms timeout", elapsed)
	}
}

func TestScanOnceStopsOnCancel(t *testing.T) {
	adapter := newMockAdapter(nil)
	adapter.scanBlocks = true
	scanner := NewScanner(adapter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner.ScanOnce(ctx, Identity{Name: DefaultPeripheralName}, time.Hour)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ScanOnce() did not return after cancel")
	}
}

func TestScanOnceError(t *testing.T) {
	adapter := newMockAdapter(nil)
	adapter.scanErr = errors.New("radio off")
	scanner := NewScanner(adapter)

	_, ok, err := scanner.ScanOnce(context.Background(), Identity{Name: DefaultPeripheralName}, time.Second)
	if err == nil {
		t.Fatal("ScanOnce() should return the adapter error")
	}
	if ok {
		t.Error("ScanOnce() should not report a match on error")
	}
}

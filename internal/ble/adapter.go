// Package ble manages the link to the Neuton remote-control peripheral. It
// scans for the peripheral by advertised name, connects, subscribes to the
// gesture notification characteristic and recovers whenever the link drops.
package ble

import (
	"context"
	"errors"
)

// Default Neuton peripheral identity.
const (
	DefaultPeripheralName     = "Neuton NRF RemoteControl"
	DefaultCharacteristicUUID = "516a51c4-b1e1-47fa-8327-8acaeb3399eb"
)

var (
	ErrConnectFailed          = errors.New("ble: connect failed")
	ErrCharacteristicNotFound = errors.New("ble: characteristic not found")
	ErrSubscribeFailed        = errors.New("ble: subscribe failed")
	ErrDisconnected           = errors.New("ble: peripheral disconnected")
	ErrSessionClosed          = errors.New("ble: session closed")
)

// Characteristic represents a BLE GATT characteristic on a connected peripheral.
type Characteristic interface {
	// UUID returns the characteristic UUID in canonical string form.
	UUID() string
	// Subscribe registers a callback for notifications on this characteristic.
	// The callback runs on a platform-owned goroutine and must not block.
	Subscribe(callback func(data []byte)) error
	// Unsubscribe disables notifications.
	Unsubscribe() error
}

// Device represents a discovered BLE peripheral.
type Device struct {
	Name    string
	Address string
	RSSI    int
}

// Connection represents an active BLE connection to a peripheral.
type Connection interface {
	// DiscoverCharacteristics enumerates every characteristic exposed by
	// every service of the peripheral.
	DiscoverCharacteristics() ([]Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the connection drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the BLE hardware adapter for testing.
type Adapter interface {
	// Enable powers on the BLE adapter.
	Enable() error
	// Scan discovers BLE peripherals until ctx is done and returns every
	// device seen, in arrival order, once per address.
	Scan(ctx context.Context) ([]Device, error)
	// Connect establishes a connection to the device with the given address.
	// A connection that completes after ctx is done must be released.
	Connect(ctx context.Context, address string) (Connection, error)
}

package ble

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// TinyGoAdapter wraps tinygo-org/bluetooth (BlueZ on Linux, CoreBluetooth on
// macOS, WinRT on Windows). Addresses are whatever the platform reports: a
// MAC on Linux and Windows, a CoreBluetooth UUID on macOS.
type TinyGoAdapter struct {
	adapter *bluetooth.Adapter

	// mu protects addresses and connections.
	mu          sync.Mutex
	addresses   map[string]bluetooth.Address // seen during scans
	connections map[string]*tinyGoConnection // keyed by address
}

// NewTinyGoAdapter creates an adapter on the platform default radio.
func NewTinyGoAdapter() *TinyGoAdapter {
	return &TinyGoAdapter{
		adapter:     bluetooth.DefaultAdapter,
		addresses:   make(map[string]bluetooth.Address),
		connections: make(map[string]*tinyGoConnection),
	}
}

func (a *TinyGoAdapter) Enable() error {
	if err := a.adapter.Enable(); err != nil {
		return err
	}

	// The adapter-level handler fires with connected=false when a
	// peripheral drops; route it to the owning connection.
	a.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if connected {
			return
		}
		addr := device.Address.String()
		a.mu.Lock()
		conn, ok := a.connections[addr]
		if ok {
			delete(a.connections, addr)
		}
		a.mu.Unlock()
		if ok {
			conn.fireDisconnect()
		}
	})

	return nil
}

func (a *TinyGoAdapter) Scan(ctx context.Context) ([]Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil
	}

	var mu sync.Mutex
	var devices []Device
	seen := make(map[string]bool)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		// StopScan fails if the scan has not started yet; retry until
		// Scan returns.
		for {
			if err := a.adapter.StopScan(); err == nil {
				return
			}
			select {
			case <-done:
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}()

	err := a.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		addr := result.Address.String()
		mu.Lock()
		defer mu.Unlock()
		if seen[addr] {
			return
		}
		seen[addr] = true
		devices = append(devices, Device{
			Name:    result.LocalName(),
			Address: addr,
			RSSI:    int(result.RSSI),
		})

		a.mu.Lock()
		a.addresses[addr] = result.Address
		a.mu.Unlock()
	})
	close(done)

	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("ble: scan: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	return devices, nil
}

func (a *TinyGoAdapter) Connect(ctx context.Context, address string) (Connection, error) {
	a.mu.Lock()
	addr, ok := a.addresses[address]
	a.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("ble: address %s was not seen in a scan", address)
	}

	// tinygo/bluetooth's Connect blocks with its own timeout and cannot be
	// cancelled, so run it aside and respect ctx here.
	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := a.adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		// Release a connection that completes after we gave up on it.
		go func() {
			if result := <-ch; result.err == nil {
				_ = result.device.Disconnect()
			}
		}()
		return nil, fmt.Errorf("ble: connect to %s: %w", address, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", address, result.err)
		}
		conn := &tinyGoConnection{
			adapter: a,
			address: address,
			device:  result.device,
		}

		a.mu.Lock()
		a.connections[address] = conn
		a.mu.Unlock()

		return conn, nil
	}
}

func (a *TinyGoAdapter) forget(address string, conn *tinyGoConnection) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.connections[address] == conn {
		delete(a.connections, address)
	}
}

// Compile-time check that TinyGoAdapter implements Adapter.
var _ Adapter = (*TinyGoAdapter)(nil)

type tinyGoConnection struct {
	adapter *TinyGoAdapter
	address string
	device  bluetooth.Device

	mu           sync.Mutex
	disconnectCb func()
}

func (c *tinyGoConnection) DiscoverCharacteristics() ([]Characteristic, error) {
	svcs, err := c.device.DiscoverServices(nil)
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}

	var out []Characteristic
	for i := range svcs {
		chars, err := svcs[i].DiscoverCharacteristics(nil)
		if err != nil {
			return nil, fmt.Errorf("ble: discover characteristics: %w", err)
		}
		for j := range chars {
			out = append(out, &tinyGoCharacteristic{char: &chars[j]})
		}
	}
	return out, nil
}

func (c *tinyGoConnection) Disconnect() error {
	c.adapter.forget(c.address, c)
	return c.device.Disconnect()
}

func (c *tinyGoConnection) OnDisconnect(cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectCb = cb
}

func (c *tinyGoConnection) fireDisconnect() {
	c.mu.Lock()
	cb := c.disconnectCb
	c.mu.Unlock()
	if cb != nil {
		cb()
	}
}

type tinyGoCharacteristic struct {
	char *bluetooth.DeviceCharacteristic
}

func (c *tinyGoCharacteristic) UUID() string {
	return c.char.UUID().String()
}

func (c *tinyGoCharacteristic) Subscribe(cb func([]byte)) error {
	return c.char.EnableNotifications(cb)
}

// Unsubscribe passes a nil callback, which tinygo/bluetooth treats as a
// request to stop notifications.
func (c *tinyGoCharacteristic) Unsubscribe() error {
	return c.char.EnableNotifications(nil)
}

package ble

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// DefaultNotificationBuffer is the number of notification payloads queued
// between the platform callback and the supervisor.
const DefaultNotificationBuffer = 16

// Stream carries notification payloads and the disconnect signal of one
// session. Neither channel is ever closed by a send path; Disconnected is
// closed exactly once when the link drops.
type Stream struct {
	Notifications <-chan []byte
	Disconnected  <-chan struct{}
}

// Session owns one connection to one discovered peripheral, from connect
// until Close.
type Session struct {
	adapter Adapter
	device  Device

	notifications chan []byte
	disconnected  chan struct{}
	disconnOnce   sync.Once

	mu     sync.Mutex
	conn   Connection
	char   Characteristic
	closed bool

	closeOnce sync.Once
}

// NewSession prepares a session for device. bufferSize bounds the number of
// undelivered notifications.
func NewSession(adapter Adapter, device Device, bufferSize int) *Session {
	if bufferSize <= 0 {
		bufferSize = DefaultNotificationBuffer
	}
	return &Session{
		adapter:       adapter,
		device:        device,
		notifications: make(chan []byte, bufferSize),
		disconnected:  make(chan struct{}),
	}
}

// Device returns the peripheral this session targets.
func (s *Session) Device() Device {
	return s.device
}

// Connect opens the transport connection. On error the session must be
// discarded.
func (s *Session) Connect(ctx context.Context) error {
	conn, err := s.adapter.Connect(ctx, s.device.Address)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnectFailed, s.device.Address, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Disconnect()
		return ErrSessionClosed
	}
	s.conn = conn
	s.mu.Unlock()

	conn.OnDisconnect(s.markDisconnected)
	return nil
}

// Subscribe locates the characteristic with the given UUID and enables
// notifications on it.
func (s *Session) Subscribe(charUUID string) (Stream, error) {
	s.mu.Lock()
	conn := s.conn
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return Stream{}, ErrSessionClosed
	}
	if conn == nil {
		return Stream{}, fmt.Errorf("%w: not connected", ErrSubscribeFailed)
	}

	chars, err := conn.DiscoverCharacteristics()
	if err != nil {
		return Stream{}, fmt.Errorf("%w: discover characteristics: %w", ErrSubscribeFailed, err)
	}

	var target Characteristic
	for _, c := range chars {
		if strings.EqualFold(c.UUID(), charUUID) {
			target = c
			break
		}
	}
	if target == nil {
		return Stream{}, fmt.Errorf("%w: %s", ErrCharacteristicNotFound, charUUID)
	}

	if err := target.Subscribe(s.onNotification); err != nil {
		return Stream{}, fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = target.Unsubscribe()
		return Stream{}, ErrSessionClosed
	}
	s.char = target
	s.mu.Unlock()

	return Stream{
		Notifications: s.notifications,
		Disconnected:  s.disconnected,
	}, nil
}

// onNotification runs on the platform callback goroutine. The payload is
// copied because platform buffers may be reused.
func (s *Session) onNotification(data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	select {
	case s.notifications <- cp:
	default:
		slog.Warn("[BLE] notification queue full, dropping payload", "address", s.device.Address)
	}
}

func (s *Session) markDisconnected() {
	s.disconnOnce.Do(func() {
		close(s.disconnected)
	})
}

// Close unsubscribes and releases the transport. Unsubscribe and disconnect
// errors are logged and swallowed since the link may already be gone. Safe
// to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		conn, char := s.conn, s.char
		s.conn, s.char = nil, nil
		s.mu.Unlock()

		if char != nil {
			if err := char.Unsubscribe(); err != nil {
				slog.Debug("[BLE] unsubscribe failed", "error", err)
			}
		}
		if conn != nil {
			if err := conn.Disconnect(); err != nil {
				slog.Debug("[BLE] disconnect failed", "error", err)
			}
		}
		s.markDisconnected()
	})
	return nil
}

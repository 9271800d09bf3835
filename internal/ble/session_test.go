package ble

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

var testDevice = Device{Name: "Neuton", Address: "AA:BB:CC:DD:EE:FF", RSSI: -50}

func connectedSession(t *testing.T, adapter *mockAdapter) *Session {
	t.Helper()
	s := NewSession(adapter, testDevice, 4)
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return s
}

func TestSessionConnectFailure(t *testing.T) {
	adapter := newMockAdapter(nil, DefaultCharacteristicUUID)
	adapter.connectErrs = []error{errMockConnect}

	s := NewSession(adapter, testDevice, 4)
	err := s.Connect(context.Background())
	if !errors.Is(err, ErrConnectFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectFailed", err)
	}
	if !errors.Is(err, errMockConnect) {
		t.Errorf("Connect() error should wrap the transport error, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() after failed connect error = %v", err)
	}
}

func TestSessionSubscribeCharacteristicNotFound(t *testing.T) {
	adapter := newMockAdapter(nil, "00002a19-0000-1000-8000-00805f9b34fb")
	s := connectedSession(t, adapter)

	_, err := s.Subscribe(DefaultCharacteristicUUID)
	if !errors.Is(err, ErrCharacteristicNotFound) {
		t.Fatalf("Subscribe() error = %v, want ErrCharacteristicNotFound", err)
	}

	s.Close()
	if got := adapter.latestConnection().disconnectCount(); got != 1 {
		t.Errorf("disconnects = %d, want 1", got)
	}
}

func TestSessionSubscribeDiscoverError(t *testing.T) {
	adapter := newMockAdapter(nil, DefaultCharacteristicUUID)
	s := connectedSession(t, adapter)
	adapter.latestConnection().discoverErr = errors.New("gatt busy")

	_, err := s.Subscribe(DefaultCharacteristicUUID)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Fatalf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestSessionSubscribeBeforeConnect(t *testing.T) {
	s := NewSession(newMockAdapter(nil), testDevice, 4)
	if _, err := s.Subscribe(DefaultCharacteristicUUID); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestSessionSubscribeMatchesUUIDCaseInsensitively(t *testing.T) {
	adapter := newMockAdapter(nil, strings.ToUpper(DefaultCharacteristicUUID))
	s := connectedSession(t, adapter)
	defer s.Close()

	if _, err := s.Subscribe(DefaultCharacteristicUUID); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
}

func TestSessionDeliversNotificationsInOrder(t *testing.T) {
	adapter := newMockAdapter(nil, DefaultCharacteristicUUID)
	s := connectedSession(t, adapter)
	defer s.Close()

	stream, err := s.Subscribe(DefaultCharacteristicUUID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	char := adapter.latestConnection().char(DefaultCharacteristicUUID)
	buf := []byte("2,90")
	char.SimulateNotification(buf)
	buf[0] = '9' // platform buffer reuse must not affect the queued copy
	char.SimulateNotification([]byte("3,80"))

	for _, want := range []string{"2,90", "3,80"} {
		select {
		case got := <-stream.Notifications:
			if string(got) != want {
				t.Errorf("notification = %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("no notification for %q", want)
		}
	}
}

func TestSessionNotificationOverflowDrops(t *testing.T) {
	adapter := newMockAdapter(nil, DefaultCharacteristicUUID)
	s := connectedSession(t, adapter)
	defer s.Close()

	stream, err := s.Subscribe(DefaultCharacteristicUUID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	char := adapter.latestConnection().char(DefaultCharacteristicUUID)
	for i := 0; i < 10; i++ {
		char.SimulateNotification([]byte("1,1")) // must not block
	}
	if got := len(stream.Notifications); got != 4 {
		t.Errorf("queued notifications = %d, want 4 (buffer size)", got)
	}
}

func TestSessionDisconnectSignal(t *testing.T) {
	adapter := newMockAdapter(nil, DefaultCharacteristicUUID)
	s := connectedSession(t, adapter)
	defer s.Close()

	stream, err := s.Subscribe(DefaultCharacteristicUUID)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	conn := adapter.latestConnection()
	conn.SimulateDisconnect()
	conn.SimulateDisconnect() // second callback must not panic

	select {
	case <-stream.Disconnected:
	case <-time.After(time.Second):
		t.Fatal("Disconnected was not closed")
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	adapter := newMockAdapter(nil, DefaultCharacteristicUUID)
	s := connectedSession(t, adapter)

	if _, err := s.Subscribe(DefaultCharacteristicUUID); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	conn := adapter.latestConnection()
	char := conn.char(DefaultCharacteristicUUID)
	char.unsubscribeErr = errors.New("link already gone")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := conn.disconnectCount(); got != 1 {
		t.Errorf("disconnects = %d, want 1", got)
	}
	if _, unsubs := char.counts(); unsubs != 1 {
		t.Errorf("unsubscribes = %d, want 1", unsubs)
	}

	// Notifications racing a closed session are dropped, not panics.
	char.SimulateNotification([]byte("1,1"))

	if _, err := s.Subscribe(DefaultCharacteristicUUID); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Subscribe() after Close error = %v, want ErrSessionClosed", err)
	}
}

func TestSessionCloseBeforeConnectReleasesLateConnection(t *testing.T) {
	adapter := newMockAdapter(nil, DefaultCharacteristicUUID)
	s := NewSession(adapter, testDevice, 4)
	s.Close()

	if err := s.Connect(context.Background()); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Connect() error = %v, want ErrSessionClosed", err)
	}
	if got := adapter.latestConnection().disconnectCount(); got != 1 {
		t.Errorf("late connection disconnects = %d, want 1", got)
	}
}

package ble

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/gesturelink/internal/activity"
	"github.com/chaz8081/gesturelink/internal/gesture"
)

// LinkState is the phase of the supervisor state machine.
type LinkState int

const (
	StateScanning LinkState = iota
	StateConnecting
	StateListening
)

func (s LinkState) String() string {
	switch s {
	case StateScanning:
		return "SCANNING"
	case StateConnecting:
		return "CONNECTING"
	case StateListening:
		return "LISTENING"
	default:
		return "UNKNOWN"
	}
}

// SupervisorOptions configures the supervisor behavior.
type SupervisorOptions struct {
	PeripheralName     string
	CharacteristicUUID string
	ScanTimeout        time.Duration // length of one discovery pass
	ReconnectBackoff   time.Duration // pause after a pass that found nothing
	NotificationBuffer int
	EventBuffer        int

	// OnStateChange, if set, is called on the supervisor goroutine for
	// every transition. It must not block.
	OnStateChange func(from, to LinkState)
}

// DefaultSupervisorOptions returns the stock Neuton settings.
func DefaultSupervisorOptions() SupervisorOptions {
	return SupervisorOptions{
		PeripheralName:     DefaultPeripheralName,
		CharacteristicUUID: DefaultCharacteristicUUID,
		ScanTimeout:        5 * time.Second,
		ReconnectBackoff:   2 * time.Second,
		NotificationBuffer: DefaultNotificationBuffer,
		EventBuffer:        32,
	}
}

// Supervisor drives the SCANNING -> CONNECTING -> LISTENING cycle until its
// context is cancelled. Every failure returns it to SCANNING.
type Supervisor struct {
	adapter  Adapter
	scanner  *Scanner
	activity *activity.State
	opts     SupervisorOptions
	target   Identity

	events chan gesture.Event

	mu    sync.Mutex
	state LinkState

	enabled bool
	now     func() time.Time
}

// NewSupervisor creates a supervisor publishing into state. Zero-valued
// options fall back to the defaults.
func NewSupervisor(adapter Adapter, state *activity.State, opts SupervisorOptions) *Supervisor {
	def := DefaultSupervisorOptions()
	if opts.PeripheralName == "" {
		opts.PeripheralName = def.PeripheralName
	}
	if opts.CharacteristicUUID == "" {
		opts.CharacteristicUUID = def.CharacteristicUUID
	}
	if opts.ScanTimeout <= 0 {
		opts.ScanTimeout = def.ScanTimeout
	}
	if opts.ReconnectBackoff <= 0 {
		opts.ReconnectBackoff = def.ReconnectBackoff
	}
	if opts.NotificationBuffer <= 0 {
		opts.NotificationBuffer = def.NotificationBuffer
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = def.EventBuffer
	}
	if state == nil {
		state = activity.NewState()
	}
	return &Supervisor{
		adapter:  adapter,
		scanner:  NewScanner(adapter),
		activity: state,
		opts:     opts,
		target:   Identity{Name: opts.PeripheralName},
		events:   make(chan gesture.Event, opts.EventBuffer),
		state:    StateScanning,
		now:      time.Now,
	}
}

// Events returns the ordered stream of decoded gestures. Events are dropped
// when the buffer is full.
func (s *Supervisor) Events() <-chan gesture.Event {
	return s.events
}

// State returns the current link state.
func (s *Supervisor) State() LinkState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(to LinkState) {
	s.mu.Lock()
	from := s.state
	s.state = to
	s.mu.Unlock()

	if from == to {
		return
	}
	slog.Info("[BLE] link state", "from", from, "to", to)
	if s.opts.OnStateChange != nil {
		s.opts.OnStateChange(from, to)
	}
}

// Run blocks until ctx is cancelled and returns ctx.Err(). No link error
// ends the loop.
func (s *Supervisor) Run(ctx context.Context) error {
	var (
		device  Device
		session *Session
		stream  Stream
	)

	for {
		if err := ctx.Err(); err != nil {
			if session != nil {
				session.Close()
			}
			return err
		}

		switch s.State() {
		case StateScanning:
			d, ok := s.scan(ctx)
			if !ok {
				if !sleepCtx(ctx, s.opts.ReconnectBackoff) {
					return ctx.Err()
				}
				continue
			}
			device = d
			s.setState(StateConnecting)

		case StateConnecting:
			var err error
			session, stream, err = s.establish(ctx, device)
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("[BLE] connection setup failed, rescanning", "address", device.Address, "error", err)
				}
				session = nil
				s.setState(StateScanning)
				continue
			}
			s.setState(StateListening)

		case StateListening:
			err := s.listen(ctx, stream)
			session.Close()
			session = nil
			if errors.Is(err, ErrDisconnected) {
				slog.Warn("[BLE] disconnected, rescanning", "address", device.Address)
			}
			s.setState(StateScanning)
		}
	}
}

// scan enables the adapter if needed and runs one discovery pass.
func (s *Supervisor) scan(ctx context.Context) (Device, bool) {
	if !s.enabled {
		if err := s.adapter.Enable(); err != nil {
			slog.Error("[BLE] enable adapter", "error", err)
			return Device{}, false
		}
		s.enabled = true
	}

	slog.Debug("[BLE] scanning", "target", s.target.Name, "timeout", s.opts.ScanTimeout)
	d, ok, err := s.scanner.ScanOnce(ctx, s.target, s.opts.ScanTimeout)
	if err != nil && ctx.Err() == nil {
		slog.Warn("[BLE] scan failed", "error", err)
	}
	return d, ok
}

// establish connects and subscribes. On any error the session is already
// closed.
func (s *Supervisor) establish(ctx context.Context, device Device) (*Session, Stream, error) {
	session := NewSession(s.adapter, device, s.opts.NotificationBuffer)

	if err := session.Connect(ctx); err != nil {
		session.Close()
		return nil, Stream{}, err
	}
	slog.Info("[BLE] connected", "address", device.Address)

	stream, err := session.Subscribe(s.opts.CharacteristicUUID)
	if err != nil {
		session.Close()
		return nil, Stream{}, err
	}
	slog.Info("[BLE] subscribed, ready", "characteristic", s.opts.CharacteristicUUID)
	return session, stream, nil
}

// listen handles notifications until the link drops or ctx is done.
func (s *Supervisor) listen(ctx context.Context, stream Stream) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stream.Disconnected:
			return ErrDisconnected
		case raw := <-stream.Notifications:
			s.handleNotification(raw)
		}
	}
}

func (s *Supervisor) handleNotification(raw []byte) {
	ev, err := gesture.Decode(raw, s.now())
	if err != nil {
		slog.Warn("[BLE] dropping notification", "payload", string(raw), "error", err)
		return
	}
	slog.Debug("[BLE] gesture", "gesture", ev.Gesture, "confidence", ev.Confidence)

	s.activity.Record(ev)
	select {
	case s.events <- ev:
	default:
		slog.Warn("[BLE] event channel full, dropping event", "gesture", ev.Gesture)
	}
}

// sleepCtx waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

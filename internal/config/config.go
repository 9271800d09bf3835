package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/chaz8081/gesturelink/internal/ble"
	"github.com/chaz8081/gesturelink/internal/gesture"
)

// Config holds all application configuration.
type Config struct {
	Peripheral PeripheralConfig `yaml:"peripheral"`
	Link       LinkConfig       `yaml:"link"`
	Render     RenderConfig     `yaml:"render"`
	Feed       FeedConfig       `yaml:"feed"`
	Actions    ActionsConfig    `yaml:"actions"`
	QuitKeys   []string         `yaml:"quit_keys"`
	LogLevel   string           `yaml:"log_level"`
}

// PeripheralConfig identifies the device to connect to.
type PeripheralConfig struct {
	Name               string `yaml:"name"`
	CharacteristicUUID string `yaml:"characteristic_uuid"`
}

// LinkConfig holds scan and reconnect timing.
type LinkConfig struct {
	ScanTimeout        time.Duration `yaml:"scan_timeout"`
	ReconnectBackoff   time.Duration `yaml:"reconnect_backoff"`
	NotificationBuffer int           `yaml:"notification_buffer"`
	EventBuffer        int           `yaml:"event_buffer"`
}

// RenderConfig holds terminal display settings.
type RenderConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// FeedConfig holds the WebSocket event feed settings.
type FeedConfig struct {
	ListenAddr string `yaml:"listen_addr"` // empty disables the feed
}

// ActionsConfig maps gestures to key taps.
type ActionsConfig struct {
	MinConfidence int                      `yaml:"min_confidence"`
	Bindings      map[string]BindingConfig `yaml:"bindings"` // keyed by gesture name, e.g. SWIPE_RIGHT
}

// BindingConfig is one key tap, e.g. key "right" or key "tab" with modifiers ["alt"].
type BindingConfig struct {
	Key       string   `yaml:"key"`
	Modifiers []string `yaml:"modifiers"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gesturelink")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with the stock Neuton settings.
func Default() *Config {
	opts := ble.DefaultSupervisorOptions()
	return &Config{
		Peripheral: PeripheralConfig{
			Name:               opts.PeripheralName,
			CharacteristicUUID: opts.CharacteristicUUID,
		},
		Link: LinkConfig{
			ScanTimeout:        opts.ScanTimeout,
			ReconnectBackoff:   opts.ReconnectBackoff,
			NotificationBuffer: opts.NotificationBuffer,
			EventBuffer:        opts.EventBuffer,
		},
		Render: RenderConfig{
			Enabled:  true,
			Interval: 50 * time.Millisecond,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Peripheral.Name == "" {
		return fmt.Errorf("peripheral.name must not be empty")
	}
	if _, err := uuid.Parse(c.Peripheral.CharacteristicUUID); err != nil {
		return fmt.Errorf("peripheral.characteristic_uuid %q is not a UUID: %w", c.Peripheral.CharacteristicUUID, err)
	}

	if c.Link.ScanTimeout <= 0 {
		return fmt.Errorf("link.scan_timeout must be > 0")
	}
	if c.Link.ReconnectBackoff <= 0 {
		return fmt.Errorf("link.reconnect_backoff must be > 0")
	}
	if c.Link.NotificationBuffer <= 0 {
		return fmt.Errorf("link.notification_buffer must be > 0")
	}
	if c.Link.EventBuffer <= 0 {
		return fmt.Errorf("link.event_buffer must be > 0")
	}

	if c.Render.Enabled && c.Render.Interval <= 0 {
		return fmt.Errorf("render.interval must be > 0")
	}

	if err := c.Actions.validate(); err != nil {
		return err
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

func (a ActionsConfig) validate() error {
	if a.MinConfidence < 0 || a.MinConfidence > 100 {
		return fmt.Errorf("actions.min_confidence must be between 0 and 100, got %d", a.MinConfidence)
	}
	names := make([]string, 0, len(a.Bindings))
	for name := range a.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if _, err := gesture.ParseGesture(name); err != nil {
			errs = append(errs, fmt.Errorf("actions.bindings: %w", err))
			continue
		}
		if a.Bindings[name].Key == "" {
			errs = append(errs, fmt.Errorf("actions.bindings.%s.key must not be empty", name))
		}
	}
	return errors.Join(errs...)
}

// CharacteristicUUID returns the configured characteristic UUID in
// canonical lowercase form.
func (c *Config) CharacteristicUUID() string {
	u, err := uuid.Parse(c.Peripheral.CharacteristicUUID)
	if err != nil {
		return c.Peripheral.CharacteristicUUID
	}
	return u.String()
}

// SupervisorOptions converts the link settings for the BLE supervisor.
func (c *Config) SupervisorOptions() ble.SupervisorOptions {
	return ble.SupervisorOptions{
		PeripheralName:     c.Peripheral.Name,
		CharacteristicUUID: c.CharacteristicUUID(),
		ScanTimeout:        c.Link.ScanTimeout,
		ReconnectBackoff:   c.Link.ReconnectBackoff,
		NotificationBuffer: c.Link.NotificationBuffer,
		EventBuffer:        c.Link.EventBuffer,
	}
}

// ParseLogLevel maps a config log level to slog. Unknown values yield info.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

const defaultHeader = `# gesturelink configuration
#
# peripheral.name is matched against advertised names: a scanned name
# matches when it equals this value or is a substring of it.
# Bindings map gesture names (IDLE, UNKNOWN, SWIPE_RIGHT, SWIPE_LEFT,
# DOUBLE_SHAKE, DOUBLE_THUMB, ROTATION_RIGHT, ROTATION_LEFT) to key taps.

`

// WriteDefault writes the default config to DefaultConfigPath. It returns
// the written path, or "" if a config file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(defaultHeader), data...), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

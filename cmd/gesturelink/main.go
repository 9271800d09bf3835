package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/chaz8081/gesturelink/internal/action"
	"github.com/chaz8081/gesturelink/internal/activity"
	"github.com/chaz8081/gesturelink/internal/ble"
	"github.com/chaz8081/gesturelink/internal/config"
	"github.com/chaz8081/gesturelink/internal/feed"
	"github.com/chaz8081/gesturelink/internal/gesture"
	"github.com/chaz8081/gesturelink/internal/hotkey"
	"github.com/chaz8081/gesturelink/internal/render"
)

// shutdownGrace bounds how long we wait for the BLE session to tear down.
const shutdownGrace = 2 * time.Second

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/gesturelink/config.yaml)")
	writeConfig := flag.Bool("write-config", false, "write the default config file and exit")
	flag.Parse()

	if *writeConfig {
		path, err := config.WriteDefault()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if path == "" {
			fmt.Println("Config already exists at", config.DefaultConfigPath())
			return
		}
		fmt.Println("Wrote default config to", path)
		return
	}

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	printBanner(cfg)

	// Signal handling for graceful shutdown
	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	state := activity.NewState()

	// Optional WebSocket feed
	var hub *feed.Hub
	linkMsgs := make(chan feed.Message, 16)
	opts := cfg.SupervisorOptions()
	if cfg.Feed.ListenAddr != "" {
		hub = feed.NewHub()
		go func() {
			if err := hub.Serve(ctx, cfg.Feed.ListenAddr); err != nil {
				log.Printf("ERROR: event feed: %v", err)
			}
		}()
		opts.OnStateChange = func(from, to ble.LinkState) {
			select {
			case linkMsgs <- feed.LinkStateMessage(from, to):
			default:
			}
		}
	}

	dispatcher := action.NewDispatcher(action.RobotgoTapper{}, gestureBindings(cfg.Actions), cfg.Actions.MinConfidence)
	if !dispatcher.Empty() {
		log.Printf("Gesture actions ready (%d bindings, min confidence %d%%)", len(cfg.Actions.Bindings), cfg.Actions.MinConfidence)
	}

	// Start the link supervisor in background
	supervisor := ble.NewSupervisor(ble.NewTinyGoAdapter(), state, opts)
	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	if cfg.Render.Enabled {
		go render.New(os.Stdout, state).Run(ctx, cfg.Render.Interval)
	}

	if len(cfg.QuitKeys) > 0 {
		listener := hotkey.NewListener(cfg.QuitKeys)
		go listener.Start()
		go func() {
			defer listener.Stop()
			select {
			case <-listener.Pressed():
				log.Printf("Quit hotkey %s pressed", strings.Join(cfg.QuitKeys, "+"))
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	log.Printf("Ready! Looking for %q. Ctrl+C to quit.", cfg.Peripheral.Name)

	// Main event loop
	events := supervisor.Events()
	for {
		select {
		case ev := <-events:
			if hub != nil {
				hub.Broadcast(feed.GestureMessage(ev))
			}
			dispatcher.Handle(ev)

		case msg := <-linkMsgs:
			hub.Broadcast(msg)

		case <-ctx.Done():
			log.Println("Shutting down...")
			select {
			case <-supervisorDone:
			case <-time.After(shutdownGrace):
				log.Println("BLE teardown did not finish in time")
			}
			log.Println("Goodbye!")
			os.Exit(0)
		}
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	// No config file, use defaults
	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

// gestureBindings resolves validated binding names to gestures.
func gestureBindings(cfg config.ActionsConfig) map[gesture.Gesture]action.Binding {
	out := make(map[gesture.Gesture]action.Binding, len(cfg.Bindings))
	for name, b := range cfg.Bindings {
		g, err := gesture.ParseGesture(name)
		if err != nil {
			continue
		}
		out[g] = action.Binding{Key: b.Key, Modifiers: b.Modifiers}
	}
	return out
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	feedAddr := cfg.Feed.ListenAddr
	if feedAddr == "" {
		feedAddr = "off"
	}
	fmt.Println("=== gesturelink ===")
	fmt.Printf("  Device:  %s\n", cfg.Peripheral.Name)
	fmt.Printf("  Char:    %s\n", cfg.CharacteristicUUID())
	fmt.Printf("  Scan:    %s pass, %s backoff\n", cfg.Link.ScanTimeout, cfg.Link.ReconnectBackoff)
	fmt.Printf("  Feed:    %s\n", feedAddr)
	fmt.Printf("  Log:     %s\n", cfg.LogLevel)
	fmt.Println("===================")
}

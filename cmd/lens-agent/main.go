// Command lens-agent runs the device-side Lens agent.
//
// The agent keeps a connection to the Lens desktop application alive,
// bootstrapping trust via certificate exchange on first contact. When
// no host is configured it discovers the desktop via mDNS.
//
// Usage:
//
//	lens-agent [flags]
//
// Flags:
//
//	-config string      Configuration file path (YAML)
//	-host string        Desktop address (empty: discover via mDNS)
//	-app string         Application name (default "lens-agent")
//	-device-id string   Stable device identifier
//	-data-dir string    Private data directory (default ~/.lens-agent)
//	-log-level string   Log level: debug, info, warn, error (default "info")
//	-event-log string   Path for the binary diagnostic event log
//	-interactive        Enable interactive command mode
//	-version            Print the protocol version and exit
//
// Examples:
//
//	# Connect to a desktop on the local network via discovery
//	lens-agent -app demo
//
//	# Connect to a known desktop with verbose logging
//	lens-agent -host 192.168.1.20 -app demo -log-level debug
//
//	# Capture a diagnostic event log for later inspection
//	lens-agent -host 192.168.1.20 -app demo -event-log session.llog
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/lens-devtools/lens-go/cmd/lens-agent/interactive"
	"github.com/lens-devtools/lens-go/pkg/client"
	"github.com/lens-devtools/lens-go/pkg/discovery"
	"github.com/lens-devtools/lens-go/pkg/log"
	"github.com/lens-devtools/lens-go/pkg/version"
)

var (
	config       FileConfig
	configFile   string
	interactMode bool
	showVersion  bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&config.Host, "host", "", "Desktop address (empty: discover via mDNS)")
	flag.IntVar(&config.SecurePort, "secure-port", 0, "Secure port (default 8088)")
	flag.IntVar(&config.InsecurePort, "insecure-port", 0, "Insecure bootstrap port (default 8089)")
	flag.StringVar(&config.App, "app", "", "Application name")
	flag.StringVar(&config.Device, "device", "", "Device model (default: hostname)")
	flag.StringVar(&config.DeviceID, "device-id", "", "Stable device identifier")
	flag.StringVar(&config.DataDir, "data-dir", "", "Private data directory")
	flag.StringVar(&config.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&config.EventLog, "event-log", "", "Path for the binary diagnostic event log")
	flag.BoolVar(&interactMode, "interactive", false, "Enable interactive command mode")
	flag.BoolVar(&showVersion, "version", false, "Print the protocol version and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("lens-agent protocol %s\n", version.Current)
		return
	}

	if configFile != "" {
		fileCfg, err := loadFileConfig(configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fileCfg.merge(&config)
	}
	applyDefaults()

	logger := newLogger(config.LogLevel, os.Stderr)

	diag, closeDiag, err := newDiagnostics(logger)
	if err != nil {
		logger.Error("failed to open event log", "error", err)
		os.Exit(1)
	}
	defer closeDiag()

	host := config.Host
	if host == "" {
		found, err := discoverDesktop(logger)
		if err != nil {
			logger.Error("desktop discovery failed", "error", err)
			os.Exit(1)
		}
		host = found.Address()
		if found.Port != 0 {
			config.SecurePort = int(found.Port)
		}
		if !found.Compatible() {
			logger.Warn("desktop advertises an incompatible version",
				"instance", found.InstanceName, "version", found.Version)
		}
		logger.Info("discovered desktop", "instance", found.InstanceName, "address", host)
	}

	agent, err := client.NewClient(client.Config{
		Identity: client.DeviceIdentity{
			OS:       runtime.GOOS,
			Device:   config.Device,
			DeviceID: config.DeviceID,
			App:      config.App,
		},
		Host:                host,
		SecurePort:          config.SecurePort,
		InsecurePort:        config.InsecurePort,
		PrivateAppDirectory: config.DataDir,
		RetryInterval:       time.Duration(config.RetryInterval),
		KeepAliveInterval:   time.Duration(config.KeepAliveInterval),
		Logger:              logger,
		Diagnostics:         diag,
	})
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	agent.SetConnectionHandler(&logHandler{logger: logger})
	agent.SetMessageHandler(func(payload []byte) {
		logger.Info("message from desktop", "payload", string(payload))
	})

	if err := agent.Start(); err != nil {
		logger.Error("failed to start agent", "error", err)
		os.Exit(1)
	}
	logger.Info("agent started", "host", host, "app", config.App)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if interactMode {
		console, err := interactive.New(agent)
		if err != nil {
			logger.Error("failed to start console", "error", err)
			os.Exit(1)
		}
		// Route log output through readline so it doesn't clobber the prompt
		logger = newLogger(config.LogLevel, console.Stdout())
		go console.Run(ctx, cancel)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	agent.Stop()
}

func applyDefaults() {
	if config.App == "" {
		config.App = "lens-agent"
	}
	if config.Device == "" {
		if hostname, err := os.Hostname(); err == nil {
			config.Device = hostname
		} else {
			config.Device = "unknown"
		}
	}
	if config.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		config.DataDir = filepath.Join(home, ".lens-agent")
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// newDiagnostics builds the structured event pipeline: always mirrored
// to the operational logger at debug level, optionally persisted to a
// binary event log file.
func newDiagnostics(logger *slog.Logger) (log.Logger, func(), error) {
	sinks := []log.Logger{log.NewSlogAdapter(logger)}
	closeFn := func() {}

	if config.EventLog != "" {
		fileLogger, err := log.NewFileLogger(config.EventLog)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, fileLogger)
		closeFn = func() { _ = fileLogger.Close() }
	}

	return log.NewMultiLogger(sinks...), closeFn, nil
}

func discoverDesktop(logger *slog.Logger) (*discovery.DesktopService, error) {
	logger.Info("no host configured, browsing for desktops")

	browser := discovery.NewBrowser(discovery.BrowserConfig{})
	defer browser.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), discovery.BrowseTimeout)
	defer cancel()

	return browser.FindFirst(ctx)
}

// logHandler logs trusted-connection transitions.
type logHandler struct {
	logger *slog.Logger
}

func (h *logHandler) OnConnected() {
	h.logger.Info("trusted connection established")
}

func (h *logHandler) OnDisconnected() {
	h.logger.Info("trusted connection lost")
}

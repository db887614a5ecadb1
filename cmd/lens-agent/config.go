package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "2s" parse.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var text string
	if err := value.Decode(&text); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(text)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// FileConfig is the YAML configuration file shape. Command-line flags
// override file values.
type FileConfig struct {
	// Host is the desktop address. Empty enables mDNS discovery.
	Host string `yaml:"host"`

	// SecurePort is the mutually authenticated port.
	SecurePort int `yaml:"secure_port"`

	// InsecurePort is the bootstrap port.
	InsecurePort int `yaml:"insecure_port"`

	// App is the application name reported to the desktop.
	App string `yaml:"app"`

	// Device is the device model reported to the desktop.
	Device string `yaml:"device"`

	// DeviceID is the stable device identifier.
	DeviceID string `yaml:"device_id"`

	// DataDir is the application's private data directory.
	DataDir string `yaml:"data_dir"`

	// RetryInterval is the delay between connection attempts.
	RetryInterval Duration `yaml:"retry_interval"`

	// KeepAliveInterval is the transport ping interval.
	KeepAliveInterval Duration `yaml:"keepalive_interval"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// EventLog is an optional path for the binary diagnostic event log.
	EventLog string `yaml:"event_log"`
}

// loadFileConfig reads and parses a YAML configuration file.
func loadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// merge overlays non-zero file values under the flag values already in
// dst. Flags win; the file fills the gaps.
func (c *FileConfig) merge(dst *FileConfig) {
	if dst.Host == "" {
		dst.Host = c.Host
	}
	if dst.SecurePort == 0 {
		dst.SecurePort = c.SecurePort
	}
	if dst.InsecurePort == 0 {
		dst.InsecurePort = c.InsecurePort
	}
	if dst.App == "" {
		dst.App = c.App
	}
	if dst.Device == "" {
		dst.Device = c.Device
	}
	if dst.DeviceID == "" {
		dst.DeviceID = c.DeviceID
	}
	if dst.DataDir == "" {
		dst.DataDir = c.DataDir
	}
	if dst.RetryInterval == 0 {
		dst.RetryInterval = c.RetryInterval
	}
	if dst.KeepAliveInterval == 0 {
		dst.KeepAliveInterval = c.KeepAliveInterval
	}
	if dst.LogLevel == "" {
		dst.LogLevel = c.LogLevel
	}
	if dst.EventLog == "" {
		dst.EventLog = c.EventLog
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"echolog/internal/domain"
)

// DefaultPollInterval is the cadence of transcription status polls.
const DefaultPollInterval = 2 * time.Second

// DefaultHTTPTimeout bounds one backend request round-trip.
const DefaultHTTPTimeout = 30 * time.Second

// Dir returns the directory holding settings and session files.
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".echolog")
}

// SettingsPath returns the default settings file location.
func SettingsPath() string {
	return filepath.Join(Dir(), "settings.toml")
}

// DefaultSettings returns baseline local configuration for first run.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return domain.Settings{
		BackendURL:    "http://localhost:4000/api",
		CaptureDevice: "default",
		SystemDevice:  "default.monitor",
		OutputDir:     filepath.Join(homeDir, "Documents", "EchoLog"),
		Language:      "auto",
		PollInterval:  DefaultPollInterval.String(),
		HTTPTimeout:   DefaultHTTPTimeout.String(),
	}
}

// Normalize trims user inputs and restores defaults for empty fields.
func Normalize(cfg domain.Settings) domain.Settings {
	def := DefaultSettings()

	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")
	cfg.CaptureDevice = strings.TrimSpace(cfg.CaptureDevice)
	cfg.SystemDevice = strings.TrimSpace(cfg.SystemDevice)
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	cfg.Language = strings.TrimSpace(cfg.Language)

	if cfg.BackendURL == "" {
		cfg.BackendURL = def.BackendURL
	}
	if cfg.CaptureDevice == "" {
		cfg.CaptureDevice = def.CaptureDevice
	}
	if cfg.SystemDevice == "" {
		cfg.SystemDevice = def.SystemDevice
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = def.OutputDir
	}
	if cfg.Language == "" {
		cfg.Language = "auto"
	}
	if _, err := time.ParseDuration(cfg.PollInterval); err != nil {
		cfg.PollInterval = def.PollInterval
	}
	if _, err := time.ParseDuration(cfg.HTTPTimeout); err != nil {
		cfg.HTTPTimeout = def.HTTPTimeout
	}
	return cfg
}

// PollInterval parses the configured poll cadence.
func PollInterval(cfg domain.Settings) time.Duration {
	d, err := time.ParseDuration(cfg.PollInterval)
	if err != nil || d <= 0 {
		return DefaultPollInterval
	}
	return d
}

// HTTPTimeout parses the configured request timeout.
func HTTPTimeout(cfg domain.Settings) time.Duration {
	d, err := time.ParseDuration(cfg.HTTPTimeout)
	if err != nil || d <= 0 {
		return DefaultHTTPTimeout
	}
	return d
}

// Package daemon manages the taskmirror runtime lifecycle and
// configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all runtime configuration.
type Config struct {
	Ledger    LedgerConfig    `toml:"ledger"`
	API       APIConfig       `toml:"api"`
	Mirror    MirrorConfig    `toml:"mirror"`
	Telemetry TelemetryConfig `toml:"telemetry"`
}

// LedgerConfig points at the registry relay.
type LedgerConfig struct {
	Endpoint       string `toml:"endpoint"` // empty means mock (offline) mode
	Caller         string `toml:"caller"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Retries        int    `toml:"retries"`
}

// APIConfig controls the consumer-facing HTTP server.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MirrorConfig controls the local snapshot store and refresh loop.
type MirrorConfig struct {
	Dir                string `toml:"dir"`
	RefreshSeconds     int    `toml:"refresh_seconds"` // 0 disables the loop
	RangeStart         int64  `toml:"range_start"`
	RangeEnd           int64  `toml:"range_end"`
	ScopeToCaller      bool   `toml:"scope_to_caller"`
	DisablePersistence bool   `toml:"disable_persistence"`
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns sensible defaults for a local mirror.
func DefaultConfig() Config {
	return Config{
		Ledger: LedgerConfig{
			TimeoutSeconds: 15,
			Retries:        3,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8460,
		},
		Mirror: MirrorConfig{
			Dir:            mirrorHome(),
			RefreshSeconds: 60,
			RangeStart:     0,
			RangeEnd:       49,
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from ~/.taskmirror/config.toml, falling back
// to defaults.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(mirrorHome(), "config.toml")

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // No config file yet — use defaults
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Ledger.TimeoutSeconds <= 0 {
		cfg.Ledger.TimeoutSeconds = 15
	}
	if cfg.Mirror.RangeEnd < cfg.Mirror.RangeStart {
		return cfg, fmt.Errorf("mirror range [%d, %d] is inverted", cfg.Mirror.RangeStart, cfg.Mirror.RangeEnd)
	}

	return cfg, nil
}

// SaveConfig writes the config to ~/.taskmirror/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(mirrorHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// RequestTimeout returns the per-request ledger timeout.
func (c LedgerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// mirrorHome returns the taskmirror data directory.
func mirrorHome() string {
	if env := os.Getenv("TASKMIRROR_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".taskmirror")
}

// MirrorHome is exported for use by other packages.
func MirrorHome() string {
	return mirrorHome()
}

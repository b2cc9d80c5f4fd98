package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/casement-dev/casement/internal/geometry"
)

// Placement holds the default geometry applied to newly opened windows when a
// request leaves a field unset. Width, height, x and y use the placement value
// syntax: a pixel number, "NN%", or center/min/max for positions.
type Placement struct {
	Display PreferenceList `yaml:"display,omitempty"`
	Width   string         `yaml:"width"`
	Height  string         `yaml:"height"`
	X       string         `yaml:"x"`
	Y       string         `yaml:"y"`
	Padding int            `yaml:"padding"`
}

// Spawn controls how launched processes are matched to the windows they map.
type Spawn struct {
	// AdoptTimeoutMS bounds how long open waits for a spawned process to
	// map a window before giving up.
	AdoptTimeoutMS int `yaml:"adopt_timeout_ms"`
	// PollIntervalMS is the delay between window list polls while adopting.
	PollIntervalMS int `yaml:"poll_interval_ms"`
	// ReconcileIntervalMS is the delay between lifecycle sweeps that detect
	// closed and moved windows.
	ReconcileIntervalMS int `yaml:"reconcile_interval_ms"`
}

func (s Spawn) AdoptTimeout() time.Duration {
	return time.Duration(s.AdoptTimeoutMS) * time.Millisecond
}

func (s Spawn) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalMS) * time.Millisecond
}

func (s Spawn) ReconcileInterval() time.Duration {
	return time.Duration(s.ReconcileIntervalMS) * time.Millisecond
}

// AuditConfig configures the on-disk audit trail.
type AuditConfig struct {
	// Enabled turns audit logging on/off
	Enabled bool `yaml:"enabled,omitempty"`
	// Level controls audit verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// File is the audit file path (default: ~/.local/share/casement/audit.log)
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum audit file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

// Config holds the daemon configuration.
type Config struct {
	Socket     string      `yaml:"socket,omitempty"`
	Display    string      `yaml:"display,omitempty"`
	XAuthority string      `yaml:"xauthority,omitempty"`
	LogLevel   string      `yaml:"log_level"`
	Placement  Placement   `yaml:"placement"`
	Spawn      Spawn       `yaml:"spawn"`
	Audit      AuditConfig `yaml:"audit,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Placement: Placement{
			Width:   "50%",
			Height:  "50%",
			X:       "center",
			Y:       "center",
			Padding: 0,
		},
		Spawn: Spawn{
			AdoptTimeoutMS:      5000,
			PollIntervalMS:      50,
			ReconcileIntervalMS: 500,
		},
	}
}

// GetAuditConfig returns the audit configuration with defaults applied.
func (c *Config) GetAuditConfig() AuditConfig {
	if c == nil {
		return AuditConfig{}
	}
	cfg := c.Audit
	if cfg.File == "" {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			home = os.Getenv("HOME")
		}
		if home == "" {
			home = "."
		}
		cfg.File = filepath.Join(home, ".local/share/casement/audit.log")
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = 3
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	return cfg
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}

	if err := validateSize(c.Placement.Width); err != nil {
		return &ValidationError{Path: "placement.width", Err: err}
	}
	if err := validateSize(c.Placement.Height); err != nil {
		return &ValidationError{Path: "placement.height", Err: err}
	}
	if _, err := geometry.ParseValue(c.Placement.X); err != nil {
		return &ValidationError{Path: "placement.x", Err: err}
	}
	if _, err := geometry.ParseValue(c.Placement.Y); err != nil {
		return &ValidationError{Path: "placement.y", Err: err}
	}
	if c.Placement.Padding < 0 {
		return &ValidationError{Path: "placement.padding", Err: fmt.Errorf("padding must be >= 0")}
	}

	if c.Spawn.AdoptTimeoutMS <= 0 {
		return &ValidationError{Path: "spawn.adopt_timeout_ms", Err: fmt.Errorf("adopt_timeout_ms must be > 0")}
	}
	if c.Spawn.PollIntervalMS <= 0 {
		return &ValidationError{Path: "spawn.poll_interval_ms", Err: fmt.Errorf("poll_interval_ms must be > 0")}
	}
	if c.Spawn.ReconcileIntervalMS <= 0 {
		return &ValidationError{Path: "spawn.reconcile_interval_ms", Err: fmt.Errorf("reconcile_interval_ms must be > 0")}
	}

	if c.Audit.Level != "" {
		switch c.Audit.Level {
		case "debug", "info", "warn", "warning", "error":
		default:
			return &ValidationError{Path: "audit.level", Err: fmt.Errorf("audit.level must be one of: debug, info, warn, error")}
		}
	}
	if c.Audit.MaxSizeMB < 0 {
		return &ValidationError{Path: "audit.max_size_mb", Err: fmt.Errorf("max_size_mb must be >= 0")}
	}
	if c.Audit.MaxFiles < 0 {
		return &ValidationError{Path: "audit.max_files", Err: fmt.Errorf("max_files must be >= 0")}
	}

	return nil
}

// validateSize checks a width/height entry. Position symbols are rejected
// because a window has no "center" width.
func validateSize(raw string) error {
	v, err := geometry.ParseValue(raw)
	if err != nil {
		return err
	}
	switch v.Kind {
	case geometry.Pixels, geometry.Percent:
	default:
		return fmt.Errorf("size must be a pixel or percent value, got %q", raw)
	}
	if v.Amount < 0 {
		return fmt.Errorf("size must be >= 0, got %q", raw)
	}
	return nil
}

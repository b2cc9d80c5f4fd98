package config

import (
	"fmt"
)

// ValidationError points at the config path (and file position, when known)
// that failed validation.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig overlays a merged raw config onto the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Socket != nil {
		cfg.Socket = *raw.Socket
	}
	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.XAuthority != nil {
		cfg.XAuthority = *raw.XAuthority
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}

	if raw.Placement != nil {
		if raw.Placement.Display != nil {
			cfg.Placement.Display = raw.Placement.Display
		}
		if raw.Placement.Width != nil {
			cfg.Placement.Width = *raw.Placement.Width
		}
		if raw.Placement.Height != nil {
			cfg.Placement.Height = *raw.Placement.Height
		}
		if raw.Placement.X != nil {
			cfg.Placement.X = *raw.Placement.X
		}
		if raw.Placement.Y != nil {
			cfg.Placement.Y = *raw.Placement.Y
		}
		if raw.Placement.Padding != nil {
			cfg.Placement.Padding = *raw.Placement.Padding
		}
	}

	if raw.Spawn != nil {
		if raw.Spawn.AdoptTimeoutMS != nil {
			cfg.Spawn.AdoptTimeoutMS = *raw.Spawn.AdoptTimeoutMS
		}
		if raw.Spawn.PollIntervalMS != nil {
			cfg.Spawn.PollIntervalMS = *raw.Spawn.PollIntervalMS
		}
		if raw.Spawn.ReconcileIntervalMS != nil {
			cfg.Spawn.ReconcileIntervalMS = *raw.Spawn.ReconcileIntervalMS
		}
	}

	if raw.Audit != nil {
		if raw.Audit.Enabled != nil {
			cfg.Audit.Enabled = *raw.Audit.Enabled
		}
		if raw.Audit.Level != nil {
			cfg.Audit.Level = *raw.Audit.Level
		}
		if raw.Audit.File != nil {
			cfg.Audit.File = *raw.Audit.File
		}
		if raw.Audit.MaxSizeMB != nil {
			cfg.Audit.MaxSizeMB = *raw.Audit.MaxSizeMB
		}
		if raw.Audit.MaxFiles != nil {
			cfg.Audit.MaxFiles = *raw.Audit.MaxFiles
		}
	}

	return cfg
}

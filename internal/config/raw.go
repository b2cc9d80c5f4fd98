package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	out, err := decodeStringOrList(value, "include")
	if err != nil {
		return err
	}
	*l = out
	return nil
}

// PreferenceList is an ordered display preference. It accepts a single name:
//
//	display: primary
//
// or an ordered list tried left to right:
//
//	display:
//	  - DP-2
//	  - left
type PreferenceList []string

func (l *PreferenceList) UnmarshalYAML(value *yaml.Node) error {
	out, err := decodeStringOrList(value, "display")
	if err != nil {
		return err
	}
	*l = out
	return nil
}

func decodeStringOrList(value *yaml.Node, field string) ([]string, error) {
	switch value.Kind {
	case 0:
		// Not present.
		return nil, nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return nil, fmt.Errorf("%s must be a string or list of strings", field)
		}
		return []string{value.Value}, nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return nil, fmt.Errorf("%s entries must be strings", field)
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be a string or list of strings", field)
	}
}

type RawPlacement struct {
	Display PreferenceList `yaml:"display"`
	Width   *string        `yaml:"width"`
	Height  *string        `yaml:"height"`
	X       *string        `yaml:"x"`
	Y       *string        `yaml:"y"`
	Padding *int           `yaml:"padding"`
}

type RawSpawn struct {
	AdoptTimeoutMS      *int `yaml:"adopt_timeout_ms"`
	PollIntervalMS      *int `yaml:"poll_interval_ms"`
	ReconcileIntervalMS *int `yaml:"reconcile_interval_ms"`
}

type RawAuditConfig struct {
	Enabled   *bool   `yaml:"enabled"`
	Level     *string `yaml:"level"`
	File      *string `yaml:"file"`
	MaxSizeMB *int    `yaml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files"`
}

type RawConfig struct {
	Include    IncludeList     `yaml:"include"`
	Socket     *string         `yaml:"socket"`
	Display    *string         `yaml:"display"`
	XAuthority *string         `yaml:"xauthority"`
	LogLevel   *string         `yaml:"log_level"`
	Placement  *RawPlacement   `yaml:"placement"`
	Spawn      *RawSpawn       `yaml:"spawn"`
	Audit      *RawAuditConfig `yaml:"audit"`
}

// merge overlays non-nil fields of overlay onto c and returns the result.
// Later files win, matching the include ordering in the loader.
func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Socket != nil {
		out.Socket = overlay.Socket
	}
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.XAuthority != nil {
		out.XAuthority = overlay.XAuthority
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}

	if overlay.Placement != nil {
		if out.Placement == nil {
			out.Placement = &RawPlacement{}
		}
		if overlay.Placement.Display != nil {
			out.Placement.Display = overlay.Placement.Display
		}
		if overlay.Placement.Width != nil {
			out.Placement.Width = overlay.Placement.Width
		}
		if overlay.Placement.Height != nil {
			out.Placement.Height = overlay.Placement.Height
		}
		if overlay.Placement.X != nil {
			out.Placement.X = overlay.Placement.X
		}
		if overlay.Placement.Y != nil {
			out.Placement.Y = overlay.Placement.Y
		}
		if overlay.Placement.Padding != nil {
			out.Placement.Padding = overlay.Placement.Padding
		}
	}

	if overlay.Spawn != nil {
		if out.Spawn == nil {
			out.Spawn = &RawSpawn{}
		}
		if overlay.Spawn.AdoptTimeoutMS != nil {
			out.Spawn.AdoptTimeoutMS = overlay.Spawn.AdoptTimeoutMS
		}
		if overlay.Spawn.PollIntervalMS != nil {
			out.Spawn.PollIntervalMS = overlay.Spawn.PollIntervalMS
		}
		if overlay.Spawn.ReconcileIntervalMS != nil {
			out.Spawn.ReconcileIntervalMS = overlay.Spawn.ReconcileIntervalMS
		}
	}

	if overlay.Audit != nil {
		if out.Audit == nil {
			out.Audit = &RawAuditConfig{}
		}
		if overlay.Audit.Enabled != nil {
			out.Audit.Enabled = overlay.Audit.Enabled
		}
		if overlay.Audit.Level != nil {
			out.Audit.Level = overlay.Audit.Level
		}
		if overlay.Audit.File != nil {
			out.Audit.File = overlay.Audit.File
		}
		if overlay.Audit.MaxSizeMB != nil {
			out.Audit.MaxSizeMB = overlay.Audit.MaxSizeMB
		}
		if overlay.Audit.MaxFiles != nil {
			out.Audit.MaxFiles = overlay.Audit.MaxFiles
		}
	}

	return out
}

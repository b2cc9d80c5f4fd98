package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	socket
//	display
//	xauthority
//	log_level
//	placement.width
//	placement.x
//	placement.padding
//	spawn.adopt_timeout_ms
//	audit.enabled
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	// Exact-path file source wins.
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}

	return value, Source{Kind: SourceDefault}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	switch parts[0] {
	case "socket":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.Socket, nil
	case "display":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.Display, nil
	case "xauthority":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.XAuthority, nil
	case "log_level":
		if len(parts) != 1 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		return cfg.LogLevel, nil
	case "placement":
		if len(parts) == 1 {
			return cfg.Placement, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "display":
			return cfg.Placement.Display, nil
		case "width":
			return cfg.Placement.Width, nil
		case "height":
			return cfg.Placement.Height, nil
		case "x":
			return cfg.Placement.X, nil
		case "y":
			return cfg.Placement.Y, nil
		case "padding":
			return cfg.Placement.Padding, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	case "spawn":
		if len(parts) == 1 {
			return cfg.Spawn, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "adopt_timeout_ms":
			return cfg.Spawn.AdoptTimeoutMS, nil
		case "poll_interval_ms":
			return cfg.Spawn.PollIntervalMS, nil
		case "reconcile_interval_ms":
			return cfg.Spawn.ReconcileIntervalMS, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	case "audit":
		if len(parts) == 1 {
			return cfg.Audit, nil
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("unknown path: %s", path)
		}
		switch parts[1] {
		case "enabled":
			return cfg.Audit.Enabled, nil
		case "level":
			return cfg.Audit.Level, nil
		case "file":
			return cfg.Audit.File, nil
		case "max_size_mb":
			return cfg.Audit.MaxSizeMB, nil
		case "max_files":
			return cfg.Audit.MaxFiles, nil
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	default:
		return nil, fmt.Errorf("unknown path: %s", path)
	}
}

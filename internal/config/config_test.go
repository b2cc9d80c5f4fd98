package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Placement.Width != "50%" {
		t.Fatalf("expected default width 50%%, got %q", cfg.Placement.Width)
	}
	if cfg.Spawn.AdoptTimeout() != 5*time.Second {
		t.Fatalf("expected 5s adopt timeout, got %v", cfg.Spawn.AdoptTimeout())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	res, err := LoadFromPath(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.LogLevel != "info" {
		t.Fatalf("expected log_level info, got %q", res.Config.LogLevel)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no loaded files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("# empty\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Placement.X != "center" {
		t.Fatalf("expected placement.x center, got %q", res.Config.Placement.X)
	}
}

func TestLoadFromPath_DisplayAndXAuthority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"display: \":1\"",
		"xauthority: \"/tmp/test-xauth\"",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Display != ":1" {
		t.Fatalf("expected display :1, got %q", res.Config.Display)
	}
	if res.Config.XAuthority != "/tmp/test-xauth" {
		t.Fatalf("expected xauthority /tmp/test-xauth, got %q", res.Config.XAuthority)
	}

	val, src, err := Explain(res, "display")
	if err != nil {
		t.Fatalf("explain display: %v", err)
	}
	if val != ":1" {
		t.Fatalf("expected explain display :1, got %#v", val)
	}
	if src.Kind != SourceFile {
		t.Fatalf("expected display source kind file, got %#v", src)
	}
}

func TestLoadFromPath_PlacementOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := strings.Join([]string{
		"placement:",
		"  width: \"800\"",
		"  display:",
		"    - DP-2",
		"    - left",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Placement.Width != "800" {
		t.Fatalf("expected width 800, got %q", cfg.Placement.Width)
	}
	// Unset fields keep their defaults.
	if cfg.Placement.Height != "50%" {
		t.Fatalf("expected default height, got %q", cfg.Placement.Height)
	}
	if len(cfg.Placement.Display) != 2 || cfg.Placement.Display[0] != "DP-2" {
		t.Fatalf("expected display preference [DP-2 left], got %v", cfg.Placement.Display)
	}
}

func TestLoadFromPath_SingleDisplayString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "placement:\n  display: primary\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Placement.Display) != 1 || res.Config.Placement.Display[0] != "primary" {
		t.Fatalf("expected display preference [primary], got %v", res.Config.Placement.Display)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("unknown_key: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configD, "10-base.yaml"), []byte("placement:\n  padding: 5\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configD, "20-override.yaml"), []byte("placement:\n  padding: 6\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Main file overrides includes.
	path := filepath.Join(dir, "config.yaml")
	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"placement:",
		"  padding: 7",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(main), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Placement.Padding != 7 {
		t.Fatalf("expected padding 7, got %d", res.Config.Placement.Padding)
	}
}

func TestLoadFromPath_IncludeCycleDetected(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(a, []byte("include: b.yaml\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(b, []byte("include: a.yaml\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(a)
	if err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestValidate_BadPlacementValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Placement.Width = "wide"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if verr.Path != "placement.width" {
		t.Fatalf("expected path placement.width, got %q", verr.Path)
	}
}

func TestValidate_SymbolicSizeRejected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Placement.Height = "center"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error for symbolic size")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "placement.height" {
		t.Fatalf("expected placement.height error, got %v", err)
	}
}

func TestValidate_SymbolicPositionAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Placement.X = "max"
	cfg.Placement.Y = "25%"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected symbolic positions to validate, got %v", err)
	}
}

func TestValidate_ErrorIncludesFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "placement:\n  width: \"wide\"\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error with file position, got %v", err)
	}
}

func TestValidate_SpawnIntervals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Spawn.PollIntervalMS = 0

	err := cfg.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "spawn.poll_interval_ms" {
		t.Fatalf("expected spawn.poll_interval_ms error, got %v", err)
	}
}

func TestGetAuditConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()
	ac := cfg.GetAuditConfig()
	if ac.MaxSizeMB != 10 || ac.MaxFiles != 3 {
		t.Fatalf("expected rotation defaults, got %+v", ac)
	}
	if ac.Level != "info" {
		t.Fatalf("expected default level info, got %q", ac.Level)
	}
	if !strings.HasSuffix(ac.File, filepath.Join(".local/share/casement", "audit.log")) {
		t.Fatalf("unexpected default audit file: %q", ac.File)
	}
}

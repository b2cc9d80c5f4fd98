package audit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/casement-dev/casement/internal/route"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Enabled:   true,
		Level:     LevelDebug,
		FilePath:  filepath.Join(t.TempDir(), "casement-audit.log"),
		MaxSizeMB: 1,
		MaxFiles:  3,
	}
}

func TestLogger_WritesEntry(t *testing.T) {
	cfg := testConfig(t)
	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer l.Close()

	l.Log(ActionOpen, "win-1", map[string]interface{}{
		"command": "firefox",
		"pid":     4242,
	})

	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("reading audit file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "[OPEN-WINDOW]") {
		t.Errorf("entry missing action tag: %q", line)
	}
	if !strings.Contains(line, "scope=win-1") {
		t.Errorf("entry missing scope: %q", line)
	}
	// command sorts before pid
	if strings.Index(line, "command=") > strings.Index(line, "pid=") {
		t.Errorf("detail keys not sorted: %q", line)
	}
	if !strings.Contains(line, `command="firefox"`) {
		t.Errorf("string detail not quoted: %q", line)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Level = LevelInfo
	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer l.Close()

	l.Log(ActionDispatch, "", map[string]interface{}{"path": "/ping"})

	data, _ := os.ReadFile(cfg.FilePath)
	if len(data) != 0 {
		t.Errorf("debug entry written despite info level: %q", string(data))
	}

	l.Log(ActionClose, "win-2", nil)
	data, _ = os.ReadFile(cfg.FilePath)
	if !strings.Contains(string(data), "[CLOSE-WINDOW]") {
		t.Errorf("info entry missing: %q", string(data))
	}
}

func TestLogger_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Enabled = false
	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer l.Close()

	l.Log(ActionOpen, "win-1", nil)

	if _, err := os.Stat(cfg.FilePath); !os.IsNotExist(err) {
		t.Error("disabled logger should not create a file")
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	l.Log(ActionOpen, "win-1", nil)
	if err := l.Close(); err != nil {
		t.Errorf("nil Close() error = %v", err)
	}
}

func TestLogger_Rotation(t *testing.T) {
	cfg := testConfig(t)
	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer l.Close()

	// Force the next write to rotate.
	l.currentSize = int64(cfg.MaxSizeMB) * 1024 * 1024
	l.Log(ActionPlace, "win-3", nil)

	if _, err := os.Stat(cfg.FilePath + ".1"); err != nil {
		t.Errorf("rotated file missing: %v", err)
	}
	data, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		t.Fatalf("reading fresh audit file: %v", err)
	}
	if !strings.Contains(string(data), "[PLACE-WINDOW]") {
		t.Errorf("entry not written after rotation: %q", string(data))
	}
}

func TestMiddleware_RecordsAndContinues(t *testing.T) {
	cfg := testConfig(t)
	l, err := NewLogger(cfg)
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer l.Close()

	called := false
	mw := Middleware(l)
	req := &route.Request{Method: route.GET, RawPath: "/status"}
	mw(context.Background(), req, func() { called = true }, func(any) {})

	if !called {
		t.Error("middleware did not call next()")
	}
	data, _ := os.ReadFile(cfg.FilePath)
	if !strings.Contains(string(data), `path="/status"`) {
		t.Errorf("dispatch entry missing path: %q", string(data))
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

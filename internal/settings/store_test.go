package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_MissingFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.All()) != 0 {
		t.Fatalf("expected empty store, got %v", store.All())
	}
	// Nothing mutated, nothing written.
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("expected no file before the first mutation")
	}
}

func TestOpen_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error for corrupt settings file")
	}
}

func TestOpen_NonObjectTopLevelIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`[1,2,3]`), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatalf("expected error for non-object settings document")
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Set("theme", "dark"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set("opacity", 0.9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, ok := store.Get("theme")
	if !ok || v != "dark" {
		t.Fatalf("expected theme=dark, got %v ok=%v", v, ok)
	}

	// A fresh Open sees the persisted state.
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok = reopened.Get("opacity")
	if !ok || v != 0.9 {
		t.Fatalf("expected opacity=0.9 after reopen, got %v ok=%v", v, ok)
	}
}

func TestSet_RewritesPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set("theme", "dark"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "\n") {
		t.Fatalf("expected pretty-printed file, got %q", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Fatalf("expected trailing newline, got %q", text)
	}
}

func TestDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set("theme", "dark"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Delete("theme"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.Get("theme"); ok {
		t.Fatalf("expected theme to be gone")
	}

	// Deleting a key that is not set stays quiet.
	if err := store.Delete("ghost"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGet_DottedPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set("panel.position", "top"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, ok := store.Get("panel.position")
	if !ok || v != "top" {
		t.Fatalf("expected panel.position=top, got %v ok=%v", v, ok)
	}
}

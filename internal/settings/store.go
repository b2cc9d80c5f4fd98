package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// Store persists a flat JSON object of settings. The whole file is read
// once at Open and rewritten in full on every mutation. There is no schema
// versioning; the document is what it is.
type Store struct {
	mu   sync.RWMutex
	path string
	raw  []byte
}

// DefaultPath returns the standard settings location.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "casement", "settings.json"), nil
}

// Open loads the store at path. A missing file starts an empty store. A
// file that does not parse is an error the caller must treat as fatal;
// silently resetting a corrupted settings file would destroy state.
func Open(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Store{path: path, raw: []byte("{}")}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("settings file %s is not valid JSON; fix or remove it", path)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("settings file %s must hold a JSON object at the top level", path)
	}

	return &Store{path: path, raw: data}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Get returns the value at key and whether it is set. Dotted keys reach
// nested values.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := gjson.GetBytes(s.raw, key)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// All returns the decoded document.
func (s *Store) All() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := gjson.ParseBytes(s.raw).Value().(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return doc
}

// Set writes value at key and rewrites the file.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := sjson.SetBytes(s.raw, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return s.commit(updated)
}

// Delete removes key and rewrites the file. Deleting an unset key is not
// an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := sjson.DeleteBytes(s.raw, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return s.commit(updated)
}

func (s *Store) commit(doc []byte) error {
	formatted := pretty.Pretty(doc)
	if len(formatted) == 0 || formatted[len(formatted)-1] != '\n' {
		formatted = append(formatted, '\n')
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, formatted, 0644); err != nil {
		return fmt.Errorf("write settings %s: %w", s.path, err)
	}

	s.raw = formatted
	return nil
}

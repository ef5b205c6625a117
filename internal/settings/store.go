// Package settings persists the small set of user-tunable values that
// outlive a daemon run: a custom server URL, the WSL launch toggle, and the
// Linux display preference.
//
// The backing file is a single JSON document; callers go through typed
// accessors and never see the format. Writes are atomic (temp file + rename)
// so a crash can never leave a half-written document behind.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	keyServerURL     = "defaultServerUrl"
	keyWSLEnabled    = "wslEnabled"
	keyPreferWayland = "display.wayland"
)

// Store reads and writes the persisted settings document.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a store backed by the document at path. The file is created
// lazily on first write.
func Open(path string) *Store {
	return &Store{path: path}
}

// ServerURL returns the saved custom server URL, if any.
func (s *Store) ServerURL() (string, bool) {
	value := s.get(keyServerURL)
	if !value.Exists() || value.String() == "" {
		return "", false
	}
	return value.String(), true
}

// SetServerURL saves the custom server URL. An empty URL clears it.
func (s *Store) SetServerURL(url string) error {
	if url == "" {
		return s.delete(keyServerURL)
	}
	return s.set(keyServerURL, url)
}

// WSLEnabled reports whether the WSL launch path is enabled.
func (s *Store) WSLEnabled() bool {
	return s.get(keyWSLEnabled).Bool()
}

// SetWSLEnabled persists the WSL launch toggle.
func (s *Store) SetWSLEnabled(enabled bool) error {
	return s.set(keyWSLEnabled, enabled)
}

// PreferWayland reports the Linux display preference; ok is false when the
// user never chose.
func (s *Store) PreferWayland() (value, ok bool) {
	result := s.get(keyPreferWayland)
	return result.Bool(), result.Exists()
}

// SetPreferWayland persists the Linux display preference.
func (s *Store) SetPreferWayland(prefer bool) error {
	return s.set(keyPreferWayland, prefer)
}

func (s *Store) get(key string) gjson.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(raw, key)
}

func (s *Store) set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read settings: %w", err)
	}
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	updated, err := sjson.SetBytes(raw, key, value)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return s.writeLocked(updated)
}

func (s *Store) delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read settings: %w", err)
	}

	updated, err := sjson.DeleteBytes(raw, key)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return s.writeLocked(updated)
}

func (s *Store) writeLocked(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

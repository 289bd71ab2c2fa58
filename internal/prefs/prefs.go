// Package prefs persists bindery's user preferences.
// Preferences are stored in ~/.config/bindery/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	toml "github.com/pelletier/go-toml/v2"
)

// Theme preference values.
const (
	ThemeAuto  = "auto"
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Prefs holds user preferences for bindery.
type Prefs struct {
	Theme string `toml:"theme"`
}

const defaultPrefsPath = "~/.config/bindery/prefs.toml"

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Themes lists the accepted theme values in cycling order.
func Themes() []string {
	return []string{ThemeAuto, ThemeLight, ThemeDark}
}

// NormalizeTheme maps any unknown value to ThemeAuto.
func NormalizeTheme(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, t := range Themes() {
		if t == name {
			return t
		}
	}
	return ThemeAuto
}

// Store is the loaded preferences plus the file they persist to.
type Store struct {
	mu    sync.RWMutex
	path  string
	prefs Prefs
}

// Load reads preferences from path, or the default location when empty.
// Unreadable or malformed files yield defaults; only an unresolvable path
// is an error.
func Load(path string) (*Store, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve prefs path: %w", err)
	}
	return &Store{path: resolved, prefs: read(resolved)}, nil
}

// Path is the resolved preferences file.
func (s *Store) Path() string { return s.path }

// Get returns the current preferences.
func (s *Store) Get() Prefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// SetTheme updates the theme and writes the file. The in-memory value is
// updated even when the write fails.
func (s *Store) SetTheme(name string) error {
	s.mu.Lock()
	s.prefs.Theme = NormalizeTheme(name)
	p := s.prefs
	s.mu.Unlock()
	return Save(s.path, p)
}

func read(path string) Prefs {
	prefs := Prefs{Theme: ThemeAuto}

	data, err := os.ReadFile(path)
	if err != nil {
		return prefs
	}
	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Prefs{Theme: ThemeAuto}
	}
	prefs.Theme = NormalizeTheme(prefs.Theme)
	return prefs
}

// Save writes preferences to path, creating directories as needed. Writers
// in other processes are serialised by a lock file next to path.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	lock := flock.New(resolved + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock prefs: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	_, werr := tmp.Write(bytes)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

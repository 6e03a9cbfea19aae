package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dm-vev/netcore/core/store"
	"github.com/pelletier/go-toml"
)

// ErrInvalidName is returned for empty player names.
var ErrInvalidName = errors.New("invalid player name")

// Whitelist is the maintenance list of a server. While it is enabled only
// listed players and staff may join. Entries are persisted in a TOML file.
type Whitelist struct {
	mu      sync.RWMutex
	path    string
	enabled bool
	players map[string]string
}

type whitelistFile struct {
	Players []string `toml:"players"`
}

// LoadWhitelist reads the whitelist at path, creating an empty file if it
// does not exist yet.
func LoadWhitelist(path string, enabled bool) (*Whitelist, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("whitelist path must not be empty")
	}
	w := &Whitelist{path: path, enabled: enabled, players: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return w, w.writeLocked()
	}
	if err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	var file whitelistFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode whitelist: %w", err)
	}
	for _, name := range file.Players {
		if name = strings.TrimSpace(name); name != "" {
			w.players[store.NormalizeName(name)] = name
		}
	}
	return w, nil
}

// Enabled reports if the whitelist is enforced.
func (w *Whitelist) Enabled() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.enabled
}

// SetEnabled turns maintenance mode on or off.
func (w *Whitelist) SetEnabled(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enabled = enabled
}

// Contains reports if name is listed, ignoring case.
func (w *Whitelist) Contains(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.players[store.NormalizeName(name)]
	return ok
}

// Add lists name and reports whether it was newly added.
func (w *Whitelist) Add(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrInvalidName
	}
	key := store.NormalizeName(name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.players[key]; ok {
		return false, nil
	}
	w.players[key] = name
	if err := w.writeLocked(); err != nil {
		delete(w.players, key)
		return false, err
	}
	return true, nil
}

// Remove unlists name and reports whether it was listed.
func (w *Whitelist) Remove(name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, ErrInvalidName
	}
	key := store.NormalizeName(name)

	w.mu.Lock()
	defer w.mu.Unlock()
	original, ok := w.players[key]
	if !ok {
		return false, nil
	}
	delete(w.players, key)
	if err := w.writeLocked(); err != nil {
		w.players[key] = original
		return false, err
	}
	return true, nil
}

// Players returns the listed names sorted case-insensitively.
func (w *Whitelist) Players() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sortedLocked()
}

func (w *Whitelist) sortedLocked() []string {
	names := make([]string, 0, len(w.players))
	for _, name := range w.players {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return names
}

func (w *Whitelist) writeLocked() error {
	if dir := filepath.Dir(w.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create whitelist directory: %w", err)
		}
	}
	data, err := toml.Marshal(whitelistFile{Players: w.sortedLocked()})
	if err != nil {
		return fmt.Errorf("encode whitelist: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write whitelist: %w", err)
	}
	return nil
}

// Package plugin loads game-mode modules built with -buildmode=plugin and
// hands them the services of the network core.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	goplugin "plugin"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dm-vev/netcore/core/achievement"
	"github.com/dm-vev/netcore/core/cplayer"
)

var factorySymbols = []string{"InitPlugin", "Init", "NewPlugin", "New"}

type pluginInstance struct {
	name    string
	version string
	path    string
	enabled time.Time
	plugin  Plugin
	api     *API
	cancel  context.CancelFunc
}

func (pi pluginInstance) info() Info {
	info := Info{Name: pi.name, Version: pi.version, Path: pi.path, Enabled: pi.enabled}
	if pi.api != nil {
		info.DataDirectory = pi.api.DataDirectory()
	}
	return info
}

// Manager discovers, enables and disables plugins.
type Manager struct {
	cfg        Config
	log        *slog.Logger
	runtimeLog *slog.Logger
	services   Services

	once    sync.Once
	mu      sync.RWMutex
	plugins []pluginInstance
	events  *eventHub
}

// NewManager returns a Manager for cfg. Services must be provided before
// plugins are loaded.
func NewManager(cfg Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	cfg.Files = slices.Clone(cfg.Files)
	m := &Manager{
		cfg:        cfg,
		log:        log.With("subsystem", "plugin"),
		runtimeLog: log.With("subsystem", "plugin.runtime"),
	}
	m.events = newEventHub(m, log)
	return m
}

// Provide sets the services handed to plugins through their API.
func (m *Manager) Provide(s Services) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services = s
}

func (m *Manager) servicesSnapshot() Services {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.services
}

// Listener returns the cplayer.Listener that forwards session events to
// plugins.
func (m *Manager) Listener() cplayer.Listener {
	return m.events
}

// GrantFunc returns the achievement.GrantFunc that forwards unlocks to
// plugins.
func (m *Manager) GrantFunc() achievement.GrantFunc {
	return m.events.HandleAchievement
}

// Enabled reports whether the plugin subsystem should run.
func (m *Manager) Enabled() bool {
	return m.cfg.Enabled
}

// Directory returns the directory searched for plugin binaries.
func (m *Manager) Directory() string {
	return m.directory()
}

// DataRoot returns the root directory of plugin data folders.
func (m *Manager) DataRoot() string {
	return m.dataRoot()
}

// ResolvePath resolves path against the plugin directory when it is not
// absolute.
func (m *Manager) ResolvePath(path string) string {
	return m.resolvePath(path)
}

// LoadConfigured enables the configured plugins. Only the first call has an
// effect.
func (m *Manager) LoadConfigured() {
	m.once.Do(m.loadConfigured)
}

// Infos returns metadata for all loaded plugins.
func (m *Manager) Infos() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, len(m.plugins))
	for i, p := range m.plugins {
		infos[i] = p.info()
	}
	return infos
}

// Plugin returns a loaded plugin by its case-insensitive name.
func (m *Manager) Plugin(name string) (Plugin, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.plugins {
		if strings.EqualFold(p.name, name) {
			return p.plugin, true
		}
	}
	return nil, false
}

// Enable loads the plugin binary at path and enables it.
func (m *Manager) Enable(path string) (Info, error) {
	if !m.Enabled() {
		return Info{}, ErrDisabled
	}
	resolved := m.resolvePath(path)

	m.mu.RLock()
	for _, existing := range m.plugins {
		if existing.path == resolved {
			m.mu.RUnlock()
			return existing.info(), ErrAlreadyLoaded
		}
	}
	m.mu.RUnlock()

	mod, err := goplugin.Open(resolved)
	if err != nil {
		return Info{}, fmt.Errorf("open plugin: %w", err)
	}
	factory, symbol, err := lookupFactory(mod)
	if err != nil {
		return Info{}, fmt.Errorf("locate plugin factory: %w", err)
	}
	info, err := m.start(resolved, factory)
	if err != nil {
		return Info{}, fmt.Errorf("initialise plugin via %s: %w", symbol, err)
	}
	return info, nil
}

// start runs factory for the plugin at path and registers the result.
func (m *Manager) start(path string, factory Factory) (info Info, err error) {
	if err := os.MkdirAll(m.directory(), 0o755); err != nil {
		return Info{}, fmt.Errorf("prepare plugin directory: %w", err)
	}
	initialName := pluginBaseName(path)
	dataDir := m.pluginDataDirectory(initialName)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return Info{}, fmt.Errorf("create plugin data directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	api := newAPI(ctx, m, initialName, dataDir)
	defer func() {
		if err != nil {
			cancel()
			m.events.clear(api.pluginName())
		}
	}()

	inst, err := factory(api)
	if err != nil {
		return Info{}, err
	}
	if inst == nil {
		return Info{}, errors.New("factory returned nil")
	}

	name := inst.Name()
	if name == "" {
		name = initialName
	}
	if _, exists := m.Plugin(name); exists {
		if err := inst.Close(); err != nil {
			m.log.Error("Close conflicting plugin instance.", "error", err, "name", name, "path", path)
		}
		return Info{}, fmt.Errorf("%w: %s", ErrNameConflict, name)
	}
	if previous := api.pluginName(); previous != name {
		api.setName(name)
		m.events.rename(previous, name)
	}
	if target := m.pluginDataDirectory(name); target != api.DataDirectory() {
		if err := m.migrateDataDirectory(api.DataDirectory(), target); err != nil {
			m.runtimeLog.Error("Migrate plugin data directory.", "plugin", name, "error", err)
		} else {
			api.setDataDirectory(target)
		}
	}

	entry := pluginInstance{name: name, path: path, enabled: time.Now(), plugin: inst, api: api, cancel: cancel}
	if v, ok := inst.(VersionedPlugin); ok {
		entry.version = v.Version()
	}

	m.mu.Lock()
	m.plugins = append(m.plugins, entry)
	m.mu.Unlock()

	attrs := []any{"name", entry.name, "path", entry.path}
	if entry.version != "" {
		attrs = append(attrs, "version", entry.version)
	}
	m.log.Info("Plugin enabled.", attrs...)
	return entry.info(), nil
}

// Disable disables a plugin by its case-insensitive name.
func (m *Manager) Disable(name string) (Info, error) {
	if !m.Enabled() {
		return Info{}, ErrDisabled
	}

	m.mu.Lock()
	index := slices.IndexFunc(m.plugins, func(p pluginInstance) bool { return strings.EqualFold(p.name, name) })
	if index == -1 {
		m.mu.Unlock()
		return Info{}, ErrNotFound
	}
	entry := m.plugins[index]
	m.plugins = slices.Delete(m.plugins, index, index+1)
	m.mu.Unlock()

	if err := entry.plugin.Close(); err != nil {
		m.mu.Lock()
		m.plugins = append(m.plugins, entry)
		m.mu.Unlock()
		return Info{}, fmt.Errorf("close plugin: %w", err)
	}
	if entry.cancel != nil {
		entry.cancel()
	}
	m.events.clear(entry.name)

	m.log.Info("Plugin disabled.", "name", entry.name, "path", entry.path)
	return entry.info(), nil
}

// Reload disables and then re-enables a plugin by name.
func (m *Manager) Reload(name string) (Info, error) {
	info, err := m.Disable(name)
	if err != nil {
		return Info{}, err
	}
	reloaded, err := m.Enable(info.Path)
	if err != nil {
		return Info{}, err
	}
	m.log.Info("Plugin reloaded.", "name", reloaded.Name, "path", reloaded.Path)
	return reloaded, nil
}

// DisableAll disables all loaded plugins in reverse load order and returns
// them in the order they were disabled.
func (m *Manager) DisableAll() ([]Info, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}

	m.mu.RLock()
	names := make([]string, len(m.plugins))
	for i, p := range m.plugins {
		names[i] = p.name
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(names))
	for i := len(names) - 1; i >= 0; i-- {
		info, err := m.Disable(names[i])
		if err != nil {
			return infos, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Shutdown closes all plugins in reverse load order, logging failures.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	plugins := m.plugins
	m.plugins = nil
	m.mu.Unlock()

	for i := len(plugins) - 1; i >= 0; i-- {
		entry := plugins[i]
		if entry.cancel != nil {
			entry.cancel()
		}
		m.events.clear(entry.name)
		if err := entry.plugin.Close(); err != nil {
			m.log.Error("Disable plugin.", "error", err, "name", entry.name, "path", entry.path)
			continue
		}
		m.log.Info("Plugin disabled.", "name", entry.name, "path", entry.path)
	}
}

func (m *Manager) loadConfigured() {
	if !m.cfg.Enabled {
		m.log.Debug("Plugin system disabled.")
		return
	}
	paths, err := m.discover()
	if err != nil {
		m.log.Error("Discover plugins.", "error", err, "dir", m.directory())
	}
	if len(paths) == 0 {
		m.log.Debug("No plugins discovered.")
		return
	}
	for _, path := range paths {
		if _, err := m.Enable(path); err != nil {
			m.log.Error("Enable plugin.", "error", err, "path", path)
		}
	}
}

// discover returns the sorted, de-duplicated plugin paths to load.
func (m *Manager) discover() ([]string, error) {
	dir := m.directory()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plugin directory: %w", err)
	}
	seen := map[string]struct{}{}
	var paths []string
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}

	var readErr error
	if m.cfg.Autoload {
		entries, err := os.ReadDir(dir)
		if err != nil {
			readErr = fmt.Errorf("read plugin directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".so") {
				continue
			}
			add(filepath.Clean(filepath.Join(dir, entry.Name())))
		}
	}
	for _, file := range m.cfg.Files {
		add(m.resolvePath(file))
	}
	slices.Sort(paths)
	return paths, readErr
}

func (m *Manager) directory() string {
	if m.cfg.Directory == "" {
		return "plugins"
	}
	return m.cfg.Directory
}

func (m *Manager) resolvePath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		return cleaned
	}
	dir := filepath.Clean(m.directory())
	if cleaned == dir {
		return dir
	}
	// Paths that already start with the plugin directory are kept as is.
	if rel, err := filepath.Rel(dir, cleaned); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return cleaned
	}
	return filepath.Join(dir, cleaned)
}

func (m *Manager) dataRoot() string {
	dir := m.cfg.DataDirectory
	if dir == "" {
		dir = filepath.Join(m.directory(), "data")
	} else if !filepath.IsAbs(dir) {
		dir = filepath.Join(m.directory(), dir)
	}
	return filepath.Clean(dir)
}

func (m *Manager) pluginDataDirectory(name string) string {
	return filepath.Join(m.dataRoot(), sanitizePluginDirectory(name))
}

func (m *Manager) migrateDataDirectory(from, to string) error {
	if from == to {
		return nil
	}
	if to == "" {
		return errors.New("empty target data directory")
	}
	if from == "" {
		return os.MkdirAll(to, 0o755)
	}
	info, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(to, 0o755)
	}
	if err != nil {
		return fmt.Errorf("stat source data directory: %w", err)
	}
	if !info.IsDir() {
		return errors.New("source data directory is not a directory")
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("ensure target parent: %w", err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename data directory: %w", err)
	}
	return nil
}

// handlePluginPanic drops the event handlers of a panicking plugin and
// disables it in the background.
func (m *Manager) handlePluginPanic(name string, reason any) {
	if name == "" {
		name = "plugin"
	}
	m.events.clear(name)
	m.runtimeLog.Error("Plugin panic.", "plugin", name, "panic", reason, "stack", string(debug.Stack()))
	go func() {
		info, err := m.Disable(name)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				m.runtimeLog.Error("Disable panic plugin.", "plugin", name, "error", err)
			}
			return
		}
		m.runtimeLog.Warn("Plugin disabled after panic.", "name", info.Name, "path", info.Path)
	}()
}

func pluginBaseName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if base == "" || base == "." {
		return "plugin"
	}
	return base
}

func sanitizePluginDirectory(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.TrimSpace(name)))
	sanitized = strings.Trim(sanitized, "-_.")
	if sanitized == "" {
		return "plugin"
	}
	return sanitized
}

var errSymbolNotFound = errors.New("symbol not found")

func lookupFactory(mod *goplugin.Plugin) (Factory, string, error) {
	for _, symbol := range factorySymbols {
		sym, err := mod.Lookup(symbol)
		if err != nil {
			continue
		}
		factory, err := asFactory(symbol, sym)
		if err != nil {
			return nil, symbol, err
		}
		return factory, symbol, nil
	}
	return nil, "", errSymbolNotFound
}

// asFactory converts an exported symbol into a Factory.
func asFactory(symbol string, sym any) (Factory, error) {
	switch fn := sym.(type) {
	case Factory:
		return fn, nil
	case *Factory:
		return *fn, nil
	case func(*API) (Plugin, error):
		return fn, nil
	case *func(*API) (Plugin, error):
		return *fn, nil
	case func(*API) Plugin:
		return noErrorFactory(symbol, fn), nil
	case *func(*API) Plugin:
		return noErrorFactory(symbol, *fn), nil
	default:
		return nil, fmt.Errorf("symbol %s has incompatible type %T", symbol, sym)
	}
}

func noErrorFactory(symbol string, ctor func(*API) Plugin) Factory {
	return func(api *API) (Plugin, error) {
		p := ctor(api)
		if p == nil {
			return nil, fmt.Errorf("%s returned nil plugin", symbol)
		}
		return p, nil
	}
}

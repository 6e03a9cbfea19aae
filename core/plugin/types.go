package plugin

import (
	"errors"
	"time"
)

// Plugin is a game mode running on top of the network core, such as a lobby
// or a minigame.
type Plugin interface {
	// Name identifies the plugin in commands and logs. Names are compared
	// without regard to case and must be unique on a server.
	Name() string
	// Close is called once when the plugin is disabled, reloaded or the server
	// stops. Goroutines started through API.Go have been cancelled by then.
	Close() error
}

// VersionedPlugin is implemented by plugins that report a version in
// /plugin list.
type VersionedPlugin interface {
	Version() string
}

// Factory is the constructor a plugin binary exports under one of the
// factory symbols.
type Factory func(api *API) (Plugin, error)

// Info describes an enabled plugin.
type Info struct {
	Name          string
	Version       string
	Path          string
	DataDirectory string
	Enabled       time.Time
}

var (
	ErrDisabled      = errors.New("plugin subsystem disabled")
	ErrAlreadyLoaded = errors.New("plugin already loaded")
	// ErrNameConflict is returned when a plugin reports a name already used by
	// an enabled plugin.
	ErrNameConflict = errors.New("plugin name already registered")
	ErrNotFound     = errors.New("plugin not found")
)

package plugin

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player/skin"
	"github.com/dm-vev/netcore/core/achievement"
	"github.com/dm-vev/netcore/core/cache"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/economy"
	"github.com/dm-vev/netcore/core/message"
	"github.com/google/uuid"
)

// ErrNoBus is returned by API methods that need the message bus when none is
// configured.
var ErrNoBus = errors.New("message bus unavailable")

// API is the handle a plugin uses to reach the network core.
type API struct {
	manager *Manager
	name    atomic.Value // string
	ctx     context.Context
	dataDir atomic.Value // string
}

func newAPI(ctx context.Context, manager *Manager, name, dataDir string) *API {
	api := &API{manager: manager, ctx: ctx}
	api.name.Store(name)
	api.setDataDirectory(dataDir)
	return api
}

func (api *API) setName(name string) {
	if name != "" {
		api.name.Store(name)
	}
}

func (api *API) pluginName() string {
	if s, _ := api.name.Load().(string); s != "" {
		return s
	}
	return "plugin"
}

// Context returns a context that is cancelled when the plugin is disabled.
func (api *API) Context() context.Context {
	if api.ctx == nil {
		return context.Background()
	}
	return api.ctx
}

func (api *API) setDataDirectory(dir string) {
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	api.dataDir.Store(dir)
}

// DataDirectory returns the data directory of the plugin.
func (api *API) DataDirectory() string {
	if dir, _ := api.dataDir.Load().(string); dir != "" {
		return dir
	}
	return api.manager.pluginDataDirectory(api.pluginName())
}

func (api *API) resolveDataPath(name string) (string, error) {
	if name == "" {
		return "", errors.New("data path is empty")
	}
	if filepath.IsAbs(name) {
		return "", errors.New("data path must be relative")
	}
	base := api.DataDirectory()
	target := filepath.Join(base, filepath.Clean(name))
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", errors.New("data path escapes plugin directory")
	}
	return target, nil
}

// EnsureDataSubdir creates a directory inside the plugin data directory and
// returns its path. An empty name ensures the data directory itself.
func (api *API) EnsureDataSubdir(name string) (string, error) {
	path := api.DataDirectory()
	if name != "" {
		var err error
		if path, err = api.resolveDataPath(name); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

// OpenDataFile opens a file inside the plugin data directory.
func (api *API) OpenDataFile(name string, flag int, perm fs.FileMode) (*os.File, error) {
	path, err := api.resolveDataPath(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if perm == 0 {
		perm = 0o644
	}
	return os.OpenFile(path, flag, perm)
}

// Go runs fn on a new goroutine with the plugin context. A panic disables the
// plugin.
func (api *API) Go(fn func(context.Context)) {
	if fn == nil {
		return
	}
	ctx := api.Context()
	name := api.pluginName()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				api.manager.handlePluginPanic(name, r)
			}
		}()
		fn(ctx)
	}()
}

// Logger returns a logger tagged with the plugin name.
func (api *API) Logger() *slog.Logger {
	log := api.manager.servicesSnapshot().Log
	if log == nil {
		log = slog.Default()
	}
	return log.With("plugin", api.pluginName())
}

// Server returns the name of this server on the network.
func (api *API) Server() string {
	return api.manager.servicesSnapshot().Server
}

// Players returns the registry of online players.
func (api *API) Players() *cplayer.Manager {
	return api.manager.servicesSnapshot().Players
}

// Player returns the session of an online player.
func (api *API) Player(id uuid.UUID) (*cplayer.CorePlayer, bool) {
	players := api.Players()
	if players == nil {
		return nil, false
	}
	return players.Get(id)
}

// PlayerByName returns the session of an online player by name.
func (api *API) PlayerByName(name string) (*cplayer.CorePlayer, bool) {
	players := api.Players()
	if players == nil {
		return nil, false
	}
	return players.ByName(name)
}

// Economy returns the currency service.
func (api *API) Economy() *economy.Service {
	return api.manager.servicesSnapshot().Economy
}

// Honor returns the honor service.
func (api *API) Honor() *economy.HonorService {
	return api.manager.servicesSnapshot().Honor
}

// Achievements returns the achievement loader, whose registry plugins may
// extend.
func (api *API) Achievements() *achievement.Loader {
	return api.manager.servicesSnapshot().Achievements
}

// Profiles returns the profile cache, which also serves offline players.
func (api *API) Profiles() *cache.Profiles {
	return api.manager.servicesSnapshot().Profiles
}

// Skins returns the cache of skins of players that left recently.
func (api *API) Skins() *cache.Skins {
	return api.manager.servicesSnapshot().Skins
}

// Skin returns the skin of player id, who may have left this server recently.
func (api *API) Skin(id uuid.UUID) (skin.Skin, bool) {
	if p, ok := api.Player(id); ok {
		if sk, ok := p.Skin(); ok {
			return sk, true
		}
	}
	if skins := api.Skins(); skins != nil {
		return skins.Get(id)
	}
	return skin.Skin{}, false
}

// Bus returns the cross-server message bus. It is nil on a standalone server.
func (api *API) Bus() message.Bus {
	return api.manager.servicesSnapshot().Bus
}

// Broadcast messages every player on this server.
func (api *API) Broadcast(msg string) {
	if players := api.Players(); players != nil {
		players.Broadcast(msg)
	}
}

// NotifyStaff messages the staff on this server and every other server.
func (api *API) NotifyStaff(ctx context.Context, msg string) error {
	bus := api.Bus()
	p := message.StaffNotificationPacket{Sender: api.pluginName(), Server: api.Server(), Message: msg}
	if players := api.Players(); players != nil {
		players.NotifyStaff(p.Format())
	}
	if bus == nil {
		return ErrNoBus
	}
	if err := bus.SendMessage(ctx, p, message.Broadcast); err != nil {
		return fmt.Errorf("send staff notification: %w", err)
	}
	return nil
}

// RegisterCommand registers a command with the server.
func (api *API) RegisterCommand(command cmd.Command) {
	cmd.Register(command)
}

// Plugins returns the loaded plugins.
func (api *API) Plugins() []Info {
	return api.manager.Infos()
}

// Plugin returns a loaded plugin by name.
func (api *API) Plugin(name string) (Plugin, bool) {
	return api.manager.Plugin(name)
}

// Events returns the event subscriptions of the plugin.
func (api *API) Events() *Events {
	return &Events{api: api}
}

// Events registers plugin handlers for core events. Every method returns a
// function that removes the handler again. All handlers of a plugin are
// removed when it is disabled.
type Events struct {
	api *API
}

// OnJoin registers fn for players that finished joining.
func (e *Events) OnJoin(fn JoinHandler) func() {
	return e.api.manager.events.onJoin(e.api.pluginName(), fn)
}

// OnQuit registers fn for players that left.
func (e *Events) OnQuit(fn QuitHandler) func() {
	return e.api.manager.events.onQuit(e.api.pluginName(), fn)
}

// OnRankChange registers fn for rank changes of online players.
func (e *Events) OnRankChange(fn RankChangeHandler) func() {
	return e.api.manager.events.onRankChange(e.api.pluginName(), fn)
}

// OnAchievement registers fn for unlocked achievements.
func (e *Events) OnAchievement(fn AchievementHandler) func() {
	return e.api.manager.events.onAchievement(e.api.pluginName(), fn)
}

// OnMessage registers fn for bus packets of kind. It is a no-op without a bus.
func (e *Events) OnMessage(kind message.Kind, fn message.Handler) func() {
	return e.api.manager.events.onMessage(e.api.pluginName(), e.api.Bus(), kind, fn)
}

// Clear removes every handler the plugin registered.
func (e *Events) Clear() {
	e.api.manager.events.clear(e.api.pluginName())
}

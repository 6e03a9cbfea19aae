// Package builtin implements the network commands available on every server:
// rank and tag management, economy, honor, cross-server kicks, staff chat,
// the maintenance whitelist and plugin management.
package builtin

import (
	"log/slog"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/dm-vev/netcore/core/cache"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/economy"
	"github.com/dm-vev/netcore/core/message"
	"github.com/dm-vev/netcore/core/plugin"
	"github.com/dm-vev/netcore/core/store"
)

// Whitelist is the maintenance whitelist managed by /whitelist.
type Whitelist interface {
	Enabled() bool
	SetEnabled(enabled bool)
	Add(name string) (bool, error)
	Remove(name string) (bool, error)
	Players() []string
}

// Services are the network services the commands operate on. Plugins and
// Whitelist may be nil, in which case their commands are not registered.
type Services struct {
	Server    string
	Store     store.Store
	Players   *cplayer.Manager
	Economy   *economy.Service
	Honor     *economy.HonorService
	Profiles  *cache.Profiles
	Bus       message.Bus
	Plugins   *plugin.Manager
	Whitelist Whitelist
	Log       *slog.Logger
}

// Register registers the network command set.
func Register(s Services) {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	s.Log = s.Log.With("subsystem", "commands")
	for _, c := range Commands(s) {
		cmd.Register(c)
	}
}

// Commands returns the network commands without registering them.
func Commands(s Services) []cmd.Command {
	commands := []cmd.Command{
		newAboutCommand(s),
		newListCommand(s),
		newRankCommand(s),
		newTagCommand(s),
		newEcoCommand(s),
		newBalanceCommand(s),
		newHonorCommand(s),
		newNetKickCommand(s),
		newStaffChatCommand(s),
	}
	if s.Whitelist != nil {
		commands = append(commands, newWhitelistCommand(s))
	}
	if s.Plugins != nil {
		commands = append(commands, newPluginCommand(s))
	}
	return commands
}

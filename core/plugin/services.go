package plugin

import (
	"log/slog"

	"github.com/dm-vev/netcore/core/achievement"
	"github.com/dm-vev/netcore/core/cache"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/economy"
	"github.com/dm-vev/netcore/core/message"
)

// Services are the core services handed to plugins. The core provides them
// once before any plugin is enabled.
type Services struct {
	Server       string
	Players      *cplayer.Manager
	Economy      *economy.Service
	Honor        *economy.HonorService
	Achievements *achievement.Loader
	Profiles     *cache.Profiles
	Skins        *cache.Skins
	Bus          message.Bus
	Log          *slog.Logger
}

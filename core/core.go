// Package core wires the network services of a server together: the store,
// the message bus, player sessions, economy, achievements and plugins. A Core
// is created before the Dragonfly server so that its Allower can admit
// players, and started once the server exists.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/dm-vev/netcore/core/achievement"
	"github.com/dm-vev/netcore/core/cache"
	"github.com/dm-vev/netcore/core/cmd/builtin"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/cplayer/dfhandle"
	"github.com/dm-vev/netcore/core/economy"
	"github.com/dm-vev/netcore/core/message"
	"github.com/dm-vev/netcore/core/plugin"
	"github.com/dm-vev/netcore/core/store"
	"github.com/dm-vev/netcore/core/store/leveldb"
	"github.com/dm-vev/netcore/core/store/mongo"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

// Core holds the network services of a single server.
type Core struct {
	conf Config
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	store        store.Store
	tasks        *economy.Tasks
	economy      *economy.Service
	honor        *economy.HonorService
	players      *cplayer.Manager
	achievements *achievement.Loader
	profiles     *cache.Profiles
	skins        *cache.Skins
	bus          message.Bus
	plugins      *plugin.Manager
	whitelist    *Whitelist
	allower      *Allower
	scheduler    *worldScheduler

	packs     packSet
	refresh   time.Duration
	startOnce sync.Once
	closeOnce sync.Once

	unsubscribe []func()
}

// New opens the store and the message bus configured in conf and returns a
// Core using them.
func New(ctx context.Context, conf Config, log *slog.Logger) (*Core, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	st, err := OpenStore(ctx, conf)
	if err != nil {
		return nil, err
	}
	bus, err := openBus(conf, log)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	c, err := newCore(conf, log, st, bus)
	if err != nil {
		_ = bus.Close()
		_ = st.Close()
		return nil, err
	}
	return c, nil
}

// OpenStore opens the store backend selected in conf.
func OpenStore(ctx context.Context, conf Config) (store.Store, error) {
	switch conf.Store.Backend {
	case BackendMongo:
		st, err := mongo.Open(ctx, mongo.Config{
			URI:      conf.Store.MongoURI,
			Database: conf.Store.MongoDatabase,
			Timeout:  duration(conf.Store.Timeout),
		})
		if err != nil {
			return nil, fmt.Errorf("open mongo store: %w", err)
		}
		return st, nil
	default:
		st, err := leveldb.Open(conf.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open leveldb store: %w", err)
		}
		return st, nil
	}
}

func openBus(conf Config, log *slog.Logger) (message.Bus, error) {
	if conf.Bus.RedisURL == "" {
		return message.NewNetwork().Join(conf.Server.Name, log), nil
	}
	bus, err := message.NewRedis(message.Config{
		URL:      conf.Bus.RedisURL,
		Prefix:   conf.Bus.Prefix,
		Server:   conf.Server.Name,
		PoolSize: conf.Bus.PoolSize,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("open message bus: %w", err)
	}
	return bus, nil
}

// newCore builds a Core over an opened store and bus. Both are closed by
// Close.
func newCore(conf Config, log *slog.Logger, st store.Store, bus message.Bus) (*Core, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Core{
		conf:    conf,
		log:     log.With("subsystem", "core"),
		ctx:     ctx,
		cancel:  cancel,
		store:   st,
		bus:     bus,
		tasks:   economy.NewTasks(context.WithoutCancel(ctx), log),
		refresh: duration(conf.Scoreboard.Refresh),
	}
	fail := func(err error) (*Core, error) {
		cancel()
		return nil, err
	}

	var err error
	if c.economy, err = economy.NewService(st, c.tasks, log, nil); err != nil {
		return fail(err)
	}
	if c.honor, err = economy.NewHonorService(st, log, nil); err != nil {
		return fail(err)
	}
	if c.packs, err = loadPacks(conf.Resources.Folder); err != nil {
		return fail(err)
	}
	if c.whitelist, err = LoadWhitelist(conf.Whitelist.File, conf.Whitelist.Enabled); err != nil {
		return fail(err)
	}
	registry, err := achievement.NewRegistry(achievement.Defaults()...)
	if err != nil {
		return fail(err)
	}

	c.profiles = cache.NewProfiles(st, duration(conf.Cache.ProfileTTL))
	c.skins = cache.NewSkins(duration(conf.Cache.SkinTTL))
	c.plugins = plugin.NewManager(conf.Plugins, log)
	c.scheduler = &worldScheduler{tasks: c.tasks}
	c.players = cplayer.NewManager(cplayer.Config{
		Economy:         c.economy,
		Honor:           c.honor,
		Profiles:        st,
		Skins:           c.skins,
		Scheduler:       c.scheduler,
		Listener:        c.plugins.Listener(),
		Log:             log,
		ScoreboardTitle: conf.Scoreboard.Title,
		Packs:           c.packs.infos,
		PacksRequired:   conf.Resources.Required,
	})
	c.achievements = achievement.NewLoader(registry, st, c.tasks, log, c.plugins.GrantFunc())
	c.allower = NewAllower(st, c.profiles, c.players, c.whitelist, log)
	c.plugins.Provide(plugin.Services{
		Server:       conf.Server.Name,
		Players:      c.players,
		Economy:      c.economy,
		Honor:        c.honor,
		Achievements: c.achievements,
		Profiles:     c.profiles,
		Skins:        c.skins,
		Bus:          bus,
		Log:          log,
	})
	c.subscribe()
	return c, nil
}

// Config returns the configuration the Core was created with.
func (c *Core) Config() Config { return c.conf }

// Allower returns the server.Allower admitting players to the network.
func (c *Core) Allower() *Allower { return c.allower }

// Players returns the session manager.
func (c *Core) Players() *cplayer.Manager { return c.players }

// Economy returns the currency service.
func (c *Core) Economy() *economy.Service { return c.economy }

// Honor returns the honor service.
func (c *Core) Honor() *economy.HonorService { return c.honor }

// Achievements returns the achievement loader.
func (c *Core) Achievements() *achievement.Loader { return c.achievements }

// Profiles returns the profile cache.
func (c *Core) Profiles() *cache.Profiles { return c.profiles }

// Bus returns the message bus.
func (c *Core) Bus() message.Bus { return c.bus }

// Plugins returns the plugin manager.
func (c *Core) Plugins() *plugin.Manager { return c.plugins }

// Whitelist returns the maintenance whitelist.
func (c *Core) Whitelist() *Whitelist { return c.whitelist }

// Configure applies the network settings to the Dragonfly configuration of
// the server: the Allower and the resource packs.
func (c *Core) Configure(conf *server.Config) {
	conf.Allower = c.allower
	conf.Resources = append(conf.Resources, c.packs.packs...)
	conf.ResourcesRequired = conf.ResourcesRequired || c.conf.Resources.Required
}

// Start connects the Core to srv. It registers the network commands, starts
// receiving bus packets, loads the configured plugins and starts refreshing
// the sidebars of online players.
func (c *Core) Start(srv *server.Server) {
	c.startOnce.Do(func() {
		c.scheduler.attach(srv)
		builtin.Register(builtin.Services{
			Server:    c.conf.Server.Name,
			Store:     c.store,
			Players:   c.players,
			Economy:   c.economy,
			Honor:     c.honor,
			Profiles:  c.profiles,
			Bus:       c.bus,
			Plugins:   c.plugins,
			Whitelist: c.whitelist,
			Log:       c.log,
		})
		go func() {
			if err := c.bus.Run(c.ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Error("Message bus stopped.", "err", err)
			}
		}()
		c.plugins.LoadConfigured()
		go c.refreshLoop()
		c.log.Info("Network core started.", "server", c.conf.Server.Name, "store", c.conf.Store.Backend, "players", srv.MaxPlayerCount())
	})
}

// Accept completes the join of p, which must have passed the Allower. It is
// called for every player returned by server.Accept.
func (c *Core) Accept(p *player.Player) {
	cp, ok := c.players.Join(p.UUID(), dfhandle.New(p))
	if !ok {
		c.log.Warn("Player joined without a session.", "player", p.Name())
		p.Disconnect(text.Colourf("<red>%s</red>", msgInvalidIdentity))
		return
	}
	p.Handle(&playerHandler{c: c, cp: cp})
	c.skins.Put(p.UUID(), p.Skin())

	c.achievements.Load(cp)
	cp.GiveAchievement(achievement.FirstJoin)
	cp.Scoreboard().Update()
	if c.conf.Scoreboard.Header != "" || c.conf.Scoreboard.Footer != "" {
		cp.HeaderFooter().Set(c.conf.Scoreboard.Header, c.conf.Scoreboard.Footer)
	}
	c.refreshBalances(cp)
}

func (c *Core) refreshLoop() {
	t := time.NewTicker(c.refresh)
	defer t.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
			for _, cp := range c.players.Online() {
				c.refreshBalances(cp)
			}
		}
	}
}

// refreshBalances loads the balances of cp in the background and redraws
// its sidebar and tab list on its world goroutine.
func (c *Core) refreshBalances(cp *cplayer.CorePlayer) {
	c.tasks.Go(func(ctx context.Context) {
		balances, err := c.economy.Balances(ctx, cp.UUID())
		if err != nil {
			c.log.Debug("Failed to refresh balances.", "player", cp.Name(), "err", err)
			return
		}
		cp.Sync(func(p *cplayer.CorePlayer) {
			p.Scoreboard().SetBalances(balances)
			p.Scoreboard().Update()
			p.HeaderFooter().Refresh()
		})
	})
}

// Close stops the Core. Plugins are disabled first, then pending writes are
// awaited before the bus and the store are closed.
func (c *Core) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.plugins.Shutdown()
		for _, unsubscribe := range c.unsubscribe {
			unsubscribe()
		}
		c.cancel()
		err = errors.Join(err, c.bus.Close())
		c.tasks.Close()
		c.profiles.Stop()
		c.skins.Stop()
		err = errors.Join(err, c.store.Close())
		c.log.Info("Network core stopped.")
	})
	return err
}

// ParseLevel parses a log level name such as debug or warn.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", name, err)
	}
	return l, nil
}

package achievement

import (
	"context"
	"log/slog"

	"github.com/dm-vev/netcore/core/cplayer"
)

// Loader loads the achievements of joining players in the background and
// attaches a Manager to them on their world goroutine.
type Loader struct {
	registry *Registry
	store    Store
	tasks    Runner
	log      *slog.Logger
	onGrant  GrantFunc
}

// NewLoader returns a Loader. onGrant may be nil.
func NewLoader(registry *Registry, store Store, tasks Runner, log *slog.Logger, onGrant GrantFunc) *Loader {
	return &Loader{
		registry: registry,
		store:    store,
		tasks:    tasks,
		log:      log.With("subsystem", "achievements"),
		onGrant:  onGrant,
	}
}

// Registry returns the definitions the Loader grants from.
func (l *Loader) Registry() *Registry {
	return l.registry
}

// Load starts loading the achievements of p. Grants made to p in the
// meantime are buffered by p and replayed once the Manager is attached. Load
// must not be called from within a world transaction that Sync would need.
func (l *Loader) Load(p *cplayer.CorePlayer) {
	l.tasks.Go(func(ctx context.Context) {
		ids, err := l.store.Achievements(ctx, p.UUID())
		if err != nil {
			l.log.Error("Failed to load achievements.", "player", p.Name(), "err", err)
			return
		}
		m := l.newManager(p, ids)
		if !p.Sync(func(p *cplayer.CorePlayer) { p.AttachAchievements(m) }) {
			l.log.Debug("Player left before achievements loaded.", "player", p.Name())
		}
	})
}

func (l *Loader) newManager(p *cplayer.CorePlayer, owned []int) *Manager {
	m := &Manager{
		p:        p,
		registry: l.registry,
		store:    l.store,
		tasks:    l.tasks,
		log:      l.log,
		onGrant:  l.onGrant,
		owned:    make(map[int]struct{}, len(owned)),
	}
	for _, id := range owned {
		m.owned[id] = struct{}{}
	}
	return m
}

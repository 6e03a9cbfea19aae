package core

import (
	"context"
	"sync"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/cplayer/dfhandle"
	"github.com/dm-vev/netcore/core/economy"
	"github.com/google/uuid"
)

// playerLookup is implemented by *server.Server.
type playerLookup interface {
	Player(id uuid.UUID) (*world.EntityHandle, bool)
}

// worldScheduler reaches players through the entity handles of the server.
// Sync hands fn to the world of the player on a new goroutine, so it is safe
// to call from within a transaction.
type worldScheduler struct {
	tasks *economy.Tasks

	mu  sync.RWMutex
	srv playerLookup
}

var _ cplayer.Scheduler = (*worldScheduler)(nil)

func (s *worldScheduler) attach(srv playerLookup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.srv = srv
}

// Sync is part of the cplayer.Scheduler interface.
func (s *worldScheduler) Sync(id uuid.UUID, fn func(h cplayer.Handle)) bool {
	s.mu.RLock()
	srv := s.srv
	s.mu.RUnlock()
	if srv == nil {
		return false
	}
	handle, ok := srv.Player(id)
	if !ok {
		return false
	}
	go handle.ExecWorld(func(_ *world.Tx, e world.Entity) {
		if p, ok := e.(*player.Player); ok {
			fn(dfhandle.New(p))
		}
	})
	return true
}

// Async is part of the cplayer.Scheduler interface.
func (s *worldScheduler) Async(fn func(ctx context.Context)) {
	s.tasks.Go(fn)
}

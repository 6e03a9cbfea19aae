package achievement

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

// Store persists owned achievements.
type Store interface {
	Achievements(ctx context.Context, id uuid.UUID) ([]int, error)
	AddAchievement(ctx context.Context, id uuid.UUID, a int) error
}

// Runner runs background work.
type Runner interface {
	Go(fn func(ctx context.Context))
}

// GrantFunc is called on the world goroutine after an achievement was granted.
type GrantFunc func(p *cplayer.CorePlayer, d Definition)

// Manager holds the achievements of a single player.
type Manager struct {
	p        *cplayer.CorePlayer
	registry *Registry
	store    Store
	tasks    Runner
	log      *slog.Logger
	onGrant  GrantFunc

	mu    sync.Mutex
	owned map[int]struct{}
}

var _ cplayer.AchievementManager = (*Manager)(nil)

// Has reports if the player owns achievement id.
func (m *Manager) Has(id int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.owned[id]
	return ok
}

// Owned returns the IDs of the owned achievements in ascending order.
func (m *Manager) Owned() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.owned))
}

// Give grants achievement id, persists it and pays its reward. Owned and
// unknown achievements are ignored.
func (m *Manager) Give(id int) {
	d, ok := m.registry.Lookup(id)
	if !ok {
		m.log.Warn("Unknown achievement granted.", "player", m.p.Name(), "achievement", id)
		return
	}
	m.mu.Lock()
	if _, owned := m.owned[id]; owned {
		m.mu.Unlock()
		return
	}
	m.owned[id] = struct{}{}
	m.mu.Unlock()

	pid := m.p.UUID()
	m.tasks.Go(func(ctx context.Context) {
		if err := m.store.AddAchievement(ctx, pid, id); err != nil {
			m.log.Error("Failed to save achievement.", "player", pid, "achievement", id, "err", err)
		}
	})

	m.p.Title().Send(text.Colourf("<gold>Achievement unlocked</gold>"), text.Colourf("<yellow>%s</yellow>", d.Name))
	m.p.Message(text.Colourf("<gold>Achievement unlocked:</gold> <yellow>%s</yellow> <grey>%s</grey>", d.Name, d.Description))
	if d.Reward > 0 {
		m.p.GiveCurrency(d.Reward, "Achievement: "+d.Name, d.Currency)
	}
	if m.onGrant != nil {
		m.onGrant(m.p, d)
	}
}

package cplayer

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/df-mc/dragonfly/server/player/skin"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// EconomyService moves currency balances. Synchronous changes that would make
// a balance negative fail with economy.ErrInsufficientFunds.
type EconomyService interface {
	Balance(ctx context.Context, id uuid.UUID, c currency.Currency) (int, error)
	Change(ctx context.Context, id uuid.UUID, delta int, reason string, c currency.Currency, async bool) (int, error)
}

// HonorService persists honor points.
type HonorService interface {
	SetHonor(ctx context.Context, id uuid.UUID, amount int, reason string) error
}

// SkinCache holds the skins of players that left recently.
type SkinCache interface {
	Get(id uuid.UUID) (skin.Skin, bool)
}

// ProfileWriter persists ranks and tags.
type ProfileWriter interface {
	SetRank(ctx context.Context, id uuid.UUID, rank string) error
	SetTags(ctx context.Context, id uuid.UUID, tags []int) error
}

// Listener is notified about session changes. Methods are called on the
// goroutine that caused the change.
type Listener interface {
	HandleJoin(p *CorePlayer)
	HandleQuit(p *CorePlayer)
	HandleRankChange(p *CorePlayer, from, to rank.Rank)
}

// NopListener implements Listener and does nothing.
type NopListener struct{}

func (NopListener) HandleJoin(*CorePlayer)                             {}
func (NopListener) HandleQuit(*CorePlayer)                             {}
func (NopListener) HandleRankChange(*CorePlayer, rank.Rank, rank.Rank) {}

// Config holds the collaborators of a Manager. Every field is optional.
type Config struct {
	Economy         EconomyService
	Honor           HonorService
	Profiles        ProfileWriter
	Skins           SkinCache
	Scheduler       Scheduler
	Listener        Listener
	Log             *slog.Logger
	ScoreboardTitle string
	Packs           []PackInfo
	PacksRequired   bool
	// LoginTimeout is how long a session may wait to join before it is
	// dropped. Zero selects DefaultLoginTimeout and a negative value never
	// drops it.
	LoginTimeout time.Duration
}

// DefaultLoginTimeout is the LoginTimeout used when none is configured.
const DefaultLoginTimeout = 30 * time.Second

// LoginData is the stored state a session starts with.
type LoginData struct {
	Rank          rank.Rank
	Tags          []rank.Tag
	Honor         int
	Locale        language.Tag
	ClientVersion string
}

// Manager is the registry of online players.
type Manager struct {
	economy         EconomyService
	honor           HonorService
	profiles        ProfileWriter
	skins           SkinCache
	scheduler       Scheduler
	listener        Listener
	log             *slog.Logger
	scoreboardTitle string
	packs           []PackInfo
	packsRequired   bool
	loginTimeout    time.Duration

	mu      sync.RWMutex
	players map[uuid.UUID]*CorePlayer
}

// NewManager returns an empty Manager using the collaborators in conf.
func NewManager(conf Config) *Manager {
	if conf.Scheduler == nil {
		conf.Scheduler = goScheduler{}
	}
	if conf.Listener == nil {
		conf.Listener = NopListener{}
	}
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.LoginTimeout == 0 {
		conf.LoginTimeout = DefaultLoginTimeout
	}
	return &Manager{
		economy:         conf.Economy,
		honor:           conf.Honor,
		profiles:        conf.Profiles,
		skins:           conf.Skins,
		scheduler:       conf.Scheduler,
		listener:        conf.Listener,
		log:             conf.Log.With("subsystem", "players"),
		scoreboardTitle: conf.ScoreboardTitle,
		packs:           slices.Clone(conf.Packs),
		packsRequired:   conf.PacksRequired,
		loginTimeout:    conf.LoginTimeout,
		players:         make(map[uuid.UUID]*CorePlayer),
	}
}

// Login registers a session for a player that passed authentication. A
// previous session with the same ID is replaced. The session is dropped if
// the player does not join within the login timeout.
func (m *Manager) Login(id uuid.UUID, name string, data LoginData) *CorePlayer {
	p := newCorePlayer(m, id, name, data)

	m.mu.Lock()
	prev := m.players[id]
	m.players[id] = p
	m.mu.Unlock()

	if prev != nil {
		prev.leave()
	}
	if m.loginTimeout > 0 {
		time.AfterFunc(m.loginTimeout, func() { m.expire(p) })
	}
	return p
}

// expire removes p if it is still registered and has not joined yet.
func (m *Manager) expire(p *CorePlayer) {
	m.mu.Lock()
	if m.players[p.id] != p {
		m.mu.Unlock()
		return
	}
	p.mu.Lock()
	if p.status != StatusLogin {
		p.mu.Unlock()
		m.mu.Unlock()
		return
	}
	p.status = StatusLeft
	p.mu.Unlock()
	delete(m.players, p.id)
	m.mu.Unlock()

	m.log.Debug("Dropped session that never joined.", "player", p.Name(), "timeout", m.loginTimeout)
}

// Join attaches h to the session of the player and marks it joined. It
// reports false if the player has no session.
func (m *Manager) Join(id uuid.UUID, h Handle) (*CorePlayer, bool) {
	if h == nil {
		return nil, false
	}
	p, ok := m.Get(id)
	if !ok {
		return nil, false
	}
	p.mu.Lock()
	if p.status != StatusLogin {
		p.mu.Unlock()
		return nil, false
	}
	p.status = StatusJoined
	p.handle = h
	p.joinedAt = time.Now()
	if name := h.Name(); name != "" {
		p.name = name
	}
	p.mu.Unlock()

	if len(p.packs.packs) > 0 {
		p.packs.SetStatus(PackStatusLoaded)
	}
	h.SetNameTag(p.DisplayName())
	m.listener.HandleJoin(p)
	m.log.Debug("Player joined.", "player", p.Name(), "rank", p.Rank().Name)
	return p, true
}

// Quit tears down the UI of the player, marks its session left and removes
// it from the registry.
func (m *Manager) Quit(id uuid.UUID) {
	m.mu.Lock()
	p, ok := m.players[id]
	delete(m.players, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	p.teardown()
	p.leave()
	m.listener.HandleQuit(p)
	m.log.Debug("Player quit.", "player", p.Name())
}

// teardown removes everything the network UI showed to the player.
func (p *CorePlayer) teardown() {
	p.scoreboard.Remove()
	p.bossBar.Remove()
	p.title.Clear()
	p.headerFooter.Clear()
}

func (p *CorePlayer) leave() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = StatusLeft
	p.handle = nil
}

// Get returns the session of player id.
func (m *Manager) Get(id uuid.UUID) (*CorePlayer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.players[id]
	return p, ok
}

// ByName returns the session of a joined player by name, ignoring case.
func (m *Manager) ByName(name string) (*CorePlayer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.players {
		if p.Status() == StatusJoined && strings.EqualFold(p.Name(), name) {
			return p, true
		}
	}
	return nil, false
}

// Online returns the joined players sorted by name.
func (m *Manager) Online() []*CorePlayer {
	m.mu.RLock()
	out := make([]*CorePlayer, 0, len(m.players))
	for _, p := range m.players {
		if p.Status() == StatusJoined {
			out = append(out, p)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *CorePlayer) int {
		return strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	})
	return out
}

// Count returns the number of joined players.
func (m *Manager) Count() int {
	return len(m.Online())
}

// Staff returns the joined players with a staff rank.
func (m *Manager) Staff() []*CorePlayer {
	return slices.DeleteFunc(m.Online(), func(p *CorePlayer) bool { return !p.Rank().Staff() })
}

// Broadcast sends msg to every joined player.
func (m *Manager) Broadcast(msg string) {
	for _, p := range m.Online() {
		p.Sync(func(p *CorePlayer) { p.Message(msg) })
	}
}

// NotifyStaff sends msg to every joined staff member and returns how many
// were reached.
func (m *Manager) NotifyStaff(msg string) int {
	n := 0
	for _, p := range m.Staff() {
		if p.Sync(func(p *CorePlayer) { p.Message(msg) }) {
			n++
		}
	}
	return n
}

// Scheduler returns the scheduler sessions use to reach the world goroutine.
func (m *Manager) Scheduler() Scheduler {
	return m.scheduler
}

func (m *Manager) async(fn func(ctx context.Context)) {
	m.scheduler.Async(fn)
}

// goScheduler is used when no Scheduler is configured. It cannot reach world
// goroutines.
type goScheduler struct{}

func (goScheduler) Sync(uuid.UUID, func(Handle)) bool { return false }
func (goScheduler) Async(fn func(ctx context.Context)) {
	go fn(context.Background())
}

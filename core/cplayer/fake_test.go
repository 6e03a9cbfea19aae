package cplayer

import (
	"context"
	"sync"
	"time"

	"github.com/df-mc/dragonfly/server/entity/effect"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player/bossbar"
	"github.com/df-mc/dragonfly/server/player/scoreboard"
	"github.com/df-mc/dragonfly/server/player/skin"
	"github.com/df-mc/dragonfly/server/player/title"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/economy"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// fakeHandle records the calls forwarded to it.
type fakeHandle struct {
	name  string
	id    uuid.UUID
	calls []string

	health    float64
	pos       mgl64.Vec3
	effects   []effect.Effect
	messages  []string
	tips      []string
	bars      []bossbar.BossBar
	boards    []*scoreboard.Scoreboard
	titles    []title.Title
	nameTag   string
	particles []mgl64.Vec3
}

func newFakeHandle(name string) *fakeHandle {
	return &fakeHandle{name: name, id: uuid.New(), health: 20}
}

func (f *fakeHandle) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeHandle) Name() string       { return f.name }
func (f *fakeHandle) UUID() uuid.UUID    { return f.id }
func (f *fakeHandle) Health() float64    { return f.health }
func (f *fakeHandle) MaxHealth() float64 { return 20 }

func (f *fakeHandle) SetHealth(h float64) {
	f.record("SetHealth")
	f.health = h
}

func (f *fakeHandle) SetMaxHealth(float64)   { f.record("SetMaxHealth") }
func (f *fakeHandle) Food() int              { return 20 }
func (f *fakeHandle) SetFood(int)            { f.record("SetFood") }
func (f *fakeHandle) ExperienceLevel() int   { return 3 }
func (f *fakeHandle) SetExperienceLevel(int) { f.record("SetExperienceLevel") }
func (f *fakeHandle) Position() mgl64.Vec3   { return f.pos }

func (f *fakeHandle) Teleport(pos mgl64.Vec3) {
	f.record("Teleport")
	f.pos = pos
}

func (f *fakeHandle) Velocity() mgl64.Vec3       { return mgl64.Vec3{} }
func (f *fakeHandle) SetVelocity(mgl64.Vec3)     { f.record("SetVelocity") }
func (f *fakeHandle) GameMode() world.GameMode   { return world.GameModeSurvival }
func (f *fakeHandle) SetGameMode(world.GameMode) { f.record("SetGameMode") }
func (f *fakeHandle) PlaySound(world.Sound)      { f.record("PlaySound") }

func (f *fakeHandle) AddEffect(e effect.Effect) {
	f.record("AddEffect")
	f.effects = append(f.effects, e)
}

func (f *fakeHandle) RemoveEffect(effect.Type) { f.record("RemoveEffect") }
func (f *fakeHandle) Effects() []effect.Effect { return f.effects }
func (f *fakeHandle) Items() []item.Stack      { return nil }

func (f *fakeHandle) AddItem(s item.Stack) (int, error) {
	f.record("AddItem")
	return s.Count(), nil
}

func (f *fakeHandle) ClearInventory()  { f.record("ClearInventory") }
func (f *fakeHandle) SendPopup(...any) { f.record("SendPopup") }

func (f *fakeHandle) SendTitle(t title.Title) {
	f.record("SendTitle")
	f.titles = append(f.titles, t)
}

func (f *fakeHandle) RemoveScoreboard()      { f.record("RemoveScoreboard") }
func (f *fakeHandle) RemoveBossBar()         { f.record("RemoveBossBar") }
func (f *fakeHandle) SetNameTag(tag string)  { f.nameTag = tag }
func (f *fakeHandle) ExecuteCommand(string)  { f.record("ExecuteCommand") }
func (f *fakeHandle) Latency() time.Duration { return 42 * time.Millisecond }
func (f *fakeHandle) Locale() language.Tag   { return language.German }
func (f *fakeHandle) Skin() skin.Skin        { return skin.Skin{} }

func (f *fakeHandle) Transfer(string) error {
	f.record("Transfer")
	return nil
}

func (f *fakeHandle) Disconnect(...any) { f.record("Disconnect") }

func (f *fakeHandle) Message(a ...any) {
	f.record("Message")
	for _, v := range a {
		if s, ok := v.(string); ok {
			f.messages = append(f.messages, s)
		}
	}
}

func (f *fakeHandle) SendTip(a ...any) {
	f.record("SendTip")
	for _, v := range a {
		if s, ok := v.(string); ok {
			f.tips = append(f.tips, s)
		}
	}
}

func (f *fakeHandle) SendScoreboard(sb *scoreboard.Scoreboard) {
	f.record("SendScoreboard")
	f.boards = append(f.boards, sb)
}

func (f *fakeHandle) SendBossBar(bar bossbar.BossBar) {
	f.record("SendBossBar")
	f.bars = append(f.bars, bar)
}

func (f *fakeHandle) ShowParticle(pos mgl64.Vec3, _ world.Particle) {
	f.record("ShowParticle")
	f.particles = append(f.particles, pos)
}

// inlineScheduler runs background work on the calling goroutine.
type inlineScheduler struct {
	handles map[uuid.UUID]Handle
}

func (s inlineScheduler) Sync(id uuid.UUID, fn func(h Handle)) bool {
	h, ok := s.handles[id]
	if !ok {
		return false
	}
	fn(h)
	return true
}

func (inlineScheduler) Async(fn func(ctx context.Context)) { fn(context.Background()) }

type fakeEconomy struct {
	mu       sync.Mutex
	balances map[currency.Currency]int
	changes  []int
	async    []bool
}

func (e *fakeEconomy) Balance(_ context.Context, _ uuid.UUID, c currency.Currency) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances[c], nil
}

func (e *fakeEconomy) Change(_ context.Context, _ uuid.UUID, delta int, _ string, c currency.Currency, async bool) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.balances == nil {
		e.balances = map[currency.Currency]int{}
	}
	if !async && e.balances[c]+delta < 0 {
		return e.balances[c], economy.ErrInsufficientFunds
	}
	e.balances[c] += delta
	e.changes = append(e.changes, delta)
	e.async = append(e.async, async)
	return e.balances[c], nil
}

type fakeProfiles struct {
	ranks []string
	tags  [][]int
	honor []int
}

func (f *fakeProfiles) SetRank(_ context.Context, _ uuid.UUID, r string) error {
	f.ranks = append(f.ranks, r)
	return nil
}

func (f *fakeProfiles) SetTags(_ context.Context, _ uuid.UUID, tags []int) error {
	f.tags = append(f.tags, tags)
	return nil
}

func (f *fakeProfiles) SetHonor(_ context.Context, _ uuid.UUID, amount int, _ string) error {
	f.honor = append(f.honor, amount)
	return nil
}

type recordingListener struct {
	joined, quit []string
	rankChanges  [][2]rank.Rank
}

func (l *recordingListener) HandleJoin(p *CorePlayer) { l.joined = append(l.joined, p.Name()) }
func (l *recordingListener) HandleQuit(p *CorePlayer) { l.quit = append(l.quit, p.Name()) }

func (l *recordingListener) HandleRankChange(_ *CorePlayer, from, to rank.Rank) {
	l.rankChanges = append(l.rankChanges, [2]rank.Rank{from, to})
}

type recordingAchievements struct {
	given []int
}

func (r *recordingAchievements) Give(id int) { r.given = append(r.given, id) }

// env bundles a Manager with its fakes.
type env struct {
	m         *Manager
	economy   *fakeEconomy
	profiles  *fakeProfiles
	listener  *recordingListener
	scheduler inlineScheduler
}

func newEnv() *env {
	e := &env{
		economy:   &fakeEconomy{balances: map[currency.Currency]int{}},
		profiles:  &fakeProfiles{},
		listener:  &recordingListener{},
		scheduler: inlineScheduler{handles: map[uuid.UUID]Handle{}},
	}
	e.m = NewManager(Config{
		Economy:         e.economy,
		Honor:           e.profiles,
		Profiles:        e.profiles,
		Scheduler:       e.scheduler,
		Listener:        e.listener,
		ScoreboardTitle: "Network",
		Packs:           []PackInfo{{Name: "network", Version: "1.0.0"}},
	})
	return e
}

// join logs in and joins a player with a fresh fake handle.
func (e *env) join(name string, r rank.Rank, tags ...rank.Tag) (*CorePlayer, *fakeHandle) {
	h := newFakeHandle(name)
	e.m.Login(h.id, name, LoginData{Rank: r, Tags: tags})
	e.scheduler.handles[h.id] = h
	p, ok := e.m.Join(h.id, h)
	if !ok {
		panic("join failed")
	}
	return p, h
}

package achievement

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/df-mc/dragonfly/server/player/title"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/store/leveldb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// handle implements the parts of cplayer.Handle used by achievements.
type handle struct {
	cplayer.Handle
	name     string
	titles   int
	messages int
}

func (h *handle) Name() string          { return h.name }
func (h *handle) SetNameTag(string)     {}
func (h *handle) SendTitle(title.Title) { h.titles++ }
func (h *handle) Message(...any)        { h.messages++ }

type inlineRunner struct{}

func (inlineRunner) Go(fn func(ctx context.Context)) { fn(context.Background()) }

type scheduler struct {
	online map[uuid.UUID]cplayer.Handle
}

func (s scheduler) Sync(id uuid.UUID, fn func(h cplayer.Handle)) bool {
	h, ok := s.online[id]
	if ok {
		fn(h)
	}
	return ok
}

func (s scheduler) Async(fn func(ctx context.Context)) { fn(context.Background()) }

type economy struct {
	paid map[currency.Currency]int
}

func (e *economy) Balance(context.Context, uuid.UUID, currency.Currency) (int, error) { return 0, nil }

func (e *economy) Change(_ context.Context, _ uuid.UUID, delta int, _ string, c currency.Currency, _ bool) (int, error) {
	e.paid[c] += delta
	return e.paid[c], nil
}

type fixture struct {
	loader  *Loader
	store   *leveldb.Store
	eco     *economy
	sched   scheduler
	players *cplayer.Manager
	granted []int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	reg, err := NewRegistry(Defaults()...)
	require.NoError(t, err)

	f := &fixture{
		store: st,
		eco:   &economy{paid: map[currency.Currency]int{}},
		sched: scheduler{online: map[uuid.UUID]cplayer.Handle{}},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.players = cplayer.NewManager(cplayer.Config{Economy: f.eco, Scheduler: f.sched, Log: log})
	f.loader = NewLoader(reg, st, inlineRunner{}, log, func(_ *cplayer.CorePlayer, d Definition) {
		f.granted = append(f.granted, d.ID)
	})
	return f
}

func (f *fixture) join(t *testing.T, name string) (*cplayer.CorePlayer, *handle) {
	t.Helper()
	id := uuid.New()
	h := &handle{name: name}
	f.players.Login(id, name, cplayer.LoginData{})
	f.sched.online[id] = h
	p, ok := f.players.Join(id, h)
	require.True(t, ok)
	return p, h
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistry(Defaults()...)
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, len(Defaults()))
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	assert.ErrorIs(t, reg.Register(Definition{ID: FirstJoin, Name: "again"}), ErrDuplicate)
	assert.ErrorIs(t, reg.Register(Definition{ID: 0, Name: "zero"}), ErrInvalid)
	assert.ErrorIs(t, reg.Register(Definition{ID: 99, Name: "bad", Reward: 1, Currency: "gems"}), ErrInvalid)

	d, ok := reg.Lookup(Honourable)
	assert.True(t, ok)
	assert.Equal(t, "Honourable", d.Name)
	_, ok = reg.Lookup(1234)
	assert.False(t, ok)
}

func TestLoadReplaysBufferedGrants(t *testing.T) {
	f := newFixture(t)
	p, h := f.join(t, "Steve")
	require.NoError(t, f.store.AddAchievement(context.Background(), p.UUID(), FirstPurchase))

	p.GiveAchievement(FirstJoin)
	p.GiveAchievement(FirstPurchase)
	assert.Equal(t, []int{FirstJoin, FirstPurchase}, p.PendingAchievements())

	f.loader.Load(p)

	assert.Empty(t, p.PendingAchievements())
	got, ok := p.AchievementManager()
	require.True(t, ok)
	m := got.(*Manager)
	assert.Equal(t, []int{FirstJoin, FirstPurchase}, m.Owned())
	assert.Equal(t, []int{FirstJoin}, f.granted, "owned achievements are not granted again")
	assert.Equal(t, 100, f.eco.paid[currency.AdventureCoins])
	assert.Zero(t, f.eco.paid[currency.Tokens])
	assert.Equal(t, 1, h.titles)

	owned, err := f.store.Achievements(context.Background(), p.UUID())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{FirstJoin, FirstPurchase}, owned)
}

func TestGiveAfterAttach(t *testing.T) {
	f := newFixture(t)
	p, _ := f.join(t, "Alex")
	f.loader.Load(p)

	p.GiveAchievement(StaffChat)
	p.GiveAchievement(StaffChat)
	p.GiveAchievement(999)

	assert.Equal(t, []int{StaffChat}, f.granted)
	assert.Empty(t, f.eco.paid)
}

func TestLoadAfterQuit(t *testing.T) {
	f := newFixture(t)
	p, _ := f.join(t, "Gone")
	delete(f.sched.online, p.UUID())
	f.players.Quit(p.UUID())

	f.loader.Load(p)
	_, ok := p.AchievementManager()
	assert.False(t, ok)
}

func TestGameplayGrantsOnce(t *testing.T) {
	f := newFixture(t)
	p, h := f.join(t, "Alex")
	f.loader.Load(p)

	assert.True(t, p.TakeCurrency(1, "shop", currency.Tokens))
	assert.True(t, p.TakeCurrency(1, "shop", currency.Tokens))

	p.SetHonor(cplayer.HonourableThreshold, "helped")
	p.SetHonor(0, "griefed")
	p.AddHonor(cplayer.HonourableThreshold, "helped")

	p.GiveAchievement(StaffChat)
	p.GiveAchievement(StaffChat)

	assert.Equal(t, []int{FirstPurchase, Honourable, StaffChat}, f.granted)
	assert.Equal(t, 3, h.titles)

	got, _ := p.AchievementManager()
	assert.Equal(t, []int{FirstPurchase, Honourable, StaffChat}, got.(*Manager).Owned())
	owned, err := f.store.Achievements(context.Background(), p.UUID())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{FirstPurchase, Honourable, StaffChat}, owned)
}

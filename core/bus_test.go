package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/df-mc/dragonfly/server/player/scoreboard"
	"github.com/dm-vev/netcore/core/cache"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/message"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/dm-vev/netcore/core/store"
	"github.com/dm-vev/netcore/core/store/leveldb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandle implements the parts of cplayer.Handle reached by bus packets.
type testHandle struct {
	cplayer.Handle
	name string

	mu           sync.Mutex
	messages     []string
	nameTag      string
	disconnected string
}

func (h *testHandle) Name() string                          { return h.name }
func (h *testHandle) SendScoreboard(*scoreboard.Scoreboard) {}

func (h *testHandle) SetNameTag(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nameTag = s
}

func (h *testHandle) Message(a ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, fmt.Sprint(a...))
}

func (h *testHandle) Disconnect(a ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = fmt.Sprint(a...)
}

func (h *testHandle) snapshot() (messages []string, disconnected string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...), h.disconnected
}

type inlineScheduler struct {
	mu     sync.Mutex
	online map[uuid.UUID]cplayer.Handle
}

func (s *inlineScheduler) Sync(id uuid.UUID, fn func(h cplayer.Handle)) bool {
	s.mu.Lock()
	h, ok := s.online[id]
	s.mu.Unlock()
	if ok {
		fn(h)
	}
	return ok
}

func (s *inlineScheduler) Async(fn func(ctx context.Context)) { fn(context.Background()) }

type busFixture struct {
	core   *Core
	sched  *inlineScheduler
	store  *leveldb.Store
	remote *message.Local
}

func newBusFixture(t *testing.T) *busFixture {
	t.Helper()
	log := discardLogger()
	st, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	profiles := cache.NewProfiles(st, time.Minute)
	t.Cleanup(profiles.Stop)

	network := message.NewNetwork()
	sched := &inlineScheduler{online: map[uuid.UUID]cplayer.Handle{}}
	c := &Core{
		log:      log,
		profiles: profiles,
		players:  cplayer.NewManager(cplayer.Config{Profiles: st, Scheduler: sched, Log: log}),
		bus:      network.Join("lobby-1", log),
	}
	c.subscribe()
	t.Cleanup(func() {
		for _, unsubscribe := range c.unsubscribe {
			unsubscribe()
		}
	})
	return &busFixture{core: c, sched: sched, store: st, remote: network.Join("game-1", log)}
}

func (f *busFixture) join(t *testing.T, name string, r rank.Rank) (*cplayer.CorePlayer, *testHandle) {
	t.Helper()
	id := uuid.New()
	h := &testHandle{name: name}
	f.core.players.Login(id, name, cplayer.LoginData{Rank: r})
	f.sched.mu.Lock()
	f.sched.online[id] = h
	f.sched.mu.Unlock()
	p, ok := f.core.players.Join(id, h)
	require.True(t, ok)
	return p, h
}

func (f *busFixture) send(t *testing.T, p message.Packet) {
	t.Helper()
	require.NoError(t, f.remote.SendMessage(context.Background(), p, message.Broadcast))
}

func TestHandleKickByName(t *testing.T) {
	f := newBusFixture(t)
	_, h := f.join(t, "Steve", rank.Guest)

	f.send(t, message.KickPacket{Name: "steve", Reason: "Cheating.", Issuer: "Mod", IssuerRank: rank.Moderator.Name})
	_, reason := h.snapshot()
	assert.Equal(t, "Cheating.", reason)
}

func TestHandleKickRespectsRank(t *testing.T) {
	f := newBusFixture(t)
	_, mod := f.join(t, "Mod", rank.Moderator)
	_, guest := f.join(t, "Steve", rank.Guest)

	f.send(t, message.KickPacket{Name: "mod", Reason: "Bye.", Issuer: "Other", IssuerRank: rank.Moderator.Name})
	_, reason := mod.snapshot()
	assert.Empty(t, reason, "staff cannot kick their own rank")

	f.send(t, message.KickPacket{Name: "steve", Reason: "Bye.", Issuer: "Anon"})
	_, reason = guest.snapshot()
	assert.Empty(t, reason, "a kick without an issuer rank counts as a guest")

	f.send(t, message.KickPacket{Name: "mod", Reason: "Demoted.", Issuer: "Lead", IssuerRank: rank.Lead.Name})
	_, reason = mod.snapshot()
	assert.Equal(t, "Demoted.", reason)
}

func TestHandleKickUnknownPlayer(t *testing.T) {
	f := newBusFixture(t)
	_, h := f.join(t, "Steve", rank.Guest)

	f.send(t, message.KickPacket{Player: uuid.New(), Reason: "Bye."})
	_, reason := h.snapshot()
	assert.Empty(t, reason)
}

func TestHandleStaffNotification(t *testing.T) {
	f := newBusFixture(t)
	_, staff := f.join(t, "Helper", rank.Helper)
	_, guest := f.join(t, "Guest", rank.Guest)

	pk := message.StaffNotificationPacket{Server: "game-1", Sender: "Mod", Message: "check arena 2"}
	f.send(t, pk)
	messages, _ := staff.snapshot()
	assert.Equal(t, []string{pk.Format()}, messages)
	messages, _ = guest.snapshot()
	assert.Empty(t, messages)
}

func TestHandleRankUpdate(t *testing.T) {
	f := newBusFixture(t)
	p, _ := f.join(t, "Alex", rank.Guest)
	f.core.profiles.Put(store.Profile{UUID: p.UUID(), Name: "Alex"})

	f.send(t, message.RankUpdatePacket{Player: p.UUID(), Rank: rank.VIP.Name, Tags: []int{rank.Tester.ID}})
	assert.Equal(t, rank.VIP, p.Rank())
	assert.Equal(t, []rank.Tag{rank.Tester}, p.Tags())
	assert.Zero(t, f.core.profiles.Len())

	offline := uuid.New()
	f.core.profiles.Put(store.Profile{UUID: offline, Name: "Gone"})
	f.send(t, message.RankUpdatePacket{Player: offline, Rank: rank.MVP.Name})
	assert.Zero(t, f.core.profiles.Len())
}

package builtin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/player/scoreboard"
	"github.com/dm-vev/netcore/core/cache"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/economy"
	"github.com/dm-vev/netcore/core/message"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/dm-vev/netcore/core/store"
	"github.com/dm-vev/netcore/core/store/leveldb"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// console is a command source that hands its output to the test.
type console struct {
	out chan *cmd.Output
}

func newConsole() console { return console{out: make(chan *cmd.Output, 4)} }

func (console) Position() mgl64.Vec3              { return mgl64.Vec3{} }
func (console) Name() string                      { return "Console" }
func (c console) SendCommandOutput(o *cmd.Output) { c.out <- o }

// wait returns the next output sent to the console.
func (c console) wait(t *testing.T) *cmd.Output {
	t.Helper()
	select {
	case o := <-c.out:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("no command output")
		return nil
	}
}

// playerSrc is a command source run by a player on this server.
type playerSrc struct {
	console
	id   uuid.UUID
	name string
}

func asPlayer(cp *cplayer.CorePlayer) playerSrc {
	return playerSrc{console: newConsole(), id: cp.UUID(), name: cp.Name()}
}

func (s playerSrc) UUID() uuid.UUID { return s.id }
func (s playerSrc) Name() string    { return s.name }

func lines(o *cmd.Output) string {
	var b strings.Builder
	for _, m := range o.Messages() {
		b.WriteString(m.String())
		b.WriteByte('\n')
	}
	for _, err := range o.Errors() {
		b.WriteString("error: " + err.Error())
		b.WriteByte('\n')
	}
	return b.String()
}

// handle implements the parts of cplayer.Handle used by the commands.
type handle struct {
	cplayer.Handle
	name string

	mu           sync.Mutex
	messages     []string
	disconnected string
}

func (h *handle) Name() string                          { return h.name }
func (h *handle) SetNameTag(string)                     {}
func (h *handle) SendScoreboard(*scoreboard.Scoreboard) {}

func (h *handle) Message(a ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, fmt.Sprint(a...))
}

func (h *handle) Disconnect(a ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnected = fmt.Sprint(a...)
}

func (h *handle) received() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}

type scheduler struct {
	mu     sync.Mutex
	online map[uuid.UUID]cplayer.Handle
}

func (s *scheduler) Sync(id uuid.UUID, fn func(h cplayer.Handle)) bool {
	s.mu.Lock()
	h, ok := s.online[id]
	s.mu.Unlock()
	if ok {
		fn(h)
	}
	return ok
}

func (s *scheduler) Async(fn func(ctx context.Context)) { fn(context.Background()) }

type fixture struct {
	s       Services
	store   *leveldb.Store
	sched   *scheduler
	remote  *message.Local
	packets chan message.Packet
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := leveldb.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	tasks := economy.NewTasks(context.Background(), log)
	eco, err := economy.NewService(st, tasks, log, nil)
	require.NoError(t, err)
	honor, err := economy.NewHonorService(st, log, nil)
	require.NoError(t, err)
	profiles := cache.NewProfiles(st, time.Minute)
	t.Cleanup(profiles.Stop)

	network := message.NewNetwork()
	f := &fixture{
		store:   st,
		sched:   &scheduler{online: map[uuid.UUID]cplayer.Handle{}},
		remote:  network.Join("game-1", log),
		packets: make(chan message.Packet, 4),
	}
	for _, kind := range []message.Kind{message.KindKick, message.KindRankUpdate, message.KindStaffNotification} {
		f.remote.Subscribe(kind, func(_ context.Context, _ string, p message.Packet) { f.packets <- p })
	}
	players := cplayer.NewManager(cplayer.Config{Economy: eco, Honor: honor, Profiles: st, Scheduler: f.sched, Log: log})
	f.s = Services{
		Server:   "lobby-1",
		Store:    st,
		Players:  players,
		Economy:  eco,
		Honor:    honor,
		Profiles: profiles,
		Bus:      network.Join("lobby-1", log),
		Log:      log,
	}
	return f
}

// join creates an online session on this server.
func (f *fixture) join(t *testing.T, name string, r rank.Rank) (*cplayer.CorePlayer, *handle) {
	t.Helper()
	id := uuid.New()
	h := &handle{name: name}
	require.NoError(t, f.store.SaveProfile(context.Background(), store.Profile{UUID: id, Name: name, Rank: r.Name}))
	f.s.Players.Login(id, name, cplayer.LoginData{Rank: r})
	f.sched.mu.Lock()
	f.sched.online[id] = h
	f.sched.mu.Unlock()
	p, ok := f.s.Players.Join(id, h)
	require.True(t, ok)
	return p, h
}

// offline stores a profile for a player that is not on this server.
func (f *fixture) offline(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.store.SaveProfile(context.Background(), store.Profile{UUID: id, Name: name, Rank: rank.Guest.Name}))
	return id
}

func (f *fixture) packet(t *testing.T) message.Packet {
	t.Helper()
	select {
	case p := <-f.packets:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no packet published")
		return nil
	}
}

func TestCommands(t *testing.T) {
	f := newFixture(t)
	assert.Len(t, Commands(f.s), 9)

	f.s.Whitelist = &whitelist{}
	names := make([]string, 0)
	for _, c := range Commands(f.s) {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "whitelist")
	assert.NotContains(t, names, "plugin")
}

func TestConsoleHoldsEveryPermission(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, rank.Lead, f.s.sourceRank(newConsole()))
	assert.True(t, rankSetCommand{s: f.s}.Allow(newConsole()))
	assert.Equal(t, "Console", sourceName(newConsole()))
}

func TestRankSetOffline(t *testing.T) {
	f := newFixture(t)
	id := f.offline(t, "Steve")
	src := newConsole()

	rankSetCommand{s: f.s, Player: "steve", Rank: "vip"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Set the rank of Steve to VIP.")

	p, err := f.store.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, rank.VIP.Name, p.Rank)

	pk, ok := f.packet(t).(message.RankUpdatePacket)
	require.True(t, ok)
	assert.Equal(t, id, pk.Player)
	assert.Equal(t, rank.VIP.Name, pk.Rank)
}

func TestRankSetOnline(t *testing.T) {
	f := newFixture(t)
	cp, _ := f.join(t, "Alex", rank.Member)
	src := newConsole()

	rankSetCommand{s: f.s, Player: "Alex", Rank: "mvp"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Set the rank of Alex to MVP.")
	assert.Equal(t, rank.MVP, cp.Rank())

	p, err := f.store.Profile(context.Background(), cp.UUID())
	require.NoError(t, err)
	assert.Equal(t, rank.MVP.Name, p.Rank)
}

func TestRankSetProtectsHigherRanks(t *testing.T) {
	f := newFixture(t)
	boss, h := f.join(t, "Boss", rank.Manager)
	id := uuid.New()
	require.NoError(t, f.store.SaveProfile(context.Background(), store.Profile{UUID: id, Name: "Owner", Rank: rank.Lead.Name}))

	rankSetCommand{s: f.s, Player: "Owner", Rank: "guest"}.Run(asPlayer(boss), &cmd.Output{}, nil)
	require.Eventually(t, func() bool { return len(h.received()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, h.received()[0], "You cannot change the rank of Owner.")

	p, err := f.store.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, rank.Lead.Name, p.Rank)

	o := &cmd.Output{}
	rankSetCommand{s: f.s, Player: "Owner", Rank: "lead"}.Run(asPlayer(boss), o, nil)
	assert.Contains(t, lines(o), "You cannot grant Lead.")
}

func TestRankInfoUnknownPlayer(t *testing.T) {
	f := newFixture(t)
	src := newConsole()
	rankInfoCommand{s: f.s, Player: "nobody"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "never joined the network")
}

func TestTagAddAndRemove(t *testing.T) {
	f := newFixture(t)
	id := f.offline(t, "Steve")
	src := newConsole()

	tagAddCommand{s: f.s, Player: "Steve", Tag: "tester"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Added the tester tag to Steve.")
	p, err := f.store.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []int{rank.Tester.ID}, p.Tags)
	pk := f.packet(t).(message.RankUpdatePacket)
	assert.Equal(t, []int{rank.Tester.ID}, pk.Tags)

	tagAddCommand{s: f.s, Player: "Steve", Tag: "tester"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "already has")

	tagRemoveCommand{s: f.s, Player: "Steve", Tag: "tester"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Removed the tester tag from Steve.")
	p, err = f.store.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, p.Tags)
}

func TestTagAddUnknown(t *testing.T) {
	f := newFixture(t)
	o := &cmd.Output{}
	tagAddCommand{s: f.s, Player: "Steve", Tag: "wizard"}.Run(newConsole(), o, nil)
	assert.Len(t, o.Errors(), 1)
}

func TestEcoGiveAndTake(t *testing.T) {
	f := newFixture(t)
	id := f.offline(t, "Steve")
	src := newConsole()

	ecoGiveCommand{s: f.s, Player: "Steve", Amount: 50, Currency: "tokens"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Steve now has 50 Tokens.")

	ecoTakeCommand{s: f.s, Player: "Steve", Amount: 80, Currency: "tokens"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Steve only has 50 Tokens.")

	bal, err := f.s.Economy.Balance(context.Background(), id, currency.Tokens)
	require.NoError(t, err)
	assert.Equal(t, 50, bal)

	txs, err := f.s.Economy.History(context.Background(), id, 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Given by Console", txs[0].Reason)
}

func TestEcoGiveNotifiesOnlinePlayer(t *testing.T) {
	f := newFixture(t)
	_, h := f.join(t, "Alex", rank.Guest)
	src := newConsole()

	ecoGiveCommand{s: f.s, Player: "Alex", Amount: 5, Currency: "coins"}.Run(src, &cmd.Output{}, nil)
	src.wait(t)
	require.Eventually(t, func() bool { return len(h.received()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, h.received()[0], "+5 Adventure Coins")
}

func TestEcoRejectsNonPositive(t *testing.T) {
	f := newFixture(t)
	id := f.offline(t, "Steve")
	src := newConsole()
	ecoGiveCommand{s: f.s, Player: "Steve", Amount: 10, Currency: "tokens"}.Run(src, &cmd.Output{}, nil)
	src.wait(t)

	for _, amount := range []int{0, -5} {
		o := &cmd.Output{}
		ecoGiveCommand{s: f.s, Player: "Steve", Amount: amount, Currency: "tokens"}.Run(src, o, nil)
		assert.Len(t, o.Errors(), 1)

		o = &cmd.Output{}
		ecoTakeCommand{s: f.s, Player: "Steve", Amount: amount, Currency: "tokens"}.Run(src, o, nil)
		assert.Len(t, o.Errors(), 1)
	}
	assert.Empty(t, src.out, "rejected amounts never reach the store")

	bal, err := f.s.Economy.Balance(context.Background(), id, currency.Tokens)
	require.NoError(t, err)
	assert.Equal(t, 10, bal)
}

func TestHonorCommands(t *testing.T) {
	f := newFixture(t)
	id := f.offline(t, "Steve")
	src := newConsole()

	honorAddCommand{s: f.s, Player: "Steve", Amount: 7}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Steve now has 7 honor.")

	honorSetCommand{s: f.s, Player: "Steve", Amount: 3}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Set the honor of Steve to 3.")

	honor, err := f.s.Honor.Honor(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, honor)

	honorShowCommand{s: f.s, Player: "steve"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Steve has 3 honor.")
}

func TestNetKickLocal(t *testing.T) {
	f := newFixture(t)
	_, h := f.join(t, "Alex", rank.Guest)
	o := &cmd.Output{}

	netKickCommand{s: f.s, Player: "alex"}.Run(newConsole(), o, nil)
	assert.Empty(t, o.Errors())
	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, defaultKickReason, h.disconnected)
}

func TestNetKickRespectsRank(t *testing.T) {
	f := newFixture(t)
	mod, _ := f.join(t, "Mod", rank.Moderator)
	_, other := f.join(t, "OtherMod", rank.Moderator)
	_, guest := f.join(t, "Steve", rank.Guest)

	o := &cmd.Output{}
	netKickCommand{s: f.s, Player: "OtherMod"}.Run(asPlayer(mod), o, nil)
	assert.Contains(t, lines(o), "You cannot kick OtherMod.")
	assert.Empty(t, other.disconnected)

	o = &cmd.Output{}
	netKickCommand{s: f.s, Player: "steve"}.Run(asPlayer(mod), o, nil)
	assert.Empty(t, o.Errors())
	assert.Equal(t, defaultKickReason, guest.disconnected)
}

func TestNetKickUnreachable(t *testing.T) {
	f := newFixture(t)
	cp, _ := f.join(t, "Alex", rank.Guest)
	f.sched.mu.Lock()
	delete(f.sched.online, cp.UUID())
	f.sched.mu.Unlock()

	o := &cmd.Output{}
	netKickCommand{s: f.s, Player: "Alex"}.Run(newConsole(), o, nil)
	assert.Empty(t, o.Messages())
	assert.Contains(t, lines(o), "Alex left before they could be kicked.")
}

func TestNetKickRemoteCarriesRank(t *testing.T) {
	f := newFixture(t)
	mod, h := f.join(t, "Mod", rank.Moderator)

	netKickCommand{s: f.s, Player: "Herobrine"}.Run(asPlayer(mod), &cmd.Output{}, nil)
	pk, ok := f.packet(t).(message.KickPacket)
	require.True(t, ok)
	assert.Equal(t, "Mod", pk.Issuer)
	assert.Equal(t, rank.Moderator.Name, pk.IssuerRank)
	require.Eventually(t, func() bool { return len(h.received()) == 1 }, time.Second, 10*time.Millisecond)
}

func TestNetKickRemote(t *testing.T) {
	f := newFixture(t)
	src := newConsole()

	netKickCommand{s: f.s, Player: "Herobrine"}.Run(src, &cmd.Output{}, nil)
	assert.Contains(t, lines(src.wait(t)), "Asked the network to kick Herobrine.")

	pk, ok := f.packet(t).(message.KickPacket)
	require.True(t, ok)
	assert.Equal(t, "Herobrine", pk.Name)
	assert.Equal(t, "Console", pk.Issuer)
	assert.Equal(t, rank.Lead.Name, pk.IssuerRank)
}

func TestStaffChat(t *testing.T) {
	f := newFixture(t)
	_, helper := f.join(t, "Helper", rank.Helper)
	_, guest := f.join(t, "Guest", rank.Guest)

	staffChatCommand{s: f.s, Message: "hello staff"}.Run(newConsole(), &cmd.Output{}, nil)

	require.Len(t, helper.received(), 1)
	assert.Contains(t, helper.received()[0], "hello staff")
	assert.Empty(t, guest.received())

	pk, ok := f.packet(t).(message.StaffNotificationPacket)
	require.True(t, ok)
	assert.Equal(t, "lobby-1", pk.Server)
	assert.Equal(t, "Console", pk.Sender)
}

func TestStaffChatGrantsAchievement(t *testing.T) {
	f := newFixture(t)
	cp, _ := f.join(t, "Helper", rank.Helper)

	staffChatCommand{s: f.s, Message: "first"}.Run(asPlayer(cp), &cmd.Output{}, nil)
	staffChatCommand{s: f.s, Message: "second"}.Run(asPlayer(cp), &cmd.Output{}, nil)
	assert.Equal(t, []int{cplayer.AchievementStaffChat}, cp.PendingAchievements())

	f.packet(t)
	f.packet(t)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.join(t, "bob", rank.Guest)
	f.join(t, "Alice", rank.Moderator)

	o := &cmd.Output{}
	listCommand{s: f.s}.Run(newConsole(), o, nil)
	out := lines(o)
	assert.Contains(t, out, "There are 2 players online on lobby-1.")
	assert.Less(t, strings.Index(out, "Alice"), strings.Index(out, "bob"))
}

type whitelist struct {
	enabled bool
	names   []string
}

func (w *whitelist) Enabled() bool           { return w.enabled }
func (w *whitelist) SetEnabled(enabled bool) { w.enabled = enabled }
func (w *whitelist) Players() []string       { return w.names }

func (w *whitelist) Add(name string) (bool, error) {
	for _, n := range w.names {
		if strings.EqualFold(n, name) {
			return false, nil
		}
	}
	w.names = append(w.names, name)
	return true, nil
}

func (w *whitelist) Remove(name string) (bool, error) {
	for i, n := range w.names {
		if strings.EqualFold(n, name) {
			w.names = append(w.names[:i], w.names[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func TestWhitelistCommands(t *testing.T) {
	f := newFixture(t)
	wl := &whitelist{}
	f.s.Whitelist = wl
	src := newConsole()

	o := &cmd.Output{}
	whitelistAddCommand{s: f.s, Name: " Steve "}.Run(src, o, nil)
	assert.Contains(t, lines(o), "Added Steve to the whitelist.")

	o = &cmd.Output{}
	whitelistAddCommand{s: f.s, Name: "steve"}.Run(src, o, nil)
	assert.Contains(t, lines(o), "already on the whitelist")

	whitelistOnCommand{s: f.s}.Run(src, &cmd.Output{}, nil)
	assert.True(t, wl.enabled)

	o = &cmd.Output{}
	whitelistListCommand{s: f.s}.Run(src, o, nil)
	assert.Contains(t, lines(o), "Whitelist (enabled): 1 player(s).")

	o = &cmd.Output{}
	whitelistRemoveCommand{s: f.s, Name: "Steve"}.Run(src, o, nil)
	assert.Contains(t, lines(o), "Removed Steve from the whitelist.")

	whitelistOffCommand{s: f.s}.Run(src, &cmd.Output{}, nil)
	assert.False(t, wl.enabled)
}

func TestEnumOptions(t *testing.T) {
	assert.Contains(t, rankName("").Options(nil), "mvp_plus")
	assert.Contains(t, tagName("").Options(nil), "tester")
	assert.Equal(t, []string{"adventure_coins", "tokens", "balance"}, currencyName("").Options(nil))
}

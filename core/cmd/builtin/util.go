package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/message"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/text"
)

// storeTimeout bounds the store and bus calls of a single command.
const storeTimeout = 5 * time.Second

type namedSource interface {
	Name() string
}

// sourceName returns a user facing name for the source invoking a command.
func sourceName(src cmd.Source) string {
	if n, ok := src.(namedSource); ok {
		return n.Name()
	}
	return "Server"
}

// playerSource is implemented by *player.Player.
type playerSource interface {
	UUID() uuid.UUID
}

// sourcePlayer returns the session of the player running a command.
func (s Services) sourcePlayer(src cmd.Source) (*cplayer.CorePlayer, bool) {
	p, ok := src.(playerSource)
	if !ok {
		return nil, false
	}
	return s.Players.Get(p.UUID())
}

// sourceRank returns the rank of the player running a command. Other sources,
// such as the console, hold every permission.
func (s Services) sourceRank(src cmd.Source) rank.Rank {
	if _, ok := src.(playerSource); !ok {
		return rank.Lead
	}
	if cp, ok := s.sourcePlayer(src); ok {
		return cp.Rank()
	}
	return rank.Guest
}

func (s Services) allow(src cmd.Source, min rank.Rank) bool {
	return s.sourceRank(src).AtLeast(min)
}

// reply collects the output of a command that finishes off the world
// goroutine.
type reply struct {
	lines  []string
	failed []string
}

func (r *reply) Printf(format string, a ...any) {
	r.lines = append(r.lines, fmt.Sprintf(format, a...))
}

func (r *reply) Errorf(format string, a ...any) {
	r.failed = append(r.failed, fmt.Sprintf(format, a...))
}

// async runs fn on a new goroutine and sends its reply to src. Commands use it
// for store and bus calls so that the world is never blocked on I/O.
func (s Services) async(src cmd.Source, fn func(ctx context.Context, r *reply)) {
	send := s.recipient(src)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		r := &reply{}
		fn(ctx, r)
		send(r)
	}()
}

// recipient returns the function delivering a reply to src. It must be called
// from the transaction running the command.
func (s Services) recipient(src cmd.Source) func(r *reply) {
	if p, ok := src.(playerSource); ok {
		id := p.UUID()
		return func(r *reply) {
			cp, ok := s.Players.Get(id)
			if !ok {
				return
			}
			cp.Sync(func(cp *cplayer.CorePlayer) {
				for _, line := range r.lines {
					cp.Message(line)
				}
				for _, line := range r.failed {
					cp.Message(text.Colourf("<red>%s</red>", line))
				}
			})
		}
	}
	return func(r *reply) {
		o := &cmd.Output{}
		for _, line := range r.lines {
			o.Print(line)
		}
		for _, line := range r.failed {
			o.Error(line)
		}
		src.SendCommandOutput(o)
	}
}

// target is a player named in a command. online is set if the player is on
// this server.
type target struct {
	id     uuid.UUID
	name   string
	rank   rank.Rank
	tags   []rank.Tag
	online *cplayer.CorePlayer
}

var errUnknownPlayer = errors.New("unknown player")

// lookup resolves name to a player on this server or, failing that, to a
// stored profile.
func (s Services) lookup(ctx context.Context, name string) (target, error) {
	name = strings.TrimSpace(name)
	if cp, ok := s.Players.ByName(name); ok {
		return target{id: cp.UUID(), name: cp.Name(), rank: cp.Rank(), tags: cp.Tags(), online: cp}, nil
	}
	p, err := s.Profiles.ByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return target{}, fmt.Errorf("%w: %s has never joined the network", errUnknownPlayer, name)
	}
	if err != nil {
		return target{}, fmt.Errorf("load profile of %s: %w", name, err)
	}
	return target{id: p.UUID, name: p.Name, rank: rank.FromString(p.Rank), tags: rank.TagsByID(p.Tags)}, nil
}

// publishSocial tells every server about the new rank and tags of t.
func (s Services) publishSocial(ctx context.Context, t target) {
	s.Profiles.Invalidate(t.id)
	if s.Bus == nil {
		return
	}
	pk := message.RankUpdatePacket{Player: t.id, Rank: t.rank.Name, Tags: rank.TagIDs(t.tags)}
	if err := s.Bus.SendMessage(ctx, pk, message.Broadcast); err != nil {
		s.Log.Warn("Failed to publish rank update.", "player", t.name, "err", err)
	}
}

// rankName exposes the ranks as an enum so the client can complete them.
type rankName string

func (rankName) Type() string { return "Rank" }

func (rankName) Options(cmd.Source) []string {
	ranks := rank.All()
	names := make([]string, 0, len(ranks))
	for _, r := range ranks {
		names = append(names, r.Name)
	}
	return names
}

type tagName string

func (tagName) Type() string { return "Tag" }

func (tagName) Options(cmd.Source) []string {
	tags := rank.Tags()
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

type currencyName string

func (currencyName) Type() string { return "Currency" }

func (currencyName) Options(cmd.Source) []string {
	all := currency.All()
	names := make([]string, 0, len(all))
	for _, c := range all {
		names = append(names, string(c))
	}
	return names
}

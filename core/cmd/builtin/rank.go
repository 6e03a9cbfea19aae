package builtin

import (
	"context"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/rank"
)

type rankSetCommand struct {
	s      Services
	Set    cmd.SubCommand `cmd:"set"`
	Player string         `cmd:"player"`
	Rank   rankName       `cmd:"rank"`
}

type rankInfoCommand struct {
	s      Services
	Info   cmd.SubCommand `cmd:"info"`
	Player string         `cmd:"player"`
}

func newRankCommand(s Services) cmd.Command {
	return cmd.New("rank", "Shows or changes the network rank of a player.", nil, rankSetCommand{s: s}, rankInfoCommand{s: s})
}

func (c rankSetCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	r := rank.FromString(string(c.Rank))
	by := c.s.sourceRank(src)
	if !by.AtLeast(r) {
		o.Errorf("You cannot grant %s.", r.DisplayName)
		return
	}
	issuer := sourceName(src)
	c.s.async(src, func(ctx context.Context, out *reply) {
		t, err := c.s.lookup(ctx, c.Player)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		if !by.AtLeast(t.rank) {
			out.Errorf("You cannot change the rank of %s.", t.name)
			return
		}
		if t.online == nil || !t.online.Sync(func(p *cplayer.CorePlayer) { p.SetRank(r) }) {
			if err := c.s.Store.SetRank(ctx, t.id, r.Name); err != nil {
				out.Errorf("Failed to save the rank of %s: %v", t.name, err)
				return
			}
		}
		t.rank = r
		c.s.publishSocial(ctx, t)
		c.s.Log.Info("Rank changed.", "player", t.name, "rank", r.Name, "issuer", issuer)
		out.Printf("Set the rank of %s to %s.", t.name, r.DisplayName)
	})
}

func (c rankSetCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Manager)
}

func (c rankInfoCommand) Run(src cmd.Source, _ *cmd.Output, _ *world.Tx) {
	c.s.async(src, func(ctx context.Context, out *reply) {
		t, err := c.s.lookup(ctx, c.Player)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		out.Printf("%s is %s.", rank.FormatName(t.rank, t.name), t.rank.DisplayName)
		if len(t.tags) != 0 {
			out.Printf("Tags: %s", rank.FormatChat(t.tags))
		}
	})
}

func (c rankInfoCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Helper)
}

package builtin

import (
	"context"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/rank"
)

type honorShowCommand struct {
	s      Services
	Player string `cmd:"player"`
}

type honorSetCommand struct {
	s      Services
	Set    cmd.SubCommand            `cmd:"set"`
	Player string                    `cmd:"player"`
	Amount int                       `cmd:"amount"`
	Reason cmd.Optional[cmd.Varargs] `cmd:"reason"`
}

type honorAddCommand struct {
	s      Services
	Add    cmd.SubCommand            `cmd:"add"`
	Player string                    `cmd:"player"`
	Amount int                       `cmd:"amount"`
	Reason cmd.Optional[cmd.Varargs] `cmd:"reason"`
}

func newHonorCommand(s Services) cmd.Command {
	return cmd.New("honor", "Shows or changes the honor of a player.", nil, honorShowCommand{s: s}, honorSetCommand{s: s}, honorAddCommand{s: s})
}

func (c honorShowCommand) Run(src cmd.Source, _ *cmd.Output, _ *world.Tx) {
	c.s.async(src, func(ctx context.Context, out *reply) {
		t, err := c.s.lookup(ctx, c.Player)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		honor, err := c.s.Honor.Honor(ctx, t.id)
		if err != nil {
			out.Errorf("Failed to load the honor of %s: %v", t.name, err)
			return
		}
		out.Printf("%s has %d honor.", t.name, honor)
	})
}

func (c honorSetCommand) Run(src cmd.Source, _ *cmd.Output, _ *world.Tx) {
	reason := reasonOr(c.Reason, "Set by "+sourceName(src))
	c.s.async(src, func(ctx context.Context, out *reply) {
		t, err := c.s.lookup(ctx, c.Player)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		if t.online == nil || !t.online.Sync(func(p *cplayer.CorePlayer) { p.SetHonor(c.Amount, reason) }) {
			if err := c.s.Honor.SetHonor(ctx, t.id, c.Amount, reason); err != nil {
				out.Errorf("Failed to save the honor of %s: %v", t.name, err)
				return
			}
		}
		out.Printf("Set the honor of %s to %d.", t.name, c.Amount)
	})
}

func (c honorSetCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Manager)
}

func (c honorAddCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	if c.Amount == 0 {
		o.Error("The amount must not be 0.")
		return
	}
	reason := reasonOr(c.Reason, "Given by "+sourceName(src))
	c.s.async(src, func(ctx context.Context, out *reply) {
		t, err := c.s.lookup(ctx, c.Player)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		if t.online != nil && t.online.Sync(func(p *cplayer.CorePlayer) { p.AddHonor(c.Amount, reason) }) {
			out.Printf("Gave %+d honor to %s.", c.Amount, t.name)
			return
		}
		honor, err := c.s.Honor.AddHonor(ctx, t.id, c.Amount, reason)
		if err != nil {
			out.Errorf("Failed to save the honor of %s: %v", t.name, err)
			return
		}
		out.Printf("%s now has %d honor.", t.name, honor)
	})
}

func (c honorAddCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Manager)
}

package builtin

import (
	"context"
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/message"
	"github.com/dm-vev/netcore/core/rank"
)

const defaultKickReason = "Kicked by a staff member."

// netKickCommand kicks a player from whichever server of the network they
// are on.
type netKickCommand struct {
	s      Services
	Player string                    `cmd:"player"`
	Reason cmd.Optional[cmd.Varargs] `cmd:"reason"`
}

func newNetKickCommand(s Services) cmd.Command {
	return cmd.New("netkick", "Kicks a player from the network.", []string{"nkick"}, netKickCommand{s: s})
}

func (c netKickCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	name := strings.TrimSpace(c.Player)
	if name == "" {
		o.Error("A player name is required.")
		return
	}
	reason := reasonOr(c.Reason, defaultKickReason)
	issuer := sourceName(src)

	by := c.s.sourceRank(src)

	if cp, ok := c.s.Players.ByName(name); ok {
		if !canKick(by, cp.Rank()) {
			o.Errorf("You cannot kick %s.", cp.Name())
			return
		}
		if !cp.Sync(func(p *cplayer.CorePlayer) { p.Kick(reason) }) {
			o.Errorf("%s left before they could be kicked.", cp.Name())
			return
		}
		c.s.Log.Info("Player kicked.", "player", cp.Name(), "reason", reason, "issuer", issuer)
		o.Printf("Kicked %s.", cp.Name())
		return
	}
	if c.s.Bus == nil {
		o.Errorf("%s is not online.", name)
		return
	}
	c.s.async(src, func(ctx context.Context, out *reply) {
		pk := message.KickPacket{Name: name, Reason: reason, Issuer: issuer, IssuerRank: by.Name}
		if err := c.s.Bus.SendMessage(ctx, pk, message.Broadcast); err != nil {
			out.Errorf("Failed to reach the network: %v", err)
			return
		}
		out.Printf("Asked the network to kick %s.", name)
	})
}

// canKick reports if a player of rank by may kick a player of rank target.
// Below Lead, staff cannot kick players of their own rank or higher.
func canKick(by, target rank.Rank) bool {
	return by.ID >= rank.Lead.ID || !target.AtLeast(by)
}

func (c netKickCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Moderator)
}

package core

import (
	"context"

	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/message"
	"github.com/dm-vev/netcore/core/rank"
)

// subscribe registers the handlers for packets sent by other servers.
func (c *Core) subscribe() {
	c.unsubscribe = append(c.unsubscribe,
		c.bus.Subscribe(message.KindKick, c.handleKick),
		c.bus.Subscribe(message.KindStaffNotification, c.handleStaffNotification),
		c.bus.Subscribe(message.KindRankUpdate, c.handleRankUpdate),
	)
}

func (c *Core) handleKick(_ context.Context, source string, p message.Packet) {
	pk := p.(message.KickPacket)
	target, ok := c.players.Get(pk.Player)
	if !ok && pk.Name != "" {
		target, ok = c.players.ByName(pk.Name)
	}
	if !ok {
		return
	}
	if by := rank.FromString(pk.IssuerRank); by.ID < rank.Lead.ID && target.Rank().AtLeast(by) {
		c.log.Warn("Refused kick of player with equal or higher rank.", "player", target.Name(), "rank", target.Rank().Name, "source", source, "issuer", pk.Issuer, "issuerRank", by.Name)
		return
	}
	if !target.Sync(func(p *cplayer.CorePlayer) { p.Kick(pk.Reason) }) {
		return
	}
	c.log.Info("Kicked player on request of another server.", "player", target.Name(), "source", source, "issuer", pk.Issuer)
}

func (c *Core) handleStaffNotification(_ context.Context, _ string, p message.Packet) {
	c.players.NotifyStaff(p.(message.StaffNotificationPacket).Format())
}

func (c *Core) handleRankUpdate(_ context.Context, _ string, p message.Packet) {
	pk := p.(message.RankUpdatePacket)
	c.profiles.Invalidate(pk.Player)
	target, ok := c.players.Get(pk.Player)
	if !ok {
		return
	}
	r, tags := rank.FromString(pk.Rank), rank.TagsByID(pk.Tags)
	target.Sync(func(p *cplayer.CorePlayer) { p.ApplySocial(r, tags) })
}

package core

import (
	"strings"

	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/player/chat"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/cplayer/dfhandle"
	"github.com/dm-vev/netcore/core/rank"
)

// playerHandler keeps the session of a player in step with its host player.
type playerHandler struct {
	player.NopHandler
	c  *Core
	cp *cplayer.CorePlayer
}

// HandleChat replaces the vanilla chat line with one carrying the rank and
// tags of the sender.
func (h *playerHandler) HandleChat(ctx *player.Context, message *string) {
	ctx.Cancel()
	msg := strings.TrimSpace(*message)
	if msg == "" {
		return
	}
	h.cp.Bind(dfhandle.New(ctx.Val()))
	_, _ = chat.Global.WriteString(rank.FormatChatLine(h.cp.Rank(), h.cp.Tags(), h.cp.Name(), msg))
}

func (h *playerHandler) HandleQuit(p *player.Player) {
	h.cp.Bind(dfhandle.New(p))
	h.c.skins.Put(p.UUID(), p.Skin())
	h.c.players.Quit(p.UUID())
}

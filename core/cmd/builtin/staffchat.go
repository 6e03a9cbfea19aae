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

// staffChatCommand sends a message to the staff of every server.
type staffChatCommand struct {
	s       Services
	Message cmd.Varargs `cmd:"message"`
}

func newStaffChatCommand(s Services) cmd.Command {
	return cmd.New("sc", "Sends a message to all staff on the network.", []string{"staffchat"}, staffChatCommand{s: s})
}

func (c staffChatCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	msg := strings.TrimSpace(string(c.Message))
	if msg == "" {
		o.Error("A message is required.")
		return
	}
	pk := message.StaffNotificationPacket{Sender: sourceName(src), Server: c.s.Server, Message: msg}
	c.s.Players.NotifyStaff(pk.Format())
	if cp, ok := c.s.sourcePlayer(src); ok {
		cp.GiveAchievement(cplayer.AchievementStaffChat)
	}
	if c.s.Bus == nil {
		return
	}
	c.s.async(src, func(ctx context.Context, out *reply) {
		if err := c.s.Bus.SendMessage(ctx, pk, message.Broadcast); err != nil {
			out.Errorf("Failed to reach the other servers: %v", err)
		}
	})
}

func (c staffChatCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Helper)
}

package builtin

import (
	"cmp"
	"slices"
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/rank"
)

type listCommand struct {
	s Services
}

func newListCommand(s Services) cmd.Command {
	return cmd.New("list", "Lists players currently online.", []string{"players"}, listCommand{s: s})
}

func (l listCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	online := l.s.Players.Online()
	slices.SortFunc(online, func(a, b *cplayer.CorePlayer) int {
		if c := cmp.Compare(b.Rank().ID, a.Rank().ID); c != 0 {
			return c
		}
		return strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	})

	o.Printf("There are %d players online on %s.", len(online), l.s.Server)
	if len(online) == 0 {
		return
	}
	names := make([]string, 0, len(online))
	for _, p := range online {
		names = append(names, rank.FormatName(p.Rank(), p.Name()))
	}
	o.Print(strings.Join(names, ", "))
}

package builtin

import (
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/rank"
)

type whitelistAddCommand struct {
	s    Services
	Add  cmd.SubCommand `cmd:"add"`
	Name string         `cmd:"player"`
}

type whitelistRemoveCommand struct {
	s      Services
	Remove cmd.SubCommand `cmd:"remove"`
	Name   string         `cmd:"player"`
}

type whitelistListCommand struct {
	s    Services
	List cmd.SubCommand `cmd:"list"`
}

type whitelistOnCommand struct {
	s  Services
	On cmd.SubCommand `cmd:"on"`
}

type whitelistOffCommand struct {
	s   Services
	Off cmd.SubCommand `cmd:"off"`
}

func newWhitelistCommand(s Services) cmd.Command {
	return cmd.New(
		"whitelist",
		"Manages the maintenance whitelist.",
		[]string{"maintenance"},
		whitelistAddCommand{s: s},
		whitelistRemoveCommand{s: s},
		whitelistListCommand{s: s},
		whitelistOnCommand{s: s},
		whitelistOffCommand{s: s},
	)
}

func (c whitelistAddCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	name := strings.TrimSpace(c.Name)
	added, err := c.s.Whitelist.Add(name)
	if err != nil {
		o.Error(err)
		return
	}
	if added {
		o.Printf("Added %s to the whitelist.", name)
		return
	}
	o.Printf("%s is already on the whitelist.", name)
}

func (c whitelistAddCommand) Allow(src cmd.Source) bool { return c.s.allow(src, rank.Moderator) }

func (c whitelistRemoveCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	name := strings.TrimSpace(c.Name)
	removed, err := c.s.Whitelist.Remove(name)
	if err != nil {
		o.Error(err)
		return
	}
	if removed {
		o.Printf("Removed %s from the whitelist.", name)
		return
	}
	o.Printf("%s is not on the whitelist.", name)
}

func (c whitelistRemoveCommand) Allow(src cmd.Source) bool { return c.s.allow(src, rank.Moderator) }

func (c whitelistListCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	entries := c.s.Whitelist.Players()
	status := "enabled"
	if !c.s.Whitelist.Enabled() {
		status = "disabled"
	}
	o.Printf("Whitelist (%s): %d player(s).", status, len(entries))
	if len(entries) != 0 {
		o.Print(strings.Join(entries, ", "))
	}
}

func (c whitelistListCommand) Allow(src cmd.Source) bool { return c.s.allow(src, rank.Moderator) }

func (c whitelistOnCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	c.s.Whitelist.SetEnabled(true)
	o.Print("Maintenance enabled. Only whitelisted players and staff may join.")
}

func (c whitelistOnCommand) Allow(src cmd.Source) bool { return c.s.allow(src, rank.Manager) }

func (c whitelistOffCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	c.s.Whitelist.SetEnabled(false)
	o.Print("Maintenance disabled.")
}

func (c whitelistOffCommand) Allow(src cmd.Source) bool { return c.s.allow(src, rank.Manager) }

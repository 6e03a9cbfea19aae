package builtin

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/plugin"
	"github.com/dm-vev/netcore/core/rank"
)

type pluginListCommand struct {
	s    Services
	List cmd.SubCommand `cmd:"list"`
}

type pluginEnableCommand struct {
	s      Services
	Enable cmd.SubCommand `cmd:"enable"`
	File   string         `cmd:"file"`
}

type pluginDisableCommand struct {
	s       Services
	Disable cmd.SubCommand `cmd:"disable"`
	Name    string         `cmd:"name"`
}

type pluginReloadCommand struct {
	s      Services
	Reload cmd.SubCommand `cmd:"reload"`
	Name   string         `cmd:"name"`
}

func newPluginCommand(s Services) cmd.Command {
	return cmd.New(
		"plugin",
		"Manages dynamic plugins.",
		[]string{"pl"},
		pluginListCommand{s: s},
		pluginEnableCommand{s: s},
		pluginDisableCommand{s: s},
		pluginReloadCommand{s: s},
	)
}

func (p pluginListCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	if !p.s.Plugins.Enabled() {
		o.Print("Plugin subsystem disabled.")
		return
	}
	infos := p.s.Plugins.Infos()
	if len(infos) == 0 {
		o.Print("No plugins loaded.")
		return
	}
	slices.SortStableFunc(infos, func(a, b plugin.Info) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	for _, info := range infos {
		o.Print(describePlugin(info))
	}
}

func (p pluginListCommand) Allow(src cmd.Source) bool { return p.s.allow(src, rank.Developer) }

func (p pluginEnableCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	file := strings.TrimSpace(p.File)
	if file == "" {
		o.Error("Plugin file path is required.")
		return
	}
	info, err := p.s.Plugins.Enable(file)
	if err != nil {
		o.Error(err)
		return
	}
	o.Printf("Enabled %s.", describePlugin(info))
}

func (p pluginEnableCommand) Allow(src cmd.Source) bool { return p.s.allow(src, rank.Developer) }

func (p pluginDisableCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		o.Error("Plugin name is required.")
		return
	}
	info, err := p.s.Plugins.Disable(name)
	if err != nil {
		o.Error(err)
		return
	}
	o.Printf("Disabled %s.", info.Name)
}

func (p pluginDisableCommand) Allow(src cmd.Source) bool { return p.s.allow(src, rank.Developer) }

func (p pluginReloadCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		o.Error("Plugin name is required.")
		return
	}
	info, err := p.s.Plugins.Reload(name)
	if err != nil {
		o.Error(err)
		return
	}
	o.Printf("Reloaded %s.", describePlugin(info))
}

func (p pluginReloadCommand) Allow(src cmd.Source) bool { return p.s.allow(src, rank.Developer) }

func describePlugin(info plugin.Info) string {
	name := info.Name
	if info.Version != "" {
		name += " v" + info.Version
	}
	if info.Enabled.IsZero() {
		return name + " (" + info.Path + ")"
	}
	return fmt.Sprintf("%s (%s, up %s)", name, info.Path, time.Since(info.Enabled).Round(time.Second))
}

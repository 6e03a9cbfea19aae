package builtin

import (
	"runtime"
	"runtime/debug"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

type aboutCommand struct {
	s Services
}

func newAboutCommand(s Services) cmd.Command {
	return cmd.New("about", "Displays network core and build information.", []string{"version"}, aboutCommand{s: s})
}

func (a aboutCommand) Run(_ cmd.Source, o *cmd.Output, _ *world.Tx) {
	o.Printf("netcore on %s", a.s.Server)

	info, ok := debug.ReadBuildInfo()
	goVersion := runtime.Version()
	if ok && info.GoVersion != "" {
		goVersion = info.GoVersion
	}
	o.Printf("Minecraft protocol: %s", protocol.CurrentVersion)
	o.Printf("Go runtime: %s", goVersion)
	if ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && setting.Value != "" {
				o.Printf("Commit: %s", setting.Value)
				break
			}
		}
	}
	o.Printf("Players online: %d", a.s.Players.Count())
}

package builtin

import (
	"context"
	"slices"
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/rank"
)

type tagAddCommand struct {
	s      Services
	Add    cmd.SubCommand `cmd:"add"`
	Player string         `cmd:"player"`
	Tag    tagName        `cmd:"tag"`
}

type tagRemoveCommand struct {
	s      Services
	Remove cmd.SubCommand `cmd:"remove"`
	Player string         `cmd:"player"`
	Tag    tagName        `cmd:"tag"`
}

type tagListCommand struct {
	s      Services
	List   cmd.SubCommand `cmd:"list"`
	Player string         `cmd:"player"`
}

func newTagCommand(s Services) cmd.Command {
	return cmd.New("tag", "Manages the tags of a player.", nil, tagAddCommand{s: s}, tagRemoveCommand{s: s}, tagListCommand{s: s})
}

func (c tagAddCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	t, ok := rank.TagFromString(string(c.Tag))
	if !ok {
		o.Errorf("Unknown tag %s.", c.Tag)
		return
	}
	c.s.updateTags(src, c.Player, t, true)
}

func (c tagAddCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Manager)
}

func (c tagRemoveCommand) Run(src cmd.Source, o *cmd.Output, _ *world.Tx) {
	t, ok := rank.TagFromString(string(c.Tag))
	if !ok {
		o.Errorf("Unknown tag %s.", c.Tag)
		return
	}
	c.s.updateTags(src, c.Player, t, false)
}

func (c tagRemoveCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Manager)
}

func (c tagListCommand) Run(src cmd.Source, _ *cmd.Output, _ *world.Tx) {
	c.s.async(src, func(ctx context.Context, out *reply) {
		t, err := c.s.lookup(ctx, c.Player)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		if len(t.tags) == 0 {
			out.Printf("%s has no tags.", t.name)
			return
		}
		names := make([]string, 0, len(t.tags))
		for _, tag := range t.tags {
			names = append(names, tag.Name)
		}
		out.Printf("%s: %s", t.name, strings.Join(names, ", "))
	})
}

func (c tagListCommand) Allow(src cmd.Source) bool {
	return c.s.allow(src, rank.Helper)
}

// updateTags adds or removes tag from the player named name. Players on this
// server are updated through their session, others through the store.
func (s Services) updateTags(src cmd.Source, name string, tag rank.Tag, add bool) {
	s.async(src, func(ctx context.Context, out *reply) {
		t, err := s.lookup(ctx, name)
		if err != nil {
			out.Errorf("%v", err)
			return
		}
		has := slices.ContainsFunc(t.tags, func(o rank.Tag) bool { return o.ID == tag.ID })
		switch {
		case add && has:
			out.Printf("%s already has the %s tag.", t.name, tag.Name)
			return
		case !add && !has:
			out.Printf("%s does not have the %s tag.", t.name, tag.Name)
			return
		case add:
			t.tags = append(t.tags, tag)
		default:
			t.tags = slices.DeleteFunc(t.tags, func(o rank.Tag) bool { return o.ID == tag.ID })
		}

		synced := t.online != nil && t.online.Sync(func(p *cplayer.CorePlayer) {
			if add {
				p.AddTag(tag)
			} else {
				p.RemoveTag(tag)
			}
		})
		if !synced {
			if err := s.Store.SetTags(ctx, t.id, rank.TagIDs(t.tags)); err != nil {
				out.Errorf("Failed to save the tags of %s: %v", t.name, err)
				return
			}
		}
		s.publishSocial(ctx, t)
		if add {
			out.Printf("Added the %s tag to %s.", tag.Name, t.name)
			return
		}
		out.Printf("Removed the %s tag from %s.", tag.Name, t.name)
	})
}

package cplayer

import (
	"context"
	"slices"

	"github.com/dm-vev/netcore/core/rank"
)

// Rank returns the cached rank of the player.
func (p *CorePlayer) Rank() rank.Rank {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rank
}

// SetRank changes the rank of the player and persists it in the background.
func (p *CorePlayer) SetRank(r rank.Rank) {
	old, ok := p.swapRank(r)
	if !ok {
		return
	}
	p.m.async(func(ctx context.Context) {
		if p.m.profiles == nil {
			return
		}
		if err := p.m.profiles.SetRank(ctx, p.id, r.Name); err != nil {
			p.m.log.Error("Failed to save rank.", "player", p.Name(), "rank", r.Name, "err", err)
		}
	})
	p.socialChanged()
	if old.ID != r.ID {
		p.m.listener.HandleRankChange(p, old, r)
	}
}

// ApplySocial replaces the cached rank and tags without persisting them. It is
// used when another server already stored the change.
func (p *CorePlayer) ApplySocial(r rank.Rank, tags []rank.Tag) {
	old, ok := p.swapRank(r)
	if !ok {
		return
	}
	p.mu.Lock()
	p.tags = uniqueTags(tags)
	p.mu.Unlock()

	p.socialChanged()
	if old.ID != r.ID {
		p.m.listener.HandleRankChange(p, old, r)
	}
}

func (p *CorePlayer) swapRank(r rank.Rank) (rank.Rank, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusLeft {
		return rank.Rank{}, false
	}
	old := p.rank
	p.rank = r
	return old, true
}

// Tags returns the tags of the player in the order they were added.
func (p *CorePlayer) Tags() []rank.Tag {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.tags)
}

// HasTag reports if the player holds t.
func (p *CorePlayer) HasTag(t rank.Tag) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return containsTag(p.tags, t)
}

// AddTag adds t to the player and reports if it was not present yet.
func (p *CorePlayer) AddTag(t rank.Tag) bool {
	return p.updateTags(func(tags []rank.Tag) ([]rank.Tag, bool) {
		if t.ID == 0 || containsTag(tags, t) {
			return tags, false
		}
		return append(tags, t), true
	})
}

// RemoveTag removes t from the player and reports if it was present.
func (p *CorePlayer) RemoveTag(t rank.Tag) bool {
	return p.updateTags(func(tags []rank.Tag) ([]rank.Tag, bool) {
		i := slices.IndexFunc(tags, func(o rank.Tag) bool { return o.ID == t.ID })
		if i < 0 {
			return tags, false
		}
		return slices.Delete(tags, i, i+1), true
	})
}

func (p *CorePlayer) updateTags(fn func(tags []rank.Tag) ([]rank.Tag, bool)) bool {
	p.mu.Lock()
	if p.status == StatusLeft {
		p.mu.Unlock()
		return false
	}
	tags, changed := fn(slices.Clone(p.tags))
	if changed {
		p.tags = tags
	}
	p.mu.Unlock()
	if !changed {
		return false
	}

	ids := rank.TagIDs(tags)
	p.m.async(func(ctx context.Context) {
		if p.m.profiles == nil {
			return
		}
		if err := p.m.profiles.SetTags(ctx, p.id, ids); err != nil {
			p.m.log.Error("Failed to save tags.", "player", p.Name(), "err", err)
		}
	})
	p.socialChanged()
	return true
}

// Honor returns the cached honor points of the player.
func (p *CorePlayer) Honor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.honor
}

// AddHonor adds amount to the honor of the player. amount may be negative.
func (p *CorePlayer) AddHonor(amount int, reason string) {
	if amount == 0 {
		return
	}
	p.mu.Lock()
	value := p.honor + amount
	p.mu.Unlock()
	p.SetHonor(value, reason)
}

// SetHonor sets the honor of the player and persists it in the background.
// Reaching HonourableThreshold grants AchievementHonourable.
func (p *CorePlayer) SetHonor(amount int, reason string) {
	if _, ok := p.active(); !ok {
		return
	}
	p.mu.Lock()
	old := p.honor
	p.honor = amount
	p.mu.Unlock()
	if old < HonourableThreshold && amount >= HonourableThreshold {
		p.GiveAchievement(AchievementHonourable)
	}

	p.m.async(func(ctx context.Context) {
		if p.m.honor == nil {
			return
		}
		if err := p.m.honor.SetHonor(ctx, p.id, amount, reason); err != nil {
			p.m.log.Error("Failed to save honor.", "player", p.Name(), "honor", amount, "err", err)
		}
	})
}

// ChatPrefix returns the tag and rank badges shown in front of chat messages.
func (p *CorePlayer) ChatPrefix() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return rank.ChatPrefix(p.rank, p.tags)
}

// DisplayName returns the name coloured by rank.
func (p *CorePlayer) DisplayName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return rank.FormatName(p.rank, p.name)
}

// socialChanged refreshes the name tag and sidebar after a rank or tag change.
func (p *CorePlayer) socialChanged() {
	h, ok := p.active()
	if !ok {
		return
	}
	h.SetNameTag(p.DisplayName())
	if p.scoreboard.Visible() {
		p.scoreboard.Update()
	}
}

func containsTag(tags []rank.Tag, t rank.Tag) bool {
	return slices.ContainsFunc(tags, func(o rank.Tag) bool { return o.ID == t.ID })
}

func uniqueTags(tags []rank.Tag) []rank.Tag {
	out := make([]rank.Tag, 0, len(tags))
	for _, t := range tags {
		if t.ID != 0 && !containsTag(out, t) {
			out = append(out, t)
		}
	}
	return out
}

package cplayer

import (
	"github.com/df-mc/dragonfly/server/player/bossbar"
)

// DefaultBossBarTitle is the text of a boss bar created by a setter before a
// title was set.
const DefaultBossBarTitle = "Boss Bar"

type bossBar struct {
	title    string
	progress float64
	colour   bossbar.Colour
}

func (b *bossBar) render() bossbar.BossBar {
	return bossbar.New(b.title).WithHealthPercentage(b.progress).WithColour(b.colour)
}

// BossBarManager controls the boss bar of a player. The bar is created on
// first use and discarded by Remove, so the next setter creates a new one.
type BossBarManager struct {
	p   *CorePlayer
	bar *bossBar
}

// ensure returns the current bar, creating it if there is none.
func (b *BossBarManager) ensure() *bossBar {
	if b.bar == nil {
		b.bar = &bossBar{title: DefaultBossBarTitle, progress: 1, colour: bossbar.Purple()}
	}
	return b.bar
}

func (b *BossBarManager) update(fn func(bar *bossBar)) {
	h, ok := b.p.active()
	if !ok {
		return
	}
	bar := b.ensure()
	fn(bar)
	h.SendBossBar(bar.render())
}

// SetTitle changes the text of the bar.
func (b *BossBarManager) SetTitle(title string) {
	b.update(func(bar *bossBar) { bar.title = title })
}

// SetProgress changes how full the bar is. progress is clamped to [0, 1].
func (b *BossBarManager) SetProgress(progress float64) {
	b.update(func(bar *bossBar) { bar.progress = max(0, min(progress, 1)) })
}

// SetColour changes the colour of the bar.
func (b *BossBarManager) SetColour(c bossbar.Colour) {
	b.update(func(bar *bossBar) { bar.colour = c })
}

// Show sends the bar, creating it if needed.
func (b *BossBarManager) Show() {
	b.update(func(*bossBar) {})
}

// Title returns the text of the bar, or "" if there is none.
func (b *BossBarManager) Title() string {
	if b.bar == nil {
		return ""
	}
	return b.bar.title
}

// Progress returns how full the bar is, or 0 if there is none.
func (b *BossBarManager) Progress() float64 {
	if b.bar == nil {
		return 0
	}
	return b.bar.progress
}

// Active reports if a bar currently exists.
func (b *BossBarManager) Active() bool {
	return b.bar != nil
}

// Remove hides the bar and forgets it.
func (b *BossBarManager) Remove() {
	if b.bar == nil {
		return
	}
	b.bar = nil
	if h, ok := b.p.active(); ok {
		h.RemoveBossBar()
	}
}

// Package dfhandle adapts a Dragonfly *player.Player to cplayer.Handle.
package dfhandle

import (
	"errors"
	"time"

	"github.com/df-mc/dragonfly/server/entity"
	"github.com/df-mc/dragonfly/server/entity/effect"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/player/bossbar"
	"github.com/df-mc/dragonfly/server/player/scoreboard"
	"github.com/df-mc/dragonfly/server/player/skin"
	"github.com/df-mc/dragonfly/server/player/title"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/internal/txguard"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Player is a cplayer.Handle over a *player.Player. The player value is only
// valid in the transaction it was obtained in; once that transaction
// finished every call is ignored and getters return zero values.
type Player struct {
	p *player.Player
}

var _ cplayer.Handle = Player{}

var errUnavailable = errors.New("player is no longer available")

// New wraps p.
func New(p *player.Player) Player {
	return Player{p: p}
}

func (h Player) do(fn func()) bool {
	if h.p == nil {
		return false
	}
	return txguard.Run(h.p.Tx(), fn)
}

func value[T any](h Player, fn func(p *player.Player) T) T {
	if h.p == nil {
		var zero T
		return zero
	}
	v, _ := txguard.Value(h.p.Tx(), func() T { return fn(h.p) })
	return v
}

func (h Player) Name() string {
	return value(h, (*player.Player).Name)
}

func (h Player) UUID() uuid.UUID {
	return value(h, (*player.Player).UUID)
}

func (h Player) Health() float64 {
	return value(h, (*player.Player).Health)
}

func (h Player) MaxHealth() float64 {
	return value(h, (*player.Player).MaxHealth)
}

// SetHealth heals or hurts the player until its health equals health.
func (h Player) SetHealth(health float64) {
	h.do(func() {
		health = max(0, min(health, h.p.MaxHealth()))
		switch cur := h.p.Health(); {
		case health > cur:
			h.p.Heal(health-cur, entity.FoodHealingSource{})
		case health < cur:
			h.p.Hurt(cur-health, entity.VoidDamageSource{})
		}
	})
}

func (h Player) SetMaxHealth(health float64) {
	h.do(func() { h.p.SetMaxHealth(health) })
}

func (h Player) Food() int {
	return value(h, (*player.Player).Food)
}

func (h Player) SetFood(level int) {
	h.do(func() { h.p.SetFood(level) })
}

func (h Player) ExperienceLevel() int {
	return value(h, (*player.Player).ExperienceLevel)
}

func (h Player) SetExperienceLevel(level int) {
	h.do(func() { h.p.SetExperienceLevel(level) })
}

func (h Player) Position() mgl64.Vec3 {
	return value(h, (*player.Player).Position)
}

func (h Player) Teleport(pos mgl64.Vec3) {
	h.do(func() { h.p.Teleport(pos) })
}

func (h Player) Velocity() mgl64.Vec3 {
	return value(h, (*player.Player).Velocity)
}

func (h Player) SetVelocity(v mgl64.Vec3) {
	h.do(func() { h.p.SetVelocity(v) })
}

func (h Player) GameMode() world.GameMode {
	return value(h, (*player.Player).GameMode)
}

func (h Player) SetGameMode(mode world.GameMode) {
	h.do(func() { h.p.SetGameMode(mode) })
}

func (h Player) PlaySound(s world.Sound) {
	h.do(func() { h.p.PlaySound(s) })
}

func (h Player) ShowParticle(pos mgl64.Vec3, p world.Particle) {
	h.do(func() { h.p.ShowParticle(pos, p) })
}

func (h Player) AddEffect(e effect.Effect) {
	h.do(func() { h.p.AddEffect(e) })
}

func (h Player) RemoveEffect(t effect.Type) {
	h.do(func() { h.p.RemoveEffect(t) })
}

func (h Player) Effects() []effect.Effect {
	return value(h, (*player.Player).Effects)
}

func (h Player) Items() []item.Stack {
	return value(h, func(p *player.Player) []item.Stack { return p.Inventory().Items() })
}

func (h Player) AddItem(s item.Stack) (n int, err error) {
	h.do(func() { n, err = h.p.Inventory().AddItem(s) })
	return n, err
}

func (h Player) ClearInventory() {
	h.do(func() {
		_ = h.p.Inventory().Clear()
		h.p.SetHeldItems(item.Stack{}, item.Stack{})
	})
}

func (h Player) Message(a ...any) {
	h.do(func() { h.p.Message(a...) })
}

func (h Player) SendTip(a ...any) {
	h.do(func() { h.p.SendTip(a...) })
}

func (h Player) SendPopup(a ...any) {
	h.do(func() { h.p.SendPopup(a...) })
}

func (h Player) SendTitle(t title.Title) {
	h.do(func() { h.p.SendTitle(t) })
}

func (h Player) SendScoreboard(sb *scoreboard.Scoreboard) {
	h.do(func() { h.p.SendScoreboard(sb) })
}

func (h Player) RemoveScoreboard() {
	h.do(h.p.RemoveScoreboard)
}

func (h Player) SendBossBar(bar bossbar.BossBar) {
	h.do(func() { h.p.SendBossBar(bar) })
}

func (h Player) RemoveBossBar() {
	h.do(h.p.RemoveBossBar)
}

func (h Player) SetNameTag(tag string) {
	h.do(func() { h.p.SetNameTag(tag) })
}

func (h Player) ExecuteCommand(line string) {
	h.do(func() { h.p.ExecuteCommand(line) })
}

func (h Player) Latency() time.Duration {
	return value(h, (*player.Player).Latency)
}

func (h Player) Locale() language.Tag {
	return value(h, (*player.Player).Locale)
}

func (h Player) Skin() skin.Skin {
	return value(h, (*player.Player).Skin)
}

func (h Player) Transfer(address string) (err error) {
	if !h.do(func() { err = h.p.Transfer(address) }) {
		return errUnavailable
	}
	return err
}

func (h Player) Disconnect(a ...any) {
	h.do(func() { h.p.Disconnect(a...) })
}

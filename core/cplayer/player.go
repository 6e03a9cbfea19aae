package cplayer

import (
	"fmt"
	"sync"
	"time"

	"github.com/df-mc/dragonfly/server/entity/effect"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player/skin"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// CorePlayer is the network facade of a single player session. Calls that
// reach the host player are ignored unless the session is joined and a handle
// is attached; getters then return zero values.
//
// The display managers and host calls must be used from the world goroutine
// of the player, such as within a command, a player handler or a function
// passed to Sync.
type CorePlayer struct {
	id uuid.UUID
	m  *Manager

	mu            sync.Mutex
	name          string
	clientVersion string
	locale        language.Tag
	status        Status
	handle        Handle
	joinedAt      time.Time
	rank          rank.Rank
	tags          []rank.Tag
	honor         int
	achievements  achievementState

	scoreboard   *ScoreboardManager
	bossBar      *BossBarManager
	title        *TitleManager
	headerFooter *HeaderFooterManager
	particles    *ParticleManager
	packs        *ResourcePackManager
}

func newCorePlayer(m *Manager, id uuid.UUID, name string, data LoginData) *CorePlayer {
	p := &CorePlayer{
		id:            id,
		m:             m,
		name:          name,
		clientVersion: data.ClientVersion,
		locale:        data.Locale,
		status:        StatusLogin,
		rank:          data.Rank,
		tags:          uniqueTags(data.Tags),
		honor:         data.Honor,
		achievements:  &pendingAchievements{},
	}
	p.scoreboard = &ScoreboardManager{p: p, title: m.scoreboardTitle}
	p.bossBar = &BossBarManager{p: p}
	p.title = &TitleManager{p: p}
	p.headerFooter = &HeaderFooterManager{p: p}
	p.particles = &ParticleManager{p: p}
	p.packs = &ResourcePackManager{p: p, packs: m.packs, required: m.packsRequired}
	return p
}

// active returns the attached handle if the session is joined.
func (p *CorePlayer) active() (Handle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusJoined || p.handle == nil {
		return nil, false
	}
	return p.handle, true
}

// Bind replaces the host handle of a joined session. Player handlers call it
// with the handle of the transaction they run in.
func (p *CorePlayer) Bind(h Handle) {
	if h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusJoined {
		p.handle = h
	}
}

// Sync runs fn on the world goroutine of the player with a fresh handle bound.
// It reports false if the player is not online.
func (p *CorePlayer) Sync(fn func(p *CorePlayer)) bool {
	if p.Status() != StatusJoined {
		return false
	}
	return p.m.scheduler.Sync(p.id, func(h Handle) {
		p.Bind(h)
		fn(p)
	})
}

// UUID returns the network wide ID of the player.
func (p *CorePlayer) UUID() uuid.UUID {
	return p.id
}

// Name returns the last known name of the player.
func (p *CorePlayer) Name() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.name
}

// ClientVersion returns the game version reported by the client at login.
func (p *CorePlayer) ClientVersion() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.clientVersion
}

// Locale returns the language of the client. The value reported at login is
// used until the player joined.
func (p *CorePlayer) Locale() language.Tag {
	if h, ok := p.active(); ok {
		return h.Locale()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locale
}

// Status returns the lifecycle state of the session.
func (p *CorePlayer) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// JoinedAt returns when the player joined, or the zero time before that.
func (p *CorePlayer) JoinedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.joinedAt
}

// Ping returns the round trip latency in milliseconds, or 0 if it cannot be
// determined.
func (p *CorePlayer) Ping() int {
	h, ok := p.active()
	if !ok {
		return 0
	}
	return int(h.Latency().Milliseconds())
}

// Skin returns the skin of the player. Once the player is gone the skin is
// looked up in the skin cache of the manager.
func (p *CorePlayer) Skin() (skin.Skin, bool) {
	if h, ok := p.active(); ok {
		return h.Skin(), true
	}
	if p.m.skins == nil {
		return skin.Skin{}, false
	}
	return p.m.skins.Get(p.id)
}

func (p *CorePlayer) Position() mgl64.Vec3 {
	if h, ok := p.active(); ok {
		return h.Position()
	}
	return mgl64.Vec3{}
}

func (p *CorePlayer) Teleport(pos mgl64.Vec3) {
	if h, ok := p.active(); ok {
		h.Teleport(pos)
	}
}

func (p *CorePlayer) Velocity() mgl64.Vec3 {
	if h, ok := p.active(); ok {
		return h.Velocity()
	}
	return mgl64.Vec3{}
}

func (p *CorePlayer) SetVelocity(v mgl64.Vec3) {
	if h, ok := p.active(); ok {
		h.SetVelocity(v)
	}
}

// Transfer sends the player to another server address. It reports false if
// the player is not joined or the transfer failed.
func (p *CorePlayer) Transfer(address string) bool {
	h, ok := p.active()
	if !ok || address == "" {
		return false
	}
	if err := h.Transfer(address); err != nil {
		p.m.log.Warn("Transfer failed.", "player", p.Name(), "address", address, "err", err)
		return false
	}
	return true
}

func (p *CorePlayer) Health() float64 {
	if h, ok := p.active(); ok {
		return h.Health()
	}
	return 0
}

func (p *CorePlayer) SetHealth(health float64) {
	if h, ok := p.active(); ok {
		h.SetHealth(health)
	}
}

func (p *CorePlayer) MaxHealth() float64 {
	if h, ok := p.active(); ok {
		return h.MaxHealth()
	}
	return 0
}

func (p *CorePlayer) SetMaxHealth(health float64) {
	if h, ok := p.active(); ok && health > 0 {
		h.SetMaxHealth(health)
	}
}

func (p *CorePlayer) Food() int {
	if h, ok := p.active(); ok {
		return h.Food()
	}
	return 0
}

func (p *CorePlayer) SetFood(level int) {
	if h, ok := p.active(); ok {
		h.SetFood(level)
	}
}

func (p *CorePlayer) ExperienceLevel() int {
	if h, ok := p.active(); ok {
		return h.ExperienceLevel()
	}
	return 0
}

func (p *CorePlayer) SetExperienceLevel(level int) {
	if h, ok := p.active(); ok {
		h.SetExperienceLevel(level)
	}
}

// GameMode returns the game mode of the player, or nil if not joined.
func (p *CorePlayer) GameMode() world.GameMode {
	if h, ok := p.active(); ok {
		return h.GameMode()
	}
	return nil
}

func (p *CorePlayer) SetGameMode(mode world.GameMode) {
	if h, ok := p.active(); ok && mode != nil {
		h.SetGameMode(mode)
	}
}

func (p *CorePlayer) Items() []item.Stack {
	if h, ok := p.active(); ok {
		return h.Items()
	}
	return nil
}

// GiveItem adds s to the inventory. It reports false if nothing was added.
func (p *CorePlayer) GiveItem(s item.Stack) bool {
	h, ok := p.active()
	if !ok || s.Empty() {
		return false
	}
	n, err := h.AddItem(s)
	return err == nil && n > 0
}

func (p *CorePlayer) ClearInventory() {
	if h, ok := p.active(); ok {
		h.ClearInventory()
	}
}

func (p *CorePlayer) AddEffect(e effect.Effect) {
	if h, ok := p.active(); ok && e.Type() != nil {
		h.AddEffect(e)
	}
}

func (p *CorePlayer) RemoveEffect(t effect.Type) {
	if h, ok := p.active(); ok && t != nil {
		h.RemoveEffect(t)
	}
}

func (p *CorePlayer) Effects() []effect.Effect {
	if h, ok := p.active(); ok {
		return h.Effects()
	}
	return nil
}

// ClearEffects removes every active effect.
func (p *CorePlayer) ClearEffects() {
	h, ok := p.active()
	if !ok {
		return
	}
	for _, e := range h.Effects() {
		h.RemoveEffect(e.Type())
	}
}

func (p *CorePlayer) PlaySound(s world.Sound) {
	if h, ok := p.active(); ok && s != nil {
		h.PlaySound(s)
	}
}

func (p *CorePlayer) Message(a ...any) {
	if h, ok := p.active(); ok && len(a) > 0 {
		h.Message(a...)
	}
}

func (p *CorePlayer) Messagef(format string, a ...any) {
	if h, ok := p.active(); ok && format != "" {
		h.Message(fmt.Sprintf(format, a...))
	}
}

// ActionBar shows a message above the hotbar.
func (p *CorePlayer) ActionBar(a ...any) {
	if h, ok := p.active(); ok && len(a) > 0 {
		h.SendTip(a...)
	}
}

func (p *CorePlayer) Popup(a ...any) {
	if h, ok := p.active(); ok && len(a) > 0 {
		h.SendPopup(a...)
	}
}

// Kick disconnects the player with reason.
func (p *CorePlayer) Kick(reason string) {
	if h, ok := p.active(); ok {
		h.Disconnect(reason)
	}
}

func (p *CorePlayer) Scoreboard() *ScoreboardManager      { return p.scoreboard }
func (p *CorePlayer) BossBar() *BossBarManager            { return p.bossBar }
func (p *CorePlayer) Title() *TitleManager                { return p.title }
func (p *CorePlayer) HeaderFooter() *HeaderFooterManager  { return p.headerFooter }
func (p *CorePlayer) Particles() *ParticleManager         { return p.particles }
func (p *CorePlayer) ResourcePacks() *ResourcePackManager { return p.packs }

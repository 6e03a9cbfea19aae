package cplayer

import (
	"context"
	"time"

	"github.com/df-mc/dragonfly/server/entity/effect"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player/bossbar"
	"github.com/df-mc/dragonfly/server/player/scoreboard"
	"github.com/df-mc/dragonfly/server/player/skin"
	"github.com/df-mc/dragonfly/server/player/title"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Handle is the host player a CorePlayer forwards to. Implementations return
// zero values once the underlying player is no longer reachable.
type Handle interface {
	Name() string
	UUID() uuid.UUID

	Health() float64
	MaxHealth() float64
	SetHealth(health float64)
	SetMaxHealth(health float64)
	Food() int
	SetFood(level int)
	ExperienceLevel() int
	SetExperienceLevel(level int)

	Position() mgl64.Vec3
	Teleport(pos mgl64.Vec3)
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	GameMode() world.GameMode
	SetGameMode(mode world.GameMode)

	PlaySound(s world.Sound)
	ShowParticle(pos mgl64.Vec3, p world.Particle)
	AddEffect(e effect.Effect)
	RemoveEffect(t effect.Type)
	Effects() []effect.Effect

	Items() []item.Stack
	AddItem(s item.Stack) (int, error)
	ClearInventory()

	Message(a ...any)
	SendTip(a ...any)
	SendPopup(a ...any)
	SendTitle(t title.Title)
	SendScoreboard(sb *scoreboard.Scoreboard)
	RemoveScoreboard()
	SendBossBar(bar bossbar.BossBar)
	RemoveBossBar()
	SetNameTag(tag string)
	ExecuteCommand(line string)

	Latency() time.Duration
	Locale() language.Tag
	Skin() skin.Skin
	Transfer(address string) error
	Disconnect(a ...any)
}

// Scheduler moves work between the world goroutine that owns a player and
// background goroutines.
type Scheduler interface {
	// Sync schedules fn to run inside the world transaction of the online
	// player id with a fresh Handle. It reports false if the player is not
	// online. fn may run after Sync returned.
	Sync(id uuid.UUID, fn func(h Handle)) bool
	// Async runs fn on a background goroutine. Tasks are not tracked.
	Async(fn func(ctx context.Context))
}

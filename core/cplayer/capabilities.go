package cplayer

import (
	"time"

	"github.com/df-mc/dragonfly/server/entity/effect"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/player/skin"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Identity exposes who a player is and the state of its session.
type Identity interface {
	UUID() uuid.UUID
	Name() string
	ClientVersion() string
	Locale() language.Tag
	Status() Status
	Ping() int
	Skin() (skin.Skin, bool)
	JoinedAt() time.Time
}

// Movement exposes the position of a player and moving it around the
// network.
type Movement interface {
	Position() mgl64.Vec3
	Teleport(pos mgl64.Vec3)
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	Transfer(address string) bool
}

// Vitals exposes health, hunger, experience and game mode.
type Vitals interface {
	Health() float64
	SetHealth(health float64)
	MaxHealth() float64
	SetMaxHealth(health float64)
	Food() int
	SetFood(level int)
	ExperienceLevel() int
	SetExperienceLevel(level int)
	GameMode() world.GameMode
	SetGameMode(mode world.GameMode)
}

// Inventory exposes the item inventory of a player.
type Inventory interface {
	Items() []item.Stack
	GiveItem(s item.Stack) bool
	ClearInventory()
}

// Effects exposes potion effects and sounds played to a player.
type Effects interface {
	AddEffect(e effect.Effect)
	RemoveEffect(t effect.Type)
	Effects() []effect.Effect
	ClearEffects()
	PlaySound(s world.Sound)
}

// Messaging exposes the text surfaces of a player.
type Messaging interface {
	Message(a ...any)
	Messagef(format string, a ...any)
	ActionBar(a ...any)
	Popup(a ...any)
	Kick(reason string)
}

// Currency exposes the network currencies of a player.
type Currency interface {
	Currency(c currency.Currency) int
	GiveCurrency(amount int, reason string, c currency.Currency)
	TakeCurrency(amount int, reason string, c currency.Currency) bool
	HasCurrency(amount int, c currency.Currency) bool
}

// Social exposes rank, tags and honor.
type Social interface {
	Rank() rank.Rank
	SetRank(r rank.Rank)
	Tags() []rank.Tag
	HasTag(t rank.Tag) bool
	AddTag(t rank.Tag) bool
	RemoveTag(t rank.Tag) bool
	Honor() int
	AddHonor(amount int, reason string)
	SetHonor(amount int, reason string)
	ChatPrefix() string
	DisplayName() string
}

// Achievements exposes granting achievements to a player.
type Achievements interface {
	GiveAchievement(id int)
	AttachAchievements(m AchievementManager)
	PendingAchievements() []int
}

// Display exposes the per-player UI managers.
type Display interface {
	Scoreboard() *ScoreboardManager
	BossBar() *BossBarManager
	Title() *TitleManager
	HeaderFooter() *HeaderFooterManager
	Particles() *ParticleManager
	ResourcePacks() *ResourcePackManager
}

// Player is the full facade other packages program against. *CorePlayer
// implements it.
type Player interface {
	Identity
	Movement
	Vitals
	Inventory
	Effects
	Messaging
	Currency
	Social
	Achievements
	Display
}

var _ Player = (*CorePlayer)(nil)

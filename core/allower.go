package core

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/dm-vev/netcore/core/cache"
	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol/login"
	"golang.org/x/text/language"
)

const (
	msgInvalidIdentity = "Your identity could not be verified."
	msgStoreDown       = "The network is unavailable, please try again later."
	msgMaintenance     = "This server is in maintenance."
)

// Allower admits players to the server. It loads their stored join data,
// enforces the maintenance whitelist and creates their session. It
// implements server.Allower.
type Allower struct {
	store     store.Store
	profiles  *cache.Profiles
	players   *cplayer.Manager
	whitelist *Whitelist
	log       *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

// NewAllower returns an Allower. profiles and whitelist may be nil.
func NewAllower(s store.Store, profiles *cache.Profiles, players *cplayer.Manager, whitelist *Whitelist, log *slog.Logger) *Allower {
	return &Allower{
		store:     s,
		profiles:  profiles,
		players:   players,
		whitelist: whitelist,
		log:       log.With("subsystem", "allower"),
		timeout:   5 * time.Second,
		now:       time.Now,
	}
}

// Allow is part of the server.Allower interface.
func (a *Allower) Allow(addr net.Addr, d login.IdentityData, c login.ClientData) (string, bool) {
	id, err := uuid.Parse(d.Identity)
	name := strings.TrimSpace(d.DisplayName)
	if err != nil || name == "" {
		return msgInvalidIdentity, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	doc, err := a.store.JoinData(ctx, id, store.FieldRank, store.FieldTags, store.FieldHonor)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		a.log.Error("Failed to load join data.", "player", name, "addr", addr, "err", err)
		return msgStoreDown, false
	}
	data := cplayer.LoginData{
		Rank:          rank.FromString(doc.String(store.FieldRank)),
		Tags:          rank.TagsByID(doc.Ints(store.FieldTags)),
		Honor:         doc.Int(store.FieldHonor),
		Locale:        parseLocale(c.LanguageCode),
		ClientVersion: c.GameVersion,
	}
	if a.whitelist != nil && a.whitelist.Enabled() && !data.Rank.Staff() && !a.whitelist.Contains(name) {
		return msgMaintenance, false
	}

	now := a.now()
	profile := store.Profile{
		UUID:          id,
		Name:          name,
		Rank:          rank.Guest.Name,
		Locale:        c.LanguageCode,
		ClientVersion: c.GameVersion,
		FirstJoin:     now,
		LastJoin:      now,
	}
	if err := a.store.SaveProfile(ctx, profile); err != nil {
		a.log.Error("Failed to save profile.", "player", name, "err", err)
		return msgStoreDown, false
	}
	if a.profiles != nil {
		a.profiles.Invalidate(id)
	}
	a.players.Login(id, name, data)
	a.log.Debug("Player allowed.", "player", name, "rank", data.Rank.Name, "addr", addr)
	return "", true
}

// parseLocale parses client language codes such as en_US.
func parseLocale(code string) language.Tag {
	tag, err := language.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return language.English
	}
	return tag
}

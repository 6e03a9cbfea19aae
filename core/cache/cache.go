// Package cache keeps recently used profiles and skins in memory so commands
// and logins do not hit the store every time.
package cache

import (
	"context"
	"time"

	"github.com/df-mc/dragonfly/server/player/skin"
	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// ProfileLoader loads profiles on a cache miss.
type ProfileLoader interface {
	Profile(ctx context.Context, id uuid.UUID) (store.Profile, error)
	ProfileByName(ctx context.Context, name string) (store.Profile, error)
}

// Profiles caches profiles by ID and indexes them by name. Cached profiles
// must be treated as read only.
type Profiles struct {
	loader ProfileLoader
	byID   *ttlcache.Cache[uuid.UUID, store.Profile]
	byName *ttlcache.Cache[string, uuid.UUID]
}

// NewProfiles returns a Profiles cache keeping entries for ttl.
func NewProfiles(loader ProfileLoader, ttl time.Duration) *Profiles {
	byID := ttlcache.New[uuid.UUID, store.Profile](
		ttlcache.WithTTL[uuid.UUID, store.Profile](ttl),
		ttlcache.WithDisableTouchOnHit[uuid.UUID, store.Profile](),
	)
	byName := ttlcache.New[string, uuid.UUID](
		ttlcache.WithTTL[string, uuid.UUID](ttl),
		ttlcache.WithDisableTouchOnHit[string, uuid.UUID](),
	)
	go byID.Start()
	go byName.Start()
	return &Profiles{loader: loader, byID: byID, byName: byName}
}

// Profile returns the profile of player id, loading it on a miss.
func (c *Profiles) Profile(ctx context.Context, id uuid.UUID) (store.Profile, error) {
	if item := c.byID.Get(id); item != nil {
		return item.Value(), nil
	}
	p, err := c.loader.Profile(ctx, id)
	if err != nil {
		return store.Profile{}, err
	}
	c.Put(p)
	return p, nil
}

// ByName returns the profile of the player last seen with name.
func (c *Profiles) ByName(ctx context.Context, name string) (store.Profile, error) {
	if item := c.byName.Get(store.NormalizeName(name)); item != nil {
		if p := c.byID.Get(item.Value()); p != nil {
			return p.Value(), nil
		}
	}
	p, err := c.loader.ProfileByName(ctx, name)
	if err != nil {
		return store.Profile{}, err
	}
	c.Put(p)
	return p, nil
}

// Put stores p, replacing any cached version.
func (c *Profiles) Put(p store.Profile) {
	if prev := c.byID.Get(p.UUID); prev != nil && prev.Value().Name != p.Name {
		c.byName.Delete(store.NormalizeName(prev.Value().Name))
	}
	c.byID.Set(p.UUID, p, ttlcache.DefaultTTL)
	if p.Name != "" {
		c.byName.Set(store.NormalizeName(p.Name), p.UUID, ttlcache.DefaultTTL)
	}
}

// Invalidate drops the cached profile of player id.
func (c *Profiles) Invalidate(id uuid.UUID) {
	if item := c.byID.Get(id); item != nil {
		c.byName.Delete(store.NormalizeName(item.Value().Name))
	}
	c.byID.Delete(id)
}

// Len returns the number of cached profiles.
func (c *Profiles) Len() int {
	return c.byID.Len()
}

// Stop stops the expiry goroutines.
func (c *Profiles) Stop() {
	c.byID.Stop()
	c.byName.Stop()
}

// Skins remembers the skins of players that left recently, so games can
// render them after the player is gone.
type Skins struct {
	cache *ttlcache.Cache[uuid.UUID, skin.Skin]
}

// NewSkins returns a Skins cache keeping entries for ttl.
func NewSkins(ttl time.Duration) *Skins {
	c := ttlcache.New[uuid.UUID, skin.Skin](
		ttlcache.WithTTL[uuid.UUID, skin.Skin](ttl),
		ttlcache.WithDisableTouchOnHit[uuid.UUID, skin.Skin](),
	)
	go c.Start()
	return &Skins{cache: c}
}

func (s *Skins) Put(id uuid.UUID, sk skin.Skin) {
	s.cache.Set(id, sk, ttlcache.DefaultTTL)
}

func (s *Skins) Get(id uuid.UUID) (skin.Skin, bool) {
	item := s.cache.Get(id)
	if item == nil {
		return skin.Skin{}, false
	}
	return item.Value(), true
}

// Stop stops the expiry goroutine.
func (s *Skins) Stop() {
	s.cache.Stop()
}

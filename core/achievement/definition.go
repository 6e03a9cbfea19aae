// Package achievement grants network wide achievements and pays their
// rewards.
package achievement

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dm-vev/netcore/core/cplayer"
	"github.com/dm-vev/netcore/core/currency"
)

var (
	// ErrDuplicate is returned when registering an ID twice.
	ErrDuplicate = errors.New("achievement already registered")
	// ErrInvalid is returned for definitions without a positive ID or a name.
	ErrInvalid = errors.New("invalid achievement")
)

// Definition describes an achievement.
type Definition struct {
	ID          int
	Name        string
	Description string
	// Reward is paid in Currency when the achievement is granted.
	Reward   int
	Currency currency.Currency
}

// Registry holds the achievements known to the network.
type Registry struct {
	mu   sync.RWMutex
	defs map[int]Definition
}

// NewRegistry returns a Registry holding defs.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{defs: make(map[int]Definition, len(defs))}
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds d to the registry.
func (r *Registry) Register(d Definition) error {
	if d.ID <= 0 || d.Name == "" {
		return fmt.Errorf("%w: id %d", ErrInvalid, d.ID)
	}
	if d.Reward > 0 && !d.Currency.Valid() {
		return fmt.Errorf("%w: reward currency %q", ErrInvalid, d.Currency)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[d.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicate, d.ID)
	}
	r.defs[d.ID] = d
	return nil
}

// Lookup returns the definition with id.
func (r *Registry) Lookup(id int) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[id]
	return d, ok
}

// All returns every definition sorted by ID.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Collect(maps.Values(r.defs))
	slices.SortFunc(out, func(a, b Definition) int { return a.ID - b.ID })
	return out
}

// Network achievements every server grants.
const (
	FirstJoin     = cplayer.AchievementFirstJoin
	FirstPurchase = cplayer.AchievementFirstPurchase
	Honourable    = cplayer.AchievementHonourable
	StaffChat     = cplayer.AchievementStaffChat
)

// Defaults returns the network achievements.
func Defaults() []Definition {
	return []Definition{
		{ID: FirstJoin, Name: "Welcome", Description: "Join the network for the first time.", Reward: 100, Currency: currency.AdventureCoins},
		{ID: FirstPurchase, Name: "Big Spender", Description: "Spend currency for the first time.", Reward: 5, Currency: currency.Tokens},
		{ID: Honourable, Name: "Honourable", Description: "Reach 100 honor.", Reward: 250, Currency: currency.AdventureCoins},
		{ID: StaffChat, Name: "On Duty", Description: "Send a message in staff chat."},
	}
}

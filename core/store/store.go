// Package store defines the persistence contract shared by every server on the
// network. Backends live in sub-packages.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dm-vev/netcore/core/currency"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no profile exists for a player.
	ErrNotFound = errors.New("profile not found")
	// ErrClosed is returned by backends after Close has been called.
	ErrClosed = errors.New("store closed")
	// ErrUnknownCurrency is returned for currencies the network does not track.
	ErrUnknownCurrency = errors.New("unknown currency")
)

// HonorLedger is the ledger name used for honor changes in the transaction log.
const HonorLedger = "honor"

// Store persists per-player network state. Implementations must be safe for
// concurrent use.
type Store interface {
	// Profile loads the full profile of a player.
	Profile(ctx context.Context, id uuid.UUID) (Profile, error)
	// ProfileByName loads a profile by its last known name, ignoring case.
	ProfileByName(ctx context.Context, name string) (Profile, error)
	// SaveProfile creates or replaces the identity fields of a profile: name,
	// locale, client version and join timestamps. The rank is only written when
	// the profile has none yet. Balances, honor, tags and achievements are left
	// untouched.
	SaveProfile(ctx context.Context, p Profile) error
	// JoinData returns the projection of a profile onto fields. All fields are
	// returned when none are passed.
	JoinData(ctx context.Context, id uuid.UUID, fields ...string) (Document, error)

	// SetRank persists the rank name of a player.
	SetRank(ctx context.Context, id uuid.UUID, rank string) error
	// SetTags replaces the tag IDs of a player.
	SetTags(ctx context.Context, id uuid.UUID, tags []int) error

	// Currency returns the balance of a player in c. Missing balances are 0.
	Currency(ctx context.Context, id uuid.UUID, c currency.Currency) (int, error)
	// ChangeCurrency adds delta to the balance in c and records reason in the
	// transaction log. The new balance is returned.
	ChangeCurrency(ctx context.Context, id uuid.UUID, delta int, reason string, c currency.Currency) (int, error)
	// Transactions returns up to limit of the most recent transactions of a
	// player, newest first.
	Transactions(ctx context.Context, id uuid.UUID, limit int) ([]Transaction, error)

	// Honor returns the honor points of a player.
	Honor(ctx context.Context, id uuid.UUID) (int, error)
	// SetHonor sets the honor points of a player and logs reason.
	SetHonor(ctx context.Context, id uuid.UUID, amount int, reason string) error

	// Achievements returns the IDs of the achievements a player owns.
	Achievements(ctx context.Context, id uuid.UUID) ([]int, error)
	// AddAchievement records that a player owns achievement a.
	AddAchievement(ctx context.Context, id uuid.UUID, a int) error

	// Close releases the resources held by the store.
	Close() error
}

// Profile is the persisted network state of a player.
type Profile struct {
	UUID          uuid.UUID      `json:"uuid"`
	Name          string         `json:"name"`
	Rank          string         `json:"rank"`
	Tags          []int          `json:"tags"`
	Honor         int            `json:"honor"`
	Currencies    map[string]int `json:"currencies"`
	Achievements  []int          `json:"achievements"`
	Locale        string         `json:"locale"`
	ClientVersion string         `json:"clientVersion"`
	FirstJoin     time.Time      `json:"firstJoin"`
	LastJoin      time.Time      `json:"lastJoin"`
}

// Transaction is an entry in the per-player transaction log.
type Transaction struct {
	Player  uuid.UUID `json:"player"`
	Ledger  string    `json:"ledger"`
	Delta   int       `json:"delta"`
	Balance int       `json:"balance"`
	Reason  string    `json:"reason"`
	Time    time.Time `json:"time"`
}

// Field names accepted by JoinData.
const (
	FieldName          = "name"
	FieldRank          = "rank"
	FieldTags          = "tags"
	FieldHonor         = "honor"
	FieldCurrencies    = "currencies"
	FieldAchievements  = "achievements"
	FieldLocale        = "locale"
	FieldClientVersion = "clientVersion"
	FieldFirstJoin     = "firstJoin"
	FieldLastJoin      = "lastJoin"
)

// Document projects the profile onto the fields passed. All fields are
// included when none are passed; unknown fields are ignored.
func (p Profile) Document(fields ...string) Document {
	all := Document{
		FieldName:          p.Name,
		FieldRank:          p.Rank,
		FieldTags:          append([]int(nil), p.Tags...),
		FieldHonor:         p.Honor,
		FieldCurrencies:    copyBalances(p.Currencies),
		FieldAchievements:  append([]int(nil), p.Achievements...),
		FieldLocale:        p.Locale,
		FieldClientVersion: p.ClientVersion,
		FieldFirstJoin:     p.FirstJoin,
		FieldLastJoin:      p.LastJoin,
	}
	if len(fields) == 0 {
		return all
	}
	doc := make(Document, len(fields))
	for _, f := range fields {
		if v, ok := all[f]; ok {
			doc[f] = v
		}
	}
	return doc
}

// NormalizeName returns the lookup key used for case-insensitive name
// indexes.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func copyBalances(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

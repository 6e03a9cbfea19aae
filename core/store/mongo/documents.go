package mongo

import (
	"fmt"
	"time"

	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

type playerDocument struct {
	ID            string         `bson:"_id"`
	Name          string         `bson:"name"`
	NameLower     string         `bson:"nameLower"`
	Rank          string         `bson:"rank"`
	Tags          []int          `bson:"tags"`
	Honor         int            `bson:"honor"`
	Currencies    map[string]int `bson:"currencies"`
	Achievements  []int          `bson:"achievements"`
	Locale        string         `bson:"locale"`
	ClientVersion string         `bson:"clientVersion"`
	FirstJoin     time.Time      `bson:"firstJoin"`
	LastJoin      time.Time      `bson:"lastJoin"`
}

func (d playerDocument) profile() (store.Profile, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return store.Profile{}, fmt.Errorf("decode profile id %q: %w", d.ID, err)
	}
	currencies := d.Currencies
	if currencies == nil {
		currencies = map[string]int{}
	}
	return store.Profile{
		UUID:          id,
		Name:          d.Name,
		Rank:          d.Rank,
		Tags:          d.Tags,
		Honor:         d.Honor,
		Currencies:    currencies,
		Achievements:  d.Achievements,
		Locale:        d.Locale,
		ClientVersion: d.ClientVersion,
		FirstJoin:     d.FirstJoin,
		LastJoin:      d.LastJoin,
	}, nil
}

// saveProfileUpdate builds the upsert applied by SaveProfile. Identity fields
// are overwritten; first join and rank only land on insert.
func saveProfileUpdate(p store.Profile) bson.M {
	onInsert := bson.M{"firstJoin": p.FirstJoin}
	if p.Rank != "" {
		onInsert["rank"] = p.Rank
	}
	return bson.M{
		"$set": bson.M{
			"name":          p.Name,
			"nameLower":     store.NormalizeName(p.Name),
			"locale":        p.Locale,
			"clientVersion": p.ClientVersion,
			"lastJoin":      p.LastJoin,
		},
		"$setOnInsert": onInsert,
	}
}

type transactionDocument struct {
	Player  string    `bson:"player"`
	Ledger  string    `bson:"ledger"`
	Delta   int       `bson:"delta"`
	Balance int       `bson:"balance"`
	Reason  string    `bson:"reason"`
	Time    time.Time `bson:"time"`
}

func newTransactionDocument(tx store.Transaction) transactionDocument {
	return transactionDocument{
		Player:  tx.Player.String(),
		Ledger:  tx.Ledger,
		Delta:   tx.Delta,
		Balance: tx.Balance,
		Reason:  tx.Reason,
		Time:    tx.Time,
	}
}

func (d transactionDocument) transaction() (store.Transaction, error) {
	id, err := uuid.Parse(d.Player)
	if err != nil {
		return store.Transaction{}, fmt.Errorf("decode transaction player %q: %w", d.Player, err)
	}
	return store.Transaction{
		Player:  id,
		Ledger:  d.Ledger,
		Delta:   d.Delta,
		Balance: d.Balance,
		Reason:  d.Reason,
		Time:    d.Time,
	}, nil
}

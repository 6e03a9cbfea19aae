package mongo

import (
	"testing"
	"time"

	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPlayerDocumentProfile(t *testing.T) {
	id := uuid.New()
	doc := playerDocument{ID: id.String(), Name: "Steve", Rank: "vip", Tags: []int{2}}

	p, err := doc.profile()
	require.NoError(t, err)
	assert.Equal(t, id, p.UUID)
	assert.Equal(t, "vip", p.Rank)
	assert.NotNil(t, p.Currencies)

	_, err = playerDocument{ID: "not-a-uuid"}.profile()
	assert.Error(t, err)
}

func TestSaveProfileUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	update := saveProfileUpdate(store.Profile{UUID: uuid.New(), Name: "  Alex ", Rank: "guest", FirstJoin: now, LastJoin: now})

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "alex", set["nameLower"])
	assert.NotContains(t, set, "rank")

	onInsert, ok := update["$setOnInsert"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "guest", onInsert["rank"])
	assert.Equal(t, now, onInsert["firstJoin"])

	noRank := saveProfileUpdate(store.Profile{Name: "x"})["$setOnInsert"].(bson.M)
	assert.NotContains(t, noRank, "rank")
}

func TestTransactionDocumentRoundTrip(t *testing.T) {
	tx := store.Transaction{Player: uuid.New(), Ledger: "tokens", Delta: 5, Balance: 10, Reason: "vote", Time: time.Unix(50, 0).UTC()}
	back, err := newTransactionDocument(tx).transaction()
	require.NoError(t, err)
	assert.Equal(t, tx, back)
}

func TestCurrencyField(t *testing.T) {
	assert.Equal(t, "currencies.tokens", currencyField(currency.Tokens))
}

package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProfileDocumentProjection(t *testing.T) {
	joined := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Profile{
		UUID:       uuid.New(),
		Name:       "Steve",
		Rank:       "vip",
		Tags:       []int{1, 3},
		Honor:      12,
		Currencies: map[string]int{"tokens": 5},
		LastJoin:   joined,
	}

	doc := p.Document(FieldRank, FieldTags, "bogus")
	assert.Len(t, doc, 2)
	assert.Equal(t, "vip", doc.String(FieldRank))
	assert.Equal(t, []int{1, 3}, doc.Ints(FieldTags))
	assert.False(t, doc.Has("bogus"))

	full := p.Document()
	assert.Equal(t, 12, full.Int(FieldHonor))
	assert.Equal(t, 5, full.Balances(FieldCurrencies)["tokens"])
	assert.Equal(t, joined, full.Time(FieldLastJoin))

	// The projection must not alias the profile's slices.
	doc.Ints(FieldTags)[0] = 99
	assert.Equal(t, 1, p.Tags[0])
}

func TestDocumentGetters(t *testing.T) {
	doc := Document{
		"f": float64(3),
		"i": int32(4),
		"l": []any{float64(1), int64(2)},
		"s": 5,
	}
	assert.Equal(t, 3, doc.Int("f"))
	assert.Equal(t, 4, doc.Int("i"))
	assert.Equal(t, []int{1, 2}, doc.Ints("l"))
	assert.Empty(t, doc.String("s"))
	assert.Zero(t, doc.Int("missing"))
	assert.Nil(t, doc.Ints("missing"))
	assert.Empty(t, doc.Balances("missing"))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "steve", NormalizeName("  StEvE "))
}

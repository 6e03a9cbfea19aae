package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dm-vev/netcore/core/achievement"
	"github.com/dm-vev/netcore/core/currency"
	"github.com/dm-vev/netcore/core/rank"
	"github.com/dm-vev/netcore/core/store"
	"github.com/dm-vev/netcore/core/store/leveldb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	st, err := leveldb.OpenMemory()
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	id := uuid.New()
	joined := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, st.SaveProfile(ctx, store.Profile{UUID: id, Name: "Steve", Rank: rank.MVP.Name, ClientVersion: "1.21.50", Locale: "en_US", FirstJoin: joined, LastJoin: joined}))
	require.NoError(t, st.SetTags(ctx, id, []int{rank.Tester.ID}))
	require.NoError(t, st.AddAchievement(ctx, id, achievement.FirstJoin))
	_, err = st.ChangeCurrency(ctx, id, 25, "vote reward", currency.Tokens)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, inspect(ctx, &out, st, "steve", 5))
	s := out.String()
	assert.Contains(t, s, id.String())
	assert.Contains(t, s, "MVP")
	assert.Contains(t, s, "tester")
	assert.Contains(t, s, "Welcome")
	assert.Contains(t, s, "2026-02-03 04:05:06")
	assert.Contains(t, s, "vote reward")
	assert.Contains(t, s, "+25")

	out.Reset()
	require.NoError(t, inspect(ctx, &out, st, id.String(), 0))
	assert.Contains(t, out.String(), "Steve")
}

func TestInspectUnknownPlayer(t *testing.T) {
	st, err := leveldb.OpenMemory()
	require.NoError(t, err)
	defer st.Close()

	err = inspect(context.Background(), &bytes.Buffer{}, st, "nobody", 5)
	assert.ErrorContains(t, err, "never joined")
}

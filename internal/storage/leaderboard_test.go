package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLeaderboard spins up an in-memory Redis for the test.
func newTestLeaderboard(t *testing.T) *Leaderboard {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLeaderboard(client)
}

func TestLeaderboard_RecordWin(t *testing.T) {
	lb := newTestLeaderboard(t)
	ctx := context.Background()

	require.NoError(t, lb.RecordWin(ctx, "pong", "p1", "Alice"))
	require.NoError(t, lb.RecordWin(ctx, "pong", "p1", "Alice"))

	stats, err := lb.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, stats)

	assert.Equal(t, 2, stats.TotalGames)
	assert.Equal(t, 2, stats.Wins)
	assert.Zero(t, stats.Losses)
	assert.Equal(t, 2*winPoints, stats.Score)
	assert.NotZero(t, stats.CreatedAt)
}

func TestLeaderboard_ScoreNeverNegative(t *testing.T) {
	lb := newTestLeaderboard(t)
	ctx := context.Background()

	require.NoError(t, lb.RecordLoss(ctx, "pong", "p1", "Alice"))

	stats, err := lb.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	assert.Zero(t, stats.Score)
	assert.Equal(t, 1, stats.Losses)
}

func TestLeaderboard_NameUpdatedOnRecord(t *testing.T) {
	lb := newTestLeaderboard(t)
	ctx := context.Background()

	require.NoError(t, lb.RecordWin(ctx, "pong", "p1", "Alice"))
	require.NoError(t, lb.RecordWin(ctx, "pong", "p1", "Alicia"))

	stats, err := lb.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Alicia", stats.PlayerName)
}

func TestLeaderboard_GetPlayerStats_Unknown(t *testing.T) {
	lb := newTestLeaderboard(t)

	stats, err := lb.GetPlayerStats(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestLeaderboard_Ranking(t *testing.T) {
	lb := newTestLeaderboard(t)
	ctx := context.Background()

	// Alice 两胜，Bob 一胜一负，Carol 一负
	require.NoError(t, lb.RecordWin(ctx, "pong", "p1", "Alice"))
	require.NoError(t, lb.RecordWin(ctx, "ttt", "p1", "Alice"))
	require.NoError(t, lb.RecordWin(ctx, "pong", "p2", "Bob"))
	require.NoError(t, lb.RecordLoss(ctx, "ttt", "p2", "Bob"))
	require.NoError(t, lb.RecordLoss(ctx, "pong", "p3", "Carol"))

	entries, err := lb.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "Alice", entries[0].PlayerName)
	assert.Equal(t, 2*winPoints, entries[0].Score)

	assert.Equal(t, "Bob", entries[1].PlayerName)
	assert.Equal(t, winPoints+lossPoints, entries[1].Score)

	assert.Equal(t, "Carol", entries[2].PlayerName)
	assert.Zero(t, entries[2].Score)
}

func TestLeaderboard_Limit(t *testing.T) {
	lb := newTestLeaderboard(t)
	ctx := context.Background()

	require.NoError(t, lb.RecordWin(ctx, "pong", "p1", "Alice"))
	require.NoError(t, lb.RecordWin(ctx, "pong", "p2", "Bob"))

	entries, err := lb.GetLeaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// limit <= 0 回退到默认的 10
	entries, err = lb.GetLeaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

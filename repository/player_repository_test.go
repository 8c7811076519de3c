package repository

import (
	"context"
	"testing"
	"time"

	"github.com/coolestnick/Shard-Flip/models"
	"github.com/coolestnick/Shard-Flip/repository/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerRepository_RecordGame(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPlayerRepository(testDB.DB)
	ctx := context.Background()

	t.Run("unknown player", func(t *testing.T) {
		player, err := repo.Get(ctx, testutil.TestPlayerA)
		require.NoError(t, err)
		assert.Nil(t, player)
	})

	t.Run("record win and loss", func(t *testing.T) {
		_, err := repo.Create(ctx, testutil.TestPlayerA, 0)
		require.NoError(t, err)

		playedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, repo.RecordGame(ctx, testutil.TestPlayerA, 50, 100, true, playedAt))
		require.NoError(t, repo.RecordGame(ctx, testutil.TestPlayerA, 30, 0, false, playedAt.Add(time.Minute)))

		player, err := repo.Get(ctx, testutil.TestPlayerA)
		require.NoError(t, err)
		require.NotNil(t, player)

		assert.Equal(t, int64(2), player.TotalGames)
		assert.Equal(t, int64(1), player.TotalWins)
		assert.Equal(t, int64(80), player.TotalWagered)
		assert.Equal(t, int64(100), player.TotalWon)
		assert.Equal(t, int64(0), player.FirstGameIndex)
		require.NotNil(t, player.LastPlayedAt)
		assert.True(t, player.LastPlayedAt.Equal(playedAt.Add(time.Minute)))
	})

	t.Run("record for missing player fails", func(t *testing.T) {
		err := repo.RecordGame(ctx, testutil.TestPlayerC, 10, 0, false, time.Now())
		assert.Error(t, err)
	})
}

func TestPlayerRepository_GetTop(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPlayerRepository(testDB.DB)
	ctx := context.Background()
	now := time.Now()

	// B plays first, then A, then C. A and B tie on wins.
	_, err := repo.Create(ctx, testutil.TestPlayerB, 0)
	require.NoError(t, err)
	_, err = repo.Create(ctx, testutil.TestPlayerA, 1)
	require.NoError(t, err)
	_, err = repo.Create(ctx, testutil.TestPlayerC, 2)
	require.NoError(t, err)

	require.NoError(t, repo.RecordGame(ctx, testutil.TestPlayerB, 10, 20, true, now))
	require.NoError(t, repo.RecordGame(ctx, testutil.TestPlayerA, 10, 20, true, now))
	require.NoError(t, repo.RecordGame(ctx, testutil.TestPlayerC, 10, 20, true, now))
	require.NoError(t, repo.RecordGame(ctx, testutil.TestPlayerC, 10, 20, true, now))
	require.NoError(t, repo.RecordGame(ctx, testutil.TestPlayerA, 10, 0, false, now))

	addresses := func(players []*models.PlayerRecord) []string {
		out := make([]string, 0, len(players))
		for _, p := range players {
			out = append(out, p.Address)
		}
		return out
	}

	tests := []struct {
		sortBy models.PlayerSort
		want   []string
	}{
		{models.PlayerSortWins, []string{testutil.TestPlayerC, testutil.TestPlayerB, testutil.TestPlayerA}},
		// A and C both played twice, A played first
		{models.PlayerSortGames, []string{testutil.TestPlayerA, testutil.TestPlayerC, testutil.TestPlayerB}},
		{models.PlayerSortWinnings, []string{testutil.TestPlayerC, testutil.TestPlayerB, testutil.TestPlayerA}},
	}
	for _, tt := range tests {
		t.Run(string(tt.sortBy), func(t *testing.T) {
			top, err := repo.GetTop(ctx, tt.sortBy, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, addresses(top))
		})
	}

	limited, err := repo.GetTop(ctx, models.PlayerSortWins, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	t.Run("list pages in registration order", func(t *testing.T) {
		asc, err := repo.List(ctx, models.PlayerListQuery{SortBy: models.PlayerSortRegistered, Ascending: true, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, []string{testutil.TestPlayerB, testutil.TestPlayerA, testutil.TestPlayerC}, addresses(asc))

		desc, err := repo.List(ctx, models.PlayerListQuery{SortBy: models.PlayerSortRegistered, Offset: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{testutil.TestPlayerA}, addresses(desc))
	})

	t.Run("unknown sort", func(t *testing.T) {
		_, err := repo.List(ctx, models.PlayerListQuery{SortBy: "total_wins; DROP TABLE players", Limit: 10})
		assert.Error(t, err)
	})
}

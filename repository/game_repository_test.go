package repository

import (
	"context"
	"testing"

	"github.com/coolestnick/Shard-Flip/repository/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	seed := testDB.SeedLedger(t, testutil.CreateTestSettings(), 1000)

	players := NewPlayerRepository(testDB.DB)
	repo := NewGameRepository(testDB.DB)
	ctx := context.Background()

	_, err := players.Create(ctx, testutil.TestPlayerA, 0)
	require.NoError(t, err)
	_, err = players.Create(ctx, testutil.TestPlayerB, 1)
	require.NoError(t, err)

	require.NoError(t, repo.Append(ctx, testutil.CreateTestGame(0, testutil.TestPlayerA, 50, true, seed.SeedHash)))
	require.NoError(t, repo.Append(ctx, testutil.CreateTestGame(1, testutil.TestPlayerB, 20, false, seed.SeedHash)))
	require.NoError(t, repo.Append(ctx, testutil.CreateTestGame(2, testutil.TestPlayerA, 30, false, seed.SeedHash)))

	t.Run("get by index", func(t *testing.T) {
		game, err := repo.GetByIndex(ctx, 0)
		require.NoError(t, err)
		require.NotNil(t, game)

		assert.Equal(t, testutil.TestPlayerA, game.Player)
		assert.Equal(t, int64(50), game.BetAmount)
		assert.True(t, game.Won)
		assert.Equal(t, int64(100), game.Payout)
		assert.Equal(t, seed.SeedHash, game.ServerSeedHash)
	})

	t.Run("missing index", func(t *testing.T) {
		game, err := repo.GetByIndex(ctx, 99)
		require.NoError(t, err)
		assert.Nil(t, game)
	})

	t.Run("duplicate index fails", func(t *testing.T) {
		err := repo.Append(ctx, testutil.CreateTestGame(2, testutil.TestPlayerA, 30, false, seed.SeedHash))
		assert.Error(t, err)
	})

	t.Run("recent is newest first", func(t *testing.T) {
		games, err := repo.GetRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, games, 2)
		assert.Equal(t, int64(2), games[0].GameIndex)
		assert.Equal(t, int64(1), games[1].GameIndex)
	})

	t.Run("by player", func(t *testing.T) {
		games, err := repo.GetByPlayer(ctx, testutil.TestPlayerA, 10)
		require.NoError(t, err)
		require.Len(t, games, 2)
		assert.Equal(t, int64(2), games[0].GameIndex)
		assert.Equal(t, int64(0), games[1].GameIndex)
	})
}

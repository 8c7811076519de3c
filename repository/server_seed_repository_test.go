package repository

import (
	"context"
	"testing"
	"time"

	"github.com/coolestnick/Shard-Flip/repository/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerSeedRepository_Rotation(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewServerSeedRepository(testDB.DB)
	ctx := context.Background()

	first := testutil.CreateTestServerSeed("first-seed")
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	active, err := repo.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, first.SeedHash, active.SeedHash)
	assert.False(t, active.Revealed())

	t.Run("second active seed violates the single active index", func(t *testing.T) {
		err := repo.Create(ctx, testutil.CreateTestServerSeed("rogue-seed"))
		assert.Error(t, err)
	})

	t.Run("reveal then create next", func(t *testing.T) {
		require.NoError(t, repo.Reveal(ctx, first.ID, time.Now()))
		require.NoError(t, repo.Create(ctx, testutil.CreateTestServerSeed("second-seed")))

		revealed, err := repo.GetByHash(ctx, first.SeedHash)
		require.NoError(t, err)
		require.NotNil(t, revealed)
		assert.True(t, revealed.Revealed())
		assert.False(t, revealed.Active)
		assert.Equal(t, "first-seed", revealed.Seed)

		active, err := repo.GetActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, "second-seed", active.Seed)
	})

	t.Run("reveal twice fails", func(t *testing.T) {
		assert.Error(t, repo.Reveal(ctx, first.ID, time.Now()))
	})

	t.Run("unknown hash", func(t *testing.T) {
		seed, err := repo.GetByHash(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, seed)
	})
}

package repository

import (
	"context"
	"testing"

	"github.com/coolestnick/Shard-Flip/models"
	"github.com/coolestnick/Shard-Flip/repository/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolMovementRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewPoolMovementRepository(testDB.DB)
	ctx := context.Background()

	deposit := testutil.CreateTestPoolMovement(testutil.TestPlayerA, 0, 1000)
	require.NoError(t, repo.Record(ctx, deposit))
	assert.NotZero(t, deposit.ID)
	assert.False(t, deposit.CreatedAt.IsZero())

	withdrawal := &models.PoolMovement{
		Kind:          models.MovementKindWithdrawal,
		Actor:         testutil.TestOwner,
		Amount:        400,
		BalanceBefore: 1000,
		BalanceAfter:  600,
	}
	require.NoError(t, repo.Record(ctx, withdrawal))

	movements, err := repo.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	assert.Equal(t, models.MovementKindWithdrawal, movements[0].Kind)
	assert.Equal(t, int64(600), movements[0].BalanceAfter)
	assert.Empty(t, movements[0].Metadata)
	assert.Nil(t, movements[0].GameIndex)

	assert.Equal(t, models.MovementKindDeposit, movements[1].Kind)
	assert.Equal(t, true, movements[1].Metadata["test"])
}

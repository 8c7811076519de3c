package service

import (
	"context"
	"testing"

	"github.com/coolestnick/Shard-Flip/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, clampLimit(0, 50))
	assert.Equal(t, 10, clampLimit(-3, 10))
	assert.Equal(t, 7, clampLimit(7, 10))
	assert.Equal(t, MaxViewLimit, clampLimit(5000, 10))
}

func TestStatsService_GetRecentGames_Window(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		window int
		want   int
	}{
		{"default window", 0, DefaultRecentGamesWindow},
		{"explicit window", 5, 5},
		{"capped window", 1000, MaxViewLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newLedgerMocks()
			m.uow.gameRepo.On("GetRecent", ctx, tt.want).Return([]*models.GameRecord{}, nil)

			games, err := NewStatsService(m.factory).GetRecentGames(ctx, tt.window)
			require.NoError(t, err)
			assert.Empty(t, games)
			m.uow.gameRepo.AssertExpectations(t)
			m.uow.AssertNotCalled(t, "Commit")
		})
	}
}

func TestStatsService_GetGameStats_NotInitialized(t *testing.T) {
	ctx := context.Background()
	m := newLedgerMocks()
	m.uow.ledgerRepo.On("Get", ctx).Return(nil, nil)

	_, err := NewStatsService(m.factory).GetGameStats(ctx)
	assert.ErrorIs(t, err, ErrLedgerNotInitialized)
}

func TestStatsService_GetRevealedSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("unrevealed seed stays hidden", func(t *testing.T) {
		m := newLedgerMocks()
		m.uow.serverSeedRepo.On("GetByHash", ctx, "seed-hash").Return(testSeed(), nil)

		seed, err := NewStatsService(m.factory).GetRevealedSeed(ctx, "seed-hash")
		assert.Nil(t, seed)
		assert.ErrorIs(t, err, ErrSeedNotRevealed)
	})

	t.Run("revealed seed", func(t *testing.T) {
		m := newLedgerMocks()
		revealed := testSeed()
		revealed.Active = false
		revealed.RevealedAt = &testNow
		m.uow.serverSeedRepo.On("GetByHash", ctx, "seed-hash").Return(revealed, nil)

		seed, err := NewStatsService(m.factory).GetRevealedSeed(ctx, "seed-hash")
		require.NoError(t, err)
		assert.Equal(t, "seed", seed.Seed)
	})
}

func TestStatsService_GetGameByIndex_Negative(t *testing.T) {
	_, err := NewStatsService(new(MockUnitOfWorkFactory)).GetGameByIndex(context.Background(), -1)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

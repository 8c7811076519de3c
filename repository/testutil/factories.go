package testutil

import (
	"time"

	"github.com/coolestnick/Shard-Flip/fairness"
	"github.com/coolestnick/Shard-Flip/models"
)

const (
	TestOwner   = "0x00000000000000000000000000000000000000aa"
	TestPlayerA = "0x00000000000000000000000000000000000000a1"
	TestPlayerB = "0x00000000000000000000000000000000000000b2"
	TestPlayerC = "0x00000000000000000000000000000000000000c3"
)

// CreateTestSettings returns small bet bounds that are easy to reason about
func CreateTestSettings() models.LedgerSettings {
	return models.LedgerSettings{
		Owner:            TestOwner,
		MinBet:           10,
		MaxBet:           100,
		PayoutMultiplier: 2,
	}
}

// CreateTestServerSeed returns an active seed committed to its hash
func CreateTestServerSeed(seed string) *models.ServerSeed {
	return &models.ServerSeed{
		Seed:      seed,
		SeedHash:  fairness.HashSeed(seed),
		Active:    true,
		CreatedAt: time.Now(),
	}
}

// CreateTestGame creates a settled game drawn from the given seed
func CreateTestGame(index int64, player string, stake int64, won bool, seedHash string) *models.GameRecord {
	game := &models.GameRecord{
		GameIndex:      index,
		Player:         player,
		BetAmount:      stake,
		Choice:         models.CoinSideHeads,
		Result:         models.CoinSideTails,
		ServerSeedHash: seedHash,
		Nonce:          index,
		PlayedAt:       time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(index) * time.Second),
	}
	if won {
		game.Won = true
		game.Result = models.CoinSideHeads
		game.Payout = stake * 2
	}
	return game
}

// CreateTestPoolMovement creates a deposit movement
func CreateTestPoolMovement(actor string, before, amount int64) *models.PoolMovement {
	return &models.PoolMovement{
		Kind:          models.MovementKindDeposit,
		Actor:         actor,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  before + amount,
		Metadata: map[string]any{
			"test": true,
		},
	}
}

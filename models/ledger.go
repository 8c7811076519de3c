package models

import "time"

// LedgerState is the singleton ledger row
type LedgerState struct {
	Owner            string    `db:"owner"`
	Paused           bool      `db:"paused"`
	PoolBalance      int64     `db:"pool_balance"`
	MinBet           int64     `db:"min_bet"`
	MaxBet           int64     `db:"max_bet"`
	PayoutMultiplier int64     `db:"payout_multiplier"`
	TotalGames       int64     `db:"total_games"`
	TotalVolume      int64     `db:"total_volume"`
	TotalPayout      int64     `db:"total_payout"`
	TotalActiveUsers int64     `db:"total_active_users"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// MaxPayout is the worst-case payout the pool must be able to cover for a stake
func (l *LedgerState) MaxPayout(stake int64) int64 {
	return stake * l.PayoutMultiplier
}

// LedgerSettings are the values a fresh ledger is created with
type LedgerSettings struct {
	Owner            string
	MinBet           int64
	MaxBet           int64
	PayoutMultiplier int64
}

// LedgerInfo is the public description of the ledger configuration
type LedgerInfo struct {
	Owner            string `json:"owner"`
	Paused           bool   `json:"paused"`
	MinBet           int64  `json:"min_bet"`
	MaxBet           int64  `json:"max_bet"`
	PayoutMultiplier int64  `json:"payout_multiplier"`
	ServerSeedHash   string `json:"server_seed_hash"`
}

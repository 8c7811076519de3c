package models

// GameStats are the global aggregates, maintained incrementally on every settlement
type GameStats struct {
	TotalGames       int64 `json:"total_games"`
	TotalVolume      int64 `json:"total_volume"`
	TotalPayout      int64 `json:"total_payout"`
	TotalActiveUsers int64 `json:"total_active_users"`
	PoolBalance      int64 `json:"pool_balance"`
	Paused           bool  `json:"paused"`
}

// HouseProfit is total volume minus total payouts
func (s *GameStats) HouseProfit() int64 {
	return s.TotalVolume - s.TotalPayout
}

// LeaderboardEntry represents a player's entry in the top players ranking
type LeaderboardEntry struct {
	Rank         int
	Address      string
	TotalWins    int64
	TotalGames   int64
	TotalWagered int64
	TotalWon     int64
}

// NetProfit is winnings minus stakes
func (e *LeaderboardEntry) NetProfit() int64 {
	return e.TotalWon - e.TotalWagered
}

package api

import (
	"time"

	"github.com/coolestnick/Shard-Flip/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// percentage renders part/whole as a percentage with the given decimal places
func percentage(part, whole int64, places int32) string {
	if whole <= 0 {
		return decimal.Zero.StringFixed(places)
	}
	return decimal.NewFromInt(part).
		Mul(hundred).
		Div(decimal.NewFromInt(whole)).
		StringFixed(places)
}

// winRate is wins over games, one decimal place
func winRate(wins, games int64) string {
	return percentage(wins, games, 1)
}

type playerView struct {
	Address      string     `json:"address"`
	TotalGames   int64      `json:"total_games"`
	TotalWins    int64      `json:"total_wins"`
	TotalLosses  int64      `json:"total_losses"`
	TotalWagered int64      `json:"total_wagered"`
	TotalWon     int64      `json:"total_won"`
	NetProfit    int64      `json:"net_profit"`
	WinRate      string     `json:"win_rate"`
	LastPlayedAt *time.Time `json:"last_played_at,omitempty"`
}

func newPlayerView(p *models.PlayerRecord) playerView {
	return playerView{
		Address:      p.Address,
		TotalGames:   p.TotalGames,
		TotalWins:    p.TotalWins,
		TotalLosses:  p.TotalGames - p.TotalWins,
		TotalWagered: p.TotalWagered,
		TotalWon:     p.TotalWon,
		NetProfit:    p.NetProfit(),
		WinRate:      winRate(p.TotalWins, p.TotalGames),
		LastPlayedAt: p.LastPlayedAt,
	}
}

type paginationView struct {
	CurrentPage  int   `json:"current_page"`
	PageSize     int   `json:"page_size"`
	TotalPages   int   `json:"total_pages"`
	TotalPlayers int64 `json:"total_players"`
	HasMore      bool  `json:"has_more"`
}

func newPaginationView(p *models.PlayerPage) paginationView {
	return paginationView{
		CurrentPage:  p.Page,
		PageSize:     p.PageSize,
		TotalPages:   p.TotalPages(),
		TotalPlayers: p.Total,
		HasMore:      p.HasMore(),
	}
}

type statsView struct {
	TotalGames       int64  `json:"total_games"`
	TotalVolume      int64  `json:"total_volume"`
	TotalPayout      int64  `json:"total_payout"`
	TotalActiveUsers int64  `json:"total_active_users"`
	PoolBalance      int64  `json:"pool_balance"`
	Paused           bool   `json:"paused"`
	HouseProfit      int64  `json:"house_profit"`
	HouseEdge        string `json:"house_edge"`
}

func newStatsView(s *models.GameStats) statsView {
	return statsView{
		TotalGames:       s.TotalGames,
		TotalVolume:      s.TotalVolume,
		TotalPayout:      s.TotalPayout,
		TotalActiveUsers: s.TotalActiveUsers,
		PoolBalance:      s.PoolBalance,
		Paused:           s.Paused,
		HouseProfit:      s.HouseProfit(),
		HouseEdge:        percentage(s.HouseProfit(), s.TotalVolume, 2),
	}
}

type leaderboardEntryView struct {
	Rank         int    `json:"rank"`
	Address      string `json:"address"`
	TotalWins    int64  `json:"total_wins"`
	TotalGames   int64  `json:"total_games"`
	TotalWagered int64  `json:"total_wagered"`
	TotalWon     int64  `json:"total_won"`
	NetProfit    int64  `json:"net_profit"`
	WinRate      string `json:"win_rate"`
}

func newLeaderboardView(entries []*models.LeaderboardEntry) []leaderboardEntryView {
	views := make([]leaderboardEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, leaderboardEntryView{
			Rank:         e.Rank,
			Address:      e.Address,
			TotalWins:    e.TotalWins,
			TotalGames:   e.TotalGames,
			TotalWagered: e.TotalWagered,
			TotalWon:     e.TotalWon,
			NetProfit:    e.NetProfit(),
			WinRate:      winRate(e.TotalWins, e.TotalGames),
		})
	}
	return views
}

type poolMovementView struct {
	ID            int64               `json:"id"`
	Kind          models.MovementKind `json:"kind"`
	Actor         string              `json:"actor"`
	Amount        int64               `json:"amount"`
	BalanceBefore int64               `json:"balance_before"`
	BalanceAfter  int64               `json:"balance_after"`
	GameIndex     *int64              `json:"game_index,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newPoolMovementViews(movements []*models.PoolMovement) []poolMovementView {
	views := make([]poolMovementView, 0, len(movements))
	for _, m := range movements {
		views = append(views, poolMovementView{
			ID:            m.ID,
			Kind:          m.Kind,
			Actor:         m.Actor,
			Amount:        m.Amount,
			BalanceBefore: m.BalanceBefore,
			BalanceAfter:  m.BalanceAfter,
			GameIndex:     m.GameIndex,
			CreatedAt:     m.CreatedAt,
		})
	}
	return views
}

type ledgerStateView struct {
	Owner            string `json:"owner"`
	Paused           bool   `json:"paused"`
	PoolBalance      int64  `json:"pool_balance"`
	MinBet           int64  `json:"min_bet"`
	MaxBet           int64  `json:"max_bet"`
	PayoutMultiplier int64  `json:"payout_multiplier"`
}

func newLedgerStateView(l *models.LedgerState) ledgerStateView {
	return ledgerStateView{
		Owner:            l.Owner,
		Paused:           l.Paused,
		PoolBalance:      l.PoolBalance,
		MinBet:           l.MinBet,
		MaxBet:           l.MaxBet,
		PayoutMultiplier: l.PayoutMultiplier,
	}
}

package models

import "time"

// PlayerRecord holds the running totals for one identity.
// Records are created lazily on a player's first settled bet.
type PlayerRecord struct {
	Address        string     `db:"address" json:"address"`
	TotalGames     int64      `db:"total_games" json:"total_games"`
	TotalWins      int64      `db:"total_wins" json:"total_wins"`
	TotalWagered   int64      `db:"total_wagered" json:"total_wagered"`
	TotalWon       int64      `db:"total_won" json:"total_won"`
	FirstGameIndex int64      `db:"first_game_index" json:"-"`
	LastPlayedAt   *time.Time `db:"last_played_at" json:"last_played_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"-"`
}

// HasPlayed reports whether the player has at least one settled game
func (p *PlayerRecord) HasPlayed() bool {
	return p.TotalGames > 0
}

// NetProfit is what the player has won back minus what they staked
func (p *PlayerRecord) NetProfit() int64 {
	return p.TotalWon - p.TotalWagered
}

// ZeroPlayerRecord is returned for identities that have never played
func ZeroPlayerRecord(address string) *PlayerRecord {
	return &PlayerRecord{Address: address, FirstGameIndex: -1}
}

// PlayerSort names the counter players are ordered by
type PlayerSort string

const (
	PlayerSortWins       PlayerSort = "wins"
	PlayerSortGames      PlayerSort = "games"
	PlayerSortWinnings   PlayerSort = "winnings"
	PlayerSortRegistered PlayerSort = "registered"
)

// Valid reports whether s is a known sort key
func (s PlayerSort) Valid() bool {
	switch s {
	case PlayerSortWins, PlayerSortGames, PlayerSortWinnings, PlayerSortRegistered:
		return true
	}
	return false
}

// Ranked reports whether s can order a leaderboard
func (s PlayerSort) Ranked() bool {
	return s.Valid() && s != PlayerSortRegistered
}

// PlayerListQuery selects one window of the player listing.
// Players with equal sort values keep first-played order.
type PlayerListQuery struct {
	SortBy    PlayerSort
	Ascending bool
	Offset    int
	Limit     int
}

// PlayerPage is one page of the player listing
type PlayerPage struct {
	Players  []*PlayerRecord
	Page     int
	PageSize int
	Total    int64
}

// TotalPages is the number of pages of PageSize needed to hold Total
func (p *PlayerPage) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// HasMore reports whether players exist past this page
func (p *PlayerPage) HasMore() bool {
	return int64((p.Page-1)*p.PageSize+len(p.Players)) < p.Total
}

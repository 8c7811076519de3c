package models

import (
	"fmt"
	"strings"
	"time"
)

// CoinSide is one face of the coin
type CoinSide string

const (
	CoinSideHeads CoinSide = "heads"
	CoinSideTails CoinSide = "tails"
)

// ParseCoinSide accepts "heads"/"tails" in any case, plus the numeric 0/1 form
func ParseCoinSide(s string) (CoinSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heads", "0":
		return CoinSideHeads, nil
	case "tails", "1":
		return CoinSideTails, nil
	default:
		return "", fmt.Errorf("invalid coin side %q", s)
	}
}

// Valid reports whether the side is one of the two faces
func (c CoinSide) Valid() bool {
	return c == CoinSideHeads || c == CoinSideTails
}

// GameRecord is an immutable settled game
type GameRecord struct {
	GameIndex      int64     `db:"game_index" json:"game_index"`
	Player         string    `db:"player" json:"player"`
	BetAmount      int64     `db:"bet_amount" json:"bet_amount"`
	Choice         CoinSide  `db:"choice" json:"choice"`
	Result         CoinSide  `db:"result" json:"result"`
	Won            bool      `db:"won" json:"won"`
	Payout         int64     `db:"payout" json:"payout"`
	ServerSeedHash string    `db:"server_seed_hash" json:"server_seed_hash"`
	Nonce          int64     `db:"nonce" json:"nonce"`
	PlayedAt       time.Time `db:"played_at" json:"played_at"`
}

// Payment is value moved together with a call. A bet without one is rejected.
type Payment struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference,omitempty"`
}

// BetRequest is a single wager submission
type BetRequest struct {
	Player  string
	Stake   int64
	Choice  CoinSide
	Payment *Payment
}

// BetResult represents the outcome of a bet (returned to the player)
type BetResult struct {
	Game        *GameRecord
	PoolBalance int64
}

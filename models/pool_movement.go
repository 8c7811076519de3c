package models

import "time"

// MovementKind represents the reason the pool balance changed
type MovementKind string

const (
	MovementKindStakeIn             MovementKind = "stake_in"
	MovementKindPayoutOut           MovementKind = "payout_out"
	MovementKindDeposit             MovementKind = "deposit"
	MovementKindWithdrawal          MovementKind = "withdrawal"
	MovementKindEmergencyWithdrawal MovementKind = "emergency_withdrawal"
)

// PoolMovement is an audit entry for a single pool balance change
type PoolMovement struct {
	ID            int64          `db:"id"`
	Kind          MovementKind   `db:"kind"`
	Actor         string         `db:"actor"`
	Amount        int64          `db:"amount"`
	BalanceBefore int64          `db:"balance_before"`
	BalanceAfter  int64          `db:"balance_after"`
	GameIndex     *int64         `db:"game_index"`
	Metadata      map[string]any `db:"metadata"`
	CreatedAt     time.Time      `db:"created_at"`
}

// Transfer is an outbound movement of funds to an identity
type Transfer struct {
	ID        string       `json:"id"`
	Kind      MovementKind `json:"kind"`
	Recipient string       `json:"recipient"`
	Amount    int64        `json:"amount"`
	GameIndex *int64       `json:"game_index,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

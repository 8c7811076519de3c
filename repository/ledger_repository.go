package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/coolestnick/Shard-Flip/database"
	"github.com/coolestnick/Shard-Flip/models"
	"github.com/jackc/pgx/v5"
)

const ledgerColumns = `
	owner, paused, pool_balance, min_bet, max_bet, payout_multiplier,
	total_games, total_volume, total_payout, total_active_users, created_at, updated_at`

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepositoryWithTx creates a new ledger repository with a transaction
func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Get returns the ledger row without locking it
func (r *LedgerRepository) Get(ctx context.Context) (*models.LedgerState, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_state WHERE id = 1`
	return r.scan(ctx, query)
}

// GetForUpdate returns the ledger row and holds a row lock until the transaction ends
func (r *LedgerRepository) GetForUpdate(ctx context.Context) (*models.LedgerState, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_state WHERE id = 1 FOR UPDATE`
	return r.scan(ctx, query)
}

func (r *LedgerRepository) scan(ctx context.Context, query string) (*models.LedgerState, error) {
	var l models.LedgerState
	err := r.q.QueryRow(ctx, query).Scan(
		&l.Owner,
		&l.Paused,
		&l.PoolBalance,
		&l.MinBet,
		&l.MaxBet,
		&l.PayoutMultiplier,
		&l.TotalGames,
		&l.TotalVolume,
		&l.TotalPayout,
		&l.TotalActiveUsers,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger state: %w", err)
	}
	return &l, nil
}

// Create inserts the singleton ledger row
func (r *LedgerRepository) Create(ctx context.Context, settings models.LedgerSettings) (*models.LedgerState, error) {
	query := `
		INSERT INTO ledger_state (id, owner, min_bet, max_bet, payout_multiplier)
		VALUES (1, $1, $2, $3, $4)
		RETURNING ` + ledgerColumns

	var l models.LedgerState
	err := r.q.QueryRow(ctx, query,
		settings.Owner,
		settings.MinBet,
		settings.MaxBet,
		settings.PayoutMultiplier,
	).Scan(
		&l.Owner,
		&l.Paused,
		&l.PoolBalance,
		&l.MinBet,
		&l.MaxBet,
		&l.PayoutMultiplier,
		&l.TotalGames,
		&l.TotalVolume,
		&l.TotalPayout,
		&l.TotalActiveUsers,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ledger state: %w", err)
	}
	return &l, nil
}

// Update writes every mutable ledger field
func (r *LedgerRepository) Update(ctx context.Context, state *models.LedgerState) error {
	query := `
		UPDATE ledger_state
		SET owner = $1,
		    paused = $2,
		    pool_balance = $3,
		    total_games = $4,
		    total_volume = $5,
		    total_payout = $6,
		    total_active_users = $7,
		    updated_at = NOW()
		WHERE id = 1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		state.Owner,
		state.Paused,
		state.PoolBalance,
		state.TotalGames,
		state.TotalVolume,
		state.TotalPayout,
		state.TotalActiveUsers,
	).Scan(&state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ledger state not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update ledger state: %w", err)
	}
	return nil
}

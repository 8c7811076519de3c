package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coolestnick/Shard-Flip/database"
	"github.com/coolestnick/Shard-Flip/models"
)

// PoolMovementRepository implements the PoolMovementRepository interface
type PoolMovementRepository struct {
	q queryable
}

// NewPoolMovementRepository creates a new pool movement repository
func NewPoolMovementRepository(db *database.DB) *PoolMovementRepository {
	return &PoolMovementRepository{q: db.Pool}
}

// newPoolMovementRepositoryWithTx creates a new pool movement repository with a transaction
func newPoolMovementRepositoryWithTx(tx queryable) *PoolMovementRepository {
	return &PoolMovementRepository{q: tx}
}

// Record creates a new pool movement entry
func (r *PoolMovementRepository) Record(ctx context.Context, movement *models.PoolMovement) error {
	metadata := movement.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO pool_movements (
			kind, actor, amount, balance_before, balance_after, game_index, metadata
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		movement.Kind,
		movement.Actor,
		movement.Amount,
		movement.BalanceBefore,
		movement.BalanceAfter,
		movement.GameIndex,
		metadataJSON,
	).Scan(&movement.ID, &movement.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record pool movement: %w", err)
	}

	return nil
}

// GetRecent returns the latest movements, most recent first
func (r *PoolMovementRepository) GetRecent(ctx context.Context, limit int) ([]*models.PoolMovement, error) {
	query := `
		SELECT id, kind, actor, amount, balance_before, balance_after,
		       game_index, metadata, created_at
		FROM pool_movements
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool movements: %w", err)
	}
	defer rows.Close()

	var movements []*models.PoolMovement
	for rows.Next() {
		var m models.PoolMovement
		var metadataJSON []byte
		if err := rows.Scan(
			&m.ID,
			&m.Kind,
			&m.Actor,
			&m.Amount,
			&m.BalanceBefore,
			&m.BalanceAfter,
			&m.GameIndex,
			&metadataJSON,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pool movement: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &m.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		movements = append(movements, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pool movements: %w", err)
	}

	return movements, nil
}

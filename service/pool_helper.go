package service

import (
	"context"
	"fmt"

	"github.com/coolestnick/Shard-Flip/models"
)

// RecordPoolMovement writes an audit entry for a pool balance change.
// Every change to PoolBalance goes through here.
func RecordPoolMovement(ctx context.Context, uow UnitOfWork, movement *models.PoolMovement) error {
	if movement.BalanceAfter < 0 {
		return fmt.Errorf("pool balance would go negative: %d", movement.BalanceAfter)
	}
	if err := uow.PoolMovementRepository().Record(ctx, movement); err != nil {
		return fmt.Errorf("failed to record pool movement: %w", err)
	}
	return nil
}

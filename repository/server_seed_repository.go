package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coolestnick/Shard-Flip/database"
	"github.com/coolestnick/Shard-Flip/models"
	"github.com/jackc/pgx/v5"
)

const seedColumns = `id, seed, seed_hash, active, created_at, revealed_at`

// ServerSeedRepository implements the ServerSeedRepository interface
type ServerSeedRepository struct {
	q queryable
}

// NewServerSeedRepository creates a new server seed repository
func NewServerSeedRepository(db *database.DB) *ServerSeedRepository {
	return &ServerSeedRepository{q: db.Pool}
}

// newServerSeedRepositoryWithTx creates a new server seed repository with a transaction
func newServerSeedRepositoryWithTx(tx queryable) *ServerSeedRepository {
	return &ServerSeedRepository{q: tx}
}

// GetActive returns the seed bets are currently drawn from
func (r *ServerSeedRepository) GetActive(ctx context.Context) (*models.ServerSeed, error) {
	query := `SELECT ` + seedColumns + ` FROM server_seeds WHERE active`
	return r.get(ctx, query)
}

// GetByHash retrieves a seed by its commitment
func (r *ServerSeedRepository) GetByHash(ctx context.Context, seedHash string) (*models.ServerSeed, error) {
	query := `SELECT ` + seedColumns + ` FROM server_seeds WHERE seed_hash = $1`
	return r.get(ctx, query, seedHash)
}

func (r *ServerSeedRepository) get(ctx context.Context, query string, args ...any) (*models.ServerSeed, error) {
	var s models.ServerSeed
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&s.ID,
		&s.Seed,
		&s.SeedHash,
		&s.Active,
		&s.CreatedAt,
		&s.RevealedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server seed: %w", err)
	}
	return &s, nil
}

// Create stores a new active seed
func (r *ServerSeedRepository) Create(ctx context.Context, seed *models.ServerSeed) error {
	query := `
		INSERT INTO server_seeds (seed, seed_hash, active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query, seed.Seed, seed.SeedHash, seed.Active).Scan(&seed.ID, &seed.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create server seed: %w", err)
	}
	return nil
}

// Reveal deactivates a seed and stamps its reveal time
func (r *ServerSeedRepository) Reveal(ctx context.Context, id int64, revealedAt time.Time) error {
	query := `
		UPDATE server_seeds
		SET active = FALSE, revealed_at = $2
		WHERE id = $1 AND revealed_at IS NULL
	`

	result, err := r.q.Exec(ctx, query, id, revealedAt)
	if err != nil {
		return fmt.Errorf("failed to reveal server seed %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("server seed %d not found or already revealed", id)
	}
	return nil
}

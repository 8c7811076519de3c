package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/coolestnick/Shard-Flip/database"
	"github.com/coolestnick/Shard-Flip/models"
	"github.com/jackc/pgx/v5"
)

const gameColumns = `
	game_index, player, bet_amount, choice, result, won, payout,
	server_seed_hash, nonce, played_at`

// GameRepository implements the GameRepository interface
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

// Append stores a settled game
func (r *GameRepository) Append(ctx context.Context, game *models.GameRecord) error {
	query := `
		INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.Exec(ctx, query,
		game.GameIndex,
		game.Player,
		game.BetAmount,
		game.Choice,
		game.Result,
		game.Won,
		game.Payout,
		game.ServerSeedHash,
		game.Nonce,
		game.PlayedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append game %d: %w", game.GameIndex, err)
	}
	return nil
}

// GetByIndex retrieves a game by its history index
func (r *GameRepository) GetByIndex(ctx context.Context, index int64) (*models.GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE game_index = $1`

	game, err := scanGame(r.q.QueryRow(ctx, query, index))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", index, err)
	}
	return game, nil
}

// GetRecent returns the latest games, most recent first
func (r *GameRepository) GetRecent(ctx context.Context, limit int) ([]*models.GameRecord, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		ORDER BY game_index DESC
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// GetByPlayer returns a player's latest games, most recent first
func (r *GameRepository) GetByPlayer(ctx context.Context, player string, limit int) ([]*models.GameRecord, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE player = $1
		ORDER BY game_index DESC
		LIMIT $2
	`
	return r.list(ctx, query, player, limit)
}

func (r *GameRepository) list(ctx context.Context, query string, args ...any) ([]*models.GameRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []*models.GameRecord
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}
	return games, nil
}

func scanGame(row pgx.Row) (*models.GameRecord, error) {
	var g models.GameRecord
	err := row.Scan(
		&g.GameIndex,
		&g.Player,
		&g.BetAmount,
		&g.Choice,
		&g.Result,
		&g.Won,
		&g.Payout,
		&g.ServerSeedHash,
		&g.Nonce,
		&g.PlayedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

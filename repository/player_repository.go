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

// PlayerRepository implements the PlayerRepository interface
type PlayerRepository struct {
	q queryable
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db *database.DB) *PlayerRepository {
	return &PlayerRepository{q: db.Pool}
}

// newPlayerRepositoryWithTx creates a new player repository with a transaction
func newPlayerRepositoryWithTx(tx queryable) *PlayerRepository {
	return &PlayerRepository{q: tx}
}

// Get retrieves a player by address
func (r *PlayerRepository) Get(ctx context.Context, address string) (*models.PlayerRecord, error) {
	query := `
		SELECT address, total_games, total_wins, total_wagered, total_won,
		       first_game_index, last_played_at, created_at
		FROM players
		WHERE address = $1
	`

	var p models.PlayerRecord
	err := r.q.QueryRow(ctx, query, address).Scan(
		&p.Address,
		&p.TotalGames,
		&p.TotalWins,
		&p.TotalWagered,
		&p.TotalWon,
		&p.FirstGameIndex,
		&p.LastPlayedAt,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player %s: %w", address, err)
	}
	return &p, nil
}

// Create inserts a zeroed player record
func (r *PlayerRepository) Create(ctx context.Context, address string, firstGameIndex int64) (*models.PlayerRecord, error) {
	query := `
		INSERT INTO players (address, first_game_index)
		VALUES ($1, $2)
		RETURNING created_at
	`

	p := &models.PlayerRecord{
		Address:        address,
		FirstGameIndex: firstGameIndex,
	}
	if err := r.q.QueryRow(ctx, query, address, firstGameIndex).Scan(&p.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create player %s: %w", address, err)
	}
	return p, nil
}

// RecordGame adds one settled game to the player's counters
func (r *PlayerRepository) RecordGame(ctx context.Context, address string, stake, payout int64, won bool, playedAt time.Time) error {
	query := `
		UPDATE players
		SET total_games = total_games + 1,
		    total_wins = total_wins + CASE WHEN $2 THEN 1 ELSE 0 END,
		    total_wagered = total_wagered + $3,
		    total_won = total_won + $4,
		    last_played_at = $5
		WHERE address = $1
	`

	result, err := r.q.Exec(ctx, query, address, won, stake, payout, playedAt)
	if err != nil {
		return fmt.Errorf("failed to record game for player %s: %w", address, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("player %s not found", address)
	}
	return nil
}

// playerSortColumns maps each sort key onto its column. Only these strings are
// ever interpolated into ORDER BY.
var playerSortColumns = map[models.PlayerSort]string{
	models.PlayerSortWins:       "total_wins",
	models.PlayerSortGames:      "total_games",
	models.PlayerSortWinnings:   "total_won",
	models.PlayerSortRegistered: "first_game_index",
}

// GetTop returns players ordered by the sortBy counter, then by who played first
func (r *PlayerRepository) GetTop(ctx context.Context, sortBy models.PlayerSort, limit int) ([]*models.PlayerRecord, error) {
	return r.List(ctx, models.PlayerListQuery{SortBy: sortBy, Limit: limit})
}

// List returns players ordered by query.SortBy. first_game_index is unique, so it
// makes the order total.
func (r *PlayerRepository) List(ctx context.Context, q models.PlayerListQuery) ([]*models.PlayerRecord, error) {
	column, ok := playerSortColumns[q.SortBy]
	if !ok {
		return nil, fmt.Errorf("unknown player sort %q", q.SortBy)
	}
	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}
	order := column + " " + direction
	if column != "first_game_index" {
		order += ", first_game_index ASC"
	}

	query := `
		SELECT address, total_games, total_wins, total_wagered, total_won,
		       first_game_index, last_played_at, created_at
		FROM players
		ORDER BY ` + order + `
		LIMIT $1 OFFSET $2
	`

	rows, err := r.q.Query(ctx, query, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*models.PlayerRecord
	for rows.Next() {
		var p models.PlayerRecord
		if err := rows.Scan(
			&p.Address,
			&p.TotalGames,
			&p.TotalWins,
			&p.TotalWagered,
			&p.TotalWon,
			&p.FirstGameIndex,
			&p.LastPlayedAt,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}

	return players, nil
}

package service

import (
	"context"
	"time"

	"github.com/coolestnick/Shard-Flip/events"
	"github.com/coolestnick/Shard-Flip/models"
)

// LedgerRepository defines the interface for the singleton ledger row
type LedgerRepository interface {
	// Get returns the ledger state, or nil if the ledger has not been initialized
	Get(ctx context.Context) (*models.LedgerState, error)

	// GetForUpdate returns the ledger state and locks it until the transaction ends
	GetForUpdate(ctx context.Context) (*models.LedgerState, error)

	// Create inserts the ledger row with the given settings and an empty pool
	Create(ctx context.Context, settings models.LedgerSettings) (*models.LedgerState, error)

	// Update persists every mutable field of the ledger
	Update(ctx context.Context, state *models.LedgerState) error
}

// PlayerRepository defines the interface for player record access
type PlayerRepository interface {
	// Get retrieves a player by address, returning nil if they have never played
	Get(ctx context.Context, address string) (*models.PlayerRecord, error)

	// Create inserts a zeroed record for a player whose first game has the given index
	Create(ctx context.Context, address string, firstGameIndex int64) (*models.PlayerRecord, error)

	// RecordGame folds one settled game into the player's counters
	RecordGame(ctx context.Context, address string, stake, payout int64, won bool, playedAt time.Time) error

	// GetTop returns players with the highest sortBy counter, earliest first game breaking ties
	GetTop(ctx context.Context, sortBy models.PlayerSort, limit int) ([]*models.PlayerRecord, error)

	// List returns one window of every player in the requested order
	List(ctx context.Context, query models.PlayerListQuery) ([]*models.PlayerRecord, error)
}

// GameRepository defines the interface for the append-only game history
type GameRepository interface {
	// Append stores a settled game. GameIndex must be the next dense index.
	Append(ctx context.Context, game *models.GameRecord) error

	// GetByIndex retrieves a game by index, returning nil if it does not exist
	GetByIndex(ctx context.Context, index int64) (*models.GameRecord, error)

	// GetRecent returns the latest games, most recent first
	GetRecent(ctx context.Context, limit int) ([]*models.GameRecord, error)

	// GetByPlayer returns a player's latest games, most recent first
	GetByPlayer(ctx context.Context, player string, limit int) ([]*models.GameRecord, error)
}

// PoolMovementRepository defines the interface for the pool audit trail
type PoolMovementRepository interface {
	// Record creates a new pool movement entry
	Record(ctx context.Context, movement *models.PoolMovement) error

	// GetRecent returns the latest movements, most recent first
	GetRecent(ctx context.Context, limit int) ([]*models.PoolMovement, error)
}

// ServerSeedRepository defines the interface for fairness seed storage
type ServerSeedRepository interface {
	// GetActive returns the seed new bets are drawn from, or nil if none exists
	GetActive(ctx context.Context) (*models.ServerSeed, error)

	// GetByHash retrieves a seed by its commitment, returning nil if unknown
	GetByHash(ctx context.Context, seedHash string) (*models.ServerSeed, error)

	// Create stores a new active seed
	Create(ctx context.Context, seed *models.ServerSeed) error

	// Reveal deactivates a seed and marks it publishable
	Reveal(ctx context.Context, id int64, revealedAt time.Time) error
}

// EventPublisher queues events inside a unit of work
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork wraps one ledger transaction and the repositories bound to it
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	LedgerRepository() LedgerRepository
	PlayerRepository() PlayerRepository
	GameRepository() GameRepository
	PoolMovementRepository() PoolMovementRepository
	ServerSeedRepository() ServerSeedRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Treasury moves funds out of the pool to a recipient.
// A returned error means the funds did not reach the recipient.
type Treasury interface {
	Send(ctx context.Context, transfer *models.Transfer) error
}

// Flipper draws a coin outcome from a committed seed
type Flipper interface {
	Flip(seed *models.ServerSeed, clientSeed string, nonce int64) models.CoinSide
}

// Clock supplies settlement timestamps
type Clock interface {
	Now() time.Time
}

// MetricsRecorder receives ledger counters. A nil recorder is allowed.
type MetricsRecorder interface {
	RecordBetSettled(won bool, stake, payout int64)
	RecordRejected(code string)
	RecordPoolMovement(kind string, amount int64)
}

// LedgerService defines every state-changing ledger operation
type LedgerService interface {
	// Init creates the ledger and its first fairness seed if they do not exist yet
	Init(ctx context.Context, settings models.LedgerSettings) (*models.LedgerState, error)

	// PlaceBet validates, draws and settles a single wager
	PlaceBet(ctx context.Context, req models.BetRequest) (*models.BetResult, error)

	// DepositFunds adds value to the pool. Any caller may deposit.
	DepositFunds(ctx context.Context, caller string, amount int64) (*models.LedgerState, error)

	// WithdrawFunds sends part of the pool to the owner
	WithdrawFunds(ctx context.Context, caller string, amount int64) (*models.LedgerState, error)

	// EmergencyWithdraw sends the whole pool to the owner
	EmergencyWithdraw(ctx context.Context, caller string) (*models.LedgerState, error)

	// SetPaused toggles bet acceptance
	SetPaused(ctx context.Context, caller string, paused bool) (*models.LedgerState, error)

	// TransferOwnership hands admin rights to a new identity
	TransferOwnership(ctx context.Context, caller, newOwner string) (*models.LedgerState, error)

	// RotateSeed reveals the active fairness seed and commits a new one
	RotateSeed(ctx context.Context, caller string) (*models.SeedReveal, error)
}

// StatsService defines the read-only ledger views
type StatsService interface {
	// GetPlayerStats returns a player's totals, zeroed for unknown players
	GetPlayerStats(ctx context.Context, player string) (*models.PlayerRecord, error)

	// GetGameStats returns the global aggregates
	GetGameStats(ctx context.Context) (*models.GameStats, error)

	// GetLedgerInfo returns the ledger configuration and fairness commitment
	GetLedgerInfo(ctx context.Context) (*models.LedgerInfo, error)

	// GetRecentGames returns the latest games, most recent first
	GetRecentGames(ctx context.Context, window int) ([]*models.GameRecord, error)

	// GetGameByIndex returns one game by its history index
	GetGameByIndex(ctx context.Context, index int64) (*models.GameRecord, error)

	// GetTotalGames returns the number of settled games
	GetTotalGames(ctx context.Context) (int64, error)

	// GetPlayerGames returns a player's latest games, most recent first
	GetPlayerGames(ctx context.Context, player string, limit int) ([]*models.GameRecord, error)

	// GetTopPlayers ranks players by wins, games played or winnings
	GetTopPlayers(ctx context.Context, sortBy models.PlayerSort, limit int) ([]*models.LeaderboardEntry, error)

	// ListPlayers returns one page of every player
	ListPlayers(ctx context.Context, query PlayerListRequest) (*models.PlayerPage, error)

	// GetRevealedSeed returns a seed by its commitment once it has been revealed
	GetRevealedSeed(ctx context.Context, seedHash string) (*models.ServerSeed, error)

	// GetPoolMovements returns the latest pool audit entries
	GetPoolMovements(ctx context.Context, limit int) ([]*models.PoolMovement, error)
}

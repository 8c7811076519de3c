package service

import (
	"context"
	"fmt"

	"github.com/coolestnick/Shard-Flip/models"
)

const (
	DefaultRecentGamesWindow = 50
	DefaultPlayerGamesLimit  = 10
	DefaultTopPlayersLimit   = 10
	DefaultPlayerPageSize    = 50
	MaxViewLimit             = 100
)

// PlayerListRequest asks for one page of the player listing. Pages start at 1.
// An empty SortBy lists the most recently registered players first.
type PlayerListRequest struct {
	Page      int
	PageSize  int
	SortBy    models.PlayerSort
	Ascending bool
}

// statsService implements the StatsService interface
type statsService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
	}
}

// view runs fn in a unit of work that is always rolled back
func (s *statsService) view(ctx context.Context, fn func(uow UnitOfWork) error) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()
	return fn(uow)
}

func (s *statsService) GetPlayerStats(ctx context.Context, player string) (*models.PlayerRecord, error) {
	address := models.NormalizeAddress(player)
	var record *models.PlayerRecord

	err := s.view(ctx, func(uow UnitOfWork) error {
		var err error
		record, err = uow.PlayerRepository().Get(ctx, address)
		if err != nil {
			return fmt.Errorf("failed to get player %s: %w", address, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if record == nil {
		return models.ZeroPlayerRecord(address), nil
	}
	return record, nil
}

func (s *statsService) GetGameStats(ctx context.Context) (*models.GameStats, error) {
	var stats *models.GameStats

	err := s.view(ctx, func(uow UnitOfWork) error {
		ledger, err := uow.LedgerRepository().Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to get ledger: %w", err)
		}
		if ledger == nil {
			return ErrLedgerNotInitialized
		}
		stats = &models.GameStats{
			TotalGames:       ledger.TotalGames,
			TotalVolume:      ledger.TotalVolume,
			TotalPayout:      ledger.TotalPayout,
			TotalActiveUsers: ledger.TotalActiveUsers,
			PoolBalance:      ledger.PoolBalance,
			Paused:           ledger.Paused,
		}
		return nil
	})
	return stats, err
}

func (s *statsService) GetLedgerInfo(ctx context.Context) (*models.LedgerInfo, error) {
	var info *models.LedgerInfo

	err := s.view(ctx, func(uow UnitOfWork) error {
		ledger, err := uow.LedgerRepository().Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to get ledger: %w", err)
		}
		if ledger == nil {
			return ErrLedgerNotInitialized
		}
		seed, err := uow.ServerSeedRepository().GetActive(ctx)
		if err != nil {
			return fmt.Errorf("failed to get active server seed: %w", err)
		}

		info = &models.LedgerInfo{
			Owner:            ledger.Owner,
			Paused:           ledger.Paused,
			MinBet:           ledger.MinBet,
			MaxBet:           ledger.MaxBet,
			PayoutMultiplier: ledger.PayoutMultiplier,
		}
		if seed != nil {
			info.ServerSeedHash = seed.SeedHash
		}
		return nil
	})
	return info, err
}

func (s *statsService) GetRecentGames(ctx context.Context, window int) ([]*models.GameRecord, error) {
	window = clampLimit(window, DefaultRecentGamesWindow)
	var games []*models.GameRecord

	err := s.view(ctx, func(uow UnitOfWork) error {
		var err error
		games, err = uow.GameRepository().GetRecent(ctx, window)
		if err != nil {
			return fmt.Errorf("failed to get recent games: %w", err)
		}
		return nil
	})
	return games, err
}

func (s *statsService) GetGameByIndex(ctx context.Context, index int64) (*models.GameRecord, error) {
	if index < 0 {
		return nil, ErrGameNotFound.withDetail("index %d", index)
	}
	var game *models.GameRecord

	err := s.view(ctx, func(uow UnitOfWork) error {
		var err error
		game, err = uow.GameRepository().GetByIndex(ctx, index)
		if err != nil {
			return fmt.Errorf("failed to get game %d: %w", index, err)
		}
		if game == nil {
			return ErrGameNotFound.withDetail("index %d", index)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return game, nil
}

func (s *statsService) GetTotalGames(ctx context.Context) (int64, error) {
	var total int64

	err := s.view(ctx, func(uow UnitOfWork) error {
		ledger, err := uow.LedgerRepository().Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to get ledger: %w", err)
		}
		if ledger == nil {
			return nil
		}
		total = ledger.TotalGames
		return nil
	})
	return total, err
}

func (s *statsService) GetPlayerGames(ctx context.Context, player string, limit int) ([]*models.GameRecord, error) {
	address := models.NormalizeAddress(player)
	limit = clampLimit(limit, DefaultPlayerGamesLimit)
	var games []*models.GameRecord

	err := s.view(ctx, func(uow UnitOfWork) error {
		var err error
		games, err = uow.GameRepository().GetByPlayer(ctx, address, limit)
		if err != nil {
			return fmt.Errorf("failed to get games for player %s: %w", address, err)
		}
		return nil
	})
	return games, err
}

// GetTopPlayers ranks by the sortBy counter, wins when empty. Equal values keep
// first-played order.
func (s *statsService) GetTopPlayers(ctx context.Context, sortBy models.PlayerSort, limit int) ([]*models.LeaderboardEntry, error) {
	if sortBy == "" {
		sortBy = models.PlayerSortWins
	}
	if !sortBy.Ranked() {
		return nil, ErrInvalidSort.withDetail("%q cannot rank players", sortBy)
	}
	limit = clampLimit(limit, DefaultTopPlayersLimit)
	var players []*models.PlayerRecord

	err := s.view(ctx, func(uow UnitOfWork) error {
		var err error
		players, err = uow.PlayerRepository().GetTop(ctx, sortBy, limit)
		if err != nil {
			return fmt.Errorf("failed to get top players: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*models.LeaderboardEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, &models.LeaderboardEntry{
			Rank:         i + 1,
			Address:      p.Address,
			TotalWins:    p.TotalWins,
			TotalGames:   p.TotalGames,
			TotalWagered: p.TotalWagered,
			TotalWon:     p.TotalWon,
		})
	}
	return entries, nil
}

func (s *statsService) ListPlayers(ctx context.Context, req PlayerListRequest) (*models.PlayerPage, error) {
	if req.SortBy == "" {
		req.SortBy = models.PlayerSortRegistered
	}
	if !req.SortBy.Valid() {
		return nil, ErrInvalidSort.withDetail("%q", req.SortBy)
	}
	if req.Page < 1 {
		req.Page = 1
	}
	size := clampLimit(req.PageSize, DefaultPlayerPageSize)
	page := &models.PlayerPage{Page: req.Page, PageSize: size}

	err := s.view(ctx, func(uow UnitOfWork) error {
		ledger, err := uow.LedgerRepository().Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to get ledger: %w", err)
		}
		if ledger == nil {
			page.Players = []*models.PlayerRecord{}
			return nil
		}
		page.Total = ledger.TotalActiveUsers

		page.Players, err = uow.PlayerRepository().List(ctx, models.PlayerListQuery{
			SortBy:    req.SortBy,
			Ascending: req.Ascending,
			Offset:    (req.Page - 1) * size,
			Limit:     size,
		})
		if err != nil {
			return fmt.Errorf("failed to list players: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *statsService) GetRevealedSeed(ctx context.Context, seedHash string) (*models.ServerSeed, error) {
	var seed *models.ServerSeed

	err := s.view(ctx, func(uow UnitOfWork) error {
		var err error
		seed, err = uow.ServerSeedRepository().GetByHash(ctx, seedHash)
		if err != nil {
			return fmt.Errorf("failed to get server seed: %w", err)
		}
		if seed == nil || !seed.Revealed() {
			return ErrSeedNotRevealed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return seed, nil
}

func (s *statsService) GetPoolMovements(ctx context.Context, limit int) ([]*models.PoolMovement, error) {
	limit = clampLimit(limit, DefaultRecentGamesWindow)
	var movements []*models.PoolMovement

	err := s.view(ctx, func(uow UnitOfWork) error {
		var err error
		movements, err = uow.PoolMovementRepository().GetRecent(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to get pool movements: %w", err)
		}
		return nil
	})
	return movements, err
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxViewLimit {
		return MaxViewLimit
	}
	return limit
}

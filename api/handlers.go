package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/coolestnick/Shard-Flip/fairness"
	"github.com/coolestnick/Shard-Flip/models"
	"github.com/coolestnick/Shard-Flip/service"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type paymentRequest struct {
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type placeBetRequest struct {
	Amount  int64           `json:"amount"`
	Choice  string          `json:"choice" binding:"required"`
	Payment *paymentRequest `json:"payment"`
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

type pauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

type ownerRequest struct {
	NewOwner string `json:"new_owner" binding:"required"`
}

func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondFailure(c, http.StatusBadRequest, codeInvalidRequest, fmt.Sprintf("Invalid request: %v", err))
		return false
	}
	return true
}

// queryLimit parses an optional positive ?limit=. Zero means the view default.
func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		respondFailure(c, http.StatusBadRequest, codeInvalidRequest, "limit must be a positive integer")
		return 0, false
	}
	return limit, true
}

func (s *Server) handlePlaceBet(c *gin.Context) {
	var req placeBetRequest
	if !bindJSON(c, &req) {
		return
	}

	choice, err := models.ParseCoinSide(req.Choice)
	if err != nil {
		respondError(c, service.ErrInvalidSide)
		return
	}

	bet := models.BetRequest{
		Player: c.GetString(walletContextKey),
		Stake:  req.Amount,
		Choice: choice,
	}
	if req.Payment != nil {
		bet.Payment = &models.Payment{Amount: req.Payment.Amount, Reference: req.Payment.Reference}
	}

	result, err := s.ledger.PlaceBet(c.Request.Context(), bet)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"game":         result.Game,
		"pool_balance": result.PoolBalance,
	})
}

func (s *Server) handleDeposit(c *gin.Context) {
	var req amountRequest
	if !bindJSON(c, &req) {
		return
	}

	ledger, err := s.ledger.DepositFunds(c.Request.Context(), c.GetString(walletContextKey), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newLedgerStateView(ledger))
}

func (s *Server) handleWithdraw(c *gin.Context) {
	var req amountRequest
	if !bindJSON(c, &req) {
		return
	}

	ledger, err := s.ledger.WithdrawFunds(c.Request.Context(), c.GetString(walletContextKey), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newLedgerStateView(ledger))
}

func (s *Server) handleEmergencyWithdraw(c *gin.Context) {
	ledger, err := s.ledger.EmergencyWithdraw(c.Request.Context(), c.GetString(walletContextKey))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newLedgerStateView(ledger))
}

func (s *Server) handleSetPaused(c *gin.Context) {
	var req pauseRequest
	if !bindJSON(c, &req) {
		return
	}

	ledger, err := s.ledger.SetPaused(c.Request.Context(), c.GetString(walletContextKey), *req.Paused)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newLedgerStateView(ledger))
}

func (s *Server) handleTransferOwnership(c *gin.Context) {
	var req ownerRequest
	if !bindJSON(c, &req) {
		return
	}

	ledger, err := s.ledger.TransferOwnership(c.Request.Context(), c.GetString(walletContextKey), req.NewOwner)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newLedgerStateView(ledger))
}

func (s *Server) handleRotateSeed(c *gin.Context) {
	reveal, err := s.ledger.RotateSeed(c.Request.Context(), c.GetString(walletContextKey))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, reveal)
}

func (s *Server) handleGameStats(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := cachedView(ctx, s.cache, cacheKeyStats, s.cfg.StatsCacheTTL, func() (statsView, error) {
		stats, err := s.stats.GetGameStats(ctx)
		if err != nil {
			return statsView{}, err
		}
		return newStatsView(stats), nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

func (s *Server) handleLedgerInfo(c *gin.Context) {
	info, err := s.stats.GetLedgerInfo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, info)
}

func (s *Server) handlePlayerStats(c *gin.Context) {
	ctx := c.Request.Context()
	address := models.NormalizeAddress(c.Param("address"))

	view, err := cachedView(ctx, s.cache, cacheKeyPlayerPrefix+address, s.cfg.PlayerCacheTTL, func() (playerView, error) {
		player, err := s.stats.GetPlayerStats(ctx, address)
		if err != nil {
			return playerView{}, err
		}
		return newPlayerView(player), nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, view)
}

func (s *Server) handlePlayerGames(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	games, err := s.stats.GetPlayerGames(c.Request.Context(), c.Param("address"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, games)
}

func (s *Server) handleRecentGames(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	games, err := s.stats.GetRecentGames(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, games)
}

func (s *Server) handleTotalGames(c *gin.Context) {
	total, err := s.stats.GetTotalGames(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"total_games": total})
}

func (s *Server) handleGameByIndex(c *gin.Context) {
	index, err := strconv.ParseInt(c.Param("index"), 10, 64)
	if err != nil {
		respondFailure(c, http.StatusBadRequest, codeInvalidRequest, "game index must be an integer")
		return
	}

	game, err := s.stats.GetGameByIndex(c.Request.Context(), index)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, game)
}

// handleLeaderboard ranks players by ?type=wins|games|winnings, wins by default
func (s *Server) handleLeaderboard(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	sortBy := models.PlayerSort(c.DefaultQuery("type", string(models.PlayerSortWins)))
	if !sortBy.Ranked() {
		respondError(c, service.ErrInvalidSort)
		return
	}

	ctx := c.Request.Context()
	key := fmt.Sprintf("%s%s:%d", cacheKeyLeaderboardPrefix, sortBy, limit)
	view, err := cachedView(ctx, s.cache, key, s.cfg.LeaderboardCacheTTL, func() ([]leaderboardEntryView, error) {
		entries, err := s.stats.GetTopPlayers(ctx, sortBy, limit)
		if err != nil {
			return nil, err
		}
		return newLeaderboardView(entries), nil
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOKWith(c, view, gin.H{"meta": gin.H{
		"type":          sortBy,
		"total_players": len(view),
	}})
}

// handleListPlayers pages through every player.
// ?page (from 1), ?limit, ?sort_by=registered|wins|games|winnings and ?order=asc|desc.
func (s *Server) handleListPlayers(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondFailure(c, http.StatusBadRequest, codeInvalidRequest, "page must be a positive integer")
			return
		}
		page = n
	}
	order := c.DefaultQuery("order", "desc")
	if order != "asc" && order != "desc" {
		respondFailure(c, http.StatusBadRequest, codeInvalidRequest, "order must be asc or desc")
		return
	}

	result, err := s.stats.ListPlayers(c.Request.Context(), service.PlayerListRequest{
		Page:      page,
		PageSize:  limit,
		SortBy:    models.PlayerSort(c.Query("sort_by")),
		Ascending: order == "asc",
	})
	if err != nil {
		respondError(c, err)
		return
	}

	players := make([]playerView, 0, len(result.Players))
	for _, p := range result.Players {
		players = append(players, newPlayerView(p))
	}
	respondOKWith(c, players, gin.H{"pagination": newPaginationView(result)})
}

func (s *Server) handleMirrorStats(c *gin.Context) {
	stats, err := s.mirror.GlobalStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newStatsView(stats))
}

func (s *Server) handleMirrorLeaderboard(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	if limit == 0 {
		limit = service.DefaultTopPlayersLimit
	}
	if limit > service.MaxViewLimit {
		limit = service.MaxViewLimit
	}

	entries, err := s.mirror.TopPlayers(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	view := newLeaderboardView(entries)
	respondOKWith(c, view, gin.H{"meta": gin.H{
		"type":          models.PlayerSortWins,
		"total_players": len(view),
	}})
}

func (s *Server) handleMirrorPlayer(c *gin.Context) {
	player, err := s.mirror.PlayerStats(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newPlayerView(player))
}

func (s *Server) handlePoolMovements(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	movements, err := s.stats.GetPoolMovements(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, newPoolMovementViews(movements))
}

// handleVerify recomputes a settled game from its revealed seed.
// ?game_index=N looks the inputs up; otherwise server_seed, server_seed_hash,
// client_seed and nonce are taken from the query.
func (s *Server) handleVerify(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		serverSeed, seedHash, clientSeed string
		nonce                            int64
		recorded                         models.CoinSide
		err                              error
	)

	if raw := c.Query("game_index"); raw != "" {
		index, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, codeInvalidRequest, "game_index must be an integer")
			return
		}
		game, err := s.stats.GetGameByIndex(ctx, index)
		if err != nil {
			respondError(c, err)
			return
		}
		seed, err := s.stats.GetRevealedSeed(ctx, game.ServerSeedHash)
		if err != nil {
			respondError(c, err)
			return
		}
		serverSeed, seedHash = seed.Seed, seed.SeedHash
		clientSeed, nonce, recorded = game.Player, game.Nonce, game.Result
	} else {
		serverSeed = c.Query("server_seed")
		seedHash = c.Query("server_seed_hash")
		clientSeed = models.NormalizeAddress(c.Query("client_seed"))
		nonce, err = strconv.ParseInt(c.Query("nonce"), 10, 64)
		if serverSeed == "" || seedHash == "" || clientSeed == "" || err != nil {
			respondFailure(c, http.StatusBadRequest, codeInvalidRequest,
				"game_index or server_seed, server_seed_hash, client_seed and nonce are required")
			return
		}
	}

	result, err := fairness.Verify(serverSeed, seedHash, clientSeed, nonce)
	if err != nil {
		log.WithFields(log.Fields{
			"seedHash": seedHash,
			"error":    err,
		}).Debug("Fairness verification failed")
		respondOK(c, gin.H{
			"valid":  false,
			"reason": err.Error(),
		})
		return
	}

	data := gin.H{
		"valid":            recorded == "" || recorded == result,
		"server_seed":      serverSeed,
		"server_seed_hash": seedHash,
		"client_seed":      clientSeed,
		"nonce":            nonce,
		"digest":           fairness.Digest(serverSeed, clientSeed, nonce),
		"result":           result,
	}
	if recorded != "" {
		data["recorded_result"] = recorded
	}
	respondOK(c, data)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coolestnick/Shard-Flip/auth"
	"github.com/coolestnick/Shard-Flip/config"
	"github.com/coolestnick/Shard-Flip/events"
	"github.com/coolestnick/Shard-Flip/infrastructure"
	"github.com/coolestnick/Shard-Flip/mirror"
	"github.com/coolestnick/Shard-Flip/models"
	"github.com/coolestnick/Shard-Flip/repository/memory"
	"github.com/coolestnick/Shard-Flip/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

const (
	owner   = "0x00000000000000000000000000000000000000aa"
	playerA = "0x00000000000000000000000000000000000000a1"
	playerB = "0x00000000000000000000000000000000000000b2"
)

// switchFlipper always lands on the configured side
type switchFlipper struct {
	mu   sync.Mutex
	side models.CoinSide
}

func (f *switchFlipper) Flip(*models.ServerSeed, string, int64) models.CoinSide {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.side
}

func (f *switchFlipper) set(side models.CoinSide) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.side = side
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Meta    struct {
		Type         string `json:"type"`
		TotalPlayers int    `json:"total_players"`
	} `json:"meta"`
	Pagination *paginationView `json:"pagination"`
}

type APITestSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	client  *redis.Client
	cfg     *config.Config
	bus     *events.Bus
	flipper   *switchFlipper
	ledger    service.LedgerService
	tokens    *auth.Tokens
	projector *mirror.Projector
	server    *Server
}

func TestAPISuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	var err error
	s.mr, err = miniredis.Run()
	s.Require().NoError(err)
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})

	s.cfg = config.NewTestConfig()
	s.cfg.BetRateLimitPerMinute = 5

	s.bus = events.NewBus()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore(), s.bus)
	s.flipper = &switchFlipper{side: models.CoinSideHeads}
	s.ledger = service.NewLedgerService(factory, s.flipper, infrastructure.NewLogTreasury(), nil, nil)

	ctx := context.Background()
	_, err = s.ledger.Init(ctx, s.cfg.LedgerSettings())
	s.Require().NoError(err)
	_, err = s.ledger.DepositFunds(ctx, owner, 1000)
	s.Require().NoError(err)

	s.tokens, err = auth.NewTokens(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.TokenTTL)
	s.Require().NoError(err)

	mirrorCfg := &mirror.Config{RedisClient: s.client}
	s.projector, err = mirror.NewProjector(mirrorCfg)
	s.Require().NoError(err)
	reader, err := mirror.NewReader(mirrorCfg)
	s.Require().NoError(err)

	s.server, err = NewServer(Options{
		Config: s.cfg,
		Ledger: s.ledger,
		Stats:  service.NewStatsService(factory),
		Redis:  s.client,
		Mirror: reader,
	})
	s.Require().NoError(err)
	s.server.Cache().InvalidateOnLedgerEvents(s.bus)
}

func (s *APITestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func (s *APITestSuite) do(method, path, wallet string, body any) (int, envelope) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if wallet != "" {
		req.Header.Set(headerAuthorization, "Bearer "+s.token(wallet))
	}

	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)

	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (s *APITestSuite) token(wallet string) string {
	token, _, err := s.tokens.Issue(wallet)
	s.Require().NoError(err)
	return token
}

func (s *APITestSuite) decode(env envelope, dest any) {
	s.Require().NoError(json.Unmarshal(env.Data, dest))
}

func betBody(amount int64, choice string) gin.H {
	return gin.H{
		"amount":  amount,
		"choice":  choice,
		"payment": gin.H{"amount": amount},
	}
}

func (s *APITestSuite) TestHealth() {
	status, env := s.do(http.MethodGet, "/api/health", "", nil)
	s.Equal(http.StatusOK, status)
	s.True(env.Success)

	var data struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	s.decode(env, &data)
	s.Equal("ok", data.Status)
	s.Equal("ok", data.Checks["redis"])
}

func (s *APITestSuite) TestUnknownRoute() {
	status, env := s.do(http.MethodGet, "/api/nope", "", nil)
	s.Equal(http.StatusNotFound, status)
	s.False(env.Success)
	s.Equal(codeNotFound, env.Code)
}

func (s *APITestSuite) TestPlaceBet_Win() {
	status, env := s.do(http.MethodPost, "/api/bets", playerA, betBody(50, "HEADS"))
	s.Require().Equal(http.StatusOK, status, env.Error)

	var data struct {
		Game        models.GameRecord `json:"game"`
		PoolBalance int64             `json:"pool_balance"`
	}
	s.decode(env, &data)
	s.True(data.Game.Won)
	s.Equal(int64(100), data.Game.Payout)
	s.Equal(playerA, data.Game.Player)
	s.Equal(int64(950), data.PoolBalance)
}

func (s *APITestSuite) TestPlaceBet_Rejections() {
	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"too low", betBody(9, "heads"), http.StatusBadRequest, "BET_TOO_LOW"},
		{"too high", betBody(101, "heads"), http.StatusBadRequest, "BET_TOO_HIGH"},
		{"bad side", betBody(50, "edge"), http.StatusBadRequest, "INVALID_SIDE"},
		{"no payment", gin.H{"amount": 50, "choice": "tails"}, http.StatusBadRequest, "PAYMENT_NOT_ATTACHED"},
		{"missing choice", gin.H{"amount": 50}, http.StatusBadRequest, codeInvalidRequest},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			status, env := s.do(http.MethodPost, "/api/bets", playerA, tc.body)
			s.Equal(tc.status, status)
			s.False(env.Success)
			s.Equal(tc.code, env.Code)
		})
	}
}

func (s *APITestSuite) TestPlaceBet_InsufficientLiquidity() {
	_, err := s.ledger.WithdrawFunds(context.Background(), owner, 950)
	s.Require().NoError(err)

	status, env := s.do(http.MethodPost, "/api/bets", playerA, betBody(50, "heads"))
	s.Equal(http.StatusConflict, status)
	s.Equal("INSUFFICIENT_POOL_LIQUIDITY", env.Code)
}

func (s *APITestSuite) TestPlaceBet_Paused() {
	status, _ := s.do(http.MethodPost, "/api/admin/pause", owner, gin.H{"paused": true})
	s.Require().Equal(http.StatusOK, status)

	status, env := s.do(http.MethodPost, "/api/bets", playerA, betBody(50, "heads"))
	s.Equal(http.StatusServiceUnavailable, status)
	s.Equal("LEDGER_PAUSED", env.Code)
}

func (s *APITestSuite) TestMutatingRoutesRequireWalletToken() {
	post := func(path, authorization string, body string) (int, envelope) {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		if authorization != "" {
			req.Header.Set(headerAuthorization, authorization)
		}
		rec := httptest.NewRecorder()
		s.server.Handler().ServeHTTP(rec, req)
		var env envelope
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
		return rec.Code, env
	}

	status, env := post("/api/bets", "", `{}`)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(codeUnauthorized, env.Code)

	status, env = post("/api/bets", "Token "+s.token(playerA), `{}`)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(codeUnauthorized, env.Code)

	foreign, err := auth.NewTokens("another-secret", s.cfg.JWTIssuer, time.Hour)
	s.Require().NoError(err)
	forged, _, err := foreign.Issue(owner)
	s.Require().NoError(err)
	status, env = post("/api/admin/pause", "Bearer "+forged, `{"paused":true}`)
	s.Equal(http.StatusUnauthorized, status)
	s.Equal(codeInvalidToken, env.Code)
}

func (s *APITestSuite) TestWalletComesFromToken() {
	// A player's token cannot be stretched to the owner by naming the owner elsewhere
	req := httptest.NewRequest(http.MethodPost, "/api/admin/withdraw", bytes.NewReader([]byte(`{"amount":10}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAuthorization, "Bearer "+s.token(playerA))
	req.Header.Set("X-Wallet-Address", owner)
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)

	s.Equal(http.StatusForbidden, rec.Code)
	s.Contains(rec.Body.String(), "NOT_OWNER")

	status, env := s.do(http.MethodPost, "/api/pool/deposit", playerB, gin.H{"amount": 5})
	s.Require().Equal(http.StatusOK, status, env.Error)
	_, env = s.do(http.MethodGet, "/api/pool/movements?limit=1", "", nil)
	var movements []poolMovementView
	s.decode(env, &movements)
	s.Require().Len(movements, 1)
	s.Equal(playerB, movements[0].Actor)
}

func (s *APITestSuite) TestPlaceBet_RateLimited() {
	for i := 0; i < s.cfg.BetRateLimitPerMinute; i++ {
		status, env := s.do(http.MethodPost, "/api/bets", playerA, betBody(10, "heads"))
		s.Require().Equal(http.StatusOK, status, env.Error)
	}

	status, env := s.do(http.MethodPost, "/api/bets", playerA, betBody(10, "heads"))
	s.Equal(http.StatusTooManyRequests, status)
	s.Equal(codeRateLimited, env.Code)

	// Limits are per caller
	status, _ = s.do(http.MethodPost, "/api/bets", playerB, betBody(10, "heads"))
	s.Equal(http.StatusOK, status)

	s.mr.FastForward(time.Minute)
	status, _ = s.do(http.MethodPost, "/api/bets", playerA, betBody(10, "heads"))
	s.Equal(http.StatusOK, status)
}

func (s *APITestSuite) TestAdmin_NotOwner() {
	status, env := s.do(http.MethodPost, "/api/admin/withdraw", playerA, gin.H{"amount": 10})
	s.Equal(http.StatusForbidden, status)
	s.Equal("NOT_OWNER", env.Code)

	status, env = s.do(http.MethodPost, "/api/admin/fairness/rotate", playerA, nil)
	s.Equal(http.StatusForbidden, status)
	s.Equal("NOT_OWNER", env.Code)
}

func (s *APITestSuite) TestAdmin_WithdrawAndEmergency() {
	status, env := s.do(http.MethodPost, "/api/admin/withdraw", owner, gin.H{"amount": 2000})
	s.Equal(http.StatusConflict, status)
	s.Equal("INSUFFICIENT_POOL_BALANCE", env.Code)

	status, env = s.do(http.MethodPost, "/api/admin/withdraw", owner, gin.H{"amount": 400})
	s.Require().Equal(http.StatusOK, status)
	var state ledgerStateView
	s.decode(env, &state)
	s.Equal(int64(600), state.PoolBalance)

	status, env = s.do(http.MethodPost, "/api/admin/emergency-withdraw", owner, nil)
	s.Require().Equal(http.StatusOK, status)
	s.decode(env, &state)
	s.Zero(state.PoolBalance)
}

func (s *APITestSuite) TestAdmin_TransferOwnership() {
	status, env := s.do(http.MethodPost, "/api/admin/owner", owner, gin.H{"new_owner": models.ZeroAddress})
	s.Equal(http.StatusForbidden, status)
	s.Equal("INVALID_OWNER", env.Code)

	status, _ = s.do(http.MethodPost, "/api/admin/owner", owner, gin.H{"new_owner": playerB})
	s.Require().Equal(http.StatusOK, status)

	status, env = s.do(http.MethodGet, "/api/ledger", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var info models.LedgerInfo
	s.decode(env, &info)
	s.Equal(playerB, info.Owner)
	s.NotEmpty(info.ServerSeedHash)
}

func (s *APITestSuite) TestDeposit() {
	status, env := s.do(http.MethodPost, "/api/pool/deposit", playerB, gin.H{"amount": 0})
	s.Equal(http.StatusBadRequest, status)
	s.Equal("INVALID_AMOUNT", env.Code)

	status, env = s.do(http.MethodPost, "/api/pool/deposit", playerB, gin.H{"amount": 250})
	s.Require().Equal(http.StatusOK, status)
	var state ledgerStateView
	s.decode(env, &state)
	s.Equal(int64(1250), state.PoolBalance)

	status, env = s.do(http.MethodGet, "/api/pool/movements?limit=1", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var movements []poolMovementView
	s.decode(env, &movements)
	s.Require().Len(movements, 1)
	s.Equal(models.MovementKindDeposit, movements[0].Kind)
	s.Equal(playerB, movements[0].Actor)
}

func (s *APITestSuite) TestViews() {
	s.do(http.MethodPost, "/api/bets", playerA, betBody(50, "heads"))
	s.flipper.set(models.CoinSideTails)
	s.do(http.MethodPost, "/api/bets", playerA, betBody(20, "heads"))
	s.do(http.MethodPost, "/api/bets", playerB, betBody(30, "tails"))

	status, env := s.do(http.MethodGet, "/api/players/"+playerA, "", nil)
	s.Require().Equal(http.StatusOK, status)
	var player playerView
	s.decode(env, &player)
	s.Equal(int64(2), player.TotalGames)
	s.Equal(int64(1), player.TotalWins)
	s.Equal("50.0", player.WinRate)
	s.Equal(int64(30), player.NetProfit)

	status, env = s.do(http.MethodGet, "/api/players/"+playerA+"/games?limit=1", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var games []models.GameRecord
	s.decode(env, &games)
	s.Require().Len(games, 1)
	s.Equal(int64(1), games[0].GameIndex)

	status, env = s.do(http.MethodGet, "/api/games/recent", "", nil)
	s.Require().Equal(http.StatusOK, status)
	s.decode(env, &games)
	s.Require().Len(games, 3)
	s.Equal(int64(2), games[0].GameIndex)

	status, env = s.do(http.MethodGet, "/api/games/count", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var count struct {
		TotalGames int64 `json:"total_games"`
	}
	s.decode(env, &count)
	s.Equal(int64(3), count.TotalGames)

	status, env = s.do(http.MethodGet, "/api/games/1", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var game models.GameRecord
	s.decode(env, &game)
	s.False(game.Won)

	status, env = s.do(http.MethodGet, "/api/games/99", "", nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("GAME_NOT_FOUND", env.Code)

	status, _ = s.do(http.MethodGet, "/api/games/abc", "", nil)
	s.Equal(http.StatusBadRequest, status)

	status, env = s.do(http.MethodGet, "/api/leaderboard", "", nil)
	s.Require().Equal(http.StatusOK, status)
	s.Equal("wins", env.Meta.Type)
	s.Equal(2, env.Meta.TotalPlayers)
	var board []leaderboardEntryView
	s.decode(env, &board)
	s.Require().Len(board, 2)
	// One win each, A played first
	s.Equal(playerA, board[0].Address)
	s.Equal("50.0", board[0].WinRate)
	s.Equal(playerB, board[1].Address)
	s.Equal("100.0", board[1].WinRate)

	status, env = s.do(http.MethodGet, "/api/stats", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var stats statsView
	s.decode(env, &stats)
	s.Equal(int64(3), stats.TotalGames)
	s.Equal(int64(100), stats.TotalVolume)
	s.Equal(int64(160), stats.TotalPayout)
	s.Equal("-60.00", stats.HouseEdge)

	status, _ = s.do(http.MethodGet, "/api/leaderboard?limit=-1", "", nil)
	s.Equal(http.StatusBadRequest, status)
}

func (s *APITestSuite) TestUnknownPlayerIsZeroed() {
	status, env := s.do(http.MethodGet, "/api/players/0xDEAD", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var player playerView
	s.decode(env, &player)
	s.Equal("0xdead", player.Address)
	s.Zero(player.TotalGames)
	s.Equal("0.0", player.WinRate)
}

func (s *APITestSuite) TestStatsCacheInvalidatedOnGamePlayed() {
	status, _ := s.do(http.MethodGet, "/api/stats", "", nil)
	s.Require().Equal(http.StatusOK, status)
	s.True(s.mr.Exists(cacheKeyStats))
	s.do(http.MethodGet, "/api/leaderboard", "", nil)
	s.True(s.mr.Exists(cacheKeyLeaderboardPrefix + "wins:0"))

	status, _ = s.do(http.MethodPost, "/api/bets", playerA, betBody(50, "heads"))
	s.Require().Equal(http.StatusOK, status)

	s.Eventually(func() bool {
		return !s.mr.Exists(cacheKeyStats) && !s.mr.Exists(cacheKeyLeaderboardPrefix+"wins:0")
	}, time.Second, 10*time.Millisecond)

	_, env := s.do(http.MethodGet, "/api/stats", "", nil)
	var stats statsView
	s.decode(env, &stats)
	s.Equal(int64(1), stats.TotalGames)
}

func (s *APITestSuite) TestStatsCacheInvalidatedOnPoolAndPause() {
	prime := func() {
		status, _ := s.do(http.MethodGet, "/api/stats", "", nil)
		s.Require().Equal(http.StatusOK, status)
		s.Require().True(s.mr.Exists(cacheKeyStats))
	}
	dropped := func() {
		s.Eventually(func() bool { return !s.mr.Exists(cacheKeyStats) }, time.Second, 10*time.Millisecond)
	}

	prime()
	status, _ := s.do(http.MethodPost, "/api/pool/deposit", playerB, gin.H{"amount": 250})
	s.Require().Equal(http.StatusOK, status)
	dropped()

	_, env := s.do(http.MethodGet, "/api/stats", "", nil)
	var stats statsView
	s.decode(env, &stats)
	s.Equal(int64(1250), stats.PoolBalance)

	status, _ = s.do(http.MethodPost, "/api/admin/withdraw", owner, gin.H{"amount": 50})
	s.Require().Equal(http.StatusOK, status)
	dropped()

	prime()
	status, _ = s.do(http.MethodPost, "/api/admin/pause", owner, gin.H{"paused": true})
	s.Require().Equal(http.StatusOK, status)
	dropped()

	_, env = s.do(http.MethodGet, "/api/stats", "", nil)
	s.decode(env, &stats)
	s.True(stats.Paused)

	prime()
	status, _ = s.do(http.MethodPost, "/api/admin/emergency-withdraw", owner, nil)
	s.Require().Equal(http.StatusOK, status)
	dropped()

	_, env = s.do(http.MethodGet, "/api/stats", "", nil)
	s.decode(env, &stats)
	s.Zero(stats.PoolBalance)
}

func (s *APITestSuite) TestLeaderboard_Types() {
	// A and B win once each, A first. B plays more and wins more.
	s.do(http.MethodPost, "/api/bets", playerA, betBody(20, "heads"))
	s.do(http.MethodPost, "/api/bets", playerB, betBody(60, "heads"))
	s.do(http.MethodPost, "/api/bets", playerB, betBody(10, "tails"))

	ranked := func(query string) []string {
		status, env := s.do(http.MethodGet, "/api/leaderboard"+query, "", nil)
		s.Require().Equal(http.StatusOK, status, env.Error)
		var board []leaderboardEntryView
		s.decode(env, &board)
		out := make([]string, 0, len(board))
		for _, e := range board {
			out = append(out, e.Address)
		}
		s.Equal(len(out), env.Meta.TotalPlayers)
		return out
	}

	s.Equal([]string{playerA, playerB}, ranked("?type=wins"))
	s.Equal([]string{playerB, playerA}, ranked("?type=games"))
	s.Equal([]string{playerB, playerA}, ranked("?type=winnings"))
	s.Equal([]string{playerB}, ranked("?type=winnings&limit=1"))
	s.True(s.mr.Exists(cacheKeyLeaderboardPrefix + "games:0"))

	for _, bad := range []string{"registered", "balance"} {
		status, env := s.do(http.MethodGet, "/api/leaderboard?type="+bad, "", nil)
		s.Equal(http.StatusBadRequest, status)
		s.Equal("INVALID_SORT", env.Code)
	}
}

func (s *APITestSuite) TestListPlayers() {
	s.do(http.MethodPost, "/api/bets", playerA, betBody(20, "heads"))
	s.do(http.MethodPost, "/api/bets", playerB, betBody(60, "heads"))

	status, env := s.do(http.MethodGet, "/api/players", "", nil)
	s.Require().Equal(http.StatusOK, status, env.Error)
	var players []playerView
	s.decode(env, &players)
	s.Require().Len(players, 2)
	s.Equal(playerB, players[0].Address)
	s.Require().NotNil(env.Pagination)
	s.Equal(1, env.Pagination.CurrentPage)
	s.Equal(int64(2), env.Pagination.TotalPlayers)
	s.False(env.Pagination.HasMore)

	status, env = s.do(http.MethodGet, "/api/players?page=2&limit=1&order=asc", "", nil)
	s.Require().Equal(http.StatusOK, status, env.Error)
	s.decode(env, &players)
	s.Require().Len(players, 1)
	s.Equal(playerB, players[0].Address)
	s.Equal(2, env.Pagination.TotalPages)
	s.False(env.Pagination.HasMore)

	status, env = s.do(http.MethodGet, "/api/players?page=1&limit=1&sort_by=winnings", "", nil)
	s.Require().Equal(http.StatusOK, status, env.Error)
	s.decode(env, &players)
	s.Equal(playerB, players[0].Address)
	s.True(env.Pagination.HasMore)

	for _, query := range []string{"?page=0", "?order=sideways", "?limit=abc"} {
		status, env := s.do(http.MethodGet, "/api/players"+query, "", nil)
		s.Equal(http.StatusBadRequest, status, query)
		s.Equal(codeInvalidRequest, env.Code)
	}
	status, env = s.do(http.MethodGet, "/api/players?sort_by=balance", "", nil)
	s.Equal(http.StatusBadRequest, status)
	s.Equal("INVALID_SORT", env.Code)
}

func (s *APITestSuite) TestMirrorRoutes() {
	ctx := context.Background()
	for i, e := range []events.GamePlayedEvent{
		{GameIndex: 0, Player: playerA, Stake: 50, Choice: models.CoinSideHeads, Result: models.CoinSideHeads, Won: true, Payout: 100},
		{GameIndex: 1, Player: playerB, Stake: 30, Choice: models.CoinSideHeads, Result: models.CoinSideTails},
	} {
		e.Timestamp = time.Date(2026, 1, 1, 12, 0, i, 0, time.UTC)
		e.ServerSeedHash = "abc"
		e.Nonce = e.GameIndex
		applied, err := s.projector.Apply(ctx, e)
		s.Require().NoError(err)
		s.Require().True(applied)
	}

	status, env := s.do(http.MethodGet, "/api/mirror/players/"+playerA, "", nil)
	s.Require().Equal(http.StatusOK, status, env.Error)
	var player playerView
	s.decode(env, &player)
	s.Equal(int64(1), player.TotalGames)
	s.Equal(int64(50), player.NetProfit)

	status, env = s.do(http.MethodGet, "/api/mirror/leaderboard?limit=1", "", nil)
	s.Require().Equal(http.StatusOK, status, env.Error)
	var board []leaderboardEntryView
	s.decode(env, &board)
	s.Require().Len(board, 1)
	s.Equal(playerA, board[0].Address)

	status, env = s.do(http.MethodGet, "/api/mirror/stats", "", nil)
	s.Require().Equal(http.StatusOK, status, env.Error)
	var stats statsView
	s.decode(env, &stats)
	s.Equal(int64(2), stats.TotalGames)
	s.Equal(int64(80), stats.TotalVolume)
	s.Equal(int64(2), stats.TotalActiveUsers)
}

func (s *APITestSuite) TestMirrorRoutesOffWithoutReader() {
	server, err := NewServer(Options{
		Config: s.cfg,
		Ledger: s.ledger,
		Stats:  service.NewStatsService(memory.NewUnitOfWorkFactory(memory.NewStore(), nil)),
	})
	s.Require().NoError(err)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mirror/stats", nil))
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *APITestSuite) TestNewServer_RequiresTokenSecret() {
	cfg := config.NewTestConfig()
	cfg.JWTSecret = ""
	_, err := NewServer(Options{Config: cfg, Ledger: s.ledger, Stats: service.NewStatsService(nil)})
	s.ErrorIs(err, auth.ErrMissingSecret)
}

func (s *APITestSuite) TestVerify_RotatedSeed() {
	s.flipper.set(models.CoinSideTails)
	status, _ := s.do(http.MethodPost, "/api/bets", playerA, betBody(50, "heads"))
	s.Require().Equal(http.StatusOK, status)

	status, env := s.do(http.MethodGet, "/api/fairness/verify?game_index=0", "", nil)
	s.Equal(http.StatusNotFound, status)
	s.Equal("SEED_NOT_REVEALED", env.Code)

	status, env = s.do(http.MethodPost, "/api/admin/fairness/rotate", owner, nil)
	s.Require().Equal(http.StatusOK, status)
	var reveal models.SeedReveal
	s.decode(env, &reveal)
	s.NotEmpty(reveal.RevealedSeed)
	s.NotEqual(reveal.RevealedSeedHash, reveal.NextSeedHash)

	status, env = s.do(http.MethodGet, "/api/fairness/verify?game_index=0", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var result struct {
		Valid          bool            `json:"valid"`
		ServerSeed     string          `json:"server_seed"`
		RecordedResult models.CoinSide `json:"recorded_result"`
	}
	s.decode(env, &result)
	s.Equal(reveal.RevealedSeed, result.ServerSeed)
	s.Equal(models.CoinSideTails, result.RecordedResult)
}

func (s *APITestSuite) TestVerify_ExplicitInputs() {
	status, env := s.do(http.MethodGet, "/api/fairness/verify?server_seed=abc&server_seed_hash=nope&client_seed=x&nonce=1", "", nil)
	s.Require().Equal(http.StatusOK, status)
	var result struct {
		Valid bool `json:"valid"`
	}
	s.decode(env, &result)
	s.False(result.Valid)

	status, _ = s.do(http.MethodGet, "/api/fairness/verify", "", nil)
	s.Equal(http.StatusBadRequest, status)
}

func (s *APITestSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/bets", nil)
	rec := httptest.NewRecorder()
	s.server.Handler().ServeHTTP(rec, req)
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWinRate(t *testing.T) {
	cases := map[string]struct{ wins, games int64 }{
		"0.0":   {0, 0},
		"33.3":  {1, 3},
		"66.7":  {2, 3},
		"100.0": {4, 4},
	}
	for want, c := range cases {
		if got := winRate(c.wins, c.games); got != want {
			t.Errorf("winRate(%d, %d) = %s, want %s", c.wins, c.games, got, want)
		}
	}
}

func TestStatusForClass(t *testing.T) {
	cases := map[service.ErrorClass]int{
		service.ClassValidation:    http.StatusBadRequest,
		service.ClassLiquidity:     http.StatusConflict,
		service.ClassAuthorization: http.StatusForbidden,
		service.ClassAvailability:  http.StatusServiceUnavailable,
		service.ClassTransfer:      http.StatusBadGateway,
		service.ClassNotFound:      http.StatusNotFound,
		service.ClassInternal:      http.StatusInternalServerError,
	}
	for class, want := range cases {
		if got := statusForClass(class); got != want {
			t.Errorf("statusForClass(%s) = %d, want %d", class, got, want)
		}
	}
}

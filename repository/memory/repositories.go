package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/coolestnick/Shard-Flip/models"
)

// tx binds a repository to the committed state and the journal of its unit of work
type tx struct {
	s *state
	j *journal
}

type ledgerRepository struct{ tx }

func (r *ledgerRepository) Get(ctx context.Context) (*models.LedgerState, error) {
	if r.s.ledger == nil {
		return nil, nil
	}
	l := *r.s.ledger
	return &l, nil
}

// GetForUpdate needs no extra locking, the unit of work already holds the store
func (r *ledgerRepository) GetForUpdate(ctx context.Context) (*models.LedgerState, error) {
	return r.Get(ctx)
}

func (r *ledgerRepository) Create(ctx context.Context, settings models.LedgerSettings) (*models.LedgerState, error) {
	if r.s.ledger != nil {
		return nil, fmt.Errorf("ledger already exists")
	}
	now := time.Now()
	r.j.record(func() { r.s.ledger = nil })
	r.s.ledger = &models.LedgerState{
		Owner:            settings.Owner,
		MinBet:           settings.MinBet,
		MaxBet:           settings.MaxBet,
		PayoutMultiplier: settings.PayoutMultiplier,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	l := *r.s.ledger
	return &l, nil
}

func (r *ledgerRepository) Update(ctx context.Context, state *models.LedgerState) error {
	if r.s.ledger == nil {
		return fmt.Errorf("ledger state not found")
	}
	if state.PoolBalance < 0 {
		return fmt.Errorf("pool balance cannot be negative: %d", state.PoolBalance)
	}
	state.UpdatedAt = time.Now()
	l := *state
	// Bet bounds are fixed at creation
	l.MinBet = r.s.ledger.MinBet
	l.MaxBet = r.s.ledger.MaxBet
	l.PayoutMultiplier = r.s.ledger.PayoutMultiplier
	l.CreatedAt = r.s.ledger.CreatedAt
	previous := r.s.ledger
	r.j.record(func() { r.s.ledger = previous })
	r.s.ledger = &l
	return nil
}

type playerRepository struct{ tx }

func copyPlayer(p *models.PlayerRecord) *models.PlayerRecord {
	c := *p
	if p.LastPlayedAt != nil {
		t := *p.LastPlayedAt
		c.LastPlayedAt = &t
	}
	return &c
}

func (r *playerRepository) Get(ctx context.Context, address string) (*models.PlayerRecord, error) {
	p, ok := r.s.players[address]
	if !ok {
		return nil, nil
	}
	return copyPlayer(p), nil
}

func (r *playerRepository) Create(ctx context.Context, address string, firstGameIndex int64) (*models.PlayerRecord, error) {
	if _, ok := r.s.players[address]; ok {
		return nil, fmt.Errorf("player %s already exists", address)
	}
	p := &models.PlayerRecord{
		Address:        address,
		FirstGameIndex: firstGameIndex,
		CreatedAt:      time.Now(),
	}
	r.s.players[address] = p
	r.j.record(func() { delete(r.s.players, address) })
	return copyPlayer(p), nil
}

func (r *playerRepository) RecordGame(ctx context.Context, address string, stake, payout int64, won bool, playedAt time.Time) error {
	p, ok := r.s.players[address]
	if !ok {
		return fmt.Errorf("player %s not found", address)
	}
	before := *p
	r.j.record(func() { *p = before })
	p.TotalGames++
	if won {
		p.TotalWins++
	}
	p.TotalWagered += stake
	p.TotalWon += payout
	at := playedAt
	p.LastPlayedAt = &at
	return nil
}

func (r *playerRepository) GetTop(ctx context.Context, sortBy models.PlayerSort, limit int) ([]*models.PlayerRecord, error) {
	return r.List(ctx, models.PlayerListQuery{SortBy: sortBy, Limit: limit})
}

func (r *playerRepository) List(ctx context.Context, q models.PlayerListQuery) ([]*models.PlayerRecord, error) {
	key, ok := playerSortKeys[q.SortBy]
	if !ok {
		return nil, fmt.Errorf("unknown player sort %q", q.SortBy)
	}

	players := make([]*models.PlayerRecord, 0, len(r.s.players))
	for _, p := range r.s.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		a, b := key(players[i]), key(players[j])
		if a != b {
			if q.Ascending {
				return a < b
			}
			return a > b
		}
		return players[i].FirstGameIndex < players[j].FirstGameIndex
	})

	if q.Offset >= len(players) {
		return []*models.PlayerRecord{}, nil
	}
	players = players[q.Offset:]
	if q.Limit >= 0 && len(players) > q.Limit {
		players = players[:q.Limit]
	}
	out := make([]*models.PlayerRecord, len(players))
	for i, p := range players {
		out[i] = copyPlayer(p)
	}
	return out, nil
}

var playerSortKeys = map[models.PlayerSort]func(*models.PlayerRecord) int64{
	models.PlayerSortWins:       func(p *models.PlayerRecord) int64 { return p.TotalWins },
	models.PlayerSortGames:      func(p *models.PlayerRecord) int64 { return p.TotalGames },
	models.PlayerSortWinnings:   func(p *models.PlayerRecord) int64 { return p.TotalWon },
	models.PlayerSortRegistered: func(p *models.PlayerRecord) int64 { return p.FirstGameIndex },
}

type gameRepository struct{ tx }

func (r *gameRepository) Append(ctx context.Context, game *models.GameRecord) error {
	if game.GameIndex != int64(len(r.s.games)) {
		return fmt.Errorf("game index %d is not the next index %d", game.GameIndex, len(r.s.games))
	}
	if _, ok := r.s.players[game.Player]; !ok {
		return fmt.Errorf("player %s not found", game.Player)
	}
	g := *game
	n := len(r.s.games)
	r.s.games = append(r.s.games, &g)
	r.j.record(func() { r.s.games = r.s.games[:n] })
	return nil
}

func (r *gameRepository) GetByIndex(ctx context.Context, index int64) (*models.GameRecord, error) {
	if index < 0 || index >= int64(len(r.s.games)) {
		return nil, nil
	}
	g := *r.s.games[index]
	return &g, nil
}

func (r *gameRepository) GetRecent(ctx context.Context, limit int) ([]*models.GameRecord, error) {
	return r.newestFirst(limit, func(*models.GameRecord) bool { return true }), nil
}

func (r *gameRepository) GetByPlayer(ctx context.Context, player string, limit int) ([]*models.GameRecord, error) {
	return r.newestFirst(limit, func(g *models.GameRecord) bool { return g.Player == player }), nil
}

func (r *gameRepository) newestFirst(limit int, match func(*models.GameRecord) bool) []*models.GameRecord {
	var out []*models.GameRecord
	for i := len(r.s.games) - 1; i >= 0 && len(out) < limit; i-- {
		if match(r.s.games[i]) {
			g := *r.s.games[i]
			out = append(out, &g)
		}
	}
	return out
}

type poolMovementRepository struct{ tx }

func (r *poolMovementRepository) Record(ctx context.Context, movement *models.PoolMovement) error {
	n, nextID := len(r.s.movements), r.s.nextMovementID
	r.j.record(func() {
		r.s.movements = r.s.movements[:n]
		r.s.nextMovementID = nextID
	})

	movement.ID = r.s.nextMovementID
	movement.CreatedAt = time.Now()
	r.s.nextMovementID++

	m := *movement
	r.s.movements = append(r.s.movements, &m)
	return nil
}

func (r *poolMovementRepository) GetRecent(ctx context.Context, limit int) ([]*models.PoolMovement, error) {
	var out []*models.PoolMovement
	for i := len(r.s.movements) - 1; i >= 0 && len(out) < limit; i-- {
		m := *r.s.movements[i]
		out = append(out, &m)
	}
	return out, nil
}

type serverSeedRepository struct{ tx }

func (r *serverSeedRepository) GetActive(ctx context.Context) (*models.ServerSeed, error) {
	for _, seed := range r.s.seeds {
		if seed.Active {
			c := *seed
			return &c, nil
		}
	}
	return nil, nil
}

func (r *serverSeedRepository) GetByHash(ctx context.Context, seedHash string) (*models.ServerSeed, error) {
	for _, seed := range r.s.seeds {
		if seed.SeedHash == seedHash {
			c := *seed
			return &c, nil
		}
	}
	return nil, nil
}

func (r *serverSeedRepository) Create(ctx context.Context, seed *models.ServerSeed) error {
	for _, existing := range r.s.seeds {
		if existing.SeedHash == seed.SeedHash {
			return fmt.Errorf("server seed %s already exists", seed.SeedHash)
		}
		if seed.Active && existing.Active {
			return fmt.Errorf("another server seed is already active")
		}
	}
	n, nextID := len(r.s.seeds), r.s.nextSeedID
	r.j.record(func() {
		r.s.seeds = r.s.seeds[:n]
		r.s.nextSeedID = nextID
	})

	seed.ID = r.s.nextSeedID
	seed.CreatedAt = time.Now()
	r.s.nextSeedID++

	c := *seed
	r.s.seeds = append(r.s.seeds, &c)
	return nil
}

func (r *serverSeedRepository) Reveal(ctx context.Context, id int64, revealedAt time.Time) error {
	for _, seed := range r.s.seeds {
		if seed.ID == id && seed.RevealedAt == nil {
			before := *seed
			r.j.record(func() { *seed = before })
			at := revealedAt
			seed.Active = false
			seed.RevealedAt = &at
			return nil
		}
	}
	return fmt.Errorf("server seed %d not found or already revealed", id)
}

package mirror

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/coolestnick/Shard-Flip/models"
	"github.com/redis/go-redis/v9"
)

// Reader serves the Redis read-model
type Reader struct {
	client *redis.Client
}

// NewReader creates a new read-model reader
func NewReader(cfg *Config) (*Reader, error) {
	if cfg == nil || cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	return &Reader{client: cfg.RedisClient}, nil
}

// PlayerStats returns a player's mirrored totals, zeroed if the mirror has not seen them
func (r *Reader) PlayerStats(ctx context.Context, address string) (*models.PlayerRecord, error) {
	address = models.NormalizeAddress(address)

	fields, err := r.client.HGetAll(ctx, playerKeyPrefix+address).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get mirrored player %s: %w", address, err)
	}
	if len(fields) == 0 {
		return models.ZeroPlayerRecord(address), nil
	}

	record := &models.PlayerRecord{
		Address:        address,
		TotalGames:     parseInt(fields["total_games"]),
		TotalWins:      parseInt(fields["total_wins"]),
		TotalWagered:   parseInt(fields["total_wagered"]),
		TotalWon:       parseInt(fields["total_won"]),
		FirstGameIndex: parseInt(fields["first_game_index"]),
	}
	return record, nil
}

// GlobalStats returns the mirrored aggregates. The pool balance is not mirrored.
func (r *Reader) GlobalStats(ctx context.Context) (*models.GameStats, error) {
	fields, err := r.client.HGetAll(ctx, globalKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get mirrored global stats: %w", err)
	}

	return &models.GameStats{
		TotalGames:       parseInt(fields["total_games"]),
		TotalVolume:      parseInt(fields["total_volume"]),
		TotalPayout:      parseInt(fields["total_payout"]),
		TotalActiveUsers: parseInt(fields["total_active_users"]),
	}, nil
}

// TopPlayers ranks mirrored players by wins. Equal win counts keep first-played order.
func (r *Reader) TopPlayers(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		return []*models.LeaderboardEntry{}, nil
	}

	top, err := r.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	if len(top) == 0 {
		return []*models.LeaderboardEntry{}, nil
	}

	// Redis orders ties by member name. Pull in everyone tied with the last
	// place so the first-played rule can be applied here.
	cutoff := top[len(top)-1].Score
	candidates, err := r.client.ZRevRangeByScoreWithScores(ctx, leaderboardKey, &redis.ZRangeBy{
		Min: strconv.FormatFloat(cutoff, 'f', -1, 64),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard ties: %w", err)
	}

	records := make([]*models.PlayerRecord, 0, len(candidates))
	for _, z := range candidates {
		address, _ := z.Member.(string)
		record, err := r.PlayerStats(ctx, address)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].TotalWins != records[j].TotalWins {
			return records[i].TotalWins > records[j].TotalWins
		}
		return records[i].FirstGameIndex < records[j].FirstGameIndex
	})
	if len(records) > limit {
		records = records[:limit]
	}

	entries := make([]*models.LeaderboardEntry, 0, len(records))
	for i, p := range records {
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

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

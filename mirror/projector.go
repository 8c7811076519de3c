// Package mirror maintains a Redis read-model of settled games, fed by the
// GamePlayed events the ledger publishes. Applying the same event twice has no effect.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coolestnick/Shard-Flip/events"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	eventKeyPrefix  = "mirror:event:"
	playerKeyPrefix = "mirror:player:"
	globalKey       = "mirror:global"
	leaderboardKey  = "mirror:leaderboard:wins"

	defaultEventTTL = 30 * 24 * time.Hour
)

// Config holds configuration for the Redis mirror
type Config struct {
	RedisClient *redis.Client

	// EventTTL bounds how long applied event IDs are remembered
	EventTTL time.Duration
}

// applyScript marks the event as seen and folds it into the aggregates in one step.
// It returns 0 without writing anything if the event was already applied.
var applyScript = redis.NewScript(`
	local eventKey = KEYS[1]
	local playerKey = KEYS[2]
	local globalKey = KEYS[3]
	local boardKey = KEYS[4]

	local player = ARGV[1]
	local stake = ARGV[2]
	local payout = ARGV[3]
	local won = ARGV[4] == "1"
	local gameIndex = ARGV[5]
	local ttl = ARGV[6]

	if not redis.call("SET", eventKey, gameIndex, "NX", "EX", ttl) then
		return 0
	end

	if redis.call("HSETNX", playerKey, "first_game_index", gameIndex) == 1 then
		redis.call("HINCRBY", globalKey, "total_active_users", 1)
	end

	redis.call("HINCRBY", playerKey, "total_games", 1)
	redis.call("HINCRBY", playerKey, "total_wagered", stake)
	redis.call("HINCRBY", playerKey, "total_won", payout)

	redis.call("HINCRBY", globalKey, "total_games", 1)
	redis.call("HINCRBY", globalKey, "total_volume", stake)
	redis.call("HINCRBY", globalKey, "total_payout", payout)

	if won then
		redis.call("HINCRBY", playerKey, "total_wins", 1)
		redis.call("ZINCRBY", boardKey, 1, player)
	else
		redis.call("ZINCRBY", boardKey, 0, player)
	end

	return 1
`)

// Projector folds GamePlayed events into the Redis read-model
type Projector struct {
	client   *redis.Client
	eventTTL time.Duration
}

// NewProjector creates a new projector and checks the Redis connection
func NewProjector(cfg *Config) (*Projector, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.EventTTL
	if ttl <= 0 {
		ttl = defaultEventTTL
	}
	return &Projector{client: cfg.RedisClient, eventTTL: ttl}, nil
}

// Apply folds event into the read-model. It reports false if the event had
// already been applied.
func (p *Projector) Apply(ctx context.Context, event events.GamePlayedEvent) (bool, error) {
	if event.Player == "" {
		return false, errors.New("event has no player")
	}

	won := "0"
	if event.Won {
		won = "1"
	}

	keys := []string{
		eventKeyPrefix + event.EventID(),
		playerKeyPrefix + event.Player,
		globalKey,
		leaderboardKey,
	}
	applied, err := applyScript.Run(ctx, p.client, keys,
		event.Player,
		event.Stake,
		event.Payout,
		won,
		event.GameIndex,
		int64(p.eventTTL/time.Second),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to apply event %s: %w", event.EventID(), err)
	}

	if applied == 0 {
		log.WithField("eventId", event.EventID()).Debug("Skipping already applied event")
		return false, nil
	}
	return true, nil
}

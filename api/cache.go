package api

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coolestnick/Shard-Flip/events"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	cacheKeyStats             = "cache:stats"
	cacheKeyLeaderboardPrefix = "cache:leaderboard:"
	cacheKeyPlayerPrefix      = "cache:player:"
)

// ViewCache holds rendered read views in Redis. A nil cache always misses.
type ViewCache struct {
	client *redis.Client
}

// NewViewCache creates a view cache backed by client
func NewViewCache(client *redis.Client) *ViewCache {
	return &ViewCache{client: client}
}

func (vc *ViewCache) get(ctx context.Context, key string, dest any) bool {
	if vc == nil {
		return false
	}

	data, err := vc.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).WithField("key", key).Warn("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.WithError(err).WithField("key", key).Warn("Discarding unreadable cache entry")
		return false
	}
	return true
}

func (vc *ViewCache) set(ctx context.Context, key string, value any, ttl time.Duration) {
	if vc == nil || ttl <= 0 {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to encode cache entry")
		return
	}
	if err := vc.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

// Invalidate drops every view a settled game by player can change
func (vc *ViewCache) Invalidate(ctx context.Context, player string) error {
	if vc == nil {
		return nil
	}

	keys := []string{cacheKeyStats, cacheKeyPlayerPrefix + player}
	iter := vc.client.Scan(ctx, 0, cacheKeyLeaderboardPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	return vc.client.Del(ctx, keys...).Err()
}

// InvalidateStats drops the cached global stats view
func (vc *ViewCache) InvalidateStats(ctx context.Context) error {
	if vc == nil {
		return nil
	}
	return vc.client.Del(ctx, cacheKeyStats).Err()
}

// InvalidateOnLedgerEvents clears cached views whenever a committed change can
// alter them. Settled games touch every view; pool and pause changes only the stats.
func (vc *ViewCache) InvalidateOnLedgerEvents(bus *events.Bus) {
	bus.Subscribe(events.EventTypeGamePlayed, func(ctx context.Context, event events.Event) {
		played, ok := event.(events.GamePlayedEvent)
		if !ok {
			return
		}
		if err := vc.Invalidate(ctx, played.Player); err != nil {
			log.WithFields(log.Fields{
				"player": played.Player,
				"error":  err,
			}).Warn("Failed to invalidate cached views")
		}
	})

	for _, eventType := range []events.EventType{
		events.EventTypeFundsDeposited,
		events.EventTypeFundsWithdrawn,
		events.EventTypeEmergencyWithdrawal,
		events.EventTypePauseChanged,
	} {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) {
			if err := vc.InvalidateStats(ctx); err != nil {
				log.WithFields(log.Fields{
					"event": event.Type(),
					"error": err,
				}).Warn("Failed to invalidate cached stats")
			}
		})
	}
}

// cachedView serves key from the cache, falling back to load and storing its result
func cachedView[T any](ctx context.Context, vc *ViewCache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var value T
	if vc.get(ctx, key, &value) {
		return value, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	vc.set(ctx, key, value, ttl)
	return value, nil
}

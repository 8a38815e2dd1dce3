package cache

import (
	"context"
	"fmt"
	"strconv"

	"DeckFM/db"

	"github.com/redis/go-redis/v9"
)

// The party queue lives in Redis so an in-progress party survives a restart:
// a sorted set of track ids scored by position, plus the now-playing index.
const (
	partyQueueKey = "party:queue"
	partyIndexKey = "party:index"
)

// SaveQueue replaces the persisted party queue.
func SaveQueue(ctx context.Context, trackIDs []int64) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	pipe := db.RedisClient.TxPipeline()
	pipe.Del(ctx, partyQueueKey)
	if len(trackIDs) > 0 {
		members := make([]redis.Z, len(trackIDs))
		for i, id := range trackIDs {
			members[i] = redis.Z{Score: float64(i), Member: strconv.FormatInt(id, 10)}
		}
		pipe.ZAdd(ctx, partyQueueKey, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save party queue: %w", err)
	}
	return nil
}

// LoadQueue returns the persisted queue in position order.
func LoadQueue(ctx context.Context) ([]int64, error) {
	if db.RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	members, err := db.RedisClient.ZRange(ctx, partyQueueKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load party queue: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue // a corrupt member is dropped, not fatal
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SaveNowPlayingIndex records the queue position the engine is at.
func SaveNowPlayingIndex(ctx context.Context, index int) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := db.RedisClient.Set(ctx, partyIndexKey, index, 0).Err(); err != nil {
		return fmt.Errorf("failed to save now-playing index: %w", err)
	}
	return nil
}

// LoadNowPlayingIndex returns the saved position, 0 when absent.
func LoadNowPlayingIndex(ctx context.Context) (int, error) {
	if db.RedisClient == nil {
		return 0, fmt.Errorf("Redis client not initialized")
	}
	val, err := db.RedisClient.Get(ctx, partyIndexKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load now-playing index: %w", err)
	}
	idx, err := strconv.Atoi(val)
	if err != nil {
		return 0, nil
	}
	return idx, nil
}

// ClearQueue drops the persisted queue and index.
func ClearQueue(ctx context.Context) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := db.RedisClient.Del(ctx, partyQueueKey, partyIndexKey).Err(); err != nil {
		return fmt.Errorf("failed to clear party queue: %w", err)
	}
	return nil
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"DeckFM/db"

	"github.com/redis/go-redis/v9"
)

// AnalysisEntry caches import-time analysis keyed by content hash, so
// re-importing the same file skips the decode entirely.
type AnalysisEntry struct {
	Duration    float64 `json:"duration"`
	BPM         float64 `json:"bpm"`
	TrueEndTime float64 `json:"trueEndTime"`
}

const analysisTTL = 30 * 24 * time.Hour

func analysisKey(contentHash string) string {
	return fmt.Sprintf("analysis:%s", contentHash)
}

// GetAnalysis returns a cached analysis result, or nil on a miss.
func GetAnalysis(ctx context.Context, contentHash string) (*AnalysisEntry, error) {
	if db.RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	val, err := db.RedisClient.Get(ctx, analysisKey(contentHash)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached analysis: %w", err)
	}

	var entry AnalysisEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, nil // treat a corrupt entry as a miss
	}
	return &entry, nil
}

// PutAnalysis stores an analysis result.
func PutAnalysis(ctx context.Context, contentHash string, entry AnalysisEntry) error {
	if db.RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis entry: %w", err)
	}
	if err := db.RedisClient.Set(ctx, analysisKey(contentHash), data, analysisTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}
	return nil
}

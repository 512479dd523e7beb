package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/phambaophuc/artwork-critic/pkg/utils"
	"github.com/redis/go-redis/v9"
)

const CacheKeyPrefix = "audio_ref:"

// AudioCacheKey identifies a clip by voice and exact text.
func AudioCacheKey(voiceID, text string) string {
	return CacheKeyPrefix + utils.ContentHash(voiceID, text)
}

// GetAudioRef returns nil without error on a cache miss.
func (s *StorageService) GetAudioRef(ctx context.Context, key string) (*models.AudioRef, error) {
	data, err := s.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var ref models.AudioRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("cache decode error: %w", err)
	}
	return &ref, nil
}

func (s *StorageService) SetAudioRef(ctx context.Context, key string, ref *models.AudioRef) error {
	data, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("cache encode error: %w", err)
	}
	return s.redisClient.Set(ctx, key, data, s.cacheDuration).Err()
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	pipeline := s.redisClient.Pipeline()

	dbSizeCmd := pipeline.DBSize(ctx)
	keysCmd := pipeline.Keys(ctx, CacheKeyPrefix+"*")

	if _, err := pipeline.Exec(ctx); err != nil {
		return nil, fmt.Errorf("pipeline error: %w", err)
	}

	return map[string]interface{}{
		"db_keys":    dbSizeCmd.Val(),
		"audio_refs": len(keysCmd.Val()),
	}, nil
}

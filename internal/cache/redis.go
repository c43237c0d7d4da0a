package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pokedex/catalog/internal/domain"

	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const scanBatchSize = 100

// RedisStore keeps each page as a JSON document under <prefix>cache:page:<request key>
type RedisStore struct {
	redisClient *redis.Client
	keyPrefix   string
	clock       clock.Clock
}

func NewRedisStore(redisClient *redis.Client, prefix string, clk clock.Clock) *RedisStore {
	return &RedisStore{
		redisClient: redisClient,
		keyPrefix:   prefix + "cache:page:",
		clock:       clk,
	}
}

func (s *RedisStore) Get(ctx context.Context, requestKey string) (*domain.CacheEntry, error) {
	val, err := s.redisClient.Get(ctx, s.keyPrefix+requestKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached page %s: %w", requestKey, err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(val, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cached page %s: %w", requestKey, err)
	}

	return &entry, nil
}

func (s *RedisStore) Put(ctx context.Context, requestKey string, page *domain.ListPage) error {
	entry := domain.NewCacheEntry(requestKey, page, s.clock.Now().UnixMilli())

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode page %s: %w", requestKey, err)
	}

	// No expiration, entries live until Clear
	if err := s.redisClient.Set(ctx, s.keyPrefix+requestKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to cache page %s: %w", requestKey, err)
	}

	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	var (
		cursor  uint64
		deleted int
	)

	for {
		keys, next, err := s.redisClient.Scan(ctx, cursor, s.keyPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cached pages: %w", err)
		}

		if len(keys) > 0 {
			if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cached pages: %w", err)
			}
			deleted += len(keys)
		}

		if next == 0 {
			break
		}
		cursor = next
	}

	log.Debugf("🗑️ Cleared %d cached pages from Redis", deleted)
	return nil
}

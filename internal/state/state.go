package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StateManager remembers how far the cache warmer got through the catalog
type StateManager interface {
	GetLastCursor(ctx context.Context) (string, error)
	SetLastCursor(ctx context.Context, cursor string) error
	Reset(ctx context.Context) error
}

type redisStateManager struct {
	redisClient redis.Cmdable
	key         string
}

func NewRedisStateManager(redisClient redis.Cmdable, keyPrefix string) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		key:         keyPrefix + "progress:cursor",
	}
}

// GetLastCursor returns the saved fetch key, or "" when there is none
func (s *redisStateManager) GetLastCursor(ctx context.Context) (string, error) {
	val, err := s.redisClient.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil // No progress saved yet
		}
		return "", fmt.Errorf("failed to get last cursor: %w", err)
	}
	return val, nil
}

func (s *redisStateManager) SetLastCursor(ctx context.Context, cursor string) error {
	if err := s.redisClient.Set(ctx, s.key, cursor, 0).Err(); err != nil { // No expiration
		return fmt.Errorf("failed to set last cursor: %w", err)
	}
	return nil
}

func (s *redisStateManager) Reset(ctx context.Context) error {
	if err := s.redisClient.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to reset progress: %w", err)
	}
	return nil
}

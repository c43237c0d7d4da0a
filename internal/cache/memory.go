package cache

import (
	"context"
	"fmt"
	"time"

	"pokedex/catalog/internal/domain"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"github.com/viccon/sturdyc"
)

const (
	memoryShards             = 64
	memoryEvictionPercentage = 10
)

// MemoryStore keeps pages in process memory. Entries are dropped only by Clear, by reaching
// capacity, or after the retention period.
type MemoryStore struct {
	client *sturdyc.Client[domain.CacheEntry]
	clock  clock.Clock
}

func NewMemoryStore(capacity int, retention time.Duration, clk clock.Clock) (*MemoryStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("memory cache capacity must be greater than 0")
	}
	if retention <= 0 {
		return nil, fmt.Errorf("memory cache retention must be greater than 0")
	}

	client := sturdyc.New[domain.CacheEntry](capacity, memoryShards, retention, memoryEvictionPercentage)

	return &MemoryStore{
		client: client,
		clock:  clk,
	}, nil
}

func (s *MemoryStore) Get(ctx context.Context, requestKey string) (*domain.CacheEntry, error) {
	entry, ok := s.client.Get(requestKey)
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryStore) Put(ctx context.Context, requestKey string, page *domain.ListPage) error {
	entry := domain.NewCacheEntry(requestKey, page, s.clock.Now().UnixMilli())
	s.client.Set(requestKey, *entry)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	keys := s.client.ScanKeys()
	for _, key := range keys {
		s.client.Delete(key)
	}

	log.Debugf("🗑️ Cleared %d cached pages from memory", len(keys))
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"pokedex/catalog/internal/cache"
	"pokedex/catalog/internal/client"
	"pokedex/catalog/internal/domain"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
)

// DefaultFreshness is how long a cached page is served without asking the network
const DefaultFreshness = time.Hour

// CatalogRepository reconciles the remote catalog with the local page cache
type CatalogRepository interface {
	FetchListPage(ctx context.Context, requestKey string) (*domain.ListPage, error)
	FetchDetail(ctx context.Context, id string) (*domain.DetailRecord, error)
	ClearCache(ctx context.Context) error
}

type catalogRepository struct {
	remote    client.PokeAPIClient
	local     cache.Store
	clock     clock.Clock
	freshness time.Duration
}

func NewCatalogRepository(remote client.PokeAPIClient, local cache.Store, clk clock.Clock, freshness time.Duration) CatalogRepository {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}

	return &catalogRepository{
		remote:    remote,
		local:     local,
		clock:     clk,
		freshness: freshness,
	}
}

// FetchListPage serves a fresh cached page, otherwise fetches and caches it. When the fetch
// fails, any cached copy is returned regardless of its age.
func (r *catalogRepository) FetchListPage(ctx context.Context, requestKey string) (*domain.ListPage, error) {
	logger := log.WithField("key", requestKey)

	cached := r.lookup(ctx, requestKey)
	if cached != nil {
		age := time.Duration(r.clock.Now().UnixMilli()-cached.FetchedAt) * time.Millisecond
		if age < r.freshness {
			logger.WithField("age", age).Debug("📦 Cache hit")
			return cached.Page(), nil
		}
		logger.WithField("age", age).Debug("⌛ Cached page is stale, fetching")
	} else {
		logger.Debug("🌐 No cached page, fetching")
	}

	page, err := r.remote.GetListPage(ctx, requestKey)
	if err != nil {
		stale := r.lookup(ctx, requestKey)
		if stale != nil {
			logger.WithError(err).Warn("⚠️ Network failed, returning stale cache")
			return stale.Page(), nil
		}

		logger.WithError(err).Error("❌ Network failed and no cache available")
		return nil, fmt.Errorf("failed to fetch list page %s: %w", requestKey, err)
	}

	if err := r.local.Put(ctx, requestKey, page); err != nil {
		logger.WithError(err).Warn("⚠️ Failed to cache page")
	} else {
		logger.Debug("💾 Cached network response")
	}

	return page, nil
}

// FetchDetail always goes to the network, details are not cached
func (r *catalogRepository) FetchDetail(ctx context.Context, id string) (*domain.DetailRecord, error) {
	return r.remote.GetDetail(ctx, id)
}

func (r *catalogRepository) ClearCache(ctx context.Context) error {
	if err := r.local.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	log.Info("🗑️ Page cache cleared")
	return nil
}

func (r *catalogRepository) lookup(ctx context.Context, requestKey string) *domain.CacheEntry {
	entry, err := r.local.Get(ctx, requestKey)
	if err != nil {
		log.WithField("key", requestKey).WithError(err).Warn("⚠️ Cache lookup failed, treating as miss")
		return nil
	}
	return entry
}

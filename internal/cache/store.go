// Package cache holds the local page cache backends. Every backend stores one CacheEntry per
// request key, stamped with the time it was written, and reports a miss as (nil, nil).
package cache

import (
	"context"

	"pokedex/catalog/internal/domain"
)

// Store is the local side of the catalog
type Store interface {
	Get(ctx context.Context, requestKey string) (*domain.CacheEntry, error)
	Put(ctx context.Context, requestKey string, page *domain.ListPage) error
	Clear(ctx context.Context) error
}

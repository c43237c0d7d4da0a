package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"pokedex/catalog/internal/domain"

	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the store uses
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps pages in the page_cache table, items as JSONB
type PostgresStore struct {
	db    DB
	clock clock.Clock
}

func NewPostgresStore(db DB, clk clock.Clock) *PostgresStore {
	return &PostgresStore{
		db:    db,
		clock: clk,
	}
}

// EnsureSchema creates the page_cache table if it does not exist
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS page_cache (
		request_key TEXT PRIMARY KEY,
		next_cursor TEXT,
		fetched_at  BIGINT NOT NULL,
		items       JSONB NOT NULL
	)`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create page_cache table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, requestKey string) (*domain.CacheEntry, error) {
	query := `SELECT next_cursor, fetched_at, items FROM page_cache WHERE request_key = $1`

	var (
		next      *string
		fetchedAt int64
		items     []byte
	)
	err := s.db.QueryRow(ctx, query, requestKey).Scan(&next, &fetchedAt, &items)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached page %s: %w", requestKey, err)
	}

	entry := &domain.CacheEntry{
		RequestKey: requestKey,
		Next:       next,
		FetchedAt:  fetchedAt,
	}
	if err := json.Unmarshal(items, &entry.Items); err != nil {
		return nil, fmt.Errorf("failed to decode cached items for %s: %w", requestKey, err)
	}

	return entry, nil
}

func (s *PostgresStore) Put(ctx context.Context, requestKey string, page *domain.ListPage) error {
	entry := domain.NewCacheEntry(requestKey, page, s.clock.Now().UnixMilli())

	items, err := json.Marshal(entry.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items for %s: %w", requestKey, err)
	}

	query := `
	INSERT INTO page_cache (request_key, next_cursor, fetched_at, items)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (request_key)
	DO UPDATE SET next_cursor = $2, fetched_at = $3, items = $4`
	_, err = s.db.Exec(ctx, query, requestKey, entry.Next, entry.FetchedAt, items)
	if err != nil {
		return fmt.Errorf("failed to save cached page %s: %w", requestKey, err)
	}

	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM page_cache`); err != nil {
		return fmt.Errorf("failed to clear page cache: %w", err)
	}
	return nil
}

package container

import (
	"context"
	"fmt"
	"io"
	"os"

	"pokedex/catalog/internal/cache"
	"pokedex/catalog/internal/client"
	"pokedex/catalog/internal/config"
	"pokedex/catalog/internal/proxy"
	"pokedex/catalog/internal/repository"
	"pokedex/catalog/internal/service"
	"pokedex/catalog/internal/state"

	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Clock        clock.Clock
	Client       client.PokeAPIClient
	Store        cache.Store
	Repository   repository.CatalogRepository
	StateManager state.StateManager

	Warmer *service.Warmer

	out   io.Writer
	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
		Clock:  clock.New(),
		out:    os.Stdout,
	}

	store, err := container.newStore(ctx)
	if err != nil {
		container.Close()
		return nil, err
	}
	container.Store = store

	proxies, err := proxy.NewPool(ctx, cfg.API.Proxies, cfg.API.RootKey())
	if err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize proxy pool: %w", err)
	}

	container.Client = client.NewPokeAPIClient(cfg.API, proxies)
	container.Repository = repository.NewCatalogRepository(container.Client, store, container.Clock, cfg.Cache.Freshness)

	// Warm progress is only kept when Redis is available
	if container.redis != nil {
		container.StateManager = state.NewRedisStateManager(container.redis, cfg.Redis.KeyPrefix)
		container.Warmer = service.NewWarmer(container.Repository, container.StateManager, cfg.Warm, cfg.API.RootKey())
	} else {
		container.Warmer = service.NewWarmer(container.Repository, nil, cfg.Warm, cfg.API.RootKey())
	}

	return container, nil
}

func (c *Container) newStore(ctx context.Context) (cache.Store, error) {
	cfg := c.Config

	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		c.redis = rdb

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		return cache.NewRedisStore(rdb, cfg.Redis.KeyPrefix, c.Clock), nil

	case config.CacheBackendPostgres:
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		c.db = db

		if err := db.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("✅ Connected to database successfully")

		store := cache.NewPostgresStore(db, c.Clock)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return cache.NewMemoryStore(cfg.Cache.Capacity, cfg.Cache.Retention, c.Clock)
	}
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis client: %w", err)
		}
	}

	log.Debug("Container shut down successfully")
	return nil
}

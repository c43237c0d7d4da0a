package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cache backends understood by the container
const (
	CacheBackendMemory   = "memory"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	List     ListConfig     `mapstructure:"list"`
	Log      LogConfig      `mapstructure:"log"`
	Warm     WarmConfig     `mapstructure:"warm"`
}

// APIConfig holds remote catalog API configuration
type APIConfig struct {
	BaseURL                string        `mapstructure:"base_url"`
	PageSize               int           `mapstructure:"page_size"`
	Timeout                time.Duration `mapstructure:"timeout"`
	MaxRetries             int           `mapstructure:"max_retries"`
	MaxRequestsPerSecond   int           `mapstructure:"max_requests_per_second"`
	CircuitBreakerCooldown time.Duration `mapstructure:"circuit_breaker_cooldown"`
	UserAgent              string        `mapstructure:"user_agent"`
	Proxies                []string      `mapstructure:"proxies"`
}

// CacheConfig selects and tunes the local page cache
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	Freshness time.Duration `mapstructure:"freshness"`

	// Memory backend only
	Capacity  int           `mapstructure:"capacity"`
	Retention time.Duration `mapstructure:"retention"`
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	Database  int    `mapstructure:"database"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type ListConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WarmConfig controls the offline cache warmer
type WarmConfig struct {
	MaxPages     int `mapstructure:"max_pages"`     // 0 walks until the catalog is exhausted
	SaveInterval int `mapstructure:"save_interval"` // Pages between checkpoint writes
}

// RootKey is the fetch key of the first catalog page
func (c APIConfig) RootKey() string {
	return fmt.Sprintf("%s/pokemon?offset=0&limit=%d", strings.TrimSuffix(c.BaseURL, "/"), c.PageSize)
}

// Addr returns the Redis address in host:port form
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DSN returns the Postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// Load loads configuration from an optional YAML file with environment variable overrides.
// An empty path searches for config.yaml in the working directory. Flags, when given, take
// precedence over both.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("error binding flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the values the engine cannot run without
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendPostgres:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.PageSize <= 0 {
		return fmt.Errorf("api.page_size must be greater than 0")
	}
	if c.Cache.Freshness <= 0 {
		return fmt.Errorf("cache.freshness must be greater than 0")
	}
	if c.List.Debounce < 0 {
		return fmt.Errorf("list.debounce must be non-negative")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://pokeapi.co/api/v2")
	v.SetDefault("api.page_size", 20)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.max_requests_per_second", 10)
	v.SetDefault("api.circuit_breaker_cooldown", 5*time.Minute)
	v.SetDefault("api.user_agent", "pokedex-catalog/1.0")
	v.SetDefault("api.proxies", []string{})

	v.SetDefault("cache.backend", CacheBackendMemory)
	v.SetDefault("cache.freshness", time.Hour)
	v.SetDefault("cache.capacity", 10000)
	v.SetDefault("cache.retention", 30*24*time.Hour)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key_prefix", "pokedex:")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "pokedex")
	v.SetDefault("database.user", "pokedex_user")
	v.SetDefault("database.password", "pokedex_pass")

	v.SetDefault("list.debounce", 300*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("warm.max_pages", 0)
	v.SetDefault("warm.save_interval", 5)
}

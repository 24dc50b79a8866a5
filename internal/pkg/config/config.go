package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Durable store backends.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR, default=127.0.0.1:8090"`
	Env        string `env:"ENV,         default=development"`
	LogLevel   string `env:"LOG_LEVEL,   default=info"`

	API       APIConfig
	Storage   StorageConfig
	Dashboard DashboardConfig

	Mongo  MongoConfig
	Redis  RedisConfig
	SQLite SQLiteConfig
}

type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:5000"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=15s"`
}

type StorageConfig struct {
	// Durable selects the backend for remember-me tokens: sqlite, redis or mongo.
	Durable   string `env:"DURABLE_STORE,     default=sqlite"`
	Namespace string `env:"STORAGE_NAMESPACE, default=donacrypto"`
}

type DashboardConfig struct {
	PostsPageSize      int      `env:"POSTS_PAGE_SIZE,     default=5"`
	FollowersPageSize  int      `env:"FOLLOWERS_PAGE_SIZE, default=20"`
	RequiredCurrencies []string `env:"REQUIRED_CURRENCIES, default=ETH,BTC,USDT"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=donacrypto"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=donacrypto.db"`
}

// IsDevelopment reports whether human-friendly log output should be used.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Validate rejects combinations the process cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Durable {
	case StoreSQLite, StoreRedis, StoreMongo:
	default:
		return fmt.Errorf("config: unknown DURABLE_STORE %q", c.Storage.Durable)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("config: API_BASE_URL is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: API_TIMEOUT must be positive")
	}
	if c.Dashboard.PostsPageSize <= 0 || c.Dashboard.FollowersPageSize <= 0 {
		return fmt.Errorf("config: page sizes must be positive")
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	for i, c := range cfg.Dashboard.RequiredCurrencies {
		cfg.Dashboard.RequiredCurrencies[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

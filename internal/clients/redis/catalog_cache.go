package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/brokerdesk-backend/internal/domain/checklist"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

// CatalogCache stores the full item catalog as one JSON document.
type CatalogCache interface {
	// Get returns (nil, false, nil) on a miss.
	Get(ctx context.Context) ([]*checklist.RequiredItem, bool, error)
	Set(ctx context.Context, items []*checklist.RequiredItem) error
	Invalidate(ctx context.Context) error
	Close() error
}

type CatalogCacheConfig struct {
	Addr      string
	KeyPrefix string
	TTL       time.Duration
}

type catalogCache struct {
	log *logger.Logger
	rdb goredis.UniversalClient
	key string
	ttl time.Duration
}

func NewCatalogCache(log *logger.Logger, cfg CatalogCacheConfig) (CatalogCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newCatalogCache(log, rdb, cfg), nil
}

// NewCatalogCacheWithClient wraps an existing client.
func NewCatalogCacheWithClient(log *logger.Logger, rdb goredis.UniversalClient, cfg CatalogCacheConfig) CatalogCache {
	return newCatalogCache(log, rdb, cfg)
}

func newCatalogCache(log *logger.Logger, rdb goredis.UniversalClient, cfg CatalogCacheConfig) *catalogCache {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "brokerdesk"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &catalogCache{
		log: log.With("client", "RedisCatalogCache"),
		rdb: rdb,
		key: prefix + ":catalog:v1",
		ttl: ttl,
	}
}

func (c *catalogCache) Get(ctx context.Context) ([]*checklist.RequiredItem, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, fmt.Errorf("redis catalog cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var items []*checklist.RequiredItem
	if err := json.Unmarshal(raw, &items); err != nil {
		c.log.Warn("bad cached catalog payload; dropping", "error", err)
		_ = c.rdb.Del(ctx, c.key).Err()
		return nil, false, nil
	}
	return items, true, nil
}

func (c *catalogCache) Set(ctx context.Context, items []*checklist.RequiredItem) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis catalog cache not initialized")
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key, raw, c.ttl).Err()
}

func (c *catalogCache) Invalidate(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.key).Err()
}

func (c *catalogCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

package app

import (
	"fmt"

	"github.com/yungbote/brokerdesk-backend/internal/clients/redis"
	"github.com/yungbote/brokerdesk-backend/internal/platform/logger"
)

type Clients struct {
	// CatalogCache is nil when REDIS_ADDR is unset.
	CatalogCache redis.CatalogCache
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR unset; catalog reads go straight to the database")
		return Clients{}, nil
	}
	cache, err := redis.NewCatalogCache(log, redis.CatalogCacheConfig{
		Addr:      cfg.RedisAddr,
		KeyPrefix: cfg.CatalogCacheKey,
		TTL:       cfg.CatalogCacheTTL,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init redis catalog cache: %w", err)
	}
	return Clients{CatalogCache: cache}, nil
}

func (c Clients) Close(log *logger.Logger) {
	if c.CatalogCache != nil {
		if err := c.CatalogCache.Close(); err != nil {
			log.Warn("close catalog cache", "error", err)
		}
	}
}

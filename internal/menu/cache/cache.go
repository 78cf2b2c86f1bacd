package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/cache"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	catalogKey    = "menu:catalog"
	generationKey = "menu:catalog:gen"
)

type RedisCatalogCache struct {
	client *cache.RedisClient
	ttl    time.Duration
	logger logger.ZapLogger
}

func NewRedisCatalogCache(client *cache.RedisClient, ttl time.Duration, log logger.ZapLogger) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl, logger: log}
}

func (c *RedisCatalogCache) Get(ctx context.Context) ([]model.MenuItem, uint64, bool) {
	vals, err := c.client.Client.MGet(ctx, catalogKey, generationKey).Result()
	if err != nil || len(vals) != 2 {
		return nil, 0, false
	}
	var gen uint64
	if raw, ok := vals[1].(string); ok {
		gen, _ = strconv.ParseUint(raw, 10, 64)
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false
	}
	var items []model.MenuItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		c.logger.Warn("discarding unreadable catalog cache entry", zap.Error(err))
		return nil, gen, false
	}
	return items, gen, true
}

// Set writes the catalog under a WATCH on the generation key, so an Invalidate that
// raced the load wins.
func (c *RedisCatalogCache) Set(ctx context.Context, gen uint64, items []model.MenuItem) {
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	err = c.client.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, catalogKey, data, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("catalog changed while loading; not caching", zap.Uint64("generation", gen))
	default:
		c.logger.Warn("failed to cache catalog", zap.Error(err))
	}
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) {
	_, err := c.client.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, catalogKey)
		return nil
	})
	if err != nil {
		c.logger.Error("failed to invalidate catalog cache", zap.Error(err))
	}
}

var errStaleGeneration = errors.New("catalog generation moved")

// MemoryCatalogCache is used when no Redis is configured.
type MemoryCatalogCache struct {
	mu    sync.RWMutex
	items []model.MenuItem
	valid bool
	gen   uint64
}

func NewMemoryCatalogCache() *MemoryCatalogCache {
	return &MemoryCatalogCache{}
}

func (c *MemoryCatalogCache) Get(_ context.Context) ([]model.MenuItem, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		return nil, c.gen, false
	}
	out := make([]model.MenuItem, len(c.items))
	copy(out, c.items)
	return out, c.gen, true
}

func (c *MemoryCatalogCache) Set(_ context.Context, gen uint64, items []model.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.items = make([]model.MenuItem, len(items))
	copy(c.items, items)
	c.valid = true
}

func (c *MemoryCatalogCache) Invalidate(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.valid = false
	c.gen++
}

// internal/transmute/catalog.go
package transmute

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"vibe-transmuter/internal/common/logger"
)

const (
	DefaultCatalogKey = "genai:models"
	DefaultCatalogTTL = time.Hour
)

// ModelLister reports the model identifiers a provider currently serves.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

type CatalogOption func(*ModelCatalog)

// WithRedis shares the model list across worker processes.
func WithRedis(client *redis.Client, key string, ttl time.Duration) CatalogOption {
	return func(c *ModelCatalog) {
		c.redis = client
		if key != "" {
			c.key = key
		}
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// ModelCatalog caches the available model list. It is filled on first use
// and never invalidated; a stale list only affects model choice.
type ModelCatalog struct {
	lister   ModelLister
	fallback string
	logger   logger.Logger

	redis *redis.Client
	key   string
	ttl   time.Duration

	mu     sync.Mutex
	models []string
	loaded bool
}

func NewModelCatalog(lister ModelLister, fallback string, log logger.Logger, opts ...CatalogOption) *ModelCatalog {
	c := &ModelCatalog{
		lister:   lister,
		fallback: fallback,
		logger:   log.With(map[string]interface{}{"component": "model-catalog"}),
		key:      DefaultCatalogKey,
		ttl:      DefaultCatalogTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Models returns the cached list, loading it from redis or the lister on the
// first successful call.
func (c *ModelCatalog) Models(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return c.models, nil
	}

	if models, ok := c.readShared(ctx); ok {
		c.models, c.loaded = models, true
		return c.models, nil
	}

	if c.lister == nil {
		c.loaded = true
		return nil, nil
	}

	models, err := c.lister.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	c.writeShared(ctx, models)
	c.models, c.loaded = models, true

	c.logger.Info("model catalog loaded", map[string]interface{}{
		"count": len(models),
	})
	return c.models, nil
}

// Pick returns the first preferred model that the provider serves. When the
// list cannot be loaded the first non-empty preference is trusted; when
// nothing matches the fallback is returned.
func (c *ModelCatalog) Pick(ctx context.Context, preferred ...string) string {
	models, err := c.Models(ctx)
	if err != nil {
		c.logger.Warn("model list unavailable, using preference order", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err != nil || len(models) == 0 {
		for _, p := range preferred {
			if p != "" {
				return p
			}
		}
		return c.fallback
	}

	available := make(map[string]bool, len(models))
	for _, m := range models {
		available[m] = true
	}
	for _, p := range preferred {
		if available[p] {
			return p
		}
	}
	if c.fallback != "" {
		return c.fallback
	}
	return models[0]
}

func (c *ModelCatalog) readShared(ctx context.Context) ([]string, bool) {
	if c.redis == nil {
		return nil, false
	}
	val, err := c.redis.Get(ctx, c.key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("model catalog cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}
	var models []string
	if err := json.Unmarshal([]byte(val), &models); err != nil {
		return nil, false
	}
	return models, true
}

func (c *ModelCatalog) writeShared(ctx context.Context, models []string) {
	if c.redis == nil {
		return
	}
	data, _ := json.Marshal(models)
	if err := c.redis.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("model catalog cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

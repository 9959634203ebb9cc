package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
)

// CachedLookup decorates a ProductLookup with a cache of successful payloads.
// Failures are never cached.
type CachedLookup struct {
	next  domain.ProductLookup
	cache domain.CacheRepository
	ttl   time.Duration
}

// NewCachedLookup wraps next with cache
func NewCachedLookup(next domain.ProductLookup, cache domain.CacheRepository, ttl time.Duration) *CachedLookup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedLookup{next: next, cache: cache, ttl: ttl}
}

// Name returns the wrapped source name
func (c *CachedLookup) Name() string {
	return c.next.Name()
}

// Lookup serves from cache when possible, otherwise calls the wrapped lookup
func (c *CachedLookup) Lookup(ctx context.Context, barcode string) (*domain.SourcePayload, error) {
	key := c.cacheKey(barcode)
	logger := logging.Component(ctx, "cache")

	if data, err := c.cache.Get(ctx, key); err == nil {
		var payload domain.SourcePayload
		if err := json.Unmarshal(data, &payload); err == nil {
			logger.Debug("cache hit", "key", key)
			return &payload, nil
		}
		c.cache.Delete(ctx, key)
	}

	payload, err := c.next.Lookup(ctx, barcode)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(payload); err == nil {
		if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
			logger.Warn("failed to cache payload", "key", key, "error", err)
		}
	}
	return payload, nil
}

func (c *CachedLookup) cacheKey(barcode string) string {
	return "lookup:" + c.next.Name() + ":" + barcode
}

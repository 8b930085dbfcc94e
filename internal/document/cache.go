package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KaivDev4434/FairShare/internal/metrics"
)

const (
	cacheKeyPrefix  = "extract:"
	defaultCacheTTL = 24 * time.Hour
)

// Cache stores extraction results keyed by document content, so re-uploads
// of the same receipt skip the OCR and model calls. A nil *Cache is a no-op,
// which is how the service runs when Redis is not configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates an extraction cache on the given Redis client
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// CacheKey derives the cache key from the raw document bytes
func CacheKey(content []byte) string {
	sum := sha256.Sum256(content)
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached draft for a key, or nil on a miss
func (c *Cache) Get(ctx context.Context, key string) (*DraftBill, error) {
	if c == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		metrics.ExtractionCache.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var draft DraftBill
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, err
	}

	metrics.ExtractionCache.WithLabelValues("hit").Inc()
	return &draft, nil
}

// Set stores a draft under the key
func (c *Cache) Set(ctx context.Context, key string, draft *DraftBill) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache is a cache-aside decorator around a Provider. Quotes are kept in
// Redis for a short TTL so repeated lookups (portfolio pricing hits every
// held symbol) don't hammer the upstream API. Redis failures fall through
// to the remote provider.
type Cache struct {
	Next Provider
	Rdb  *redis.Client
	TTL  time.Duration
}

func NewCache(next Provider, rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{Next: next, Rdb: rdb, TTL: ttl}
}

func cacheKey(symbol string) string {
	return fmt.Sprintf("quote:%s", strings.ToUpper(strings.TrimSpace(symbol)))
}

func (c *Cache) Lookup(ctx context.Context, symbol string) (Quote, error) {
	key := cacheKey(symbol)

	if data, err := c.Rdb.Get(ctx, key).Result(); err == nil {
		var q Quote
		if err := json.Unmarshal([]byte(data), &q); err == nil {
			return q, nil
		}
	}

	q, err := c.Next.Lookup(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	if data, err := json.Marshal(q); err == nil {
		c.Rdb.Set(ctx, key, data, c.TTL)
	}
	return q, nil
}

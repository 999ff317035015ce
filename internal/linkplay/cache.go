package linkplay

import (
	"context"
	"time"

	freecache "github.com/coocood/freecache"
	gocache "github.com/eko/gocache/lib/v4/cache"
	libstore "github.com/eko/gocache/lib/v4/store"
	gocachefreecache "github.com/eko/gocache/store/freecache/v4"
)

const minCacheSize = 512 * 1024

// InfoCache holds getStatusEx responses shared by every client in the process.
// Device names, group membership, and input lists change rarely, so they are
// fetched at most once per TTL instead of on every poll.
type InfoCache struct {
	cache gocache.CacheInterface[[]byte]
	ttl   time.Duration
}

// NewInfoCache creates a cache of size bytes whose entries expire after ttl.
func NewInfoCache(size int, ttl time.Duration) *InfoCache {
	if size < minCacheSize {
		size = minCacheSize
	}
	store := gocachefreecache.NewFreecache(freecache.NewCache(size))
	return &InfoCache{
		cache: gocache.New[[]byte](store),
		ttl:   ttl,
	}
}

func (c *InfoCache) get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	value, err := c.cache.Get(ctx, key)
	if err != nil || len(value) == 0 {
		return nil, false
	}
	return value, true
}

func (c *InfoCache) put(ctx context.Context, key string, value []byte) {
	if c == nil {
		return
	}
	_ = c.cache.Set(ctx, key, value, libstore.WithExpiration(c.ttl))
}

func (c *InfoCache) invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	_ = c.cache.Delete(ctx, key)
}

package middleware

// Responses of read-only methods are kept in an in-memory LRU for a short
// TTL. golang-lru evicts the least recently used entry once the cache is full.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"google.golang.org/grpc"
)

type cacheEntry struct {
	resp    interface{}
	expires time.Time
}

// Cache memoizes successful responses of selected methods.
type Cache struct {
	lru     *lru.Cache
	ttl     time.Duration
	methods map[string]bool
	now     func() time.Time
}

// NewCache creates a cache holding at most size responses of the given full
// method names, each valid for ttl. A zero ttl keeps entries until evicted.
func NewCache(size int, ttl time.Duration, methods ...string) (*Cache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	m := make(map[string]bool, len(methods))
	for _, name := range methods {
		m[name] = true
	}
	return &Cache{lru: l, ttl: ttl, methods: m, now: time.Now}, nil
}

// Interceptor returns the caching interceptor. Calls to other methods and
// failed calls pass through untouched.
func (c *Cache) Interceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !c.methods[info.FullMethod] {
			return handler(ctx, req)
		}

		key, err := generateCacheKey(info.FullMethod, req)
		if err != nil {
			return handler(ctx, req)
		}

		if v, ok := c.lru.Get(key); ok {
			entry := v.(cacheEntry)
			if c.ttl == 0 || c.now().Before(entry.expires) {
				cacheLookups.WithLabelValues("hit").Inc()
				return entry.resp, nil
			}
			c.lru.Remove(key)
		}
		cacheLookups.WithLabelValues("miss").Inc()

		resp, err := handler(ctx, req)
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, cacheEntry{resp: resp, expires: c.now().Add(c.ttl)})
		return resp, nil
	}
}

// generateCacheKey derives the key from the method and the JSON form of req.
func generateCacheKey(method string, req interface{}) (string, error) {
	reqBytes, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", method, reqBytes), nil
}

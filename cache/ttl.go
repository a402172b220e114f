package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// TTLOption configures a TTL tier.
type TTLOption func(*ttlConfig)

type ttlConfig struct {
	capacity uint64
	shared   *ttlcache.Cache[string, any]
}

// WithCapacity bounds the number of entries held by a tier created without a
// shared backing cache.
func WithCapacity(capacity uint64) TTLOption {
	return func(cfg *ttlConfig) {
		cfg.capacity = capacity
	}
}

// WithSharedCache makes several namespaced tiers share one backing cache, the
// way independent stores share one external object cache.
func WithSharedCache(shared *ttlcache.Cache[string, any]) TTLOption {
	return func(cfg *ttlConfig) {
		cfg.shared = shared
	}
}

// NewSharedCache constructs a backing cache suitable for WithSharedCache.
func NewSharedCache() *ttlcache.Cache[string, any] {
	return ttlcache.New[string, any](ttlcache.WithDisableTouchOnHit[string, any]())
}

// TTL is the tier-2 cache. Keys are prefixed with the namespace so Clear only
// drops entries belonging to the namespace.
type TTL struct {
	namespace string
	ttl       time.Duration
	items     *ttlcache.Cache[string, any]
}

// NewTTL constructs a namespaced TTL tier. A non-positive ttl falls back to
// DefaultTTL.
func NewTTL(namespace string, ttl time.Duration, opts ...TTLOption) *TTL {
	cfg := ttlConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	items := cfg.shared
	if items == nil {
		cacheOpts := []ttlcache.Option[string, any]{
			ttlcache.WithDisableTouchOnHit[string, any](),
		}
		if cfg.capacity > 0 {
			cacheOpts = append(cacheOpts, ttlcache.WithCapacity[string, any](cfg.capacity))
		}
		items = ttlcache.New[string, any](cacheOpts...)
	}
	return &TTL{
		namespace: strings.TrimSpace(namespace),
		ttl:       ttl,
		items:     items,
	}
}

// Namespace returns the key prefix used by the tier.
func (c *TTL) Namespace() string {
	return c.namespace
}

func (c *TTL) Get(key string) (any, bool) {
	item := c.items.Get(c.key(key))
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

func (c *TTL) Set(key string, value any) {
	c.items.Set(c.key(key), value, c.ttl)
}

func (c *TTL) Delete(key string) {
	c.items.Delete(c.key(key))
}

func (c *TTL) Clear() {
	prefix := c.key("")
	for _, key := range c.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.items.Delete(key)
		}
	}
}

// key prefixes the namespace with its length so that no namespace/key pair
// can spell another namespace's prefix.
func (c *TTL) key(key string) string {
	return strconv.Itoa(len(c.namespace)) + ":" + c.namespace + ":" + key
}

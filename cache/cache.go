// Package cache provides the cache tiers that sit in front of the settings
// backend: a request-local map, a shared TTL cache and a layered adapter that
// consults tiers in order.
package cache

import "time"

// DefaultTTL is applied by the shared tier when no TTL is configured.
const DefaultTTL = time.Hour

// Cache is the contract every tier satisfies. Implementations never report
// errors; a failed lookup is a miss.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Delete(key string)
	Clear()
}

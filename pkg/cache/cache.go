// Package cache provides the two cache tiers used by labelsheet and the
// byte-level backends behind them.
//
// # Tiers
//
// [MetadataCache] keeps catalog metadata in memory with a fixed TTL, a
// bounded capacity and least-recently-used replacement. Concurrent misses
// on the same key share one fetch. Every stored payload is also kept on a
// stale shelf so callers can degrade gracefully when the source is down.
//
// [AssetCache] keeps downloaded images as files named by the SHA-256 of
// their remote reference. Entries never expire by time; they are removed
// on detected corruption, explicit deletion or capacity eviction.
//
// [Manager] owns both tiers and is passed explicitly to collaborators.
//
// # Backends
//
// [Cache] is a simple byte-level interface with TTL support. [FileCache]
// and [RedisCache] implement it and can back the metadata tier as a second
// level shared across processes. [NullCache] disables the second level.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-level key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value for key. A missing or expired entry yields
	// (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Expirer is implemented by backends that can report how long an entry
// has left to live.
type Expirer interface {
	// TTL returns the remaining lifetime of key. found is false for a
	// missing or expired entry; a zero duration means no expiry.
	TTL(ctx context.Context, key string) (left time.Duration, found bool, err error)
}

package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/labelsheet/pkg/observability"
)

const tierMetadata = "metadata"

// Metadata tier defaults.
const (
	DefaultMetadataTTL      = 24 * time.Hour
	DefaultMetadataCapacity = 100
	DefaultStaleTTL         = 7 * 24 * time.Hour
)

// Entry is one metadata payload with its lifetime.
type Entry struct {
	Key       string
	Payload   []byte
	CachedAt  time.Time
	ExpiresAt time.Time
}

// Source reports where a [MetadataCache.Load] result came from.
type Source int

const (
	FromMemory  Source = iota // in-memory tier
	FromBackend               // second-level backend
	FromFetch                 // the fetch function
)

func (s Source) String() string {
	switch s {
	case FromMemory:
		return "memory"
	case FromBackend:
		return "backend"
	default:
		return "fetch"
	}
}

// MetadataOptions configures a [MetadataCache].
type MetadataOptions struct {
	// TTL applied by Put when ttl is 0. Defaults to DefaultMetadataTTL.
	TTL time.Duration
	// Capacity bounds the number of live entries. Defaults to DefaultMetadataCapacity.
	Capacity int
	// StaleTTL is how long a payload stays on the stale shelf. Defaults to DefaultStaleTTL.
	StaleTTL time.Duration
	// Backend is an optional second level consulted on a memory miss.
	Backend Cache
	Logger  *log.Logger
}

// MetadataCache is the in-memory TTL tier for catalog metadata.
//
// Entries have a fixed expiry set at Put time; reads do not extend it.
// When Capacity is reached the least recently used entry is replaced.
// Entries are replaced whole and never mutated in place.
type MetadataCache struct {
	items   *ttlcache.Cache[string, Entry]
	stale   *ttlcache.Cache[string, Entry]
	backend Cache
	group   singleflight.Group
	stats   Stats
	ttl     time.Duration
	logger  *log.Logger
}

// NewMetadataCache creates a metadata tier.
func NewMetadataCache(opts MetadataOptions) *MetadataCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultMetadataTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultMetadataCapacity
	}
	if opts.StaleTTL <= 0 {
		opts.StaleTTL = DefaultStaleTTL
	}
	if opts.Backend == nil {
		opts.Backend = NewNullCache()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &MetadataCache{
		items: ttlcache.New(
			ttlcache.WithTTL[string, Entry](opts.TTL),
			ttlcache.WithCapacity[string, Entry](uint64(opts.Capacity)),
			ttlcache.WithDisableTouchOnHit[string, Entry](),
		),
		stale: ttlcache.New(
			ttlcache.WithTTL[string, Entry](opts.StaleTTL),
			ttlcache.WithCapacity[string, Entry](uint64(opts.Capacity)),
			ttlcache.WithDisableTouchOnHit[string, Entry](),
		),
		backend: opts.Backend,
		ttl:     opts.TTL,
		logger:  opts.Logger,
	}
}

// lookup returns the live entry for key without touching the counters.
// Expired entries are swept so they stop occupying capacity.
func (c *MetadataCache) lookup(key string) (Entry, bool) {
	item := c.items.Get(key)
	if item == nil {
		c.items.DeleteExpired()
		return Entry{}, false
	}
	return item.Value(), true
}

// Get returns the payload for key. Expired entries are treated as absent
// and removed.
func (c *MetadataCache) Get(key string) ([]byte, bool) {
	e, ok := c.lookup(key)
	if !ok {
		c.stats.miss()
		return nil, false
	}
	c.stats.hit()
	return e.Payload, true
}

// GetJSON decodes the payload for key into v. A payload that fails to
// decode is invalidated and counted as a miss.
func (c *MetadataCache) GetJSON(key string, v any) bool {
	e, ok := c.lookup(key)
	if !ok {
		c.stats.miss()
		return false
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		c.logger.Warn("discarding corrupt metadata entry", "key", key, "err", err)
		c.Invalidate(key)
		c.stats.miss()
		return false
	}
	c.stats.hit()
	return true
}

// Put stores payload under key for ttl, or the default TTL when ttl is 0.
// The payload is also placed on the stale shelf.
func (c *MetadataCache) Put(key string, payload []byte, ttl time.Duration) Entry {
	if ttl <= 0 {
		ttl = c.ttl
	}
	now := time.Now()
	e := Entry{Key: key, Payload: payload, CachedAt: now, ExpiresAt: now.Add(ttl)}
	c.items.Set(key, e, ttl)
	c.stale.Set(key, e, ttlcache.DefaultTTL)
	return e
}

// Invalidate removes key from memory, the stale shelf and the backend.
func (c *MetadataCache) Invalidate(key string) {
	c.items.Delete(key)
	c.stale.Delete(key)
	if err := c.backend.Delete(context.Background(), key); err != nil {
		c.stats.failure()
		c.logger.Warn("backend delete failed", "key", key, "err", err)
	}
}

// InvalidateOnError drops key after its payload turned out to be unusable
// and counts the failure.
func (c *MetadataCache) InvalidateOnError(key string, cause error) {
	c.stats.failure()
	c.logger.Warn("invalidating cache entry", "key", key, "err", cause)
	c.Invalidate(key)
}

// Stale returns the last payload stored for key even if it has expired
// from the live tier.
func (c *MetadataCache) Stale(key string) (Entry, bool) {
	item := c.stale.Get(key)
	if item == nil {
		return Entry{}, false
	}
	return item.Value(), true
}

// Clear removes every entry from memory and the stale shelf. The backend
// is left untouched.
func (c *MetadataCache) Clear() {
	c.items.DeleteAll()
	c.stale.DeleteAll()
}

// Len returns the number of live entries in memory.
func (c *MetadataCache) Len() int {
	return c.items.Len()
}

// Stats returns the tier's counters.
func (c *MetadataCache) Stats() *Stats {
	return &c.stats
}

type loadResult struct {
	payload []byte
	source  Source
}

// Load returns the payload for key, calling fetch on a miss and storing
// its result for ttl. Concurrent misses on the same key share one call to
// fetch. The shared fetch runs detached from any single caller's
// cancellation; each caller stops waiting when its own ctx is done.
func (c *MetadataCache) Load(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) ([]byte, error)) ([]byte, Source, error) {
	hooks := observability.Cache()
	if payload, ok := c.Get(key); ok {
		hooks.OnCacheHit(ctx, tierMetadata)
		return payload, FromMemory, nil
	}
	hooks.OnCacheMiss(ctx, tierMetadata)

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if e, ok := c.lookup(key); ok {
			return loadResult{e.Payload, FromMemory}, nil
		}
		if data, ok, err := c.backend.Get(detached, key); err != nil {
			c.stats.failure()
			c.logger.Warn("backend get failed", "key", key, "err", err)
		} else if ok {
			c.Put(key, data, c.remaining(detached, key, ttl))
			return loadResult{data, FromBackend}, nil
		}

		data, err := fetch(detached)
		if err != nil {
			return nil, err
		}
		c.Put(key, data, ttl)
		hooks.OnCacheSet(detached, tierMetadata, len(data))
		if ttl <= 0 {
			ttl = c.ttl
		}
		if err := c.backend.Set(detached, key, data, ttl); err != nil {
			c.stats.failure()
			c.logger.Warn("backend set failed", "key", key, "err", err)
		}
		return loadResult{data, FromFetch}, nil
	})

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, 0, res.Err
		}
		r := res.Val.(loadResult)
		return r.payload, r.source, nil
	}
}

// remaining caps ttl at the backend's remaining lifetime for key so an
// entry promoted into memory never outlives its backend copy.
func (c *MetadataCache) remaining(ctx context.Context, key string, ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = c.ttl
	}
	exp, ok := c.backend.(Expirer)
	if !ok {
		return ttl
	}
	left, found, err := exp.TTL(ctx, key)
	if err != nil || !found || left <= 0 {
		return ttl
	}
	return min(left, ttl)
}

// Close releases the backend.
func (c *MetadataCache) Close() error {
	return c.backend.Close()
}

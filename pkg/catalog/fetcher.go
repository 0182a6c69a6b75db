package catalog

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/httputil"
)

// Status tells how fresh a [Result] is.
type Status int

const (
	// Fresh values were fetched from the source by this call.
	Fresh Status = iota
	// Cached values came from a live cache entry.
	Cached
	// Stale values are the last known good copy, served because the
	// source is unreachable.
	Stale
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Cached:
		return "cached"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for _, v := range []Status{Fresh, Cached, Stale} {
		if string(b) == v.String() {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

// Result is a value tagged with where it came from.
type Result[T any] struct {
	Value  T
	Status Status
	// CachedAt is set for Stale results.
	CachedAt time.Time
}

// Fetcher reads catalog data through the cache tiers. It is safe for
// concurrent use.
type Fetcher struct {
	source   Source
	cache    *cache.Manager
	ttl      time.Duration
	attempts int
	delay    time.Duration
	assets   singleflight.Group
	logger   *log.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTTL sets the metadata lifetime. Defaults to the cache's TTL.
func WithTTL(ttl time.Duration) FetcherOption {
	return func(f *Fetcher) { f.ttl = ttl }
}

// WithRetry sets how often and how fast a failed source call is retried.
func WithRetry(attempts int, delay time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.attempts = attempts
		f.delay = delay
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher over source and the cache manager.
func NewFetcher(source Source, mgr *cache.Manager, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		source:   source,
		cache:    mgr,
		attempts: httputil.DefaultAttempts,
		delay:    httputil.DefaultDelay,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Sets returns the full set listing.
//
// On a metadata miss the source is called with retries and the result
// cached. When every attempt fails the last known good listing is returned
// with status Stale; with nothing to fall back on the error has code
// SOURCE_UNAVAILABLE.
func (f *Fetcher) Sets(ctx context.Context) (Result[[]Set], error) {
	return load(ctx, f, f.cache.Keyer.SetsKey(), "sets", f.source.FetchAll)
}

// Symbology returns the card symbol table with the same caching rules as
// [Fetcher.Sets].
func (f *Fetcher) Symbology(ctx context.Context) (Result[Symbology], error) {
	return load(ctx, f, f.cache.Keyer.SymbologyKey(), "symbology", f.source.FetchSymbology)
}

// corruptRetries bounds how often a payload that fails to decode is
// dropped and reloaded.
const corruptRetries = 1

func load[T any](ctx context.Context, f *Fetcher, key, what string, fetch func(context.Context) (T, error)) (Result[T], error) {
	for try := 0; ; try++ {
		payload, src, err := f.cache.Metadata.Load(ctx, key, f.ttl, func(ctx context.Context) ([]byte, error) {
			var v T
			err := httputil.Retry(ctx, f.attempts, f.delay, func() error {
				var err error
				v, err = fetch(ctx)
				return err
			})
			if err != nil {
				return nil, err
			}
			return json.Marshal(v)
		})
		if err != nil {
			if ctx.Err() != nil {
				return Result[T]{}, ctx.Err()
			}
			return stale[T](f, key, what, err)
		}

		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			f.cache.Metadata.InvalidateOnError(key, err)
			if try < corruptRetries {
				continue
			}
			return Result[T]{}, errors.Wrap(errors.ErrCodeInternal, err, "decode %s", what)
		}

		status := Cached
		if src == cache.FromFetch {
			status = Fresh
		}
		return Result[T]{Value: v, Status: status}, nil
	}
}

func stale[T any](f *Fetcher, key, what string, cause error) (Result[T], error) {
	if e, ok := f.cache.Metadata.Stale(key); ok {
		var v T
		if err := json.Unmarshal(e.Payload, &v); err == nil {
			f.logger.Warn("source unavailable, serving stale "+what, "cached_at", e.CachedAt, "err", cause)
			return Result[T]{Value: v, Status: Stale, CachedAt: e.CachedAt}, nil
		}
	}
	return Result[T]{}, errors.Wrap(errors.ErrCodeSourceUnavailable, cause, "%s unavailable", what)
}

// Asset returns the bytes behind ref from the asset tier, downloading
// them on a miss. Invalid cached entries are dropped and fetched again.
// If the download cannot be stored the bytes are still returned.
func (f *Fetcher) Asset(ctx context.Context, ref string) ([]byte, error) {
	key := f.cache.Keyer.AssetKey(ref)
	if data, ok := f.cache.Assets.Load(ctx, key); ok {
		return data, nil
	}

	ch := f.assets.DoChan(key, func() (any, error) {
		detached := context.WithoutCancel(ctx)
		if data, ok := f.cache.Assets.Lookup(key); ok {
			return data, nil
		}
		var data []byte
		err := httputil.Retry(detached, f.attempts, f.delay, func() error {
			var err error
			data, err = f.source.FetchAsset(detached, ref)
			return err
		})
		if err != nil {
			return nil, assetError(ref, err)
		}
		if len(data) == 0 {
			return nil, errors.New(errors.ErrCodeSourceUnavailable, "asset %s is empty", ref)
		}
		if _, err := f.cache.Assets.Store(detached, key, data); err != nil {
			f.logger.Warn("asset not cached", "ref", ref, "err", err)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func assetError(ref string, err error) error {
	if stderrors.Is(err, httputil.ErrNotFound) {
		return errors.Wrap(errors.ErrCodeNotFound, err, "asset %s", ref)
	}
	return errors.Wrap(errors.ErrCodeSourceUnavailable, err, "asset %s", ref)
}

// Invalidate drops the cached listings so the next call refetches them.
func (f *Fetcher) Invalidate() {
	f.cache.Metadata.Invalidate(f.cache.Keyer.SetsKey())
	f.cache.Metadata.Invalidate(f.cache.Keyer.SymbologyKey())
}

package config

import (
	"context"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/catalog"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
	"github.com/matzehuels/labelsheet/pkg/template"
)

// OpenCache creates the cache manager described by c. When RedisURL is
// set the metadata tier is backed by Redis; otherwise by JSON files under
// CacheDir.
func (c Config) OpenCache(ctx context.Context, logger *log.Logger) (*cache.Manager, error) {
	var backend cache.Cache
	if c.RedisURL != "" {
		rc, err := cache.OpenRedis(ctx, c.RedisURL, c.Namespace)
		if err != nil {
			return nil, err
		}
		backend = rc
	} else if c.CacheDir != "" {
		fc, err := cache.NewFileCache(filepath.Join(c.CacheDir, "metadata"))
		if err != nil {
			return nil, err
		}
		backend = fc
	}
	return cache.NewManager(cache.Options{
		Dir:              c.CacheDir,
		MetadataTTL:      c.CacheTTL,
		MetadataCapacity: c.CacheCapacity,
		StaleTTL:         c.StaleTTL,
		AssetMaxBytes:    c.AssetMaxBytes,
		Backend:          backend,
		Namespace:        c.Namespace,
		Logger:           logger,
	})
}

// Scryfall creates the catalog source described by c.
func (c Config) Scryfall(logger *log.Logger) *catalog.ScryfallClient {
	return catalog.NewScryfallClient(
		catalog.WithBaseURL(c.ScryfallURL),
		catalog.WithUserAgent(c.UserAgent),
		catalog.WithRequestInterval(c.RateLimit),
		catalog.WithRequestTimeout(c.Timeout),
		catalog.WithScryfallLogger(logger),
	)
}

// Presets returns the built-in presets merged with PresetsFile.
func (c Config) Presets() (*template.Registry, error) {
	if c.PresetsFile == "" {
		return template.Builtin(), nil
	}
	user, err := template.LoadPresetsFile(c.PresetsFile)
	if err != nil {
		return nil, err
	}
	return template.Builtin().Merge(user), nil
}

// Runner wires a pipeline runner over src and mgr.
func (c Config) Runner(src catalog.Source, mgr *cache.Manager, logger *log.Logger) (*pipeline.Runner, error) {
	presets, err := c.Presets()
	if err != nil {
		return nil, err
	}
	f := catalog.NewFetcher(src, mgr,
		catalog.WithTTL(c.CacheTTL),
		catalog.WithLogger(logger))
	r := pipeline.NewRunner(f, presets, logger)
	r.Prefetch = c.Prefetch
	return r, nil
}

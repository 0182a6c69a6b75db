package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/catalog"
	"github.com/matzehuels/labelsheet/pkg/config"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// defaultOutput is the PDF written when -o is not given.
	defaultOutput = "labels.pdf"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is set by the --config flag.
	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// config loads the configuration once per process.
func (c *CLI) config() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	c.cfg = &cfg
	c.Logger.Debug("loaded config", "cache_dir", cfg.CacheDir, "redis", cfg.RedisURL != "")
	return cfg, nil
}

// =============================================================================
// Service Factory
// =============================================================================

// services bundles what the generating commands share.
type services struct {
	cfg    config.Config
	cache  *cache.Manager
	runner *pipeline.Runner
}

func (s *services) Close() error {
	return s.cache.Close()
}

// fetcher returns the runner's catalog fetcher.
func (s *services) fetcher() *catalog.Fetcher {
	return s.runner.Fetcher
}

// newServices opens the cache and builds a pipeline runner over Scryfall.
// Callers must Close the result.
func (c *CLI) newServices(ctx context.Context) (*services, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	mgr, err := cfg.OpenCache(ctx, c.Logger)
	if err != nil {
		return nil, err
	}
	runner, err := cfg.Runner(cfg.Scryfall(c.Logger), mgr, c.Logger)
	if err != nil {
		mgr.Close()
		return nil, err
	}
	return &services{cfg: cfg, cache: mgr, runner: runner}, nil
}

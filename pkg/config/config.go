// Package config loads labelsheet settings.
//
// Settings are layered, later sources winning:
//
//  1. built-in defaults ([Default])
//  2. a TOML file (~/.config/labelsheet/config.toml or an explicit path)
//  3. a .env file in the working directory
//  4. LABELSHEET_* environment variables
//
// Command-line flags are applied on top by the CLI.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/labelsheet/pkg/buildinfo"
	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/catalog"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/httputil"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
)

// AppName names the config and cache directories.
const AppName = "labelsheet"

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "LABELSHEET_"

// Config holds all runtime settings.
type Config struct {
	// Cache
	CacheDir      string        `toml:"cache_dir"`
	CacheTTL      time.Duration `toml:"cache_ttl"`
	CacheCapacity int           `toml:"cache_capacity"`
	StaleTTL      time.Duration `toml:"stale_ttl"`
	AssetMaxBytes int64         `toml:"asset_max_bytes"`
	RedisURL      string        `toml:"redis_url"`
	Namespace     string        `toml:"namespace"`

	// Templates
	PresetsFile string `toml:"presets_file"`

	// Catalog source
	ScryfallURL string        `toml:"scryfall_url"`
	UserAgent   string        `toml:"user_agent"`
	RateLimit   time.Duration `toml:"rate_limit"`
	Timeout     time.Duration `toml:"timeout"`
	Prefetch    int           `toml:"prefetch"`

	// Server
	Listen string `toml:"listen"`
}

// Default returns the built-in settings. CacheDir is resolved from the
// XDG cache directory when possible.
func Default() Config {
	dir, _ := DefaultCacheDir()
	return Config{
		CacheDir:      dir,
		CacheTTL:      cache.DefaultMetadataTTL,
		CacheCapacity: cache.DefaultMetadataCapacity,
		StaleTTL:      cache.DefaultStaleTTL,
		AssetMaxBytes: 64 << 20,
		ScryfallURL:   catalog.DefaultBaseURL,
		UserAgent:     buildinfo.UserAgent(),
		RateLimit:     catalog.DefaultRateLimit,
		Timeout:       httputil.DefaultTimeout,
		Prefetch:      pipeline.DefaultPrefetch,
		Listen:        ":8080",
	}
}

// Load builds a Config from defaults, the TOML file at path (or the
// default location when path is empty), a .env file and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path, _ = DefaultConfigPath()
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			if explicit || !stderrors.Is(err, fs.ErrNotExist) {
				return cfg, err
			}
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if err := cfg.LoadEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadFile overlays the keys present in a TOML file.
func (c *Config) LoadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return err
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "config file %s", path)
	}
	return nil
}

// LoadDotEnv loads a .env file into the process environment. Variables
// already set are kept, and a missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInvalidInput, err, "load %s", path)
}

// LoadEnv overlays LABELSHEET_* variables read through lookup. PORT is
// honoured for the listen address when LABELSHEET_LISTEN is unset.
func (c *Config) LoadEnv(lookup func(string) (string, bool)) error {
	for _, v := range envVars {
		s, ok := lookup(EnvPrefix + v.name)
		if !ok || s == "" {
			continue
		}
		if err := v.set(c, s); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s%s", EnvPrefix, v.name)
		}
	}
	if _, ok := lookup(EnvPrefix + "LISTEN"); !ok {
		if port, ok := lookup("PORT"); ok && port != "" {
			c.Listen = ":" + port
		}
	}
	return nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c Config) Validate() error {
	switch {
	case c.CacheTTL <= 0:
		return errors.New(errors.ErrCodeInvalidInput, "cache_ttl must be positive")
	case c.CacheCapacity < 1:
		return errors.New(errors.ErrCodeInvalidInput, "cache_capacity must be at least 1")
	case c.StaleTTL < 0:
		return errors.New(errors.ErrCodeInvalidInput, "stale_ttl must not be negative")
	case c.AssetMaxBytes < 0:
		return errors.New(errors.ErrCodeInvalidInput, "asset_max_bytes must not be negative")
	case c.RateLimit < 0:
		return errors.New(errors.ErrCodeInvalidInput, "rate_limit must not be negative")
	case c.Timeout <= 0:
		return errors.New(errors.ErrCodeInvalidInput, "timeout must be positive")
	case c.Prefetch < 1:
		return errors.New(errors.ErrCodeInvalidInput, "prefetch must be at least 1")
	}
	return nil
}

// DefaultCacheDir returns the cache directory using the XDG standard
// (~/.cache/labelsheet/).
func DefaultCacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// DefaultConfigPath returns ~/.config/labelsheet/config.toml, honouring
// XDG_CONFIG_HOME.
func DefaultConfigPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

type envVar struct {
	name string
	set  func(*Config, string) error
}

var envVars = []envVar{
	{"CACHE_DIR", str(func(c *Config) *string { return &c.CacheDir })},
	{"CACHE_TTL", dur(func(c *Config) *time.Duration { return &c.CacheTTL })},
	{"CACHE_CAPACITY", integer(func(c *Config) *int { return &c.CacheCapacity })},
	{"STALE_TTL", dur(func(c *Config) *time.Duration { return &c.StaleTTL })},
	{"ASSET_MAX_BYTES", func(c *Config, s string) error {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %q", s)
		}
		c.AssetMaxBytes = n
		return nil
	}},
	{"REDIS_URL", str(func(c *Config) *string { return &c.RedisURL })},
	{"NAMESPACE", str(func(c *Config) *string { return &c.Namespace })},
	{"PRESETS_FILE", str(func(c *Config) *string { return &c.PresetsFile })},
	{"SCRYFALL_URL", str(func(c *Config) *string { return &c.ScryfallURL })},
	{"USER_AGENT", str(func(c *Config) *string { return &c.UserAgent })},
	{"RATE_LIMIT", dur(func(c *Config) *time.Duration { return &c.RateLimit })},
	{"TIMEOUT", dur(func(c *Config) *time.Duration { return &c.Timeout })},
	{"PREFETCH", integer(func(c *Config) *int { return &c.Prefetch })},
	{"LISTEN", str(func(c *Config) *string { return &c.Listen })},
}

func str(field func(*Config) *string) func(*Config, string) error {
	return func(c *Config, s string) error {
		*field(c) = s
		return nil
	}
}

func dur(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, s string) error {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

func integer(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not an integer: %q", s)
		}
		*field(c) = n
		return nil
	}
}

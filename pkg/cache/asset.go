package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/observability"
)

const (
	tierAsset = "asset"

	assetExt    = ".bin"
	checksumExt = ".sha256"
)

// AssetOptions configures an [AssetCache].
type AssetOptions struct {
	// MaxBytes caps the total size of stored assets. 0 means unbounded.
	MaxBytes int64
	Logger   *log.Logger
}

// AssetCache stores downloaded assets as files keyed by the SHA-256 of
// their remote reference, each with a checksum sidecar.
//
// When MaxBytes is exceeded after a Store, the least recently used files
// are removed first. A successful Load refreshes a file's modification
// time, so mtime order is use order.
type AssetCache struct {
	dir      string
	maxBytes int64
	stats    Stats
	logger   *log.Logger

	// evictMu serializes capacity sweeps.
	evictMu sync.Mutex
}

// NewAssetCache creates an asset cache rooted at dir.
func NewAssetCache(dir string, opts AssetOptions) (*AssetCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &AssetCache{dir: dir, maxBytes: opts.MaxBytes, logger: opts.Logger}, nil
}

// Dir returns the cache directory.
func (c *AssetCache) Dir() string { return c.dir }

// Path returns the file path for key.
func (c *AssetCache) Path(key string) string {
	if len(key) < 3 {
		return filepath.Join(c.dir, key+assetExt)
	}
	return filepath.Join(c.dir, key[:2], key[2:]+assetExt)
}

func (c *AssetCache) checksumPath(key string) string {
	return strings.TrimSuffix(c.Path(key), assetExt) + checksumExt
}

// Has reports whether a file exists for key. It does not check integrity.
func (c *AssetCache) Has(key string) bool {
	_, err := os.Stat(c.Path(key))
	return err == nil
}

// Store writes data for key and returns its path. A write failure yields a
// CACHE_WRITE_FAILED error; callers should continue with the bytes they hold.
func (c *AssetCache) Store(ctx context.Context, key string, data []byte) (string, error) {
	path := c.Path(key)
	if len(data) == 0 {
		return "", errors.New(errors.ErrCodeCacheWriteFailed, "refusing to cache empty asset %s", key)
	}
	if err := writeFileAtomic(path, data); err != nil {
		c.stats.failure()
		return "", errors.Wrap(errors.ErrCodeCacheWriteFailed, err, "store asset %s", key)
	}
	sum := sha256.Sum256(data)
	if err := writeFileAtomic(c.checksumPath(key), []byte(hex.EncodeToString(sum[:]))); err != nil {
		c.stats.failure()
		_ = os.Remove(path)
		return "", errors.Wrap(errors.ErrCodeCacheWriteFailed, err, "store checksum %s", key)
	}
	observability.Cache().OnCacheSet(ctx, tierAsset, len(data))

	if c.maxBytes > 0 {
		if n := c.evict(key); n > 0 {
			observability.Cache().OnCacheEvict(ctx, tierAsset, "capacity", n)
		}
	}
	return path, nil
}

// Validate reports whether the entry for key exists, is non-empty and
// matches its recorded checksum. Entries without a sidecar skip the
// checksum comparison.
func (c *AssetCache) Validate(key string) bool {
	_, err := c.read(key)
	return err == nil
}

func (c *AssetCache) read(key string) ([]byte, error) {
	data, err := os.ReadFile(c.Path(key))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrCorrupt
	}
	want, err := os.ReadFile(c.checksumPath(key))
	if os.IsNotExist(err) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	if !bytes.Equal(bytes.TrimSpace(want), []byte(hex.EncodeToString(sum[:]))) {
		return nil, ErrCorrupt
	}
	return data, nil
}

// Load returns the validated bytes for key. A corrupt entry is deleted
// and reported as a miss so the caller re-fetches it.
func (c *AssetCache) Load(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.read(key)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("discarding invalid asset", "key", key, "err", err)
			_ = c.Delete(key)
			observability.Cache().OnCacheEvict(ctx, tierAsset, "corrupt", 1)
		}
		c.stats.miss()
		observability.Cache().OnCacheMiss(ctx, tierAsset)
		return nil, false
	}
	now := time.Now()
	_ = os.Chtimes(c.Path(key), now, now)
	c.stats.hit()
	observability.Cache().OnCacheHit(ctx, tierAsset)
	return data, true
}

// Lookup returns the validated bytes for key without touching stats,
// hooks or the entry itself. It serves re-checks after a counted miss.
func (c *AssetCache) Lookup(key string) ([]byte, bool) {
	data, err := c.read(key)
	return data, err == nil
}

// Delete removes the entry for key and its checksum.
func (c *AssetCache) Delete(key string) error {
	err := os.Remove(c.Path(key))
	_ = os.Remove(c.checksumPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

type assetFile struct {
	key     string
	size    int64
	modTime time.Time
}

func (c *AssetCache) list() ([]assetFile, error) {
	var files []assetFile
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, assetExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(c.dir, path)
		key := strings.TrimSuffix(strings.ReplaceAll(rel, string(filepath.Separator), ""), assetExt)
		files = append(files, assetFile{key: key, size: info.Size(), modTime: info.ModTime()})
		return nil
	})
	return files, err
}

// Usage returns the number of stored assets and their total size.
func (c *AssetCache) Usage() (int, int64, error) {
	files, err := c.list()
	if err != nil {
		return 0, 0, err
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	return len(files), total, nil
}

// evict removes the least recently used files until the total size fits
// MaxBytes. The entry just written under keep is never removed.
func (c *AssetCache) evict(keep string) int {
	c.evictMu.Lock()
	defer c.evictMu.Unlock()

	files, err := c.list()
	if err != nil {
		c.logger.Warn("asset eviction scan failed", "err", err)
		return 0
	}
	var total int64
	for _, f := range files {
		total += f.size
	}
	if total <= c.maxBytes {
		return 0
	}

	slices.SortFunc(files, func(a, b assetFile) int {
		return a.modTime.Compare(b.modTime)
	})
	removed := 0
	for _, f := range files {
		if total <= c.maxBytes {
			break
		}
		if f.key == keep {
			continue
		}
		if err := c.Delete(f.key); err != nil {
			continue
		}
		total -= f.size
		removed++
	}
	c.logger.Debug("evicted assets", "count", removed, "bytes", total)
	return removed
}

// Clear removes every stored asset and returns how many were removed.
func (c *AssetCache) Clear() (int, error) {
	files, err := c.list()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range files {
		if c.Delete(f.key) == nil {
			n++
		}
	}
	return n, nil
}

// Stats returns the tier's counters.
func (c *AssetCache) Stats() *Stats {
	return &c.stats
}

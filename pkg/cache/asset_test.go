package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/matzehuels/labelsheet/pkg/errors"
)

func TestAssetStoreAndLoad(t *testing.T) {
	ctx := context.Background()
	c, err := NewAssetCache(t.TempDir(), AssetOptions{})
	if err != nil {
		t.Fatal(err)
	}
	key := NewDefaultKeyer().AssetKey("https://svgs.scryfall.io/sets/neo.svg")

	if c.Has(key) || c.Validate(key) {
		t.Fatal("empty cache should not have the key")
	}
	if _, ok := c.Load(ctx, key); ok {
		t.Fatal("Load should miss")
	}

	path, err := c.Store(ctx, key, []byte("<svg/>"))
	if err != nil {
		t.Fatal(err)
	}
	if path != c.Path(key) {
		t.Errorf("Store() path = %q, want %q", path, c.Path(key))
	}
	if !c.Has(key) || !c.Validate(key) {
		t.Error("stored asset should validate")
	}
	data, ok := c.Load(ctx, key)
	if !ok || string(data) != "<svg/>" {
		t.Errorf("Load() = %q, %v", data, ok)
	}
	if s := c.Stats().Snapshot(); s.Hits != 1 || s.Misses != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestAssetLookupIsUncounted(t *testing.T) {
	ctx := context.Background()
	c, err := NewAssetCache(t.TempDir(), AssetOptions{})
	if err != nil {
		t.Fatal(err)
	}
	key := NewDefaultKeyer().AssetKey("https://svgs.scryfall.io/sets/dmu.svg")

	if _, ok := c.Lookup(key); ok {
		t.Fatal("Lookup should miss on an empty cache")
	}
	if _, err := c.Store(ctx, key, []byte("<svg/>")); err != nil {
		t.Fatal(err)
	}
	data, ok := c.Lookup(key)
	if !ok || string(data) != "<svg/>" {
		t.Errorf("Lookup() = %q, %v", data, ok)
	}
	if snap := c.Stats().Snapshot(); snap.Hits != 0 || snap.Misses != 0 {
		t.Errorf("Lookup should not count, got %+v", snap)
	}
}

func TestAssetValidateZeroLength(t *testing.T) {
	ctx := context.Background()
	c, _ := NewAssetCache(t.TempDir(), AssetOptions{})
	key := Hash([]byte("ref"))
	if _, err := c.Store(ctx, key, []byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.Path(key), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if c.Validate(key) {
		t.Fatal("zero-length file must fail validation")
	}
	if _, ok := c.Load(ctx, key); ok {
		t.Fatal("Load should miss on a corrupt entry")
	}
	if c.Has(key) {
		t.Error("corrupt entry should be deleted")
	}
}

func TestAssetValidateChecksum(t *testing.T) {
	ctx := context.Background()
	c, _ := NewAssetCache(t.TempDir(), AssetOptions{})
	key := Hash([]byte("ref"))
	if _, err := c.Store(ctx, key, []byte("original")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.Path(key), []byte("tampered"), 0o644); err != nil {
		t.Fatal(err)
	}
	if c.Validate(key) {
		t.Error("checksum mismatch must fail validation")
	}
}

func TestAssetStoreFailure(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewAssetCache(dir, AssetOptions{})
	key := Hash([]byte("ref"))

	// A regular file where the shard directory should be blocks the write.
	if err := os.WriteFile(c.Path(key)[:len(dir)+3], []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := c.Store(context.Background(), key, []byte("data"))
	if !errors.Is(err, errors.ErrCodeCacheWriteFailed) {
		t.Errorf("err = %v, want CACHE_WRITE_FAILED", err)
	}
}

func TestAssetEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, _ := NewAssetCache(t.TempDir(), AssetOptions{MaxBytes: 25})

	keys := []string{Hash([]byte("a")), Hash([]byte("b")), Hash([]byte("c"))}
	base := time.Now().Add(-time.Hour)
	for i, k := range keys[:2] {
		if _, err := c.Store(ctx, k, []byte("0123456789")); err != nil {
			t.Fatal(err)
		}
		mt := base.Add(time.Duration(i) * time.Minute)
		_ = os.Chtimes(c.Path(k), mt, mt)
	}

	// Reading "a" makes "b" the least recently used.
	if _, ok := c.Load(ctx, keys[0]); !ok {
		t.Fatal("a should load")
	}
	if _, err := c.Store(ctx, keys[2], []byte("0123456789")); err != nil {
		t.Fatal(err)
	}

	if c.Has(keys[1]) {
		t.Error("least recently used asset should be evicted")
	}
	if !c.Has(keys[0]) || !c.Has(keys[2]) {
		t.Error("recent assets should remain")
	}
	n, size, err := c.Usage()
	if err != nil || n != 2 || size != 20 {
		t.Errorf("Usage() = %d, %d, %v", n, size, err)
	}
}

func TestAssetClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewAssetCache(t.TempDir(), AssetOptions{})
	for _, ref := range []string{"a", "b", "c"} {
		if _, err := c.Store(ctx, Hash([]byte(ref)), []byte(ref)); err != nil {
			t.Fatal(err)
		}
	}
	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Fatalf("Clear() = %d, %v", n, err)
	}
	if n, _, _ := c.Usage(); n != 0 {
		t.Errorf("Usage() after Clear = %d", n)
	}
}

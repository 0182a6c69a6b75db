package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Fatal("empty cache should miss")
	}
	if err := c.Set(ctx, "k", []byte("payload"), time.Hour); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "payload" {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting a missing key should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed")
	}
}

func TestFileCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if _, found, err := c.TTL(ctx, "missing"); found || err != nil {
		t.Errorf("missing key: found=%v err=%v", found, err)
	}

	_ = c.Set(ctx, "sets", []byte("v"), time.Minute)
	left, found, err := c.TTL(ctx, "sets")
	if err != nil || !found || left <= 0 || left > time.Minute {
		t.Errorf("TTL() = %v %v %v", left, found, err)
	}

	_ = c.Set(ctx, "forever", []byte("v"), 0)
	if left, found, _ := c.TTL(ctx, "forever"); !found || left != 0 {
		t.Errorf("TTL() without expiry = %v %v", left, found)
	}

	_ = c.Set(ctx, "old", []byte("v"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	if _, found, _ := c.TTL(ctx, "old"); found {
		t.Error("expired entry should not be found")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := writeFileAtomic(c.path("k"), []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || hit || data != nil {
		t.Errorf("corrupt entry should be a silent miss, got %q %v %v", data, hit, err)
	}
}

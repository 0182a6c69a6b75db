package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestMetadata(opts MetadataOptions) *MetadataCache {
	return NewMetadataCache(opts)
}

func TestMetadataGetIsIdempotent(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	c.Put("sets", []byte("payload"), time.Hour)

	first, ok1 := c.Get("sets")
	second, ok2 := c.Get("sets")
	if !ok1 || !ok2 || string(first) != "payload" || string(second) != "payload" {
		t.Fatalf("Get() = %q/%v, %q/%v", first, ok1, second, ok2)
	}
	if got := c.Stats().Hits(); got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
	if got := c.Stats().Misses(); got != 0 {
		t.Errorf("misses = %d, want 0", got)
	}
}

func TestMetadataExpiry(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	c.Put("sets", []byte("old"), 20*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	if _, ok := c.Get("sets"); ok {
		t.Fatal("expired entry should be absent")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed, Len() = %d", c.Len())
	}

	c.Put("sets", []byte("new"), time.Hour)
	if data, ok := c.Get("sets"); !ok || string(data) != "new" {
		t.Errorf("Get() after re-put = %q, %v", data, ok)
	}
}

func TestMetadataTTLDoesNotSlide(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	e := c.Put("sets", []byte("v"), 60*time.Millisecond)
	for range 3 {
		time.Sleep(15 * time.Millisecond)
		c.Get("sets")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("sets"); ok {
		t.Errorf("reads must not extend expiry (expires at %v)", e.ExpiresAt)
	}
}

func TestMetadataLRUReplacement(t *testing.T) {
	c := newTestMetadata(MetadataOptions{Capacity: 2})
	c.Put("a", []byte("1"), time.Hour)
	c.Put("b", []byte("2"), time.Hour)
	c.Get("a")
	c.Put("c", []byte("3"), time.Hour)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should be replaced")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestMetadataGetJSONCorrupt(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	c.Put("sets", []byte("{broken"), time.Hour)

	var v []string
	if c.GetJSON("sets", &v) {
		t.Fatal("corrupt payload should be a miss")
	}
	if c.Stats().Misses() != 1 || c.Stats().Hits() != 0 {
		t.Errorf("stats = %+v", c.Stats().Snapshot())
	}
	if _, ok := c.Stale("sets"); ok {
		t.Error("corrupt payload should be dropped from the stale shelf")
	}

	c.Put("sets", []byte(`["neo"]`), time.Hour)
	if !c.GetJSON("sets", &v) || len(v) != 1 || v[0] != "neo" {
		t.Errorf("GetJSON() = %v", v)
	}
}

func TestMetadataInvalidateOnError(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	c.Put("sets", []byte("payload"), time.Hour)

	c.InvalidateOnError("sets", errors.New("decode failed"))
	if _, ok := c.Get("sets"); ok {
		t.Error("entry should be gone from the live tier")
	}
	if _, ok := c.Stale("sets"); ok {
		t.Error("entry should be gone from the stale shelf")
	}
	if got := c.Stats().Snapshot().Errors; got != 1 {
		t.Errorf("Errors = %d, want 1", got)
	}
}

func TestMetadataStaleShelf(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	c.Put("sets", []byte("last good"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("sets"); ok {
		t.Fatal("live entry should have expired")
	}
	e, ok := c.Stale("sets")
	if !ok || string(e.Payload) != "last good" {
		t.Fatalf("Stale() = %+v, %v", e, ok)
	}
	if e.CachedAt.IsZero() || !e.ExpiresAt.After(e.CachedAt) {
		t.Errorf("entry times not set: %+v", e)
	}
}

func TestMetadataLoadSingleFlight(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("fresh"), nil
	}

	const n = 20
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, _, err := c.Load(context.Background(), "sets", time.Hour, fetch)
			results[i], errs[i] = string(data), err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch called %d times, want 1", got)
	}
	for i := range n {
		if errs[i] != nil || results[i] != "fresh" {
			t.Errorf("caller %d got %q, %v", i, results[i], errs[i])
		}
	}
}

func TestMetadataLoadSources(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = backend.Set(ctx, "symbology", []byte("from disk"), time.Hour)

	c := newTestMetadata(MetadataOptions{Backend: backend})
	fetch := func(context.Context) ([]byte, error) { return []byte("from source"), nil }

	data, src, err := c.Load(ctx, "symbology", time.Hour, fetch)
	if err != nil || src != FromBackend || string(data) != "from disk" {
		t.Errorf("first Load = %q %v %v", data, src, err)
	}
	data, src, _ = c.Load(ctx, "symbology", time.Hour, fetch)
	if src != FromMemory || string(data) != "from disk" {
		t.Errorf("second Load = %q %v", data, src)
	}

	data, src, _ = c.Load(ctx, "sets", time.Hour, fetch)
	if src != FromFetch || string(data) != "from source" {
		t.Errorf("fetch Load = %q %v", data, src)
	}
	if stored, hit, _ := backend.Get(ctx, "sets"); !hit || string(stored) != "from source" {
		t.Error("fetched payload should be written through to the backend")
	}
}

func TestMetadataLoadKeepsBackendExpiry(t *testing.T) {
	ctx := context.Background()
	backend, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_ = backend.Set(ctx, "sets", []byte("almost stale"), time.Minute)
	_ = backend.Set(ctx, "symbology", []byte("forever"), 0)

	c := newTestMetadata(MetadataOptions{Backend: backend})
	fetch := func(context.Context) ([]byte, error) { return nil, errors.New("unreachable") }

	for _, key := range []string{"sets", "symbology"} {
		if _, src, err := c.Load(ctx, key, time.Hour, fetch); err != nil || src != FromBackend {
			t.Fatalf("Load(%s) = %v %v", key, src, err)
		}
	}

	e, ok := c.lookup("sets")
	if !ok {
		t.Fatal("sets should be in memory")
	}
	if e.ExpiresAt.After(time.Now().Add(time.Minute)) {
		t.Errorf("promoted entry expires at %v, beyond the backend's remaining minute", e.ExpiresAt)
	}

	e, ok = c.lookup("symbology")
	if !ok {
		t.Fatal("symbology should be in memory")
	}
	if e.ExpiresAt.Before(time.Now().Add(59 * time.Minute)) {
		t.Errorf("entry without backend expiry should get the full ttl, expires at %v", e.ExpiresAt)
	}
}

func TestMetadataLoadError(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	boom := errors.New("boom")
	_, _, err := c.Load(context.Background(), "sets", time.Hour, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Error("failed fetch must not populate the cache")
	}
}

func TestMetadataLoadCancelled(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	block := make(chan struct{})
	defer close(block)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, _, err := c.Load(ctx, "sets", time.Hour, func(context.Context) ([]byte, error) {
		<-block
		return []byte("late"), nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestMetadataClear(t *testing.T) {
	c := newTestMetadata(MetadataOptions{})
	c.Put("a", []byte("1"), time.Hour)
	c.Clear()
	if c.Len() != 0 {
		t.Error("Clear should remove entries")
	}
	if _, ok := c.Stale("a"); ok {
		t.Error("Clear should empty the stale shelf")
	}
}

package presence

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/HM18042005/UrbanEase-sub000/internal/infrastructure/cache/port"
)

// memoryCache is an in-process port.Cache used to test the mirror without redis.
type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
	fail   bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]string)}
}

var errCacheDown = errors.New("cache down")

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return "", errCacheDown
	}
	v, ok := c.values[key]
	if !ok {
		return "", port.ErrMiss
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errCacheDown
	}
	c.values[key] = value
	return nil
}

func (c *memoryCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return 0, errCacheDown
	}
	n, _ := strconv.ParseInt(c.values[key], 10, 64)
	n++
	c.values[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return 0, errCacheDown
	}
	var removed int64
	for _, key := range keys {
		if _, ok := c.values[key]; ok {
			delete(c.values, key)
			removed++
		}
	}
	return removed, nil
}

func (c *memoryCache) Ping(ctx context.Context) error { return nil }
func (c *memoryCache) Close() error                   { return nil }

func TestMirrorOnlineFlag(t *testing.T) {
	cache := newMemoryCache()
	m := NewMirror(cache)
	ctx := context.Background()

	if m.IsOnline(ctx, "u1") {
		t.Fatal("expected offline before any event")
	}
	m.SetOnline(ctx, "u1")
	if !m.IsOnline(ctx, "u1") {
		t.Fatal("expected online after SetOnline")
	}
	m.SetOffline(ctx, "u1")
	if m.IsOnline(ctx, "u1") {
		t.Fatal("expected offline after SetOffline")
	}
}

func TestMirrorUnreadCounter(t *testing.T) {
	cache := newMemoryCache()
	m := NewMirror(cache)
	ctx := context.Background()

	if got := m.UnreadCount(ctx, "conv_u1_u2", "u1"); got != 0 {
		t.Fatalf("expected 0 for a fresh counter, got %d", got)
	}
	m.IncrementUnread(ctx, "conv_u1_u2", "u1")
	m.IncrementUnread(ctx, "conv_u1_u2", "u1")
	if got := m.UnreadCount(ctx, "conv_u1_u2", "u1"); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}

	// Counters are scoped per conversation and per user.
	if got := m.UnreadCount(ctx, "conv_u1_u2", "u2"); got != 0 {
		t.Fatalf("other participant's counter leaked: %d", got)
	}

	m.ResetUnread(ctx, "conv_u1_u2", "u1")
	if got := m.UnreadCount(ctx, "conv_u1_u2", "u1"); got != 0 {
		t.Fatalf("expected reset counter, got %d", got)
	}
}

func TestMirrorIsBestEffortOnCacheFaults(t *testing.T) {
	cache := newMemoryCache()
	cache.fail = true
	m := NewMirror(cache)
	ctx := context.Background()

	// Faults degrade to "offline" and "zero unread", never to a panic or error.
	m.SetOnline(ctx, "u1")
	if m.IsOnline(ctx, "u1") {
		t.Fatal("fault must read as offline")
	}
	m.IncrementUnread(ctx, "conv_u1_u2", "u1")
	if got := m.UnreadCount(ctx, "conv_u1_u2", "u1"); got != 0 {
		t.Fatalf("fault must read as zero, got %d", got)
	}
}

func TestMirrorNilReceiverAndCache(t *testing.T) {
	var m *Mirror
	ctx := context.Background()
	m.SetOnline(ctx, "u1")
	if m.IsOnline(ctx, "u1") {
		t.Fatal("nil mirror must read as offline")
	}

	m = NewMirror(nil)
	m.IncrementUnread(ctx, "conv_u1_u2", "u1")
	if got := m.UnreadCount(ctx, "conv_u1_u2", "u1"); got != 0 {
		t.Fatalf("nil cache must read as zero, got %d", got)
	}
}

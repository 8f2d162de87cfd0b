package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestDeduper(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisDeduper) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisDeduper(rdb, ttl)
}

func TestRedisDeduper_MarkSeenThenSeen(t *testing.T) {
	t.Parallel()

	mr, d := newTestDeduper(t, 10*time.Second)
	defer mr.Close()

	ctx := context.Background()

	seen, err := d.Seen(ctx, "wamid.1")
	if err != nil {
		t.Fatalf("Seen() error: %v", err)
	}
	if seen {
		t.Fatalf("expected wamid.1 unseen before MarkSeen")
	}

	if err := d.MarkSeen(ctx, "wamid.1"); err != nil {
		t.Fatalf("MarkSeen() error: %v", err)
	}

	seen, err = d.Seen(ctx, "wamid.1")
	if err != nil {
		t.Fatalf("Seen() error: %v", err)
	}
	if !seen {
		t.Fatalf("expected wamid.1 seen after MarkSeen")
	}

	// Other ids stay unseen.
	seen, err = d.Seen(ctx, "wamid.2")
	if err != nil {
		t.Fatalf("Seen() error: %v", err)
	}
	if seen {
		t.Fatalf("expected wamid.2 unseen")
	}
}

func TestRedisDeduper_EntriesExpire(t *testing.T) {
	t.Parallel()

	mr, d := newTestDeduper(t, time.Second)
	defer mr.Close()

	ctx := context.Background()

	if err := d.MarkSeen(ctx, "wamid.1"); err != nil {
		t.Fatalf("MarkSeen() error: %v", err)
	}

	if ttl := mr.TTL("wamsg:wamid.1"); ttl <= 0 {
		t.Fatalf("expected TTL to be set, got %v", ttl)
	}

	mr.FastForward(2 * time.Second)

	seen, err := d.Seen(ctx, "wamid.1")
	if err != nil {
		t.Fatalf("Seen() error: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire after TTL")
	}
}

func TestRedisDeduper_ContextCanceled(t *testing.T) {
	t.Parallel()

	mr, d := newTestDeduper(t, time.Second)
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.MarkSeen(ctx, "wamid.1"); err == nil {
		t.Fatalf("expected error due to canceled context, got nil")
	}
}

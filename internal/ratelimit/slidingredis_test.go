package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestSlidingWindowAllow(t *testing.T) {
	client, mr := newClient(t)
	limiter := SlidingWindow{Client: client, Prefix: "test:"}

	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		d, err := limiter.Allow(ctx, "key", window, max)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if d.Remaining != max-(i+1) {
			t.Fatalf("unexpected remaining: %d", d.Remaining)
		}
	}

	d, err := limiter.Allow(ctx, "key", window, max)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("expected third request to be rejected")
	}
	if d.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", d.Remaining)
	}

	mr.FastForward(window)

	d, err = limiter.Allow(ctx, "key", window, max)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !d.Allowed {
		t.Fatal("expected request after window to be allowed")
	}
}

func TestSlidingWindowReset(t *testing.T) {
	client, _ := newClient(t)
	limiter := SlidingWindow{Client: client, Prefix: "login:"}
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, "203.0.113.9", time.Minute, 1); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d, _ := limiter.Allow(ctx, "203.0.113.9", time.Minute, 1); d.Allowed {
		t.Fatal("expected second attempt to be rejected")
	}
	if err := limiter.Reset(ctx, "203.0.113.9"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if d, _ := limiter.Allow(ctx, "203.0.113.9", time.Minute, 1); !d.Allowed {
		t.Fatal("expected attempt after reset to be allowed")
	}
}

func TestSlidingWindowWithoutClientAllows(t *testing.T) {
	d, err := SlidingWindow{}.Allow(context.Background(), "k", time.Minute, 3)
	if err != nil || !d.Allowed || d.Remaining != 3 {
		t.Fatalf("unexpected decision %+v err=%v", d, err)
	}
}

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/janisto/dating-onboarding/internal/testutil"
)

func TestRedisWindow(t *testing.T) {
	addr := testutil.SkipIfRedisUnavailable(t)
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	namespace := "test-ratelimit-" + t.Name()
	ip := "198.51.100.7"
	t.Cleanup(func() { _ = client.Del(ctx, namespace+":"+ip).Err() })

	limiter := NewRedisWindow(client, namespace, 2, 500*time.Millisecond)
	for i := range 2 {
		d, err := limiter.Allow(ctx, ip)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !d.Allowed || d.Remaining != 1-i {
			t.Fatalf("request %d: unexpected decision %+v", i, d)
		}
	}

	d, err := limiter.Allow(ctx, ip)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed {
		t.Fatal("third request should be limited")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > 500*time.Millisecond {
		t.Fatalf("unexpected retry after %v", d.RetryAfter)
	}

	time.Sleep(600 * time.Millisecond)
	if d, err := limiter.Allow(ctx, ip); err != nil || !d.Allowed {
		t.Fatalf("window should have reset, got %+v %v", d, err)
	}
}

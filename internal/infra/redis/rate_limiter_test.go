//go:build !integration

package redis

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (f *fakeCounter) Ping(ctx context.Context) error { return nil }
func (f *fakeCounter) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (f *fakeCounter) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (f *fakeCounter) Incr(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	return f.counts[key], nil
}
func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (f *fakeCounter) Del(ctx context.Context, keys ...string) error { return nil }
func (f *fakeCounter) Close() error                                  { return nil }

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(&fakeCounter{})
	key := InitiateKey("A@B.com")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Error("request over the limit should be denied")
	}
}

func TestInitiateKey_Normalizes(t *testing.T) {
	if InitiateKey("A@B.com") != InitiateKey("a@b.com") {
		t.Error("keys must be case-insensitive on the email")
	}
}

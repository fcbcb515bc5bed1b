package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWindowLimiter(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l := NewWindowLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow(ctx, "ip-1"); !ok {
			t.Fatalf("expected request %d to be allowed", i+1)
		}
	}

	ok, wait := l.Allow(ctx, "ip-1")
	if ok {
		t.Fatal("expected the third request to be limited")
	}
	if wait != time.Minute {
		t.Errorf("expected wait %v, got %v", time.Minute, wait)
	}

	if ok, _ := l.Allow(ctx, "ip-2"); !ok {
		t.Error("expected a different key to be allowed")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "ip-1"); !ok {
		t.Error("expected the window to reset")
	}
}

func TestSlidingWindowLimiterWithoutRedis(t *testing.T) {
	l := NewSlidingWindowLimiter(nil, 1, time.Second)
	if ok, wait := l.Allow(context.Background(), "k"); !ok || wait != 0 {
		t.Errorf("expected allow without redis, got %v %v", ok, wait)
	}
}

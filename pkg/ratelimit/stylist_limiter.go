// Package ratelimit throttles expensive endpoints per caller.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter decides whether key may make another request. When it may not,
// the returned duration is how long until it can.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration)
}

// =============================================================================
// SlidingWindowLimiter - Redis 기반 Sliding Window Rate Limiter
// =============================================================================

var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local max_requests = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < max_requests then
		redis.call('ZADD', key, now, now .. '-' .. math.random())
		redis.call('PEXPIRE', key, window_ms * 2)
		return 1
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	if #oldest > 0 then
		return -(oldest[2] + window_ms - now)
	end
	return 0
`)

// SlidingWindowLimiter shares limits across instances through Redis. Redis
// failures allow the request.
type SlidingWindowLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewSlidingWindowLimiter(redisClient *redis.Client, limit int, window time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}
}

func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l.redis == nil {
		return true, 0
	}

	now := time.Now()
	result, err := slidingWindowScript.Run(ctx, l.redis, []string{fmt.Sprintf("%s%s", l.prefix, key)},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
	).Int64()
	if err != nil {
		return true, 0
	}

	if result == 1 {
		return true, 0
	}
	if result < 0 {
		return false, time.Duration(-result) * time.Millisecond
	}
	return false, l.window
}

// =============================================================================
// WindowLimiter - 프로세스 내 고정 윈도우
// =============================================================================

type windowInfo struct {
	count     int
	expiresAt time.Time
}

// WindowLimiter is a per-process fixed-window limiter.
type WindowLimiter struct {
	mu       sync.Mutex
	requests map[string]*windowInfo
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		requests: make(map[string]*windowInfo),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (l *WindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	info, ok := l.requests[key]
	if !ok || !now.Before(info.expiresAt) {
		l.sweep(now)
		l.requests[key] = &windowInfo{count: 1, expiresAt: now.Add(l.window)}
		return true, 0
	}
	if info.count >= l.limit {
		return false, info.expiresAt.Sub(now)
	}
	info.count++
	return true, 0
}

// sweep drops expired windows. Called with the lock held.
func (l *WindowLimiter) sweep(now time.Time) {
	for key, info := range l.requests {
		if !now.Before(info.expiresAt) {
			delete(l.requests, key)
		}
	}
}

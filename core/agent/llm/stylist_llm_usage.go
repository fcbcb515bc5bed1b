package llm

import (
	"sync"
	"time"
)

// UsageTracker tracks completion calls and token volume
type UsageTracker struct {
	mu           sync.RWMutex
	totalTokens  int64
	requestCount int64
	failureCount int64
	dailyTokens  map[string]int64
	modelUsage   map[string]int64
	now          func() time.Time
}

func NewUsageTracker() *UsageTracker {
	return &UsageTracker{
		dailyTokens: make(map[string]int64),
		modelUsage:  make(map[string]int64),
		now:         time.Now,
	}
}

func (t *UsageTracker) Track(model string, inputTokens, outputTokens int) {
	tokens := int64(inputTokens + outputTokens)

	t.mu.Lock()
	t.totalTokens += tokens
	t.requestCount++

	today := t.now().Format("2006-01-02")
	t.dailyTokens[today] += tokens
	t.modelUsage[model] += tokens
	t.mu.Unlock()
}

func (t *UsageTracker) trackFailure() {
	t.mu.Lock()
	t.failureCount++
	t.mu.Unlock()
}

func (t *UsageTracker) GetStats() UsageStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := UsageStats{
		TotalTokens:  t.totalTokens,
		RequestCount: t.requestCount,
		FailureCount: t.failureCount,
		TodayTokens:  t.dailyTokens[t.now().Format("2006-01-02")],
	}
	if t.requestCount > 0 {
		stats.AvgTokensPerRequest = float64(t.totalTokens) / float64(t.requestCount)
	}
	return stats
}

type UsageStats struct {
	TotalTokens         int64   `json:"total_tokens"`
	TodayTokens         int64   `json:"today_tokens"`
	RequestCount        int64   `json:"request_count"`
	FailureCount        int64   `json:"failure_count"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
}

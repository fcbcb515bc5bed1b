// Package metrics tracks per-route latency percentiles for diagnostics.
package metrics

import (
	"sort"
	"sync"
	"time"
)

const defaultWindow = 512

// =============================================================================
// Latency Tracker
// =============================================================================

// LatencyTracker keeps the most recent samples in a ring buffer.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	next    int
	full    bool
	total   int64
}

func NewLatencyTracker(window int) *LatencyTracker {
	if window <= 0 {
		window = defaultWindow
	}
	return &LatencyTracker{samples: make([]time.Duration, window)}
}

// Record stores one observation, overwriting the oldest once the window is full.
func (t *LatencyTracker) Record(d time.Duration) {
	t.mu.Lock()
	t.samples[t.next] = d
	t.next++
	if t.next == len(t.samples) {
		t.next = 0
		t.full = true
	}
	t.total++
	t.mu.Unlock()
}

// LatencyStats summarizes the current window. Count covers every recorded
// sample, Window only the ones the percentiles were computed from.
type LatencyStats struct {
	Count  int64   `json:"count"`
	Window int     `json:"window"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
	MaxMs  float64 `json:"max_ms"`
}

func (t *LatencyTracker) Stats() LatencyStats {
	t.mu.Lock()
	n := t.next
	if t.full {
		n = len(t.samples)
	}
	window := make([]time.Duration, n)
	copy(window, t.samples[:n])
	total := t.total
	t.mu.Unlock()

	if n == 0 {
		return LatencyStats{}
	}
	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })

	var sum time.Duration
	for _, d := range window {
		sum += d
	}
	return LatencyStats{
		Count:  total,
		Window: n,
		AvgMs:  millis(sum / time.Duration(n)),
		P50Ms:  millis(percentile(window, 0.50)),
		P95Ms:  millis(percentile(window, 0.95)),
		P99Ms:  millis(percentile(window, 0.99)),
		MaxMs:  millis(window[n-1]),
	}
}

// percentile uses nearest-rank on sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// =============================================================================
// Registry
// =============================================================================

// Registry holds one tracker per route.
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*LatencyTracker
	window   int
}

func NewRegistry(window int) *Registry {
	return &Registry{
		trackers: make(map[string]*LatencyTracker),
		window:   window,
	}
}

func (r *Registry) Record(route string, d time.Duration) {
	r.mu.RLock()
	tracker, ok := r.trackers[route]
	r.mu.RUnlock()

	if !ok {
		r.mu.Lock()
		if tracker, ok = r.trackers[route]; !ok {
			tracker = NewLatencyTracker(r.window)
			r.trackers[route] = tracker
		}
		r.mu.Unlock()
	}
	tracker.Record(d)
}

// Snapshot returns stats for every route seen so far.
func (r *Registry) Snapshot() map[string]LatencyStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]LatencyStats, len(r.trackers))
	for route, tracker := range r.trackers {
		out[route] = tracker.Stats()
	}
	return out
}

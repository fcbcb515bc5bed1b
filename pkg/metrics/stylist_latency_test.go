package metrics

import (
	"testing"
	"time"
)

func TestLatencyTrackerPercentiles(t *testing.T) {
	tracker := NewLatencyTracker(100)
	for i := 1; i <= 100; i++ {
		tracker.Record(time.Duration(i) * time.Millisecond)
	}

	stats := tracker.Stats()
	if stats.Count != 100 || stats.Window != 100 {
		t.Fatalf("expected 100 samples, got count=%d window=%d", stats.Count, stats.Window)
	}
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"p50", stats.P50Ms, 50},
		{"p95", stats.P95Ms, 95},
		{"p99", stats.P99Ms, 99},
		{"max", stats.MaxMs, 100},
		{"avg", stats.AvgMs, 50.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, tt.got)
			}
		})
	}
}

func TestLatencyTrackerWindowWraps(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for _, ms := range []int{100, 1, 2, 3} {
		tracker.Record(time.Duration(ms) * time.Millisecond)
	}

	stats := tracker.Stats()
	if stats.Count != 4 || stats.Window != 3 {
		t.Fatalf("expected count 4 over window 3, got %d/%d", stats.Count, stats.Window)
	}
	if stats.MaxMs != 3 {
		t.Errorf("expected the oldest sample evicted, got max %v", stats.MaxMs)
	}
}

func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry(10)
	r.Record("POST /api/ai/chat", 20*time.Millisecond)
	r.Record("POST /api/ai/chat", 40*time.Millisecond)
	r.Record("GET /health", time.Millisecond)

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(snap))
	}
	if got := snap["POST /api/ai/chat"].AvgMs; got != 30 {
		t.Errorf("expected avg 30ms, got %v", got)
	}
	if got := NewLatencyTracker(0).Stats(); got.Count != 0 {
		t.Errorf("expected empty stats, got %+v", got)
	}
}

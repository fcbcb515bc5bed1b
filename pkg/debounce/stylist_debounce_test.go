package debounce

import (
	"testing"
	"time"
)

func newTestDebouncer(delay time.Duration) (*Debouncer, *ManualClock, *int) {
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	calls := 0
	d := New(delay, func() { calls++ }, WithClock(clock))
	return d, clock, &calls
}

func TestDebouncerCollapsesBurst(t *testing.T) {
	d, clock, calls := newTestDebouncer(300 * time.Millisecond)

	for i := 0; i < 5; i++ {
		d.Trigger()
		clock.Advance(100 * time.Millisecond)
	}
	if *calls != 0 {
		t.Fatalf("expected no call during the burst, got %d", *calls)
	}
	if got := clock.PendingTimers(); got != 1 {
		t.Fatalf("expected the timer to be replaced, %d pending", got)
	}

	clock.Advance(300 * time.Millisecond)
	if *calls != 1 {
		t.Fatalf("expected exactly one call, got %d", *calls)
	}
	if d.Pending() {
		t.Error("expected nothing pending after firing")
	}
}

func TestDebouncerFiresAgainAfterWindow(t *testing.T) {
	d, clock, calls := newTestDebouncer(300 * time.Millisecond)

	d.Trigger()
	clock.Advance(300 * time.Millisecond)
	d.Trigger()
	clock.Advance(299 * time.Millisecond)
	if *calls != 1 {
		t.Fatalf("expected 1 call before second window ends, got %d", *calls)
	}
	clock.Advance(time.Millisecond)
	if *calls != 2 {
		t.Fatalf("expected 2 calls, got %d", *calls)
	}
}

func TestDebouncerStop(t *testing.T) {
	d, clock, calls := newTestDebouncer(300 * time.Millisecond)

	d.Trigger()
	d.Stop()
	clock.Advance(time.Second)
	if *calls != 0 {
		t.Fatalf("expected pending call to be cancelled, got %d", *calls)
	}

	d.Trigger()
	clock.Advance(time.Second)
	if *calls != 0 {
		t.Fatalf("expected trigger after stop to be ignored, got %d", *calls)
	}
}

func TestDebouncerRealClock(t *testing.T) {
	done := make(chan struct{}, 2)
	d := New(10*time.Millisecond, func() { done <- struct{}{} })

	d.Trigger()
	d.Trigger()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	select {
	case <-done:
		t.Fatal("burst produced more than one call")
	case <-time.After(50 * time.Millisecond):
	}
}

// Package debounce coalesces bursts of triggers into one call.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real clock is time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// Debouncer runs fn once, delay after the last Trigger. Every Trigger
// replaces the pending timer instead of stacking another one.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	clock   Clock
	fn      func()
	timer   Timer
	gen     uint64
	stopped bool
}

type Option func(*Debouncer)

// WithClock injects the scheduling clock.
func WithClock(c Clock) Option {
	return func(d *Debouncer) { d.clock = c }
}

func New(delay time.Duration, fn func(), opts ...Option) *Debouncer {
	d := &Debouncer{
		delay: delay,
		clock: realClock{},
		fn:    fn,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Trigger (re)starts the countdown.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs fn unless a newer Trigger or Stop superseded this timer.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending call. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

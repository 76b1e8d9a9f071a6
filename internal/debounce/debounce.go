// Package debounce coalesces bursts of calls into a single call after a quiet period.
package debounce

import (
	"sync"
	"time"

	"github.com/glebovdev/tunequeue/internal/clock"
)

// Debouncer runs only the most recent function passed to Call, once no further
// call has arrived for the configured quiet period.
type Debouncer struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	timer   clock.Timer
	pending func()
	gen     uint64
}

// New creates a Debouncer. A nil clock uses the real clock.
func New(delay time.Duration, c clock.Clock) *Debouncer {
	if c == nil {
		c = clock.Real()
	}
	return &Debouncer{
		clock: c,
		delay: delay,
	}
}

// Call replaces any pending function with fn and restarts the quiet period.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A Call that raced with this timer owns the pending slot now.
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

// Flush runs the pending function immediately, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	fn := d.pending
	d.pending = nil
	d.gen++
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop drops the pending function without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.gen++
}

// Pending reports whether a call is waiting for the quiet period to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

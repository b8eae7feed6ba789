package dashboard

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is how long the synchronizer waits after the last
// mutation before persisting. It bounds write amplification during drag and
// resize gestures to at most one save per quiet period.
const DefaultQuietPeriod = time.Second

// Timer is the subset of time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// Clock schedules deferred work; tests substitute a manual implementation
// so debounce behavior is asserted without wall-clock sleeps.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

// AfterFunc delegates to time.AfterFunc.
func (SystemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Debouncer coalesces a burst of Schedule calls into a single invocation of
// fn with the most recent payload, once the quiet period elapses with no
// further call. It owns its timer; Flush and Cancel resolve a pending
// payload deterministically.
type Debouncer[T any] struct {
	mu      sync.Mutex
	quiet   time.Duration
	clock   Clock
	fn      func(T)
	timer   Timer
	payload T
	pending bool
	gen     uint64
}

// NewDebouncer builds a debouncer around fn. A non-positive quiet period
// falls back to DefaultQuietPeriod; a nil clock uses the system clock.
func NewDebouncer[T any](quiet time.Duration, clock Clock, fn func(T)) *Debouncer[T] {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Debouncer[T]{quiet: quiet, clock: clock, fn: fn}
}

// Schedule stores the payload and restarts the quiet period. A payload
// scheduled during the quiet window supersedes the previous one.
func (d *Debouncer[T]) Schedule(payload T) {
	d.mu.Lock()
	d.payload = payload
	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.quiet, func() { d.fire(gen) })
	d.mu.Unlock()
}

// Flush invokes fn immediately with the pending payload, if any, and
// cancels the timer.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	payload := d.payload
	d.clearLocked()
	d.mu.Unlock()
	d.fn(payload)
}

// Cancel drops the pending payload without invoking fn.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	d.clearLocked()
	d.mu.Unlock()
}

// Pending reports whether a payload is waiting for the quiet period.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// fire runs on timer expiry. The generation check discards expirations that
// lost a race with a newer Schedule, Flush, or Cancel.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	payload := d.payload
	d.clearLocked()
	d.mu.Unlock()
	d.fn(payload)
}

func (d *Debouncer[T]) clearLocked() {
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	var zero T
	d.payload = zero
}

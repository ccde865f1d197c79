package debounce

import (
	"sync"
	"time"
)

// Debouncer delays propagation of a rapidly changing value until it has been
// stable for the configured delay. Only the most recent value survives: a new
// Push before the delay elapses discards the pending one and restarts the
// timer.
type Debouncer[T any] struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	closed  bool
	settled chan T
}

func New[T any](delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		delay:   delay,
		settled: make(chan T, 1),
	}
}

// Push submits a new input value, cancelling any pending emission.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.emit(v)
	})
}

func (d *Debouncer[T]) emit(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	// drop a previously settled value that nobody consumed yet
	select {
	case <-d.settled:
	default:
	}
	d.settled <- v
}

// Settled returns the channel on which stable values are delivered.
func (d *Debouncer[T]) Settled() <-chan T {
	return d.settled
}

// Close cancels any pending emission and closes the settled channel. No
// value is delivered after Close returns.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.settled)
}

package viewmodel

import (
	"sync"
	"time"
)

// Debouncer forwards only the last value pushed within delay.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(string)
	timer   *time.Timer
	pending string
	dirty   bool
	stopped bool
}

func NewDebouncer(delay time.Duration, fn func(string)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

func (d *Debouncer) Push(v string) {
	if d.delay <= 0 {
		d.fn(v)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.pending, d.dirty = v, true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
		return
	}
	d.timer.Reset(d.delay)
}

// Flush delivers a pending value immediately.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	v, ok := d.take()
	d.mu.Unlock()

	if ok {
		d.fn(v)
	}
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.dirty = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	v, ok := d.take()
	d.mu.Unlock()

	if ok {
		d.fn(v)
	}
}

func (d *Debouncer) take() (string, bool) {
	if !d.dirty || d.stopped {
		return "", false
	}
	d.dirty = false
	return d.pending, true
}

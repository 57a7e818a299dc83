package schedule

import (
	"sync"
	"time"
)

// Debouncer delays a call per key, replacing any call still pending for the
// same key. A timer that already fired but was superseded before its task
// ran is ignored.
type Debouncer struct {
	clock   Clock
	delay   time.Duration
	mu      sync.Mutex
	gen     uint64
	pending map[string]*pendingCall
}

type pendingCall struct {
	gen   uint64
	timer Timer
	fn    func()
}

// NewDebouncer creates a debouncer firing delay after the last trigger.
func NewDebouncer(clock Clock, delay time.Duration) *Debouncer {
	return &Debouncer{
		clock:   clock,
		delay:   delay,
		pending: make(map[string]*pendingCall),
	}
}

// Delay returns the debounce interval.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules fn for key, canceling a pending call for the same key.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.gen++
	gen := d.gen
	call := &pendingCall{gen: gen, fn: fn}
	call.timer = d.clock.AfterFunc(d.delay, func() { d.fire(key, gen) })
	d.pending[key] = call
}

func (d *Debouncer) fire(key string, gen uint64) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if !ok || p.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	p.fn()
}

// Flush cancels the pending call for key and runs it immediately. It reports
// whether a call was pending.
func (d *Debouncer) Flush(key string) bool {
	d.mu.Lock()
	p, ok := d.pending[key]
	if ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
	d.mu.Unlock()

	if ok {
		p.fn()
	}
	return ok
}

// Cancel drops the pending call for key without running it.
func (d *Debouncer) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
	return ok
}

// Pending reports whether key has a scheduled call.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Stop cancels every pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
}

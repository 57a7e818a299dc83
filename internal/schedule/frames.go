package schedule

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates a 60 Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameID identifies a requested frame.
type FrameID uint64

// FrameScheduler runs callbacks on the next animation frame.
type FrameScheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID) bool
}

// Frames implements FrameScheduler on top of a Clock.
type Frames struct {
	clock    Clock
	interval time.Duration
	mu       sync.Mutex
	next     FrameID
	pending  map[FrameID]Timer
}

// NewFrames creates a frame scheduler ticking at interval.
func NewFrames(clock Clock, interval time.Duration) *Frames {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Frames{
		clock:    clock,
		interval: interval,
		pending:  make(map[FrameID]Timer),
	}
}

// RequestFrame schedules fn for the next frame.
func (f *Frames) RequestFrame(fn func()) FrameID {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	id := f.next
	f.pending[id] = f.clock.AfterFunc(f.interval, func() { f.fire(id, fn) })
	return id
}

func (f *Frames) fire(id FrameID, fn func()) {
	f.mu.Lock()
	_, ok := f.pending[id]
	delete(f.pending, id)
	f.mu.Unlock()

	if ok {
		fn()
	}
}

// CancelFrame drops a frame that has not run yet.
func (f *Frames) CancelFrame(id FrameID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.pending[id]
	if ok {
		t.Stop()
		delete(f.pending, id)
	}
	return ok
}

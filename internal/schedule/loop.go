package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLoopClosed is returned when posting to a closed loop.
var ErrLoopClosed = errors.New("event loop closed")

// Loop runs posted tasks one at a time on a dedicated goroutine.
type Loop struct {
	name      string
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewLoop starts a loop. buffer is the queue depth before Post blocks.
func NewLoop(name string, buffer int) *Loop {
	l := &Loop{
		name:  name,
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	for {
		select {
		case task := <-l.tasks:
			l.exec(task)
		case <-l.done:
			return
		}
	}
}

func (l *Loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Loop %s] PANIC recovered: %v\n", l.name, r)
		}
	}()
	task()
}

// Post queues a task. It returns false once the loop is closed.
func (l *Loop) Post(task func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- task:
		return true
	case <-l.done:
		return false
	}
}

// Do runs f on the loop and waits for its result. It must not be called from
// a task already running on the same loop.
func (l *Loop) Do(ctx context.Context, f func() error) error {
	result := make(chan error, 1)
	ok := l.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("task panicked: %v", r)
			}
		}()
		result <- f()
	})
	if !ok {
		return ErrLoopClosed
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// Close stops the loop. Queued tasks that have not started are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Clock wraps base so that every callback is posted onto the loop instead of
// running on the timer goroutine.
func (l *Loop) Clock(base Clock) Clock {
	return loopClock{base: base, loop: l}
}

type loopClock struct {
	base Clock
	loop *Loop
}

func (c loopClock) Now() time.Time {
	return c.base.Now()
}

func (c loopClock) AfterFunc(d time.Duration, f func()) Timer {
	return c.base.AfterFunc(d, func() {
		c.loop.Post(f)
	})
}

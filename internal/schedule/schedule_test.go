package schedule_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/certstudio/backend/internal/schedule"
	"github.com/certstudio/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncerReplacesPendingCall(t *testing.T) {
	clock := testutil.NewManualClock()
	d := schedule.NewDebouncer(clock, 50*time.Millisecond)

	var calls []string
	d.Trigger("name-element", func() { calls = append(calls, "first") })
	clock.Advance(30 * time.Millisecond)
	d.Trigger("name-element", func() { calls = append(calls, "second") })
	clock.Advance(30 * time.Millisecond)
	assert.Empty(t, calls)
	assert.True(t, d.Pending("name-element"))

	clock.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"second"}, calls)
	assert.False(t, d.Pending("name-element"))
}

func TestDebouncerKeysAreIndependent(t *testing.T) {
	clock := testutil.NewManualClock()
	d := schedule.NewDebouncer(clock, 50*time.Millisecond)

	var calls []string
	d.Trigger("a", func() { calls = append(calls, "a") })
	d.Trigger("b", func() { calls = append(calls, "b") })
	clock.Advance(50 * time.Millisecond)
	assert.ElementsMatch(t, []string{"a", "b"}, calls)
}

func TestDebouncerFlushRunsImmediately(t *testing.T) {
	clock := testutil.NewManualClock()
	d := schedule.NewDebouncer(clock, 50*time.Millisecond)

	count := 0
	d.Trigger("k", func() { count++ })
	assert.True(t, d.Flush("k"))
	assert.Equal(t, 1, count)

	clock.Advance(time.Second)
	assert.Equal(t, 1, count)
	assert.False(t, d.Flush("k"))
}

func TestDebouncerCancelAndStop(t *testing.T) {
	clock := testutil.NewManualClock()
	d := schedule.NewDebouncer(clock, 50*time.Millisecond)

	count := 0
	d.Trigger("a", func() { count++ })
	d.Trigger("b", func() { count++ })
	assert.True(t, d.Cancel("a"))
	d.Stop()
	clock.Advance(time.Second)
	assert.Equal(t, 0, count)
}

func TestFramesCancel(t *testing.T) {
	clock := testutil.NewManualClock()
	f := schedule.NewFrames(clock, 16*time.Millisecond)

	var ran []int
	first := f.RequestFrame(func() { ran = append(ran, 1) })
	assert.True(t, f.CancelFrame(first))
	f.RequestFrame(func() { ran = append(ran, 2) })

	clock.Advance(16 * time.Millisecond)
	assert.Equal(t, []int{2}, ran)
	assert.False(t, f.CancelFrame(first))
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	l := schedule.NewLoop("test", 8)
	defer l.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { order = append(order, i) })
	}
	require.NoError(t, l.Do(context.Background(), func() error { return nil }))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLoopDoReturnsErrorsAndPanics(t *testing.T) {
	l := schedule.NewLoop("test", 1)
	defer l.Close()

	boom := errors.New("boom")
	assert.ErrorIs(t, l.Do(context.Background(), func() error { return boom }), boom)
	assert.Error(t, l.Do(context.Background(), func() error { panic("bad") }))
	assert.NoError(t, l.Do(context.Background(), func() error { return nil }))
}

func TestLoopClosed(t *testing.T) {
	l := schedule.NewLoop("test", 1)
	l.Close()
	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Do(context.Background(), func() error { return nil }), schedule.ErrLoopClosed)
}

func TestLoopClockPostsOntoLoop(t *testing.T) {
	l := schedule.NewLoop("test", 4)
	defer l.Close()

	var fired atomic.Int32
	done := make(chan struct{})
	clock := l.Clock(schedule.RealClock())
	clock.AfterFunc(time.Millisecond, func() {
		fired.Add(1)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer callback never ran")
	}
	assert.Equal(t, int32(1), fired.Load())
}

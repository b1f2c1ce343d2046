package similarity

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncerRunsAfterDelay(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	d := NewDebouncer(20 * time.Millisecond)

	d.Trigger(func() { fired.Add(1) })

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncerLatestTriggerWins(t *testing.T) {
	t.Parallel()

	var first, second atomic.Int32
	d := NewDebouncer(30 * time.Millisecond)

	d.Trigger(func() { first.Add(1) })
	time.Sleep(10 * time.Millisecond)
	d.Trigger(func() { second.Add(1) })

	assert.Eventually(t, func() bool {
		return second.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// The superseded computation never executes, even well after the delay.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), first.Load())
	assert.Equal(t, int32(1), second.Load())
}

func TestDebouncerRapidRetrigger(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	d := NewDebouncer(25 * time.Millisecond)

	// Simulated keystrokes, each inside the delay window.
	for i := 0; i < 10; i++ {
		d.Trigger(func() { fired.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load(), "only the final trigger may fire")
}

func TestDebouncerStop(t *testing.T) {
	t.Parallel()

	var fired atomic.Int32
	d := NewDebouncer(20 * time.Millisecond)

	d.Trigger(func() { fired.Add(1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	// Stop is idempotent.
	d.Stop()

	// The debouncer remains usable after Stop.
	d.Trigger(func() { fired.Add(1) })
	assert.Eventually(t, func() bool {
		return fired.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncerDefaultDelay(t *testing.T) {
	t.Parallel()

	d := NewDebouncer(0)
	assert.Equal(t, DefaultDebounceDelay, d.delay)
}

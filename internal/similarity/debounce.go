package similarity

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is the pause after the last input before a pending
// computation fires.
const DefaultDebounceDelay = 500 * time.Millisecond

// Debouncer delays execution of a function until input activity pauses.
// Every Trigger cancels any pending execution and restarts the delay, so
// only the latest trigger's function can ever run (last input wins); a
// superseded function never executes. Cancellation is idempotent and never
// observable as an error.
//
// A Debouncer is safe for concurrent use.
type Debouncer struct {
	delay time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	generation uint64
}

// NewDebouncer creates a Debouncer with the given delay. A non-positive
// delay uses DefaultDebounceDelay.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the delay, cancelling any previously
// scheduled function. The generation token taken under the lock guarantees
// a superseded fn is dropped even if its timer already fired and is waiting
// on the lock.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.generation++
	gen := d.generation

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.generation
		d.mu.Unlock()

		if gen != current {
			return
		}
		fn()
	})
}

// Stop cancels any pending execution without scheduling a new one.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.generation++
}

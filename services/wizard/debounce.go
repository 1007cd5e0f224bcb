package wizard

import (
	"sync"
	"time"
)

// Debouncer delays an action until a burst of triggers has settled, running at
// most one action per burst. A new trigger supersedes any pending one, and a
// superseded action never runs even if its timer already fired.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the debounce delay, cancelling any pending action.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		// Stop can race with an already-fired timer; the generation check
		// keeps a superseded action from running.
		d.mu.Lock()
		current := gen == d.gen
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Cancel drops any pending action.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

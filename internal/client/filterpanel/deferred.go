package filterpanel

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// Deferred runs the last scheduled action once no new action was scheduled
// for the configured delay.
type Deferred struct {
	mu        sync.Mutex
	debounced func(f func())
	gen       uint64
	pending   bool
}

// NewDeferred creates a Deferred with the given delay
func NewDeferred(delay time.Duration) *Deferred {
	return &Deferred{debounced: debounce.New(delay)}
}

// Schedule replaces any pending action with fn
func (d *Deferred) Schedule(fn func()) {
	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.pending = true
	d.mu.Unlock()

	d.debounced(func() {
		d.mu.Lock()
		if gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending action, if any
func (d *Deferred) Cancel() {
	d.mu.Lock()
	d.gen++
	wasPending := d.pending
	d.pending = false
	d.mu.Unlock()

	if wasPending {
		d.debounced(func() {})
	}
}

// Pending reports whether an action is waiting to run
func (d *Deferred) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

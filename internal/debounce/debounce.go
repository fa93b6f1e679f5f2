// Package debounce coalesces bursts of change signals into one deferred run.
package debounce

import (
	"context"
	"sync"
	"time"

	"groupsync/internal/clock"
)

const DefaultWindow = time.Second

// Debouncer runs Func once, Window after the last Notify. Runs never overlap:
// a timer that fires while a run is in flight is re-armed, and a Notify that
// arrives during a run schedules another one after it.
type Debouncer struct {
	window    time.Duration
	clock     clock.Clock
	run       func(context.Context)
	skipFirst bool

	mu      sync.Mutex
	idle    *sync.Cond
	timer   *clock.Timer
	armed   bool
	pending bool
	running bool
	stopped bool
	seen    bool
}

type Opts struct {
	Window time.Duration
	Clock  clock.Clock
	// SkipFirst drops the first Notify after construction, so loading initial
	// state never triggers a run.
	SkipFirst bool
}

func New(opts Opts, run func(context.Context)) *Debouncer {
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	c := opts.Clock
	if c == nil {
		c = clock.Real()
	}
	d := &Debouncer{
		window:    window,
		clock:     c,
		run:       run,
		skipFirst: opts.SkipFirst,
	}
	d.idle = sync.NewCond(&d.mu)
	return d
}

func (d *Debouncer) Window() time.Duration { return d.window }

// Notify records a change and restarts the quiet window.
func (d *Debouncer) Notify() {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.skipFirst && !d.seen {
		d.seen = true
		return
	}
	d.seen = true
	d.pending = true
	d.armLocked()
}

func (d *Debouncer) armLocked() {
	d.armed = true
	if d.timer == nil {
		d.timer = d.clock.AfterFunc(d.window, d.onTimer)
		return
	}
	d.timer.Reset(d.window)
}

func (d *Debouncer) disarmLocked() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
}

// Pending reports whether a change is waiting for a run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) onTimer() {
	d.mu.Lock()
	d.armed = false
	if d.stopped {
		d.mu.Unlock()
		return
	}
	if d.running {
		// Queue behind the in-flight run.
		d.armLocked()
		d.mu.Unlock()
		return
	}
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.runOnce(context.Background())
}

// runOnce executes one run if work is pending. It must be called without d.mu
// held. It reports true when it ran, or when it waited out an in-flight run that
// had already taken the pending work.
func (d *Debouncer) runOnce(ctx context.Context) bool {
	d.mu.Lock()
	waited := false
	for d.running {
		waited = true
		if testHookWaitIdle != nil {
			testHookWaitIdle()
		}
		d.idle.Wait()
	}
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return waited
	}
	d.pending = false
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		if d.pending && !d.stopped && !d.armed {
			d.armLocked()
		}
		d.idle.Broadcast()
		d.mu.Unlock()
	}()
	d.run(ctx)
	return true
}

// testHookWaitIdle is called with d.mu held before waiting on an in-flight run.
var testHookWaitIdle func()

// Flush cancels the quiet window and runs pending work now, after any
// in-flight run. It reports whether a run happened or was waited on.
func (d *Debouncer) Flush(ctx context.Context) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	d.disarmLocked()
	d.mu.Unlock()
	return d.runOnce(ctx)
}

// Trigger marks work pending and arms the timer even if nothing changed.
// Used to schedule a retry of a failed run.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.seen = true
	d.pending = true
	d.armLocked()
}

// Reset drops pending work and waits for an in-flight run. The debouncer stays
// usable, and with SkipFirst the next signal is suppressed again.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rewindLocked()
	for d.running {
		d.idle.Wait()
	}
}

// Rewind is Reset without the wait, for callers holding a lock that a run
// needs. A run already in flight still completes.
func (d *Debouncer) Rewind() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rewindLocked()
}

func (d *Debouncer) rewindLocked() {
	d.disarmLocked()
	d.pending = false
	d.seen = false
}

// Stop cancels the pending timer and waits for an in-flight run to complete.
// Notify is a no-op afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.disarmLocked()
	d.pending = false
	for d.running {
		d.idle.Wait()
	}
}

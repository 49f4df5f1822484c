package scheduler

import (
	"sync"
	"time"
)

// throttle collapses bursts of trigger events into at most one execution
// of fn per delay window, with a guaranteed trailing execution when
// triggers arrived during the window. Executions are single-flight: a run
// in progress is never re-entered; a trigger observed while fn is running
// schedules exactly one more trailing run.
type throttle struct {
	fn func()

	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	running bool
	queued  bool
}

func newThrottle(fn func(), delay time.Duration) *throttle {
	return &throttle{fn: fn, delay: delay}
}

// Trigger requests an execution. Cheap and safe to call from any signal
// handler.
func (t *throttle) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		if t.queued {
			throttleCoalesced.Inc()
		}
		t.queued = true
		return
	}
	if t.timer != nil {
		// Already scheduled inside this window.
		throttleCoalesced.Inc()
		return
	}
	t.timer = time.AfterFunc(t.delay, t.run)
}

func (t *throttle) run() {
	t.mu.Lock()
	t.timer = nil
	t.running = true
	t.mu.Unlock()

	t.fn()

	t.mu.Lock()
	t.running = false
	if t.queued {
		t.queued = false
		t.timer = time.AfterFunc(t.delay, t.run)
	}
	t.mu.Unlock()
}

// SetDelay changes the window for future schedules.
func (t *throttle) SetDelay(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.delay = d
}

// Delay returns the current window.
func (t *throttle) Delay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.delay
}

// Stop cancels any pending (not yet running) execution.
func (t *throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.queued = false
}

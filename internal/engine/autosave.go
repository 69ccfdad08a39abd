package engine

import (
	"sync"
	"time"
)

// saveTimer is an explicit, cancellable debounce task. Arm replaces any
// pending arming so only the most recent one eventually fires; Stop cancels
// outright and rejects further arming.
type saveTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newSaveTimer() *saveTimer {
	return &saveTimer{}
}

// Arm schedules fn after d, cancelling any previously armed firing.
func (t *saveTimer) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, fn)
}

// Stop cancels any pending firing and disables the timer permanently.
func (t *saveTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

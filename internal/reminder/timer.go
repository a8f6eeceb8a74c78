package reminder

import (
	"sync"
	"time"
)

// InactivityTimer is a restartable one-shot countdown. Start arms it,
// Reset rearms only while armed, Stop disarms. The callback fires at most
// once per arming.
type InactivityTimer struct {
	mu         sync.Mutex
	interval   time.Duration
	callback   func()
	timer      *time.Timer
	armed      bool
	generation uint64
}

func NewInactivityTimer(interval time.Duration, callback func()) *InactivityTimer {
	return &InactivityTimer{
		interval: interval,
		callback: callback,
	}
}

func (t *InactivityTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armLocked()
}

// Reset cancels and rearms, but only while armed. Resetting a stopped timer
// must never restart it.
func (t *InactivityTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return
	}
	t.armLocked()
}

// Stop cancels and disarms. Idempotent.
func (t *InactivityTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *InactivityTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

func (t *InactivityTimer) armLocked() {
	if t.timer != nil {
		t.timer.Stop()
	}
	t.armed = true
	t.generation++
	generation := t.generation
	t.timer = time.AfterFunc(t.interval, func() {
		t.fire(generation)
	})
}

// fire runs on the timer goroutine. The generation check discards fires from
// a timer that was stopped or replaced after it expired but before this
// goroutine acquired the lock.
func (t *InactivityTimer) fire(generation uint64) {
	t.mu.Lock()
	if !t.armed || generation != t.generation {
		t.mu.Unlock()
		return
	}
	t.armed = false
	t.timer = nil
	callback := t.callback
	t.mu.Unlock()

	if callback != nil {
		callback()
	}
}

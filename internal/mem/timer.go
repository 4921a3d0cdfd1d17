package mem

import (
	"fmt"
	"time"

	"github.com/roach88/spindle/internal/middleware"
)

// Timer is a periodic readiness source. It becomes ready when the
// transport clock passes its deadline; Call runs the registered function
// and advances the deadline by one period.
type Timer struct {
	t        *Transport
	period   time.Duration
	next     time.Duration
	fn       func()
	canceled bool
}

// NewTimer creates a timer firing every period. fn may be nil for a pure
// pacing timer.
func (t *Transport) NewTimer(period time.Duration, fn func()) (*Timer, error) {
	if period <= 0 {
		return nil, fmt.Errorf("timer period must be positive, got %v", period)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return nil, fmt.Errorf("transport is shut down")
	}
	return &Timer{t: t, period: period, next: t.clock.Now() + period, fn: fn}, nil
}

// Call implements middleware.Timer: runs the timer function and advances
// the schedule. A canceled timer reports middleware.ErrTimerCanceled.
func (tm *Timer) Call() error {
	tm.t.mu.Lock()
	if tm.canceled {
		tm.t.mu.Unlock()
		return middleware.ErrTimerCanceled
	}
	tm.next += tm.period
	fn := tm.fn
	tm.t.mu.Unlock()

	// The function runs outside the transport lock so it may publish.
	if fn != nil {
		fn()
	}
	return nil
}

// Cancel stops the timer. Subsequent calls report ErrTimerCanceled; the
// timer never becomes ready again.
func (tm *Timer) Cancel() {
	tm.t.mu.Lock()
	defer tm.t.mu.Unlock()
	tm.canceled = true
}

// due reports whether the deadline has passed. Caller holds t.mu.
func (tm *Timer) due(now time.Duration) bool {
	return !tm.canceled && now >= tm.next
}

// deadline returns the next fire time. Caller holds t.mu.
func (tm *Timer) deadline() (time.Duration, bool) {
	if tm.canceled {
		return 0, false
	}
	return tm.next, true
}

package middleware

import "errors"

// Distinguished non-fatal conditions. The executor checks these with
// errors.Is, so transports may wrap them for context.
var (
	// ErrTimeout: a wait ran to its deadline with nothing ready.
	ErrTimeout = errors.New("wait timed out")

	// ErrTakeFailed: a take found no data. Transports may report
	// readiness for data that is gone by the time it is taken; the
	// executor clears the handle's availability and continues.
	ErrTakeFailed = errors.New("take failed: no data")

	// ErrTimerCanceled: a timer call on a canceled timer.
	ErrTimerCanceled = errors.New("timer canceled")
)

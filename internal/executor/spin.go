package executor

import (
	"errors"
	"time"

	"github.com/roach88/spindle/internal/middleware"
)

// SpinSome runs one dispatch cycle: prepare, collect with the given
// timeout, then dispatch under the configured semantics.
//
// A wait that runs to its deadline returns middleware.ErrTimeout. That is
// an informational value, not a fault — the cycle still completes (with
// no readiness, the default trigger declines and nothing dispatches) and
// the spin loops keep going on it.
func (e *Executor) SpinSome(timeout time.Duration) error {
	if !e.initialized() {
		return invalidArgument("executor not initialized")
	}
	if !e.ctx.IsValid() {
		return middlewareError("middleware context is invalid", nil)
	}
	if err := e.Prepare(); err != nil {
		return err
	}

	e.observer.CycleStart()

	timedOut, err := e.collect(timeout)
	if err != nil {
		return err
	}
	e.observer.WaitReturned(timedOut)

	if err := e.dispatch(); err != nil {
		return err
	}
	if timedOut {
		return middleware.ErrTimeout
	}
	return nil
}

// continuable reports whether a SpinSome outcome lets a spin loop keep
// going.
func continuable(err error) bool {
	return err == nil || errors.Is(err, middleware.ErrTimeout)
}

// Spin cycles SpinSome with the configured timeout until the middleware
// context becomes invalid. Any non-continuable error exits the loop.
func (e *Executor) Spin() error {
	if !e.initialized() {
		return invalidArgument("executor not initialized")
	}
	for e.ctx.IsValid() {
		if err := e.SpinSome(e.timeout); err != nil && !continuable(err) {
			return err
		}
	}
	return nil
}

// SpinOnePeriod runs one SpinSome, then sleeps so the cycle's total
// elapsed time equals period, measured against a monotonic anchor.
//
// The anchor is seeded lazily on the first call and advanced by exactly
// period each call regardless of jitter, so the phase is drift-free: after
// n calls the anchor equals the seed plus n times period. If the cycle
// overran the period, the sleep is skipped and the next cycle starts
// immediately (the anchor still advances).
func (e *Executor) SpinOnePeriod(period time.Duration) error {
	if !e.initialized() {
		return invalidArgument("executor not initialized")
	}
	if e.invocationTime == 0 {
		e.invocationTime = e.clock.Now()
	}
	err := e.SpinSome(e.timeout)
	if !continuable(err) {
		return err
	}
	e.clock.Sleep(e.invocationTime + period - e.clock.Now())
	e.invocationTime += period
	return err
}

// SpinPeriod cycles SpinOnePeriod until a non-continuable error occurs or
// the middleware context becomes invalid.
func (e *Executor) SpinPeriod(period time.Duration) error {
	if !e.initialized() {
		return invalidArgument("executor not initialized")
	}
	for e.ctx.IsValid() {
		if err := e.SpinOnePeriod(period); !continuable(err) {
			return err
		}
	}
	return nil
}

// InvocationTime returns the current period anchor. Zero until the first
// SpinOnePeriod call.
func (e *Executor) InvocationTime() time.Duration { return e.invocationTime }

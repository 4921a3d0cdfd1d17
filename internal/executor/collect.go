package executor

import (
	"errors"
	"time"

	"github.com/roach88/spindle/internal/middleware"
)

// Prepare ensures a valid wait-set exists, sized to the current per-kind
// counters. Called implicitly by SpinSome; callers that batch-register
// handles may call it once up front to move the allocation out of the
// first cycle.
func (e *Executor) Prepare() error {
	if !e.initialized() {
		return invalidArgument("executor not initialized")
	}
	if e.waitSet != nil {
		return nil
	}
	ws, err := e.ctx.NewWaitSet(e.info.entities)
	if err != nil {
		return middlewareError("wait-set build failed", err)
	}
	e.waitSet = ws
	return nil
}

// collect runs the readiness-collection step: clears the wait-set,
// registers every live handle (capturing the assigned index back into the
// handle record), blocks up to timeout and reports whether the wait timed
// out.
func (e *Executor) collect(timeout time.Duration) (timedOut bool, err error) {
	if err := e.waitSet.Clear(); err != nil {
		return false, middlewareError("wait-set clear failed", err)
	}

	for i := 0; i < e.count; i++ {
		h := &e.handles[i]
		switch h.kind {
		case KindSubscription, KindSubscriptionWithContext:
			h.index, err = e.waitSet.AddSubscription(h.subscription)
		case KindTimer:
			h.index, err = e.waitSet.AddTimer(h.timer)
		case KindClient, KindClientWithRequestID:
			h.index, err = e.waitSet.AddClient(h.client)
		case KindService, KindServiceWithRequestID, KindServiceWithContext:
			h.index, err = e.waitSet.AddService(h.service)
		case KindGuardCondition:
			h.index, err = e.waitSet.AddGuardCondition(h.guardCondition)
		case KindActionClient:
			h.index, err = h.actionClient.Middleware().AddToWaitSet(e.waitSet)
		case KindActionServer:
			h.index, err = h.actionServer.Middleware().AddToWaitSet(e.waitSet)
		default:
			return false, middlewareError("unknown handle kind", nil)
		}
		if err != nil {
			return false, middlewareError("wait-set registration failed", err)
		}
	}

	if err := e.waitSet.Wait(timeout); err != nil {
		if errors.Is(err, middleware.ErrTimeout) {
			return true, nil
		}
		return false, middlewareError("wait failed", err)
	}
	return false, nil
}

// refreshReadiness walks the live handles and latches each one's
// data-availability from the wait-set. For action endpoints the
// per-sub-entity flags are latched instead of the single flag.
func (e *Executor) refreshReadiness() error {
	for i := 0; i < e.count; i++ {
		h := &e.handles[i]
		switch h.kind {
		case KindSubscription, KindSubscriptionWithContext:
			h.dataAvailable = e.waitSet.SubscriptionReady(h.index)
		case KindTimer:
			h.dataAvailable = e.waitSet.TimerReady(h.index)
		case KindClient, KindClientWithRequestID:
			h.dataAvailable = e.waitSet.ClientReady(h.index)
		case KindService, KindServiceWithRequestID, KindServiceWithContext:
			h.dataAvailable = e.waitSet.ServiceReady(h.index)
		case KindGuardCondition:
			h.dataAvailable = e.waitSet.GuardConditionReady(h.index)
		case KindActionClient:
			if err := h.actionClient.RefreshReadiness(e.waitSet, h.index); err != nil {
				return middlewareError("readiness refresh failed", err)
			}
		case KindActionServer:
			if err := h.actionServer.RefreshReadiness(e.waitSet, h.index); err != nil {
				return middlewareError("readiness refresh failed", err)
			}
		}
	}
	return nil
}

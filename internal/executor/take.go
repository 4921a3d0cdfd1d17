package executor

import (
	"errors"

	"github.com/roach88/spindle/internal/middleware"
)

// takeNewData drains at most one payload for the handle, conditional on
// its readiness. A take-failed report clears the handle's availability
// and continues; any other middleware failure aborts the cycle.
//
// Timers and guard conditions have nothing to take: their readiness is
// authoritative.
func (e *Executor) takeNewData(h *Handle, slot int) error {
	switch h.kind {
	case KindSubscription, KindSubscriptionWithContext:
		if !h.dataAvailable {
			return nil
		}
		if err := h.subscription.Take(h.data); err != nil {
			if errors.Is(err, middleware.ErrTakeFailed) {
				h.dataAvailable = false
				return nil
			}
			return middlewareError("subscription take failed", err)
		}

	case KindService, KindServiceWithRequestID, KindServiceWithContext:
		if !h.dataAvailable {
			return nil
		}
		id, err := h.service.TakeRequest(h.data)
		if err != nil {
			if errors.Is(err, middleware.ErrTakeFailed) {
				h.dataAvailable = false
				return nil
			}
			return middlewareError("request take failed", err)
		}
		h.requestID = id

	case KindClient, KindClientWithRequestID:
		if !h.dataAvailable {
			return nil
		}
		id, err := h.client.TakeResponse(h.data)
		if err != nil {
			if errors.Is(err, middleware.ErrTakeFailed) {
				h.dataAvailable = false
				return nil
			}
			return middlewareError("response take failed", err)
		}
		h.requestID = id

	case KindTimer, KindGuardCondition:
		return nil

	case KindActionClient:
		if !h.actionClient.DataAvailable() {
			return nil
		}
		if err := h.actionClient.Take(); err != nil {
			return middlewareError("action client take failed", err)
		}

	case KindActionServer:
		if !h.actionServer.DataAvailable() {
			return nil
		}
		if err := h.actionServer.Take(); err != nil {
			return middlewareError("action server take failed", err)
		}

	default:
		return middlewareError("unknown handle kind", nil)
	}

	e.observer.DataTaken(h.kind, slot)
	return nil
}

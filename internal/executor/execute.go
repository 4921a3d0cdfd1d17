package executor

import (
	"errors"

	"github.com/roach88/spindle/internal/middleware"
)

// execute invokes the handle's callback when the invocation policy says
// so: always under Always, otherwise only when data is available.
func (e *Executor) execute(h *Handle, slot int) error {
	invoke := h.invocation == Always ||
		(h.invocation == OnNewData && h.DataAvailable())
	if !invoke {
		return nil
	}

	switch h.kind {
	case KindSubscription:
		if h.dataAvailable {
			h.subscriptionCB(h.data)
		} else {
			// Always policy with no data this cycle.
			h.subscriptionCB(nil)
		}

	case KindSubscriptionWithContext:
		if h.dataAvailable {
			h.subscriptionCtxCB(h.data, h.callbackCtx)
		} else {
			h.subscriptionCtxCB(nil, h.callbackCtx)
		}

	case KindTimer:
		if err := h.timer.Call(); err != nil {
			// Canceled timers are skipped, not failed.
			if errors.Is(err, middleware.ErrTimerCanceled) {
				return nil
			}
			return middlewareError("timer call failed", err)
		}

	case KindService:
		h.serviceCB(h.data, h.response)
		if err := h.service.SendResponse(h.requestID, h.response); err != nil {
			return middlewareError("response send failed", err)
		}

	case KindServiceWithRequestID:
		h.serviceReqIDCB(h.data, h.requestID, h.response)
		if err := h.service.SendResponse(h.requestID, h.response); err != nil {
			return middlewareError("response send failed", err)
		}

	case KindServiceWithContext:
		h.serviceCtxCB(h.data, h.response, h.callbackCtx)
		if err := h.service.SendResponse(h.requestID, h.response); err != nil {
			return middlewareError("response send failed", err)
		}

	case KindClient:
		h.clientCB(h.data)

	case KindClientWithRequestID:
		h.clientReqIDCB(h.data, h.requestID)

	case KindGuardCondition:
		h.guardCB()

	case KindActionClient:
		if err := h.actionClient.Execute(h.callbackCtx); err != nil {
			return middlewareError("action client execute failed", err)
		}

	case KindActionServer:
		if err := h.actionServer.Execute(h.callbackCtx); err != nil {
			return middlewareError("action server execute failed", err)
		}

	default:
		return middlewareError("unknown handle kind", nil)
	}

	// Availability is consumed by the dispatch; the next collection
	// re-latches it.
	h.dataAvailable = false
	e.observer.CallbackInvoked(h.kind, slot)
	return nil
}

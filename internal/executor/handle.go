package executor

import (
	"github.com/roach88/spindle/internal/action"
	"github.com/roach88/spindle/internal/middleware"
)

// Kind discriminates the registered source behind a handle. The kind
// fixes both the middleware reference field and the callback variant; the
// add operations are the only writers and enforce that correspondence.
type Kind int

const (
	KindNone Kind = iota
	KindSubscription
	KindSubscriptionWithContext
	KindTimer
	KindClient
	KindClientWithRequestID
	KindService
	KindServiceWithRequestID
	KindServiceWithContext
	KindGuardCondition
	KindActionClient
	KindActionServer
)

// String returns the lower-snake kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSubscription:
		return "subscription"
	case KindSubscriptionWithContext:
		return "subscription_with_context"
	case KindTimer:
		return "timer"
	case KindClient:
		return "client"
	case KindClientWithRequestID:
		return "client_with_request_id"
	case KindService:
		return "service"
	case KindServiceWithRequestID:
		return "service_with_request_id"
	case KindServiceWithContext:
		return "service_with_context"
	case KindGuardCondition:
		return "guard_condition"
	case KindActionClient:
		return "action_client"
	case KindActionServer:
		return "action_server"
	default:
		return "invalid"
	}
}

// Invocation selects when a handle's callback runs.
type Invocation int

const (
	// OnNewData runs the callback only in cycles where the handle became
	// ready and its take succeeded.
	OnNewData Invocation = iota
	// Always runs the callback every dispatched cycle; subscription
	// callbacks receive nil when no data was taken.
	Always
)

// Callback variants, one per handle kind. The msg/req/resp arguments are
// the user buffers supplied at registration.
type (
	SubscriptionCallback        func(msg any)
	SubscriptionContextCallback func(msg any, ctx any)
	ClientCallback              func(resp any)
	ClientRequestIDCallback     func(resp any, id middleware.RequestID)
	ServiceCallback             func(req any, resp any)
	ServiceRequestIDCallback    func(req any, id middleware.RequestID, resp any)
	ServiceContextCallback      func(req any, resp any, ctx any)
	GuardConditionCallback      func()
)

// Handle is one registered source: the middleware reference, the user
// buffers, the callback and the per-cycle readiness state. Handles live
// in the executor's table and are exposed read-only to trigger predicates.
type Handle struct {
	kind       Kind
	invocation Invocation

	// exactly one of these is set, per kind
	subscription   middleware.Subscription
	timer          middleware.Timer
	client         middleware.Client
	service        middleware.Service
	guardCondition middleware.GuardCondition
	actionClient   *action.Client
	actionServer   *action.Server

	data        any                  // input buffer
	response    any                  // response buffer (services)
	requestID   middleware.RequestID // request-id scratch
	callbackCtx any                  // opaque, *WithContext variants and action endpoints

	subscriptionCB    SubscriptionCallback
	subscriptionCtxCB SubscriptionContextCallback
	clientCB          ClientCallback
	clientReqIDCB     ClientRequestIDCallback
	serviceCB         ServiceCallback
	serviceReqIDCB    ServiceRequestIDCallback
	serviceCtxCB      ServiceContextCallback
	guardCB           GuardConditionCallback

	// index is the wait-set slot assigned during collection; it keeps that
	// value until the next collection. A reset handle holds the capacity
	// sentinel.
	index int

	initialized   bool
	dataAvailable bool
}

// reset returns the handle to its inert state with the given capacity
// sentinel as index.
func (h *Handle) reset(capacity int) {
	*h = Handle{index: capacity}
}

// Kind returns the handle's kind.
func (h *Handle) Kind() Kind { return h.kind }

// Initialized reports whether the slot holds a live registration.
func (h *Handle) Initialized() bool { return h.initialized }

// DataAvailable reports whether the handle has data pending dispatch.
// For action endpoints this aggregates the per-sub-entity flags.
func (h *Handle) DataAvailable() bool {
	switch h.kind {
	case KindActionClient:
		return h.actionClient.DataAvailable()
	case KindActionServer:
		return h.actionServer.DataAvailable()
	default:
		return h.dataAvailable
	}
}

// Ref returns the middleware reference behind the handle. Trigger
// predicates compare it against the object they were armed with; for
// action endpoints it is the transport endpoint, not the engine wrapper.
func (h *Handle) Ref() any {
	switch h.kind {
	case KindSubscription, KindSubscriptionWithContext:
		return h.subscription
	case KindTimer:
		return h.timer
	case KindClient, KindClientWithRequestID:
		return h.client
	case KindService, KindServiceWithRequestID, KindServiceWithContext:
		return h.service
	case KindGuardCondition:
		return h.guardCondition
	case KindActionClient:
		return h.actionClient.Middleware()
	case KindActionServer:
		return h.actionServer.Middleware()
	default:
		return nil
	}
}

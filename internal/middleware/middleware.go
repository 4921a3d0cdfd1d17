package middleware

import (
	"time"

	"github.com/google/uuid"
)

// GoalID identifies one action goal across the client/server protocol.
//
// Goal IDs are UUIDs on the wire; the alias keeps the executor and the
// transports speaking the same type without a conversion layer.
type GoalID = uuid.UUID

// RequestID correlates a request with its response on service and action
// endpoints. The sequence number is assigned by the transport when the
// request is sent and echoed back on the response.
type RequestID struct {
	SequenceNumber int64
}

// EntityCounts sizes a wait-set. One count per primitive entity kind the
// wait-set can hold. Action endpoints are aggregates: they contribute
// several primitive entities each (see ActionClient.EntityCounts).
type EntityCounts struct {
	Subscriptions   int
	GuardConditions int
	Timers          int
	Clients         int
	Services        int
	Events          int
}

// Add returns the element-wise sum of two counts.
func (c EntityCounts) Add(o EntityCounts) EntityCounts {
	return EntityCounts{
		Subscriptions:   c.Subscriptions + o.Subscriptions,
		GuardConditions: c.GuardConditions + o.GuardConditions,
		Timers:          c.Timers + o.Timers,
		Clients:         c.Clients + o.Clients,
		Services:        c.Services + o.Services,
		Events:          c.Events + o.Events,
	}
}

// Sub returns the element-wise difference of two counts.
func (c EntityCounts) Sub(o EntityCounts) EntityCounts {
	return EntityCounts{
		Subscriptions:   c.Subscriptions - o.Subscriptions,
		GuardConditions: c.GuardConditions - o.GuardConditions,
		Timers:          c.Timers - o.Timers,
		Clients:         c.Clients - o.Clients,
		Services:        c.Services - o.Services,
		Events:          c.Events - o.Events,
	}
}

// Clock is the monotonic time source the executor uses for period
// compensation. Implementations must be monotonic: Now never decreases.
type Clock interface {
	// Now returns the time elapsed since an arbitrary fixed origin.
	Now() time.Duration
	// Sleep blocks the calling goroutine for d. Non-positive d returns
	// immediately.
	Sleep(d time.Duration)
}

// Context represents the transport's lifetime. Spin loops exit when the
// context reports invalid; a wait-set can only be built from a valid
// context.
type Context interface {
	IsValid() bool
	// NewWaitSet allocates a readiness aggregator sized for counts.
	NewWaitSet(counts EntityCounts) (WaitSet, error)
}

// WaitSet aggregates readiness over a set of registered entities. It is
// the executor's only blocking point.
//
// Usage per cycle: Clear, Add* every live entity (recording the returned
// index), Wait, then query *Ready with the recorded indices. Indices are
// assigned per kind, densely from zero, in registration order.
type WaitSet interface {
	// Clear drops all registrations. Capacity is retained.
	Clear() error

	AddSubscription(s Subscription) (int, error)
	AddTimer(t Timer) (int, error)
	AddClient(c Client) (int, error)
	AddService(s Service) (int, error)
	AddGuardCondition(g GuardCondition) (int, error)

	// Wait blocks until at least one registered entity is ready or the
	// timeout elapses. Returns ErrTimeout on deadline; that is a normal
	// outcome, not a fault. Readiness observed by Wait is stable until
	// the next Clear or Wait.
	Wait(timeout time.Duration) error

	SubscriptionReady(index int) bool
	TimerReady(index int) bool
	ClientReady(index int) bool
	ServiceReady(index int) bool
	GuardConditionReady(index int) bool

	// Fini releases the wait-set. The wait-set must not be used after.
	Fini() error
}

// Subscription is a message source. Take drains exactly one message into
// the caller-owned buffer registered with the executor, or reports
// ErrTakeFailed when the queue is empty.
type Subscription interface {
	Take(into any) error
}

// Timer is a transport-owned timer. Call invokes the timer's registered
// function and advances its schedule; calling a canceled timer reports
// ErrTimerCanceled.
type Timer interface {
	Call() error
}

// Client is the requesting side of a request/response endpoint.
type Client interface {
	// TakeResponse drains one response into the caller-owned buffer and
	// returns the request id it answers. ErrTakeFailed when empty.
	TakeResponse(into any) (RequestID, error)
}

// Service is the serving side of a request/response endpoint.
type Service interface {
	// TakeRequest drains one request into the caller-owned buffer.
	// ErrTakeFailed when empty.
	TakeRequest(into any) (RequestID, error)
	// SendResponse answers the request identified by id.
	SendResponse(id RequestID, resp any) error
}

// GuardCondition is a manually triggerable readiness source. Triggering a
// guard condition wakes any wait-set it is registered with; the trigger is
// consumed by the wait that observes it.
type GuardCondition interface {
	Trigger()
}

// ClientReadiness carries the per-sub-entity readiness flags of one action
// client after a wait.
type ClientReadiness struct {
	Feedback       bool
	Status         bool
	GoalResponse   bool
	CancelResponse bool
	ResultResponse bool
}

// Any reports whether any flag is set.
func (r ClientReadiness) Any() bool {
	return r.Feedback || r.Status || r.GoalResponse || r.CancelResponse || r.ResultResponse
}

// ServerReadiness carries the per-sub-entity readiness flags of one action
// server after a wait.
type ServerReadiness struct {
	GoalRequest   bool
	CancelRequest bool
	ResultRequest bool
	GoalExpired   bool
}

// Any reports whether any flag is set.
func (r ServerReadiness) Any() bool {
	return r.GoalRequest || r.CancelRequest || r.ResultRequest || r.GoalExpired
}

// GoalStatus mirrors the action protocol goal states carried on the wire.
// The zero value is Unknown.
type GoalStatus int8

const (
	GoalStatusUnknown GoalStatus = iota
	GoalStatusAccepted
	GoalStatusExecuting
	GoalStatusCanceling
	GoalStatusSucceeded
	GoalStatusCanceled
	GoalStatusAborted
)

// Terminal reports whether the status is past Canceling, i.e. the goal has
// ended and its resources may be reclaimed.
func (s GoalStatus) Terminal() bool {
	return s > GoalStatusCanceling
}

// String returns the lower-case status name.
func (s GoalStatus) String() string {
	switch s {
	case GoalStatusUnknown:
		return "unknown"
	case GoalStatusAccepted:
		return "accepted"
	case GoalStatusExecuting:
		return "executing"
	case GoalStatusCanceling:
		return "canceling"
	case GoalStatusSucceeded:
		return "succeeded"
	case GoalStatusCanceled:
		return "canceled"
	case GoalStatusAborted:
		return "aborted"
	default:
		return "invalid"
	}
}

// CancelResponseCode classifies a cancel response sent by an action server.
type CancelResponseCode int

const (
	// CancelAccepted: the goal transitions to Canceling.
	CancelAccepted CancelResponseCode = iota
	// CancelRejected: the server declined the cancellation.
	CancelRejected
	// CancelUnknownGoal: no goal with the requested UUID is known.
	CancelUnknownGoal
	// CancelTerminated: the goal already reached a terminal state.
	CancelTerminated
)

// ActionClient is the transport endpoint for the requesting side of the
// action protocol. It is an aggregate entity: registering it with a
// wait-set registers its underlying subscriptions and clients.
type ActionClient interface {
	// EntityCounts returns how many primitive wait-set entities this
	// endpoint occupies. Used to size the wait-set.
	EntityCounts() (EntityCounts, error)
	// AddToWaitSet registers the endpoint's sub-entities and returns the
	// endpoint's index for Readiness queries.
	AddToWaitSet(ws WaitSet) (int, error)
	// Readiness reports which of the endpoint's responses became ready
	// during the wait.
	Readiness(ws WaitSet, index int) (ClientReadiness, error)

	TakeGoalResponse() (id RequestID, accepted bool, err error)
	// TakeFeedback drains one feedback message into the caller-owned
	// buffer and returns the goal it belongs to.
	TakeFeedback(into any) (GoalID, error)
	// TakeCancelResponse returns the answered cancel request id and the
	// goals the server reports as canceling. The returned slice is only
	// valid until the next take.
	TakeCancelResponse() (RequestID, []GoalID, error)
	TakeResultResponse(into any) (RequestID, error)

	SendGoalRequest(goal GoalID, req any) (int64, error)
	SendCancelRequest(goal GoalID) (int64, error)
	SendResultRequest(goal GoalID) (int64, error)
}

// ActionServer is the transport endpoint for the serving side of the
// action protocol.
type ActionServer interface {
	EntityCounts() (EntityCounts, error)
	AddToWaitSet(ws WaitSet) (int, error)
	Readiness(ws WaitSet, index int) (ServerReadiness, error)

	// TakeGoalRequest drains one goal request into the caller-owned
	// buffer and returns the request header and the goal UUID.
	TakeGoalRequest(into any) (RequestID, GoalID, error)
	TakeResultRequest() (RequestID, GoalID, error)
	TakeCancelRequest() (RequestID, GoalID, error)

	SendGoalResponse(id RequestID, accepted bool) error
	SendCancelResponse(id RequestID, code CancelResponseCode, goal GoalID) error
	// SendResult delivers the terminal status and result payload for the
	// result request identified by id.
	SendResult(id RequestID, status GoalStatus, result any) error
}

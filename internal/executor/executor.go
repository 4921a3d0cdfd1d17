package executor

import (
	"log/slog"
	"time"

	"github.com/roach88/spindle/internal/action"
	"github.com/roach88/spindle/internal/middleware"
)

// DefaultTimeout is the wait timeout applied until SetTimeout overrides it.
const DefaultTimeout = time.Second

// Semantics selects the data-communication policy of the dispatch step.
type Semantics int

const (
	// SemanticsRclcppLike interleaves take and execute per handle: a
	// later handle's callback observes outputs published by earlier
	// handles in the same cycle.
	SemanticsRclcppLike Semantics = iota
	// SemanticsLET latches all inputs before any callback runs: takes of
	// a cycle happen before every execute of that cycle.
	SemanticsLET
)

// String returns the semantics name.
func (s Semantics) String() string {
	switch s {
	case SemanticsRclcppLike:
		return "rclcpp"
	case SemanticsLET:
		return "let"
	default:
		return "invalid"
	}
}

// counters tracks the per-kind census of the handle table plus the
// primitive wait-set entities the registrations occupy. Action endpoints
// contribute their sub-entity counts so the wait-set is sized correctly.
type counters struct {
	entities      middleware.EntityCounts
	actionClients int
	actionServers int
}

// Executor is the dispatch engine. The zero value is inert; Init brings
// it up, Fini tears it down, and either may be repeated safely.
//
// Thread-safety: none. One executor is driven by exactly one goroutine.
type Executor struct {
	ctx   middleware.Context
	clock middleware.Clock

	handles []Handle
	count   int
	info    counters

	waitSet middleware.WaitSet // nil while invalid

	timeout        time.Duration
	invocationTime time.Duration // period anchor; 0 = unseeded

	trigger    Trigger
	triggerObj any

	semantics Semantics
	observer  Observer
}

// Option configures an executor at Init.
type Option func(*Executor)

// WithTimeout sets the wait timeout (default one second).
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// WithSemantics selects the data-communication semantics (default
// SemanticsRclcppLike).
func WithSemantics(s Semantics) Option {
	return func(e *Executor) { e.semantics = s }
}

// WithTrigger sets the trigger predicate and its opaque object (default
// TriggerAny).
func WithTrigger(t Trigger, obj any) Option {
	return func(e *Executor) { e.trigger, e.triggerObj = t, obj }
}

// WithClock overrides the monotonic clock used for period compensation.
// Tests use a manual clock here.
func WithClock(c middleware.Clock) Option {
	return func(e *Executor) { e.clock = c }
}

// WithObserver attaches a dispatch observer (default none). Observation
// is outside the zero-allocation guarantee.
func WithObserver(o Observer) Option {
	return func(e *Executor) { e.observer = o }
}

// New allocates and initializes an executor. Equivalent to declaring a
// zero Executor and calling Init.
func New(ctx middleware.Context, capacity int, opts ...Option) (*Executor, error) {
	e := &Executor{}
	if err := e.Init(ctx, capacity, opts...); err != nil {
		return nil, err
	}
	return e, nil
}

// Init brings an inert executor up: validates arguments, performs the
// single handle-table allocation and applies defaults and options.
func (e *Executor) Init(ctx middleware.Context, capacity int, opts ...Option) error {
	if ctx == nil {
		return invalidArgument("middleware context is nil")
	}
	if capacity <= 0 {
		return invalidArgument("capacity must be at least 1, got %d", capacity)
	}

	*e = Executor{
		ctx:       ctx,
		clock:     systemClock{},
		handles:   make([]Handle, capacity),
		timeout:   DefaultTimeout,
		trigger:   TriggerAny,
		semantics: SemanticsRclcppLike,
		observer:  nopObserver{},
	}
	for i := range e.handles {
		e.handles[i].reset(capacity)
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.trigger == nil {
		e.trigger = TriggerAny
	}

	slog.Debug("executor initialized",
		"capacity", capacity,
		"timeout", e.timeout,
		"semantics", e.semantics.String(),
	)
	return nil
}

// initialized reports whether Init has run and Fini has not.
func (e *Executor) initialized() bool { return e.handles != nil }

// Capacity returns the fixed handle-table capacity, 0 when inert.
func (e *Executor) Capacity() int { return len(e.handles) }

// Len returns the number of live handles.
func (e *Executor) Len() int { return e.count }

// SetTimeout changes the wait timeout used by Spin and the periodic
// loops.
func (e *Executor) SetTimeout(d time.Duration) error {
	if !e.initialized() {
		return invalidArgument("executor not initialized")
	}
	e.timeout = d
	return nil
}

// SetSemantics selects the data-communication semantics.
func (e *Executor) SetSemantics(s Semantics) error {
	if !e.initialized() {
		return invalidArgument("executor not initialized")
	}
	if s != SemanticsRclcppLike && s != SemanticsLET {
		return invalidArgument("unknown semantics %d", int(s))
	}
	e.semantics = s
	return nil
}

// SetTrigger replaces the trigger predicate and its opaque object.
func (e *Executor) SetTrigger(t Trigger, obj any) error {
	if !e.initialized() {
		return invalidArgument("executor not initialized")
	}
	if t == nil {
		return invalidArgument("trigger is nil")
	}
	e.trigger, e.triggerObj = t, obj
	return nil
}

// Fini releases the handle table and the wait-set. Calling Fini on an
// inert or already-finalized executor is a no-op success.
func (e *Executor) Fini() error {
	if !e.initialized() {
		return nil
	}
	if e.waitSet != nil {
		if err := e.waitSet.Fini(); err != nil {
			slog.Error("wait-set teardown failed", "error", err)
		}
	}
	*e = Executor{}
	slog.Debug("executor finalized")
	return nil
}

// nextSlot returns the append slot or the capacity error.
func (e *Executor) nextSlot() (*Handle, error) {
	if !e.initialized() {
		return nil, invalidArgument("executor not initialized")
	}
	if e.count == len(e.handles) {
		return nil, capacityExceeded(len(e.handles))
	}
	return &e.handles[e.count], nil
}

// commit finalizes an append: marks the slot live, bumps the census and
// invalidates the wait-set so the next spin rebuilds it.
func (e *Executor) commit(h *Handle) error {
	h.initialized = true
	e.count++
	return e.invalidateWaitSet()
}

// invalidateWaitSet tears down the current wait-set, if any. The rebuild
// is deferred to the next prepare so batch registration stays O(n).
func (e *Executor) invalidateWaitSet() error {
	if e.waitSet == nil {
		return nil
	}
	ws := e.waitSet
	e.waitSet = nil
	if err := ws.Fini(); err != nil {
		return middlewareError("wait-set invalidation failed", err)
	}
	return nil
}

// AddSubscription registers a message source. msg is the caller-owned
// buffer takes fill; cb receives it (or nil under Always with no data).
func (e *Executor) AddSubscription(sub middleware.Subscription, msg any, cb SubscriptionCallback, invocation Invocation) error {
	if sub == nil || msg == nil || cb == nil {
		return invalidArgument("subscription, message buffer and callback are required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return err
	}
	h.kind = KindSubscription
	h.subscription = sub
	h.data = msg
	h.subscriptionCB = cb
	h.invocation = invocation
	e.info.entities.Subscriptions++
	slog.Debug("added subscription", "slot", e.count)
	return e.commit(h)
}

// AddSubscriptionWithContext registers a message source whose callback
// also receives the opaque ctx. ctx may be nil.
func (e *Executor) AddSubscriptionWithContext(sub middleware.Subscription, msg any, cb SubscriptionContextCallback, ctx any, invocation Invocation) error {
	if sub == nil || msg == nil || cb == nil {
		return invalidArgument("subscription, message buffer and callback are required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return err
	}
	h.kind = KindSubscriptionWithContext
	h.subscription = sub
	h.data = msg
	h.subscriptionCtxCB = cb
	h.callbackCtx = ctx
	h.invocation = invocation
	e.info.entities.Subscriptions++
	slog.Debug("added subscription with context", "slot", e.count)
	return e.commit(h)
}

// AddTimer registers a middleware timer. The timer's own function runs
// when the executor calls it; timers dispatch OnNewData.
func (e *Executor) AddTimer(timer middleware.Timer) error {
	if timer == nil {
		return invalidArgument("timer is required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return err
	}
	h.kind = KindTimer
	h.timer = timer
	h.invocation = OnNewData
	e.info.entities.Timers++
	slog.Debug("added timer", "slot", e.count)
	return e.commit(h)
}

// AddClient registers the requesting side of a service pair. resp is the
// caller-owned response buffer.
func (e *Executor) AddClient(client middleware.Client, resp any, cb ClientCallback) error {
	if client == nil || resp == nil || cb == nil {
		return invalidArgument("client, response buffer and callback are required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return err
	}
	h.kind = KindClient
	h.client = client
	h.data = resp
	h.clientCB = cb
	h.invocation = OnNewData
	e.info.entities.Clients++
	slog.Debug("added client", "slot", e.count)
	return e.commit(h)
}

// AddClientWithRequestID registers a client whose callback also receives
// the request id the response answers.
func (e *Executor) AddClientWithRequestID(client middleware.Client, resp any, cb ClientRequestIDCallback) error {
	if client == nil || resp == nil || cb == nil {
		return invalidArgument("client, response buffer and callback are required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return err
	}
	h.kind = KindClientWithRequestID
	h.client = client
	h.data = resp
	h.clientReqIDCB = cb
	h.invocation = OnNewData
	e.info.entities.Clients++
	slog.Debug("added client with request id", "slot", e.count)
	return e.commit(h)
}

// AddService registers the serving side of a service pair. req receives
// taken requests; resp is filled by the callback and sent back.
func (e *Executor) AddService(service middleware.Service, req, resp any, cb ServiceCallback) error {
	if service == nil || req == nil || resp == nil || cb == nil {
		return invalidArgument("service, request buffer, response buffer and callback are required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return err
	}
	h.kind = KindService
	h.service = service
	h.data = req
	h.response = resp
	h.serviceCB = cb
	h.invocation = OnNewData
	e.info.entities.Services++
	slog.Debug("added service", "slot", e.count)
	return e.commit(h)
}

// AddServiceWithRequestID registers a service whose callback also
// receives the request id.
func (e *Executor) AddServiceWithRequestID(service middleware.Service, req, resp any, cb ServiceRequestIDCallback) error {
	if service == nil || req == nil || resp == nil || cb == nil {
		return invalidArgument("service, request buffer, response buffer and callback are required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return err
	}
	h.kind = KindServiceWithRequestID
	h.service = service
	h.data = req
	h.response = resp
	h.serviceReqIDCB = cb
	h.invocation = OnNewData
	e.info.entities.Services++
	slog.Debug("added service with request id", "slot", e.count)
	return e.commit(h)
}

// AddServiceWithContext registers a service whose callback also receives
// the opaque ctx. ctx may be nil.
func (e *Executor) AddServiceWithContext(service middleware.Service, req, resp any, cb ServiceContextCallback, ctx any) error {
	if service == nil || req == nil || resp == nil || cb == nil {
		return invalidArgument("service, request buffer, response buffer and callback are required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return err
	}
	h.kind = KindServiceWithContext
	h.service = service
	h.data = req
	h.response = resp
	h.serviceCtxCB = cb
	h.callbackCtx = ctx
	h.invocation = OnNewData
	e.info.entities.Services++
	slog.Debug("added service with context", "slot", e.count)
	return e.commit(h)
}

// AddGuardCondition registers a manually triggerable source.
func (e *Executor) AddGuardCondition(gc middleware.GuardCondition, cb GuardConditionCallback) error {
	if gc == nil || cb == nil {
		return invalidArgument("guard condition and callback are required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return err
	}
	h.kind = KindGuardCondition
	h.guardCondition = gc
	h.guardCB = cb
	h.invocation = OnNewData
	e.info.entities.GuardConditions++
	slog.Debug("added guard condition", "slot", e.count)
	return e.commit(h)
}

// AddActionClient registers the requesting side of an action endpoint.
// poolSize bounds concurrently in-flight goals; resultBuf and feedbackBuf
// are the caller-owned response buffers (feedbackBuf is required exactly
// when cbs.Feedback is set); ctx is passed to every action callback and
// may be nil.
//
// Registration allocates the goal pool and asks the transport how many
// primitive wait-set entities the endpoint occupies. The returned engine
// is how user code issues goals and cancellations; the executor advances
// its protocol state.
func (e *Executor) AddActionClient(mw middleware.ActionClient, poolSize int, resultBuf, feedbackBuf any, cbs action.ClientCallbacks, ctx any, opts ...action.ClientOption) (*action.Client, error) {
	if mw == nil {
		return nil, invalidArgument("action client endpoint is required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return nil, err
	}
	client, err := action.NewClient(mw, poolSize, resultBuf, feedbackBuf, cbs, opts...)
	if err != nil {
		return nil, invalidArgument("%v", err)
	}
	sub, err := mw.EntityCounts()
	if err != nil {
		return nil, middlewareError("action client entity counts", err)
	}
	h.kind = KindActionClient
	h.actionClient = client
	h.callbackCtx = ctx
	h.invocation = OnNewData
	e.info.entities = e.info.entities.Add(sub)
	e.info.actionClients++
	slog.Debug("added action client", "slot", e.count, "pool", poolSize)
	return client, e.commit(h)
}

// AddActionServer registers the serving side of an action endpoint.
// requests provides one caller-owned goal-request buffer per pool slot;
// its length is the pool size. ctx is passed to every action callback and
// may be nil.
func (e *Executor) AddActionServer(mw middleware.ActionServer, requests []any, cbs action.ServerCallbacks, ctx any) (*action.Server, error) {
	if mw == nil {
		return nil, invalidArgument("action server endpoint is required")
	}
	h, err := e.nextSlot()
	if err != nil {
		return nil, err
	}
	server, err := action.NewServer(mw, requests, cbs)
	if err != nil {
		return nil, invalidArgument("%v", err)
	}
	sub, err := mw.EntityCounts()
	if err != nil {
		return nil, middlewareError("action server entity counts", err)
	}
	h.kind = KindActionServer
	h.actionServer = server
	h.callbackCtx = ctx
	h.invocation = OnNewData
	e.info.entities = e.info.entities.Add(sub)
	e.info.actionServers++
	slog.Debug("added action server", "slot", e.count, "pool", len(requests))
	return server, e.commit(h)
}

// findHandle locates the live handle whose middleware reference equals
// ref, by interface identity.
func (e *Executor) findHandle(ref any) *Handle {
	for i := 0; i < e.count; i++ {
		if e.handles[i].Ref() == ref {
			return &e.handles[i]
		}
	}
	return nil
}

// removeHandle deletes a live handle, shifting the tail left so the
// remaining handles keep their insertion order, and invalidates the
// wait-set.
func (e *Executor) removeHandle(h *Handle) error {
	i := 0
	for ; i < e.count; i++ {
		if &e.handles[i] == h {
			break
		}
	}
	e.count--
	copy(e.handles[i:e.count], e.handles[i+1:e.count+1])
	e.handles[e.count].reset(len(e.handles))
	return e.invalidateWaitSet()
}

// remove validates, locates and deletes the handle for ref, applying the
// census delta on success.
func (e *Executor) remove(ref any, kind Kind, dec func(*counters)) error {
	if !e.initialized() {
		return invalidArgument("executor not initialized")
	}
	if ref == nil {
		return invalidArgument("reference is required")
	}
	h := e.findHandle(ref)
	if h == nil {
		return notFound(kind)
	}
	if err := e.removeHandle(h); err != nil {
		return err
	}
	dec(&e.info)
	slog.Debug("removed handle", "kind", kind.String())
	return nil
}

// RemoveSubscription deletes the handle registered for sub.
func (e *Executor) RemoveSubscription(sub middleware.Subscription) error {
	return e.remove(sub, KindSubscription, func(c *counters) { c.entities.Subscriptions-- })
}

// RemoveTimer deletes the handle registered for timer.
func (e *Executor) RemoveTimer(timer middleware.Timer) error {
	return e.remove(timer, KindTimer, func(c *counters) { c.entities.Timers-- })
}

// RemoveClient deletes the handle registered for client.
func (e *Executor) RemoveClient(client middleware.Client) error {
	return e.remove(client, KindClient, func(c *counters) { c.entities.Clients-- })
}

// RemoveService deletes the handle registered for service.
func (e *Executor) RemoveService(service middleware.Service) error {
	return e.remove(service, KindService, func(c *counters) { c.entities.Services-- })
}

// RemoveGuardCondition deletes the handle registered for gc.
func (e *Executor) RemoveGuardCondition(gc middleware.GuardCondition) error {
	return e.remove(gc, KindGuardCondition, func(c *counters) { c.entities.GuardConditions-- })
}

// RemoveActionClient deletes the handle registered for the transport
// endpoint mw, returning the sub-entity counts to the census.
func (e *Executor) RemoveActionClient(mw middleware.ActionClient) error {
	if mw == nil {
		return invalidArgument("reference is required")
	}
	sub, err := mw.EntityCounts()
	if err != nil {
		return middlewareError("action client entity counts", err)
	}
	return e.remove(mw, KindActionClient, func(c *counters) {
		c.entities = c.entities.Sub(sub)
		c.actionClients--
	})
}

// RemoveActionServer deletes the handle registered for the transport
// endpoint mw, returning the sub-entity counts to the census.
func (e *Executor) RemoveActionServer(mw middleware.ActionServer) error {
	if mw == nil {
		return invalidArgument("reference is required")
	}
	sub, err := mw.EntityCounts()
	if err != nil {
		return middlewareError("action server entity counts", err)
	}
	return e.remove(mw, KindActionServer, func(c *counters) {
		c.entities = c.entities.Sub(sub)
		c.actionServers--
	})
}

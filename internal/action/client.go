package action

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/spindle/internal/middleware"
)

// ClientCallbacks bundles the user callbacks of one action client. Goal
// and Result are required; Feedback and Cancel are optional.
type ClientCallbacks struct {
	// Goal runs once per goal response. accepted reports the server's
	// decision; a rejected goal's handle is released right after.
	Goal func(g *GoalHandle, accepted bool, ctx any)
	// Feedback runs once per feedback message, with the feedback buffer
	// registered at construction.
	Feedback func(g *GoalHandle, feedback any, ctx any)
	// Result runs once per result response, with the result buffer
	// registered at construction. The handle is released right after.
	Result func(g *GoalHandle, result any, ctx any)
	// Cancel runs once per cancel response. canceled reports whether the
	// server is canceling the goal.
	Cancel func(g *GoalHandle, canceled bool, ctx any)
}

// Client drives the requesting side of the action protocol for one
// endpoint. All goal bookkeeping lives in a fixed pool sized at
// construction; SendGoal is the only operation that can fail on capacity.
//
// Thread-safety: none. A Client belongs to the executor that registered
// it and is driven by that executor's thread.
type Client struct {
	mw   middleware.ActionClient
	pool *pool

	feedbackBuf any
	resultBuf   any

	cbs ClientCallbacks
	ids GoalIDGenerator

	ready middleware.ClientReadiness
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithGoalIDs overrides the goal UUID generator. Tests use this with a
// fixed sequence for deterministic goal identity.
func WithGoalIDs(g GoalIDGenerator) ClientOption {
	return func(c *Client) { c.ids = g }
}

// NewClient builds the client-side engine for one action endpoint.
//
// poolSize bounds the number of concurrently in-flight goals. resultBuf
// receives result responses; feedbackBuf receives feedback messages and is
// required exactly when cbs.Feedback is set.
func NewClient(mw middleware.ActionClient, poolSize int, resultBuf, feedbackBuf any, cbs ClientCallbacks, opts ...ClientOption) (*Client, error) {
	if mw == nil {
		return nil, fmt.Errorf("action client: middleware endpoint is nil")
	}
	if poolSize <= 0 {
		return nil, fmt.Errorf("action client: pool size must be positive, got %d", poolSize)
	}
	if resultBuf == nil {
		return nil, fmt.Errorf("action client: result buffer is nil")
	}
	if cbs.Goal == nil || cbs.Result == nil {
		return nil, fmt.Errorf("action client: goal and result callbacks are required")
	}
	if cbs.Feedback != nil && feedbackBuf == nil {
		return nil, fmt.Errorf("action client: feedback callback requires a feedback buffer")
	}
	if feedbackBuf == nil {
		// Sink for draining feedback nobody listens to.
		feedbackBuf = &[]byte{}
	}

	c := &Client{
		mw:          mw,
		pool:        newPool(poolSize),
		feedbackBuf: feedbackBuf,
		resultBuf:   resultBuf,
		cbs:         cbs,
		ids:         RandomGoalIDs{},
	}
	for i := range c.pool.slots {
		c.pool.slots[i].client = c
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Middleware returns the transport endpoint this client wraps. The
// executor uses it for wait-set registration and removal matching.
func (c *Client) Middleware() middleware.ActionClient { return c.mw }

// FreeGoalSlots returns the number of pool slots not currently in flight.
func (c *Client) FreeGoalSlots() int { return c.pool.freeCount() }

// SendGoal issues a new goal: acquires a pool slot, mints the goal UUID
// and sends the goal request. The returned handle stays owned by the
// client until the goal is rejected or its result arrives.
func (c *Client) SendGoal(req any) (*GoalHandle, error) {
	g := c.pool.acquire()
	if g == nil {
		return nil, ErrPoolExhausted
	}
	g.ID = c.ids.Generate()
	seq, err := c.mw.SendGoalRequest(g.ID, req)
	if err != nil {
		c.pool.release(g)
		return nil, fmt.Errorf("send goal request: %w", err)
	}
	g.goalSeq = seq
	g.status = middleware.GoalStatusUnknown
	return g, nil
}

// SendCancel requests cancellation of an in-flight goal. The outcome
// arrives as a cancel response dispatched to the Cancel callback.
func (c *Client) SendCancel(g *GoalHandle) error {
	if g == nil || g.client != c || c.pool.byID(g.ID) == nil {
		return ErrGoalNotCancelable
	}
	seq, err := c.mw.SendCancelRequest(g.ID)
	if err != nil {
		return fmt.Errorf("send cancel request: %w", err)
	}
	g.cancelSeq = seq
	return nil
}

// RefreshReadiness latches the endpoint's readiness flags from the
// wait-set. Called by the executor's collection step.
func (c *Client) RefreshReadiness(ws middleware.WaitSet, index int) error {
	r, err := c.mw.Readiness(ws, index)
	if err != nil {
		return fmt.Errorf("action client readiness: %w", err)
	}
	c.ready = r
	return nil
}

// DataAvailable reports whether the endpoint has work for the dispatch
// cycle: responses the wait latched as ready, or taken responses whose
// per-goal flags still await the execute step. The second half keeps the
// handle schedulable between take and execute within one cycle.
func (c *Client) DataAvailable() bool { return c.ready.Any() || c.pendingWork() }

// pendingWork reports per-goal flags raised by Take and not yet
// consumed by Execute.
func (c *Client) pendingWork() bool {
	return c.pool.first(func(g *GoalHandle) bool {
		return g.goalResponse || g.feedback || g.cancelResponse || g.resultResponse
	}) != nil
}

// Take drains every ready response, routing each to its goal handle.
// Aggregate readiness for a response kind is consumed by the take; the
// routed per-goal flags carry the work to the execute step. Unmatched
// responses are dropped.
func (c *Client) Take() error {
	if c.ready.GoalResponse {
		c.ready.GoalResponse = false
		id, accepted, err := c.mw.TakeGoalResponse()
		if err != nil {
			if errors.Is(err, middleware.ErrTakeFailed) {
				return nil
			}
			return fmt.Errorf("take goal response: %w", err)
		}
		if g := c.pool.first(func(g *GoalHandle) bool { return g.goalSeq == id.SequenceNumber }); g != nil {
			g.goalResponse = true
			g.accepted = accepted
		}
	}

	// Feedback is drained whether or not a callback is registered;
	// leaving it queued would keep the endpoint ready forever.
	if c.ready.Feedback {
		c.ready.Feedback = false
		goalID, err := c.mw.TakeFeedback(c.feedbackBuf)
		if err != nil {
			if errors.Is(err, middleware.ErrTakeFailed) {
				return nil
			}
			return fmt.Errorf("take feedback: %w", err)
		}
		if c.cbs.Feedback != nil {
			if g := c.pool.byID(goalID); g != nil {
				g.feedback = true
			}
		}
	}

	if c.ready.CancelResponse {
		c.ready.CancelResponse = false
		id, canceling, err := c.mw.TakeCancelResponse()
		if err != nil {
			if errors.Is(err, middleware.ErrTakeFailed) {
				return nil
			}
			return fmt.Errorf("take cancel response: %w", err)
		}
		if g := c.pool.first(func(g *GoalHandle) bool { return g.cancelSeq == id.SequenceNumber }); g != nil {
			g.cancelResponse = true
			g.cancelled = false
			for _, goalID := range canceling {
				if g.ID == goalID {
					g.cancelled = true
				}
			}
		}
	}

	if c.ready.ResultResponse {
		c.ready.ResultResponse = false
		id, err := c.mw.TakeResultResponse(c.resultBuf)
		if err != nil {
			if errors.Is(err, middleware.ErrTakeFailed) {
				return nil
			}
			return fmt.Errorf("take result response: %w", err)
		}
		if g := c.pool.first(func(g *GoalHandle) bool { return g.resultSeq == id.SequenceNumber }); g != nil {
			g.resultResponse = true
		}
	}

	c.ready.Status = false
	return nil
}

// Execute walks the goal list and dispatches every raised per-goal flag.
// Each flag is cleared before its callback runs, so a retried cycle never
// double-fires.
func (c *Client) Execute(ctx any) error {
	// Goal responses: accepted goals advance and issue the result
	// request; rejected goals are released.
	for {
		g := c.pool.first(func(g *GoalHandle) bool { return g.goalResponse })
		if g == nil {
			break
		}
		g.goalResponse = false
		c.cbs.Goal(g, g.accepted, ctx)
		if !g.accepted {
			c.pool.release(g)
			continue
		}
		seq, err := c.mw.SendResultRequest(g.ID)
		if err != nil {
			slog.Error("result request failed, releasing goal",
				"goal_id", g.ID,
				"error", err,
			)
			c.pool.release(g)
			continue
		}
		g.resultSeq = seq
		g.status = middleware.GoalStatusAccepted
	}

	c.pool.each(func(g *GoalHandle) {
		if g.feedback {
			g.feedback = false
			if c.cbs.Feedback != nil {
				c.cbs.Feedback(g, c.feedbackBuf, ctx)
			}
		}
	})

	c.pool.each(func(g *GoalHandle) {
		if g.cancelResponse {
			g.cancelResponse = false
			if c.cbs.Cancel != nil {
				c.cbs.Cancel(g, g.cancelled, ctx)
			}
		}
	})

	// Result responses end the goal: callback, then slot back to the pool.
	for {
		g := c.pool.first(func(g *GoalHandle) bool { return g.resultResponse })
		if g == nil {
			break
		}
		g.resultResponse = false
		c.cbs.Result(g, c.resultBuf, ctx)
		c.pool.release(g)
	}

	return nil
}

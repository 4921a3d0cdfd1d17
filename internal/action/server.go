package action

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/spindle/internal/middleware"
)

// GoalDecision is the user's verdict on a new goal. The zero value
// rejects, so a goal callback that forgets to decide fails closed.
type GoalDecision int

const (
	// GoalRejected declines the goal; a negative response is sent and
	// the slot is released.
	GoalRejected GoalDecision = iota
	// GoalAccepted admits the goal; a positive response is sent.
	GoalAccepted
)

// ServerCallbacks bundles the user callbacks of one action server. Both
// are required.
type ServerCallbacks struct {
	// Goal decides whether to admit a new goal. The handle's Request()
	// buffer holds the taken goal request.
	Goal func(g *GoalHandle, ctx any) GoalDecision
	// Cancel decides whether a Canceling goal may actually cancel.
	// Returning false reverts the goal to Executing.
	Cancel func(g *GoalHandle, ctx any) bool
}

// Server drives the serving side of the action protocol for one endpoint.
// Goal-request payloads land in caller-provided buffers bound one per pool
// slot at construction, so steady-state operation performs no allocation.
//
// Thread-safety: none. A Server belongs to the executor that registered it.
type Server struct {
	mw   middleware.ActionServer
	pool *pool

	cbs ServerCallbacks

	ready middleware.ServerReadiness

	// goalEnded is raised by the terminal helpers; the executor's next
	// execute pass reclaims terminated slots and lowers it.
	goalEnded bool
}

// NewServer builds the server-side engine for one action endpoint.
//
// requests provides one goal-request buffer per pool slot; its length is
// the pool size.
func NewServer(mw middleware.ActionServer, requests []any, cbs ServerCallbacks) (*Server, error) {
	if mw == nil {
		return nil, fmt.Errorf("action server: middleware endpoint is nil")
	}
	if len(requests) == 0 {
		return nil, fmt.Errorf("action server: at least one goal-request buffer is required")
	}
	if cbs.Goal == nil || cbs.Cancel == nil {
		return nil, fmt.Errorf("action server: goal and cancel callbacks are required")
	}
	for i, r := range requests {
		if r == nil {
			return nil, fmt.Errorf("action server: goal-request buffer %d is nil", i)
		}
	}

	s := &Server{
		mw:   mw,
		pool: newPool(len(requests)),
		cbs:  cbs,
	}
	for i := range s.pool.slots {
		s.pool.slots[i].server = s
		s.pool.slots[i].request = requests[i]
	}
	return s, nil
}

// Middleware returns the transport endpoint this server wraps.
func (s *Server) Middleware() middleware.ActionServer { return s.mw }

// FreeGoalSlots returns the number of pool slots not currently in flight.
func (s *Server) FreeGoalSlots() int { return s.pool.freeCount() }

// RefreshReadiness latches the endpoint's readiness flags from the
// wait-set. Called by the executor's collection step.
func (s *Server) RefreshReadiness(ws middleware.WaitSet, index int) error {
	r, err := s.mw.Readiness(ws, index)
	if err != nil {
		return fmt.Errorf("action server readiness: %w", err)
	}
	s.ready = r
	return nil
}

// DataAvailable reports whether the endpoint has work for the dispatch
// cycle: requests the wait latched as ready, taken requests whose
// per-goal state still awaits the execute step, or goals awaiting
// terminal reclamation. The middle case keeps the handle schedulable
// between take and execute within one cycle.
func (s *Server) DataAvailable() bool {
	return s.ready.Any() || s.goalEnded || s.pendingWork()
}

// pendingWork reports per-goal state raised by Take and not yet
// consumed by Execute: undecided goals and unanswered cancel requests.
func (s *Server) pendingWork() bool {
	return s.pool.first(func(g *GoalHandle) bool {
		return g.status == middleware.GoalStatusUnknown || g.cancelRequested
	}) != nil
}

// Take drains every ready request. Goal requests acquire a pool slot;
// when the pool is exhausted the request stays queued in the transport
// for a later cycle. Cancel requests for unknown or non-cancelable goals
// are answered immediately and never fail the cycle.
func (s *Server) Take() error {
	if s.ready.GoalRequest {
		s.ready.GoalRequest = false
		if g := s.pool.acquire(); g != nil {
			id, goalID, err := s.mw.TakeGoalRequest(g.request)
			if err != nil {
				s.pool.release(g)
				if !errors.Is(err, middleware.ErrTakeFailed) {
					return fmt.Errorf("take goal request: %w", err)
				}
			} else {
				g.requestHeader = id
				g.ID = goalID
				g.status = middleware.GoalStatusUnknown
			}
		}
	}

	if s.ready.ResultRequest {
		s.ready.ResultRequest = false
		id, goalID, err := s.mw.TakeResultRequest()
		if err != nil {
			if !errors.Is(err, middleware.ErrTakeFailed) {
				return fmt.Errorf("take result request: %w", err)
			}
		} else if g := s.pool.byID(goalID); g != nil {
			g.resultHeader = id
			g.status = middleware.GoalStatusExecuting
		}
		// A result request for an unknown UUID is a caller error and is
		// dropped; the requester never receives a result.
	}

	if s.ready.CancelRequest {
		s.ready.CancelRequest = false
		id, goalID, err := s.mw.TakeCancelRequest()
		if err != nil {
			if !errors.Is(err, middleware.ErrTakeFailed) {
				return fmt.Errorf("take cancel request: %w", err)
			}
			return nil
		}
		g := s.pool.byID(goalID)
		switch {
		case g == nil:
			s.rejectCancel(id, middleware.CancelUnknownGoal, goalID)
		case Transition(g.status, EventCancelGoal) == middleware.GoalStatusCanceling:
			g.cancelHeader = id
			g.status = middleware.GoalStatusCanceling
			g.cancelRequested = true
		case g.status.Terminal():
			s.rejectCancel(id, middleware.CancelTerminated, goalID)
		default:
			// Known goal in a state that cannot cancel: an immediate
			// rejection, never a cycle failure.
			s.rejectCancel(id, middleware.CancelRejected, goalID)
		}
	}

	s.ready.GoalExpired = false
	return nil
}

// Execute reclaims terminated goals, decides pending goal requests and
// resolves pending cancellations.
func (s *Server) Execute(ctx any) error {
	if s.goalEnded {
		for {
			g := s.pool.first(func(g *GoalHandle) bool { return g.status.Terminal() })
			if g == nil {
				break
			}
			s.pool.release(g)
		}
		s.goalEnded = false
	}

	// New goals: the user decides, the verdict is sent, rejected slots
	// are released.
	for {
		g := s.pool.first(func(g *GoalHandle) bool { return g.status == middleware.GoalStatusUnknown })
		if g == nil {
			break
		}
		if s.cbs.Goal(g, ctx) == GoalAccepted {
			if err := s.mw.SendGoalResponse(g.requestHeader, true); err != nil {
				return fmt.Errorf("send goal response: %w", err)
			}
			g.status = middleware.GoalStatusAccepted
		} else {
			if err := s.mw.SendGoalResponse(g.requestHeader, false); err != nil {
				return fmt.Errorf("send goal response: %w", err)
			}
			s.pool.release(g)
		}
	}

	// Pending cancellations: one callback per taken cancel request.
	var execErr error
	s.pool.each(func(g *GoalHandle) {
		if execErr != nil || !g.cancelRequested {
			return
		}
		g.cancelRequested = false
		if s.cbs.Cancel(g, ctx) {
			if err := s.mw.SendCancelResponse(g.cancelHeader, middleware.CancelAccepted, g.ID); err != nil {
				execErr = fmt.Errorf("send cancel response: %w", err)
			}
		} else {
			s.rejectCancel(g.cancelHeader, middleware.CancelRejected, g.ID)
			g.status = middleware.GoalStatusExecuting
		}
	})

	return execErr
}

// rejectCancel answers a cancel request negatively. Failures are logged
// and swallowed: a lost rejection must not poison the cycle.
func (s *Server) rejectCancel(id middleware.RequestID, code middleware.CancelResponseCode, goal middleware.GoalID) {
	if err := s.mw.SendCancelResponse(id, code, goal); err != nil {
		slog.Error("cancel rejection failed",
			"goal_id", goal,
			"code", int(code),
			"error", err,
		)
	}
}

// finish ends a goal: validates the transition, delivers the stashed
// result response and schedules the slot for reclamation.
func (s *Server) finish(g *GoalHandle, e GoalEvent, result any) error {
	next := Transition(g.status, e)
	if !next.Terminal() {
		return fmt.Errorf("%w: cannot end goal in state %s", ErrBadTransition, g.status)
	}
	g.status = next
	if err := s.mw.SendResult(g.resultHeader, next, result); err != nil {
		return fmt.Errorf("send result: %w", err)
	}
	s.goalEnded = true
	return nil
}

// Succeed marks a server-side goal successful and delivers result to the
// requester. The slot is reclaimed on the executor's next pass.
func (g *GoalHandle) Succeed(result any) error {
	if g.server == nil {
		return fmt.Errorf("%w: not a server goal", ErrBadTransition)
	}
	return g.server.finish(g, EventSucceed, result)
}

// Abort marks a server-side goal aborted and delivers result.
func (g *GoalHandle) Abort(result any) error {
	if g.server == nil {
		return fmt.Errorf("%w: not a server goal", ErrBadTransition)
	}
	return g.server.finish(g, EventAbort, result)
}

// Canceled completes cancellation of a Canceling server-side goal and
// delivers result.
func (g *GoalHandle) Canceled(result any) error {
	if g.server == nil {
		return fmt.Errorf("%w: not a server goal", ErrBadTransition)
	}
	return g.server.finish(g, EventCanceled, result)
}

package action

import "github.com/roach88/spindle/internal/middleware"

// GoalEvent is a requested transition on a server-side goal.
type GoalEvent int

const (
	// EventExecute: the first result request arrived; work is underway.
	EventExecute GoalEvent = iota
	// EventCancelGoal: a cancel request targets the goal.
	EventCancelGoal
	// EventSucceed: the user marked the goal successful.
	EventSucceed
	// EventAbort: the user aborted the goal.
	EventAbort
	// EventCanceled: cancellation completed.
	EventCanceled
)

// Transition applies the action protocol state chart. It returns the
// resulting state, or GoalStatusUnknown when the event is not legal in the
// current state. Callers gate on the return value; an illegal transition
// is the caller's signal to reject the request, never a fault.
func Transition(s middleware.GoalStatus, e GoalEvent) middleware.GoalStatus {
	switch s {
	case middleware.GoalStatusAccepted:
		switch e {
		case EventExecute:
			return middleware.GoalStatusExecuting
		case EventCancelGoal:
			return middleware.GoalStatusCanceling
		}
	case middleware.GoalStatusExecuting:
		switch e {
		case EventCancelGoal:
			return middleware.GoalStatusCanceling
		case EventSucceed:
			return middleware.GoalStatusSucceeded
		case EventAbort:
			return middleware.GoalStatusAborted
		}
	case middleware.GoalStatusCanceling:
		switch e {
		case EventSucceed:
			return middleware.GoalStatusSucceeded
		case EventAbort:
			return middleware.GoalStatusAborted
		case EventCanceled:
			return middleware.GoalStatusCanceled
		}
	}
	return middleware.GoalStatusUnknown
}

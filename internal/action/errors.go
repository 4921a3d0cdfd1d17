package action

import "errors"

var (
	// ErrPoolExhausted: a goal was issued while every pool slot is in
	// flight. The caller decides whether to retry after a goal ends.
	ErrPoolExhausted = errors.New("goal pool exhausted")

	// ErrGoalNotCancelable: SendCancel on a handle this client does not
	// own or that has already ended.
	ErrGoalNotCancelable = errors.New("goal not cancelable")

	// ErrBadTransition: a terminal helper was called in a state that
	// does not permit it.
	ErrBadTransition = errors.New("illegal goal state transition")
)

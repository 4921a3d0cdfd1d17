package action

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/spindle/internal/middleware"
)

func TestTransition_LegalPaths(t *testing.T) {
	assert.Equal(t, middleware.GoalStatusExecuting,
		Transition(middleware.GoalStatusAccepted, EventExecute))
	assert.Equal(t, middleware.GoalStatusCanceling,
		Transition(middleware.GoalStatusAccepted, EventCancelGoal))
	assert.Equal(t, middleware.GoalStatusCanceling,
		Transition(middleware.GoalStatusExecuting, EventCancelGoal))
	assert.Equal(t, middleware.GoalStatusSucceeded,
		Transition(middleware.GoalStatusExecuting, EventSucceed))
	assert.Equal(t, middleware.GoalStatusAborted,
		Transition(middleware.GoalStatusExecuting, EventAbort))
	assert.Equal(t, middleware.GoalStatusCanceled,
		Transition(middleware.GoalStatusCanceling, EventCanceled))
	assert.Equal(t, middleware.GoalStatusSucceeded,
		Transition(middleware.GoalStatusCanceling, EventSucceed))
	assert.Equal(t, middleware.GoalStatusAborted,
		Transition(middleware.GoalStatusCanceling, EventAbort))
}

func TestTransition_IllegalPathsYieldUnknown(t *testing.T) {
	// Terminal states accept nothing.
	for _, s := range []middleware.GoalStatus{
		middleware.GoalStatusSucceeded,
		middleware.GoalStatusCanceled,
		middleware.GoalStatusAborted,
	} {
		assert.Equal(t, middleware.GoalStatusUnknown, Transition(s, EventCancelGoal), "state %s", s)
		assert.Equal(t, middleware.GoalStatusUnknown, Transition(s, EventSucceed), "state %s", s)
	}

	// An undecided goal cannot cancel or end.
	assert.Equal(t, middleware.GoalStatusUnknown,
		Transition(middleware.GoalStatusUnknown, EventCancelGoal))
	assert.Equal(t, middleware.GoalStatusUnknown,
		Transition(middleware.GoalStatusAccepted, EventSucceed))
}

func TestGoalStatus_Terminal(t *testing.T) {
	assert.False(t, middleware.GoalStatusUnknown.Terminal())
	assert.False(t, middleware.GoalStatusAccepted.Terminal())
	assert.False(t, middleware.GoalStatusExecuting.Terminal())
	assert.False(t, middleware.GoalStatusCanceling.Terminal())
	assert.True(t, middleware.GoalStatusSucceeded.Terminal())
	assert.True(t, middleware.GoalStatusCanceled.Terminal())
	assert.True(t, middleware.GoalStatusAborted.Terminal())
}

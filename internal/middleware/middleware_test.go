package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityCounts_AddSub(t *testing.T) {
	a := EntityCounts{Subscriptions: 1, Timers: 2, Clients: 3}
	b := EntityCounts{Subscriptions: 2, Services: 4, GuardConditions: 1}

	sum := a.Add(b)
	assert.Equal(t, EntityCounts{
		Subscriptions:   3,
		Timers:          2,
		Clients:         3,
		Services:        4,
		GuardConditions: 1,
	}, sum)

	assert.Equal(t, a, sum.Sub(b), "Sub inverts Add")
}

func TestClientReadiness_Any(t *testing.T) {
	assert.False(t, ClientReadiness{}.Any())
	assert.True(t, ClientReadiness{Feedback: true}.Any())
	assert.True(t, ClientReadiness{ResultResponse: true}.Any())
}

func TestServerReadiness_Any(t *testing.T) {
	assert.False(t, ServerReadiness{}.Any())
	assert.True(t, ServerReadiness{GoalRequest: true}.Any())
	assert.True(t, ServerReadiness{GoalExpired: true}.Any())
}

func TestGoalStatus_Strings(t *testing.T) {
	assert.Equal(t, "unknown", GoalStatusUnknown.String())
	assert.Equal(t, "canceling", GoalStatusCanceling.String())
	assert.Equal(t, "succeeded", GoalStatusSucceeded.String())
	assert.Equal(t, "invalid", GoalStatus(42).String())
}

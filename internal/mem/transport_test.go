package mem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/spindle/internal/middleware"
)

// waitPending polls until the subscription holds at least n messages.
func waitPending(t *testing.T, sub *Subscription, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for sub.Pending() < n {
		if time.Now().After(deadline) {
			t.Fatalf("subscription never reached %d pending messages", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTransport_PublishSubscribe(t *testing.T) {
	tr := NewTransport()
	defer tr.Shutdown()

	sub, err := tr.NewSubscription("chatter")
	require.NoError(t, err)

	require.NoError(t, tr.Publish("chatter", []byte("hello")))
	waitPending(t, sub, 1)

	var buf []byte
	require.NoError(t, sub.Take(&buf))
	assert.Equal(t, "hello", string(buf))

	assert.ErrorIs(t, sub.Take(&buf), middleware.ErrTakeFailed, "drained queue reports take-failed")
}

func TestTransport_FanOut(t *testing.T) {
	tr := NewTransport()
	defer tr.Shutdown()

	s1, err := tr.NewSubscription("topic")
	require.NoError(t, err)
	s2, err := tr.NewSubscription("topic")
	require.NoError(t, err)

	require.NoError(t, tr.Publish("topic", []byte("fan")))
	waitPending(t, s1, 1)
	waitPending(t, s2, 1)

	var b1, b2 []byte
	require.NoError(t, s1.Take(&b1))
	require.NoError(t, s2.Take(&b2))
	assert.Equal(t, "fan", string(b1))
	assert.Equal(t, "fan", string(b2))
}

func TestTransport_ShutdownInvalidates(t *testing.T) {
	tr := NewTransport()
	assert.True(t, tr.IsValid())

	tr.Shutdown()
	assert.False(t, tr.IsValid())
	assert.Error(t, tr.Publish("x", nil))
	_, err := tr.NewSubscription("x")
	assert.Error(t, err)

	tr.Shutdown() // idempotent
}

func TestService_RoundTrip(t *testing.T) {
	tr := NewTransport()
	defer tr.Shutdown()

	svc, err := tr.NewService("adder")
	require.NoError(t, err)
	client, err := tr.NewClient("adder")
	require.NoError(t, err)

	seq, err := client.SendRequest([]byte("2+2"))
	require.NoError(t, err)

	var req []byte
	id, err := svc.TakeRequest(&req)
	require.NoError(t, err)
	assert.Equal(t, seq, id.SequenceNumber)
	assert.Equal(t, "2+2", string(req))

	resp := []byte("4")
	require.NoError(t, svc.SendResponse(id, &resp))

	var got []byte
	gotID, err := client.TakeResponse(&got)
	require.NoError(t, err)
	assert.Equal(t, seq, gotID.SequenceNumber)
	assert.Equal(t, "4", string(got))
}

func TestService_DuplicateNameRejected(t *testing.T) {
	tr := NewTransport()
	defer tr.Shutdown()

	_, err := tr.NewService("svc")
	require.NoError(t, err)
	_, err = tr.NewService("svc")
	assert.Error(t, err)

	_, err = tr.NewClient("missing")
	assert.Error(t, err, "client needs an existing service")
}

func TestService_SendResponseUnknownRequest(t *testing.T) {
	tr := NewTransport()
	defer tr.Shutdown()

	svc, err := tr.NewService("svc")
	require.NoError(t, err)
	resp := []byte("x")
	assert.Error(t, svc.SendResponse(middleware.RequestID{SequenceNumber: 99}, &resp))
}

func TestTimer_CallAdvancesSchedule(t *testing.T) {
	clock := &manualClock{}
	tr := NewTransport(WithClock(clock))
	defer tr.Shutdown()

	fired := 0
	timer, err := tr.NewTimer(10*time.Millisecond, func() { fired++ })
	require.NoError(t, err)

	assert.False(t, timer.due(clock.Now()))
	clock.now = 10 * time.Millisecond
	assert.True(t, timer.due(clock.Now()))

	require.NoError(t, timer.Call())
	assert.Equal(t, 1, fired)
	assert.False(t, timer.due(clock.Now()), "call advances the deadline")

	timer.Cancel()
	assert.ErrorIs(t, timer.Call(), middleware.ErrTimerCanceled)
	clock.now = time.Second
	assert.False(t, timer.due(clock.Now()), "canceled timer never becomes due")
}

func TestTimer_RejectsNonPositivePeriod(t *testing.T) {
	tr := NewTransport()
	defer tr.Shutdown()
	_, err := tr.NewTimer(0, nil)
	assert.Error(t, err)
}

func TestGuardCondition_TriggerConsumedByWait(t *testing.T) {
	tr := NewTransport()
	defer tr.Shutdown()

	gc, err := tr.NewGuardCondition()
	require.NoError(t, err)

	ws, err := tr.NewWaitSet(middleware.EntityCounts{GuardConditions: 1})
	require.NoError(t, err)
	idx, err := ws.AddGuardCondition(gc)
	require.NoError(t, err)

	gc.Trigger()
	require.NoError(t, ws.Wait(10*time.Millisecond))
	assert.True(t, ws.GuardConditionReady(idx))

	// The trigger was consumed by the wait.
	require.NoError(t, ws.Clear())
	idx, err = ws.AddGuardCondition(gc)
	require.NoError(t, err)
	assert.ErrorIs(t, ws.Wait(5*time.Millisecond), middleware.ErrTimeout)
	assert.False(t, ws.GuardConditionReady(idx))
}

// manualClock is a minimal in-package manual clock for timer tests.
type manualClock struct {
	now time.Duration
}

func (c *manualClock) Now() time.Duration { return c.now }
func (c *manualClock) Sleep(d time.Duration) {
	if d > 0 {
		c.now += d
	}
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/spindle/internal/trace"
)

// AssertDelivered checks that the run delivered exactly payloads on
// topic, in order.
func AssertDelivered(t *testing.T, result *Result, topic string, payloads ...string) {
	t.Helper()
	var got []string
	for _, d := range result.Deliveries {
		if d.Topic == topic {
			got = append(got, d.Payload)
		}
	}
	assert.Equal(t, payloads, got, "deliveries on %q", topic)
}

// AssertDeliveryOrder checks the full delivery sequence across topics.
func AssertDeliveryOrder(t *testing.T, result *Result, want ...Delivery) {
	t.Helper()
	assert.Equal(t, want, result.Deliveries, "delivery order")
}

// AssertCallbackCount checks how many callbacks ran in total.
func AssertCallbackCount(t *testing.T, result *Result, want int) {
	t.Helper()
	count := 0
	for _, e := range result.Trace {
		if e.Op == trace.OpExecute {
			count++
		}
	}
	assert.Equal(t, want, count, "executed callbacks")
}

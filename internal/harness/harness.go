package harness

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/spindle/internal/executor"
	"github.com/roach88/spindle/internal/mem"
	"github.com/roach88/spindle/internal/middleware"
	"github.com/roach88/spindle/internal/trace"
)

// deliveryDeadline bounds how long the harness waits for the bus to hand
// a published message to a subscription before a cycle spins.
const deliveryDeadline = 2 * time.Second

// Delivery is one callback invocation observed during a run.
type Delivery struct {
	Topic   string
	Payload string
}

// Result is the observable outcome of a scenario run.
type Result struct {
	// Trace is the recorded dispatch trace.
	Trace []trace.Event
	// Deliveries are the subscription callback invocations in dispatch
	// order. An Always-policy callback with no data records the payload
	// "(none)".
	Deliveries []Delivery
}

// Render returns the canonical text form of the result: the trace lines,
// a separator, then one line per delivery. Golden files hold exactly
// this.
func (r *Result) Render() string {
	var b strings.Builder
	b.WriteString(trace.Render(r.Trace))
	b.WriteString("---\n")
	for _, d := range r.Deliveries {
		fmt.Fprintf(&b, "deliver %s %s\n", d.Topic, d.Payload)
	}
	return b.String()
}

// Run executes a scenario on a fresh in-memory transport and returns the
// recorded result.
func Run(s *Scenario) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	semantics, _ := s.semantics()
	trigger, _ := s.trigger()

	transport := mem.NewTransport()
	defer transport.Shutdown()

	recorder := trace.NewRecorder()
	exec, err := executor.New(transport, s.Capacity,
		executor.WithSemantics(semantics),
		executor.WithTrigger(trigger, nil),
		executor.WithObserver(recorder),
	)
	if err != nil {
		return nil, fmt.Errorf("build executor: %w", err)
	}
	defer exec.Fini()

	result := &Result{}

	// One subscription per declaration, in order. The callback records
	// the delivery; buffers are per-subscription.
	subs := make(map[string][]*mem.Subscription)
	for _, spec := range s.Subscriptions {
		spec := spec
		sub, err := transport.NewSubscription(spec.Topic)
		if err != nil {
			return nil, fmt.Errorf("subscribe %q: %w", spec.Topic, err)
		}
		invocation, _ := spec.invocation()
		buf := make([]byte, 0, 256)
		err = exec.AddSubscription(sub, &buf, func(msg any) {
			if msg == nil {
				result.Deliveries = append(result.Deliveries, Delivery{Topic: spec.Topic, Payload: "(none)"})
				return
			}
			payload := *msg.(*[]byte)
			result.Deliveries = append(result.Deliveries, Delivery{Topic: spec.Topic, Payload: string(payload)})
		}, invocation)
		if err != nil {
			return nil, fmt.Errorf("register %q: %w", spec.Topic, err)
		}
		subs[spec.Topic] = append(subs[spec.Topic], sub)
	}

	for i, cycle := range s.Cycles {
		for _, pub := range cycle.Publish {
			if err := publishAndSettle(transport, subs[pub.Topic], pub.Topic, pub.Payload); err != nil {
				return nil, fmt.Errorf("cycle %d: %w", i, err)
			}
		}
		timeout := time.Duration(cycle.TimeoutMS) * time.Millisecond
		if cycle.TimeoutMS == 0 {
			timeout = 100 * time.Millisecond
		}
		if err := exec.SpinSome(timeout); err != nil && !errors.Is(err, middleware.ErrTimeout) {
			return nil, fmt.Errorf("cycle %d: spin: %w", i, err)
		}
	}

	result.Trace = recorder.Events()
	return result, nil
}

// publishAndSettle publishes one message and blocks until every
// subscription of the topic holds it. This pins down the bus's
// asynchronous delivery so traces are deterministic.
func publishAndSettle(t *mem.Transport, subs []*mem.Subscription, topic, payload string) error {
	prior := make([]int, len(subs))
	for i, sub := range subs {
		prior[i] = sub.Pending()
	}
	if err := t.Publish(topic, []byte(payload)); err != nil {
		return err
	}
	deadline := time.Now().Add(deliveryDeadline)
	for i, sub := range subs {
		for sub.Pending() <= prior[i] {
			if time.Now().After(deadline) {
				return fmt.Errorf("message on %q not delivered in time", topic)
			}
			time.Sleep(time.Millisecond)
		}
	}
	return nil
}

package mem

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/eapache/queue"

	"github.com/roach88/spindle/internal/middleware"
)

// Subscription is one topic consumer. A pump goroutine moves messages
// from the bus into the FIFO queue; Take pops them on the executor
// thread. The queue is unbounded — the executor's cadence bounds it in
// practice.
type Subscription struct {
	t     *Transport
	topic string
	q     *queue.Queue
}

// NewSubscription subscribes to topic and starts its pump.
func (t *Transport) NewSubscription(topic string) (*Subscription, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("transport is shut down")
	}
	msgs, err := t.bus.Subscribe(t.runCtx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %q: %w", topic, err)
	}
	s := &Subscription{t: t, topic: topic, q: queue.New()}
	go s.pump(msgs)
	return s, nil
}

// pump drains the bus channel into the take queue. Exits when the
// transport shuts down and the bus closes the channel.
func (s *Subscription) pump(msgs <-chan *message.Message) {
	for msg := range msgs {
		s.t.mu.Lock()
		s.q.Add([]byte(msg.Payload))
		s.t.pokeAll()
		s.t.mu.Unlock()
		msg.Ack()
	}
	slog.Debug("subscription pump stopped", "topic", s.topic)
}

// Take implements middleware.Subscription.
func (s *Subscription) Take(into any) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.q.Length() == 0 {
		return middleware.ErrTakeFailed
	}
	payload := s.q.Remove().([]byte)
	return copyInto(into, payload)
}

// ready reports pending messages. Caller holds t.mu.
func (s *Subscription) ready() bool { return s.q.Length() > 0 }

// Pending returns the number of queued messages. Tests and the harness
// use it to wait out the bus's asynchronous delivery.
func (s *Subscription) Pending() int {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.q.Length()
}

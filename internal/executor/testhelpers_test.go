package executor

import (
	"time"

	"github.com/roach88/spindle/internal/middleware"
)

// In-package fakes for the middleware boundary. The fake wait-set never
// blocks: Wait reports ready when any registered entity has data, else
// timeout. That keeps every executor test synchronous and deterministic.

type fakeContext struct {
	invalid  bool
	ws       *fakeWaitSet
	buildErr error

	builds     int
	lastCounts middleware.EntityCounts
}

func newFakeContext() *fakeContext {
	return &fakeContext{ws: &fakeWaitSet{}}
}

func (c *fakeContext) IsValid() bool { return !c.invalid }

func (c *fakeContext) NewWaitSet(counts middleware.EntityCounts) (middleware.WaitSet, error) {
	if c.buildErr != nil {
		return nil, c.buildErr
	}
	c.builds++
	c.lastCounts = counts
	return c.ws, nil
}

type fakeWaitSet struct {
	subs     []*fakeSub
	timers   []*fakeTimer
	clients  []*fakeClient
	services []*fakeService
	guards   []*fakeGuard

	clears int
	finis  int
	waits  int
}

func (w *fakeWaitSet) Clear() error {
	w.clears++
	w.subs = w.subs[:0]
	w.timers = w.timers[:0]
	w.clients = w.clients[:0]
	w.services = w.services[:0]
	w.guards = w.guards[:0]
	return nil
}

func (w *fakeWaitSet) AddSubscription(s middleware.Subscription) (int, error) {
	w.subs = append(w.subs, s.(*fakeSub))
	return len(w.subs) - 1, nil
}

func (w *fakeWaitSet) AddTimer(t middleware.Timer) (int, error) {
	w.timers = append(w.timers, t.(*fakeTimer))
	return len(w.timers) - 1, nil
}

func (w *fakeWaitSet) AddClient(c middleware.Client) (int, error) {
	w.clients = append(w.clients, c.(*fakeClient))
	return len(w.clients) - 1, nil
}

func (w *fakeWaitSet) AddService(s middleware.Service) (int, error) {
	w.services = append(w.services, s.(*fakeService))
	return len(w.services) - 1, nil
}

func (w *fakeWaitSet) AddGuardCondition(g middleware.GuardCondition) (int, error) {
	w.guards = append(w.guards, g.(*fakeGuard))
	return len(w.guards) - 1, nil
}

func (w *fakeWaitSet) Wait(timeout time.Duration) error {
	w.waits++
	for _, s := range w.subs {
		if s.ready() {
			return nil
		}
	}
	for _, t := range w.timers {
		if t.ready() {
			return nil
		}
	}
	for _, c := range w.clients {
		if c.ready() {
			return nil
		}
	}
	for _, s := range w.services {
		if s.ready() {
			return nil
		}
	}
	for _, g := range w.guards {
		if g.ready() {
			return nil
		}
	}
	return middleware.ErrTimeout
}

func (w *fakeWaitSet) SubscriptionReady(i int) bool {
	return i < len(w.subs) && w.subs[i].ready()
}
func (w *fakeWaitSet) TimerReady(i int) bool { return i < len(w.timers) && w.timers[i].ready() }
func (w *fakeWaitSet) ClientReady(i int) bool {
	return i < len(w.clients) && w.clients[i].ready()
}
func (w *fakeWaitSet) ServiceReady(i int) bool {
	return i < len(w.services) && w.services[i].ready()
}
func (w *fakeWaitSet) GuardConditionReady(i int) bool {
	return i < len(w.guards) && w.guards[i].consume()
}

func (w *fakeWaitSet) Fini() error {
	w.finis++
	return nil
}

// fakeSub queues byte payloads. takeErr, when set, fails the next take.
type fakeSub struct {
	msgs    [][]byte
	takeErr error
	onTake  func()
}

func (s *fakeSub) push(payload string) { s.msgs = append(s.msgs, []byte(payload)) }

func (s *fakeSub) ready() bool { return len(s.msgs) > 0 || s.takeErr != nil }

func (s *fakeSub) Take(into any) error {
	if s.onTake != nil {
		s.onTake()
	}
	if s.takeErr != nil {
		err := s.takeErr
		s.takeErr = nil
		return err
	}
	if len(s.msgs) == 0 {
		return middleware.ErrTakeFailed
	}
	buf := into.(*[]byte)
	*buf = append((*buf)[:0], s.msgs[0]...)
	s.msgs = s.msgs[1:]
	return nil
}

type fakeTimer struct {
	due      bool
	canceled bool
	calls    int
	fn       func()
}

func (t *fakeTimer) ready() bool { return t.due }

func (t *fakeTimer) Call() error {
	if t.canceled {
		return middleware.ErrTimerCanceled
	}
	t.calls++
	t.due = false
	if t.fn != nil {
		t.fn()
	}
	return nil
}

type fakeClient struct {
	resps []response
}

type response struct {
	id      int64
	payload []byte
}

func (c *fakeClient) push(id int64, payload string) {
	c.resps = append(c.resps, response{id: id, payload: []byte(payload)})
}

func (c *fakeClient) ready() bool { return len(c.resps) > 0 }

func (c *fakeClient) TakeResponse(into any) (middleware.RequestID, error) {
	if len(c.resps) == 0 {
		return middleware.RequestID{}, middleware.ErrTakeFailed
	}
	resp := c.resps[0]
	c.resps = c.resps[1:]
	buf := into.(*[]byte)
	*buf = append((*buf)[:0], resp.payload...)
	return middleware.RequestID{SequenceNumber: resp.id}, nil
}

type fakeService struct {
	reqs    []response // reuse: id + payload
	sent    []sentResponse
	sendErr error
	takeErr error
}

type sentResponse struct {
	id      int64
	payload []byte
}

func (s *fakeService) push(id int64, payload string) {
	s.reqs = append(s.reqs, response{id: id, payload: []byte(payload)})
}

func (s *fakeService) ready() bool { return len(s.reqs) > 0 || s.takeErr != nil }

func (s *fakeService) TakeRequest(into any) (middleware.RequestID, error) {
	if s.takeErr != nil {
		err := s.takeErr
		s.takeErr = nil
		return middleware.RequestID{}, err
	}
	if len(s.reqs) == 0 {
		return middleware.RequestID{}, middleware.ErrTakeFailed
	}
	req := s.reqs[0]
	s.reqs = s.reqs[1:]
	buf := into.(*[]byte)
	*buf = append((*buf)[:0], req.payload...)
	return middleware.RequestID{SequenceNumber: req.id}, nil
}

func (s *fakeService) SendResponse(id middleware.RequestID, resp any) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	payload := append([]byte(nil), (*resp.(*[]byte))...)
	s.sent = append(s.sent, sentResponse{id: id.SequenceNumber, payload: payload})
	return nil
}

type fakeGuard struct {
	triggered bool
}

func (g *fakeGuard) Trigger() { g.triggered = true }

func (g *fakeGuard) ready() bool { return g.triggered }

func (g *fakeGuard) consume() bool {
	v := g.triggered
	g.triggered = false
	return v
}

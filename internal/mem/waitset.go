package mem

import (
	"fmt"
	"time"

	"github.com/roach88/spindle/internal/middleware"
)

// WaitSet aggregates readiness over registered mem endpoints.
//
// Wait blocks on the transport's wake signal and snapshots readiness
// under the transport lock. The snapshot is what the *Ready accessors
// report, so readiness observed by a wait stays stable for the rest of
// the cycle even while new data keeps arriving.
type WaitSet struct {
	t    *Transport
	wake chan struct{}

	subs     []*Subscription
	timers   []*Timer
	clients  []*Client
	services []*Service
	guards   []*GuardCondition
	acs      []*ActionClient
	ass      []*ActionServer

	subReady     []bool
	timerReady   []bool
	clientReady  []bool
	serviceReady []bool
	guardReady   []bool
	acReady      []middleware.ClientReadiness
	asReady      []middleware.ServerReadiness

	valid bool
}

func newWaitSet(t *Transport, counts middleware.EntityCounts) *WaitSet {
	return &WaitSet{
		t:        t,
		wake:     make(chan struct{}, 1),
		subs:     make([]*Subscription, 0, counts.Subscriptions),
		timers:   make([]*Timer, 0, counts.Timers),
		clients:  make([]*Client, 0, counts.Clients),
		services: make([]*Service, 0, counts.Services),
		guards:   make([]*GuardCondition, 0, counts.GuardConditions),
		valid:    true,
	}
}

// Clear implements middleware.WaitSet.
func (w *WaitSet) Clear() error {
	if !w.valid {
		return fmt.Errorf("wait-set is finalized")
	}
	w.subs = w.subs[:0]
	w.timers = w.timers[:0]
	w.clients = w.clients[:0]
	w.services = w.services[:0]
	w.guards = w.guards[:0]
	w.acs = w.acs[:0]
	w.ass = w.ass[:0]
	w.subReady = w.subReady[:0]
	w.timerReady = w.timerReady[:0]
	w.clientReady = w.clientReady[:0]
	w.serviceReady = w.serviceReady[:0]
	w.guardReady = w.guardReady[:0]
	w.acReady = w.acReady[:0]
	w.asReady = w.asReady[:0]
	return nil
}

// AddSubscription implements middleware.WaitSet.
func (w *WaitSet) AddSubscription(s middleware.Subscription) (int, error) {
	sub, ok := s.(*Subscription)
	if !ok {
		return 0, fmt.Errorf("not a mem subscription: %T", s)
	}
	w.subs = append(w.subs, sub)
	w.subReady = append(w.subReady, false)
	return len(w.subs) - 1, nil
}

// AddTimer implements middleware.WaitSet.
func (w *WaitSet) AddTimer(t middleware.Timer) (int, error) {
	tm, ok := t.(*Timer)
	if !ok {
		return 0, fmt.Errorf("not a mem timer: %T", t)
	}
	w.timers = append(w.timers, tm)
	w.timerReady = append(w.timerReady, false)
	return len(w.timers) - 1, nil
}

// AddClient implements middleware.WaitSet.
func (w *WaitSet) AddClient(c middleware.Client) (int, error) {
	cl, ok := c.(*Client)
	if !ok {
		return 0, fmt.Errorf("not a mem client: %T", c)
	}
	w.clients = append(w.clients, cl)
	w.clientReady = append(w.clientReady, false)
	return len(w.clients) - 1, nil
}

// AddService implements middleware.WaitSet.
func (w *WaitSet) AddService(s middleware.Service) (int, error) {
	svc, ok := s.(*Service)
	if !ok {
		return 0, fmt.Errorf("not a mem service: %T", s)
	}
	w.services = append(w.services, svc)
	w.serviceReady = append(w.serviceReady, false)
	return len(w.services) - 1, nil
}

// AddGuardCondition implements middleware.WaitSet.
func (w *WaitSet) AddGuardCondition(g middleware.GuardCondition) (int, error) {
	gc, ok := g.(*GuardCondition)
	if !ok {
		return 0, fmt.Errorf("not a mem guard condition: %T", g)
	}
	w.guards = append(w.guards, gc)
	w.guardReady = append(w.guardReady, false)
	return len(w.guards) - 1, nil
}

func (w *WaitSet) addActionClient(c *ActionClient) int {
	w.acs = append(w.acs, c)
	w.acReady = append(w.acReady, middleware.ClientReadiness{})
	return len(w.acs) - 1
}

func (w *WaitSet) addActionServer(s *ActionServer) int {
	w.ass = append(w.ass, s)
	w.asReady = append(w.asReady, middleware.ServerReadiness{})
	return len(w.ass) - 1
}

// Wait implements middleware.WaitSet. It blocks until a snapshot finds
// any registered entity ready, the earliest timer deadline passes, or the
// timeout elapses.
func (w *WaitSet) Wait(timeout time.Duration) error {
	if !w.valid {
		return fmt.Errorf("wait-set is finalized")
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if w.snapshot() {
			return nil
		}
		if !w.t.IsValid() {
			// A torn-down transport never becomes ready; report the
			// deadline outcome so spin loops re-check the context.
			return middleware.ErrTimeout
		}

		var timerC <-chan time.Time
		var next *time.Timer
		if due, ok := w.earliestTimerDeadline(); ok {
			next = time.NewTimer(due)
			timerC = next.C
		}

		expired := false
		select {
		case <-w.wake:
		case <-timerC:
		case <-deadline.C:
			expired = true
		}
		if next != nil {
			next.Stop()
		}
		if expired {
			// Final snapshot: data arriving on the deadline edge still
			// counts as ready.
			if w.snapshot() {
				return nil
			}
			return middleware.ErrTimeout
		}
	}
}

// snapshot latches readiness for every registered entity. Guard-condition
// triggers are consumed by the snapshot that observes them.
func (w *WaitSet) snapshot() bool {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()

	now := w.t.clock.Now()
	any := false
	for i, s := range w.subs {
		w.subReady[i] = s.ready()
		any = any || w.subReady[i]
	}
	for i, tm := range w.timers {
		w.timerReady[i] = tm.due(now)
		any = any || w.timerReady[i]
	}
	for i, c := range w.clients {
		w.clientReady[i] = c.ready()
		any = any || w.clientReady[i]
	}
	for i, s := range w.services {
		w.serviceReady[i] = s.ready()
		any = any || w.serviceReady[i]
	}
	for i, g := range w.guards {
		if g.pending() {
			w.guardReady[i] = g.consume()
		} else {
			w.guardReady[i] = false
		}
		any = any || w.guardReady[i]
	}
	for i, c := range w.acs {
		w.acReady[i] = c.readiness()
		any = any || w.acReady[i].Any()
	}
	for i, s := range w.ass {
		w.asReady[i] = s.readiness()
		any = any || w.asReady[i].Any()
	}
	return any
}

// earliestTimerDeadline returns the duration until the next timer fires.
func (w *WaitSet) earliestTimerDeadline() (time.Duration, bool) {
	w.t.mu.Lock()
	defer w.t.mu.Unlock()
	now := w.t.clock.Now()
	best := time.Duration(0)
	found := false
	for _, tm := range w.timers {
		d, ok := tm.deadline()
		if !ok {
			continue
		}
		until := d - now
		if until < 0 {
			until = 0
		}
		if !found || until < best {
			best = until
			found = true
		}
	}
	return best, found
}

// SubscriptionReady implements middleware.WaitSet.
func (w *WaitSet) SubscriptionReady(index int) bool {
	return index >= 0 && index < len(w.subReady) && w.subReady[index]
}

// TimerReady implements middleware.WaitSet.
func (w *WaitSet) TimerReady(index int) bool {
	return index >= 0 && index < len(w.timerReady) && w.timerReady[index]
}

// ClientReady implements middleware.WaitSet.
func (w *WaitSet) ClientReady(index int) bool {
	return index >= 0 && index < len(w.clientReady) && w.clientReady[index]
}

// ServiceReady implements middleware.WaitSet.
func (w *WaitSet) ServiceReady(index int) bool {
	return index >= 0 && index < len(w.serviceReady) && w.serviceReady[index]
}

// GuardConditionReady implements middleware.WaitSet.
func (w *WaitSet) GuardConditionReady(index int) bool {
	return index >= 0 && index < len(w.guardReady) && w.guardReady[index]
}

func (w *WaitSet) actionClientReadiness(index int) middleware.ClientReadiness {
	if index < 0 || index >= len(w.acReady) {
		return middleware.ClientReadiness{}
	}
	return w.acReady[index]
}

func (w *WaitSet) actionServerReadiness(index int) middleware.ServerReadiness {
	if index < 0 || index >= len(w.asReady) {
		return middleware.ServerReadiness{}
	}
	return w.asReady[index]
}

// Fini implements middleware.WaitSet.
func (w *WaitSet) Fini() error {
	if !w.valid {
		return nil
	}
	w.valid = false
	w.t.dropWaiter(w.wake)
	return nil
}

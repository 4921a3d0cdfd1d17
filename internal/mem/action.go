package mem

import (
	"fmt"

	"github.com/eapache/queue"

	"github.com/roach88/spindle/internal/middleware"
)

type goalRequest struct {
	id      int64
	goal    middleware.GoalID
	payload []byte
	from    *ActionClient
}

type goalRef struct {
	id   int64
	goal middleware.GoalID
	from *ActionClient
}

type goalResponse struct {
	id       int64
	accepted bool
}

type feedbackMsg struct {
	goal    middleware.GoalID
	payload []byte
}

type cancelResponse struct {
	id    int64
	goals []middleware.GoalID
}

type resultResponse struct {
	id      int64
	status  middleware.GoalStatus
	payload []byte
}

// ActionServer is the serving side of a named action endpoint.
type ActionServer struct {
	t    *Transport
	name string

	goalQ   *queue.Queue
	cancelQ *queue.Queue
	resultQ *queue.Queue

	pendingGoal   map[int64]*ActionClient
	pendingCancel map[int64]*ActionClient
	pendingResult map[int64]*ActionClient
	goalClients   map[middleware.GoalID]*ActionClient
}

// ActionClient is the requesting side of a named action endpoint.
type ActionClient struct {
	t      *Transport
	server *ActionServer

	goalRespQ   *queue.Queue
	feedbackQ   *queue.Queue
	cancelRespQ *queue.Queue
	resultRespQ *queue.Queue
}

// NewActionServer registers the serving side of name. One server per name.
func (t *Transport) NewActionServer(name string) (*ActionServer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return nil, fmt.Errorf("transport is shut down")
	}
	if _, dup := t.actionServers[name]; dup {
		return nil, fmt.Errorf("action server %q already registered", name)
	}
	s := &ActionServer{
		t:             t,
		name:          name,
		goalQ:         queue.New(),
		cancelQ:       queue.New(),
		resultQ:       queue.New(),
		pendingGoal:   make(map[int64]*ActionClient),
		pendingCancel: make(map[int64]*ActionClient),
		pendingResult: make(map[int64]*ActionClient),
		goalClients:   make(map[middleware.GoalID]*ActionClient),
	}
	t.actionServers[name] = s
	return s, nil
}

// NewActionClient connects a client to the action server registered under
// name.
func (t *Transport) NewActionClient(name string) (*ActionClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return nil, fmt.Errorf("transport is shut down")
	}
	srv, ok := t.actionServers[name]
	if !ok {
		return nil, fmt.Errorf("no action server %q", name)
	}
	return &ActionClient{
		t:           t,
		server:      srv,
		goalRespQ:   queue.New(),
		feedbackQ:   queue.New(),
		cancelRespQ: queue.New(),
		resultRespQ: queue.New(),
	}, nil
}

// EntityCounts implements middleware.ActionClient: two status/feedback
// subscriptions and three request clients.
func (c *ActionClient) EntityCounts() (middleware.EntityCounts, error) {
	return middleware.EntityCounts{Subscriptions: 2, Clients: 3}, nil
}

// AddToWaitSet implements middleware.ActionClient.
func (c *ActionClient) AddToWaitSet(ws middleware.WaitSet) (int, error) {
	w, ok := ws.(*WaitSet)
	if !ok {
		return 0, fmt.Errorf("wait-set is not a mem wait-set: %T", ws)
	}
	return w.addActionClient(c), nil
}

// Readiness implements middleware.ActionClient.
func (c *ActionClient) Readiness(ws middleware.WaitSet, index int) (middleware.ClientReadiness, error) {
	w, ok := ws.(*WaitSet)
	if !ok {
		return middleware.ClientReadiness{}, fmt.Errorf("wait-set is not a mem wait-set: %T", ws)
	}
	return w.actionClientReadiness(index), nil
}

// SendGoalRequest implements middleware.ActionClient.
func (c *ActionClient) SendGoalRequest(goal middleware.GoalID, req any) (int64, error) {
	payload, err := payloadOf(req)
	if err != nil {
		return 0, err
	}
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	id := c.t.nextSeq()
	c.server.goalQ.Add(goalRequest{id: id, goal: goal, payload: payload, from: c})
	c.t.pokeAll()
	return id, nil
}

// SendCancelRequest implements middleware.ActionClient.
func (c *ActionClient) SendCancelRequest(goal middleware.GoalID) (int64, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	id := c.t.nextSeq()
	c.server.cancelQ.Add(goalRef{id: id, goal: goal, from: c})
	c.t.pokeAll()
	return id, nil
}

// SendResultRequest implements middleware.ActionClient.
func (c *ActionClient) SendResultRequest(goal middleware.GoalID) (int64, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	id := c.t.nextSeq()
	c.server.resultQ.Add(goalRef{id: id, goal: goal, from: c})
	c.t.pokeAll()
	return id, nil
}

// TakeGoalResponse implements middleware.ActionClient.
func (c *ActionClient) TakeGoalResponse() (middleware.RequestID, bool, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.goalRespQ.Length() == 0 {
		return middleware.RequestID{}, false, middleware.ErrTakeFailed
	}
	resp := c.goalRespQ.Remove().(goalResponse)
	return middleware.RequestID{SequenceNumber: resp.id}, resp.accepted, nil
}

// TakeFeedback implements middleware.ActionClient.
func (c *ActionClient) TakeFeedback(into any) (middleware.GoalID, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.feedbackQ.Length() == 0 {
		return middleware.GoalID{}, middleware.ErrTakeFailed
	}
	fb := c.feedbackQ.Remove().(feedbackMsg)
	if err := copyInto(into, fb.payload); err != nil {
		return middleware.GoalID{}, err
	}
	return fb.goal, nil
}

// TakeCancelResponse implements middleware.ActionClient.
func (c *ActionClient) TakeCancelResponse() (middleware.RequestID, []middleware.GoalID, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.cancelRespQ.Length() == 0 {
		return middleware.RequestID{}, nil, middleware.ErrTakeFailed
	}
	resp := c.cancelRespQ.Remove().(cancelResponse)
	return middleware.RequestID{SequenceNumber: resp.id}, resp.goals, nil
}

// TakeResultResponse implements middleware.ActionClient.
func (c *ActionClient) TakeResultResponse(into any) (middleware.RequestID, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.resultRespQ.Length() == 0 {
		return middleware.RequestID{}, middleware.ErrTakeFailed
	}
	resp := c.resultRespQ.Remove().(resultResponse)
	if err := copyInto(into, resp.payload); err != nil {
		return middleware.RequestID{}, err
	}
	return middleware.RequestID{SequenceNumber: resp.id}, nil
}

// ready flags for the wait-set snapshot. Caller holds t.mu.
func (c *ActionClient) readiness() middleware.ClientReadiness {
	return middleware.ClientReadiness{
		Feedback:       c.feedbackQ.Length() > 0,
		GoalResponse:   c.goalRespQ.Length() > 0,
		CancelResponse: c.cancelRespQ.Length() > 0,
		ResultResponse: c.resultRespQ.Length() > 0,
	}
}

// EntityCounts implements middleware.ActionServer: three request services
// plus the expiry timer.
func (s *ActionServer) EntityCounts() (middleware.EntityCounts, error) {
	return middleware.EntityCounts{Services: 3, Timers: 1}, nil
}

// AddToWaitSet implements middleware.ActionServer.
func (s *ActionServer) AddToWaitSet(ws middleware.WaitSet) (int, error) {
	w, ok := ws.(*WaitSet)
	if !ok {
		return 0, fmt.Errorf("wait-set is not a mem wait-set: %T", ws)
	}
	return w.addActionServer(s), nil
}

// Readiness implements middleware.ActionServer.
func (s *ActionServer) Readiness(ws middleware.WaitSet, index int) (middleware.ServerReadiness, error) {
	w, ok := ws.(*WaitSet)
	if !ok {
		return middleware.ServerReadiness{}, fmt.Errorf("wait-set is not a mem wait-set: %T", ws)
	}
	return w.actionServerReadiness(index), nil
}

// TakeGoalRequest implements middleware.ActionServer.
func (s *ActionServer) TakeGoalRequest(into any) (middleware.RequestID, middleware.GoalID, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.goalQ.Length() == 0 {
		return middleware.RequestID{}, middleware.GoalID{}, middleware.ErrTakeFailed
	}
	req := s.goalQ.Remove().(goalRequest)
	if err := copyInto(into, req.payload); err != nil {
		return middleware.RequestID{}, middleware.GoalID{}, err
	}
	s.pendingGoal[req.id] = req.from
	s.goalClients[req.goal] = req.from
	return middleware.RequestID{SequenceNumber: req.id}, req.goal, nil
}

// TakeResultRequest implements middleware.ActionServer.
func (s *ActionServer) TakeResultRequest() (middleware.RequestID, middleware.GoalID, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.resultQ.Length() == 0 {
		return middleware.RequestID{}, middleware.GoalID{}, middleware.ErrTakeFailed
	}
	req := s.resultQ.Remove().(goalRef)
	s.pendingResult[req.id] = req.from
	return middleware.RequestID{SequenceNumber: req.id}, req.goal, nil
}

// TakeCancelRequest implements middleware.ActionServer.
func (s *ActionServer) TakeCancelRequest() (middleware.RequestID, middleware.GoalID, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.cancelQ.Length() == 0 {
		return middleware.RequestID{}, middleware.GoalID{}, middleware.ErrTakeFailed
	}
	req := s.cancelQ.Remove().(goalRef)
	s.pendingCancel[req.id] = req.from
	return middleware.RequestID{SequenceNumber: req.id}, req.goal, nil
}

// SendGoalResponse implements middleware.ActionServer.
func (s *ActionServer) SendGoalResponse(id middleware.RequestID, accepted bool) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	from, ok := s.pendingGoal[id.SequenceNumber]
	if !ok {
		return fmt.Errorf("no pending goal request %d on %q", id.SequenceNumber, s.name)
	}
	delete(s.pendingGoal, id.SequenceNumber)
	from.goalRespQ.Add(goalResponse{id: id.SequenceNumber, accepted: accepted})
	s.t.pokeAll()
	return nil
}

// SendCancelResponse implements middleware.ActionServer. An accepted
// cancellation reports the goal in the canceling list; every rejection
// code reports an empty list.
func (s *ActionServer) SendCancelResponse(id middleware.RequestID, code middleware.CancelResponseCode, goal middleware.GoalID) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	from, ok := s.pendingCancel[id.SequenceNumber]
	if !ok {
		return fmt.Errorf("no pending cancel request %d on %q", id.SequenceNumber, s.name)
	}
	delete(s.pendingCancel, id.SequenceNumber)
	resp := cancelResponse{id: id.SequenceNumber}
	if code == middleware.CancelAccepted {
		resp.goals = []middleware.GoalID{goal}
	}
	from.cancelRespQ.Add(resp)
	s.t.pokeAll()
	return nil
}

// SendResult implements middleware.ActionServer.
func (s *ActionServer) SendResult(id middleware.RequestID, status middleware.GoalStatus, result any) error {
	payload, err := payloadOf(result)
	if err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	from, ok := s.pendingResult[id.SequenceNumber]
	if !ok {
		return fmt.Errorf("no pending result request %d on %q", id.SequenceNumber, s.name)
	}
	delete(s.pendingResult, id.SequenceNumber)
	from.resultRespQ.Add(resultResponse{id: id.SequenceNumber, status: status, payload: payload})
	s.t.pokeAll()
	return nil
}

// PublishFeedback delivers feedback for goal to the client that issued
// it. Unknown goals are dropped.
func (s *ActionServer) PublishFeedback(goal middleware.GoalID, fb any) error {
	payload, err := payloadOf(fb)
	if err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	from, ok := s.goalClients[goal]
	if !ok {
		return nil
	}
	from.feedbackQ.Add(feedbackMsg{goal: goal, payload: payload})
	s.t.pokeAll()
	return nil
}

// ready flags for the wait-set snapshot. Caller holds t.mu.
func (s *ActionServer) readiness() middleware.ServerReadiness {
	return middleware.ServerReadiness{
		GoalRequest:   s.goalQ.Length() > 0,
		CancelRequest: s.cancelQ.Length() > 0,
		ResultRequest: s.resultQ.Length() > 0,
	}
}

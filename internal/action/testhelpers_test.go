package action

import (
	"github.com/roach88/spindle/internal/middleware"
)

// Scriptable fakes for the action transport endpoints. Tests queue
// responses/requests directly and inspect what the engine sent.

type fakeClientMW struct {
	readiness middleware.ClientReadiness

	goalResponses   []fakeGoalResponse
	feedbacks       []fakeFeedback
	cancelResponses []fakeCancelResponse
	resultResponses []fakeResultResponse

	nextSeq       int64
	sentGoals     []middleware.GoalID
	sentCancels   []middleware.GoalID
	sentResults   []middleware.GoalID
	sendResultErr error
}

type fakeGoalResponse struct {
	seq      int64
	accepted bool
}

type fakeFeedback struct {
	goal    middleware.GoalID
	payload string
}

type fakeCancelResponse struct {
	seq   int64
	goals []middleware.GoalID
}

type fakeResultResponse struct {
	seq     int64
	payload string
}

func (f *fakeClientMW) EntityCounts() (middleware.EntityCounts, error) {
	return middleware.EntityCounts{Subscriptions: 2, Clients: 3}, nil
}

func (f *fakeClientMW) AddToWaitSet(middleware.WaitSet) (int, error) { return 0, nil }

func (f *fakeClientMW) Readiness(middleware.WaitSet, int) (middleware.ClientReadiness, error) {
	return f.readiness, nil
}

func (f *fakeClientMW) TakeGoalResponse() (middleware.RequestID, bool, error) {
	if len(f.goalResponses) == 0 {
		return middleware.RequestID{}, false, middleware.ErrTakeFailed
	}
	r := f.goalResponses[0]
	f.goalResponses = f.goalResponses[1:]
	return middleware.RequestID{SequenceNumber: r.seq}, r.accepted, nil
}

func (f *fakeClientMW) TakeFeedback(into any) (middleware.GoalID, error) {
	if len(f.feedbacks) == 0 {
		return middleware.GoalID{}, middleware.ErrTakeFailed
	}
	fb := f.feedbacks[0]
	f.feedbacks = f.feedbacks[1:]
	*into.(*[]byte) = []byte(fb.payload)
	return fb.goal, nil
}

func (f *fakeClientMW) TakeCancelResponse() (middleware.RequestID, []middleware.GoalID, error) {
	if len(f.cancelResponses) == 0 {
		return middleware.RequestID{}, nil, middleware.ErrTakeFailed
	}
	r := f.cancelResponses[0]
	f.cancelResponses = f.cancelResponses[1:]
	return middleware.RequestID{SequenceNumber: r.seq}, r.goals, nil
}

func (f *fakeClientMW) TakeResultResponse(into any) (middleware.RequestID, error) {
	if len(f.resultResponses) == 0 {
		return middleware.RequestID{}, middleware.ErrTakeFailed
	}
	r := f.resultResponses[0]
	f.resultResponses = f.resultResponses[1:]
	*into.(*[]byte) = []byte(r.payload)
	return middleware.RequestID{SequenceNumber: r.seq}, nil
}

func (f *fakeClientMW) SendGoalRequest(goal middleware.GoalID, _ any) (int64, error) {
	f.nextSeq++
	f.sentGoals = append(f.sentGoals, goal)
	return f.nextSeq, nil
}

func (f *fakeClientMW) SendCancelRequest(goal middleware.GoalID) (int64, error) {
	f.nextSeq++
	f.sentCancels = append(f.sentCancels, goal)
	return f.nextSeq, nil
}

func (f *fakeClientMW) SendResultRequest(goal middleware.GoalID) (int64, error) {
	if f.sendResultErr != nil {
		return 0, f.sendResultErr
	}
	f.nextSeq++
	f.sentResults = append(f.sentResults, goal)
	return f.nextSeq, nil
}

type fakeServerMW struct {
	readiness middleware.ServerReadiness

	goalRequests   []fakeGoalRequest
	resultRequests []fakeGoalRef
	cancelRequests []fakeGoalRef

	goalResponses   []fakeSentGoalResponse
	cancelResponses []fakeSentCancelResponse
	results         []fakeSentResult
}

type fakeGoalRequest struct {
	seq     int64
	goal    middleware.GoalID
	payload string
}

type fakeGoalRef struct {
	seq  int64
	goal middleware.GoalID
}

type fakeSentGoalResponse struct {
	seq      int64
	accepted bool
}

type fakeSentCancelResponse struct {
	seq  int64
	code middleware.CancelResponseCode
	goal middleware.GoalID
}

type fakeSentResult struct {
	seq     int64
	status  middleware.GoalStatus
	payload string
}

func (f *fakeServerMW) EntityCounts() (middleware.EntityCounts, error) {
	return middleware.EntityCounts{Services: 3, Timers: 1}, nil
}

func (f *fakeServerMW) AddToWaitSet(middleware.WaitSet) (int, error) { return 0, nil }

func (f *fakeServerMW) Readiness(middleware.WaitSet, int) (middleware.ServerReadiness, error) {
	return f.readiness, nil
}

func (f *fakeServerMW) TakeGoalRequest(into any) (middleware.RequestID, middleware.GoalID, error) {
	if len(f.goalRequests) == 0 {
		return middleware.RequestID{}, middleware.GoalID{}, middleware.ErrTakeFailed
	}
	r := f.goalRequests[0]
	f.goalRequests = f.goalRequests[1:]
	*into.(*[]byte) = []byte(r.payload)
	return middleware.RequestID{SequenceNumber: r.seq}, r.goal, nil
}

func (f *fakeServerMW) TakeResultRequest() (middleware.RequestID, middleware.GoalID, error) {
	if len(f.resultRequests) == 0 {
		return middleware.RequestID{}, middleware.GoalID{}, middleware.ErrTakeFailed
	}
	r := f.resultRequests[0]
	f.resultRequests = f.resultRequests[1:]
	return middleware.RequestID{SequenceNumber: r.seq}, r.goal, nil
}

func (f *fakeServerMW) TakeCancelRequest() (middleware.RequestID, middleware.GoalID, error) {
	if len(f.cancelRequests) == 0 {
		return middleware.RequestID{}, middleware.GoalID{}, middleware.ErrTakeFailed
	}
	r := f.cancelRequests[0]
	f.cancelRequests = f.cancelRequests[1:]
	return middleware.RequestID{SequenceNumber: r.seq}, r.goal, nil
}

func (f *fakeServerMW) SendGoalResponse(id middleware.RequestID, accepted bool) error {
	f.goalResponses = append(f.goalResponses, fakeSentGoalResponse{seq: id.SequenceNumber, accepted: accepted})
	return nil
}

func (f *fakeServerMW) SendCancelResponse(id middleware.RequestID, code middleware.CancelResponseCode, goal middleware.GoalID) error {
	f.cancelResponses = append(f.cancelResponses, fakeSentCancelResponse{seq: id.SequenceNumber, code: code, goal: goal})
	return nil
}

func (f *fakeServerMW) SendResult(id middleware.RequestID, status middleware.GoalStatus, result any) error {
	payload, err := func() (string, error) {
		switch v := result.(type) {
		case []byte:
			return string(v), nil
		case string:
			return v, nil
		default:
			return "", nil
		}
	}()
	if err != nil {
		return err
	}
	f.results = append(f.results, fakeSentResult{seq: id.SequenceNumber, status: status, payload: payload})
	return nil
}

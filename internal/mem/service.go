package mem

import (
	"fmt"

	"github.com/eapache/queue"

	"github.com/roach88/spindle/internal/middleware"
)

type request struct {
	id      int64
	payload []byte
	from    *Client
}

type response struct {
	id      int64
	payload []byte
}

// Service is the serving side of a named request/response endpoint.
type Service struct {
	t       *Transport
	name    string
	q       *queue.Queue
	pending map[int64]*Client
}

// Client is the requesting side of a named request/response endpoint.
type Client struct {
	t   *Transport
	svc *Service
	q   *queue.Queue
}

// NewService registers the serving side of name. One service per name.
func (t *Transport) NewService(name string) (*Service, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return nil, fmt.Errorf("transport is shut down")
	}
	if _, dup := t.services[name]; dup {
		return nil, fmt.Errorf("service %q already registered", name)
	}
	s := &Service{t: t, name: name, q: queue.New(), pending: make(map[int64]*Client)}
	t.services[name] = s
	return s, nil
}

// NewClient connects a client to the service registered under name.
func (t *Transport) NewClient(name string) (*Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return nil, fmt.Errorf("transport is shut down")
	}
	svc, ok := t.services[name]
	if !ok {
		return nil, fmt.Errorf("no service %q", name)
	}
	return &Client{t: t, svc: svc, q: queue.New()}, nil
}

// SendRequest queues a request on the service and returns its sequence
// number for correlation with the eventual response.
func (c *Client) SendRequest(payload any) (int64, error) {
	data, err := payloadOf(payload)
	if err != nil {
		return 0, err
	}
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	id := c.t.nextSeq()
	c.svc.q.Add(request{id: id, payload: data, from: c})
	c.t.pokeAll()
	return id, nil
}

// TakeRequest implements middleware.Service.
func (s *Service) TakeRequest(into any) (middleware.RequestID, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if s.q.Length() == 0 {
		return middleware.RequestID{}, middleware.ErrTakeFailed
	}
	req := s.q.Remove().(request)
	if err := copyInto(into, req.payload); err != nil {
		return middleware.RequestID{}, err
	}
	s.pending[req.id] = req.from
	return middleware.RequestID{SequenceNumber: req.id}, nil
}

// SendResponse implements middleware.Service.
func (s *Service) SendResponse(id middleware.RequestID, resp any) error {
	data, err := payloadOf(resp)
	if err != nil {
		return err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	from, ok := s.pending[id.SequenceNumber]
	if !ok {
		return fmt.Errorf("no pending request %d on service %q", id.SequenceNumber, s.name)
	}
	delete(s.pending, id.SequenceNumber)
	from.q.Add(response{id: id.SequenceNumber, payload: data})
	s.t.pokeAll()
	return nil
}

// TakeResponse implements middleware.Client.
func (c *Client) TakeResponse(into any) (middleware.RequestID, error) {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	if c.q.Length() == 0 {
		return middleware.RequestID{}, middleware.ErrTakeFailed
	}
	resp := c.q.Remove().(response)
	if err := copyInto(into, resp.payload); err != nil {
		return middleware.RequestID{}, err
	}
	return middleware.RequestID{SequenceNumber: resp.id}, nil
}

// ready reports pending requests. Caller holds t.mu.
func (s *Service) ready() bool { return s.q.Length() > 0 }

// ready reports pending responses. Caller holds t.mu.
func (c *Client) ready() bool { return c.q.Length() > 0 }

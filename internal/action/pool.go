package action

import (
	"github.com/roach88/spindle/internal/middleware"
)

// noIndex is the list terminator for the intrusive slot lists.
const noIndex = -1

// GoalHandle is the per-goal state of one in-flight goal. Handles are pool
// slots; user code receives them in callbacks and must not retain one past
// the callback for client goals, or past the terminal helper for server
// goals.
type GoalHandle struct {
	// ID is the goal UUID shared by both protocol sides.
	ID middleware.GoalID

	idx  int // own slot index, fixed for the pool's lifetime
	next int // next slot in the free or used list

	// request correlation (client side)
	goalSeq   int64
	cancelSeq int64
	resultSeq int64

	// per-response availability, raised by the take step and cleared by
	// the execute step immediately before the callback runs
	goalResponse    bool
	feedback        bool
	cancelResponse  bool
	resultResponse  bool
	cancelRequested bool // server side

	accepted  bool
	cancelled bool
	status    middleware.GoalStatus

	requestHeader middleware.RequestID // server: goal request header
	cancelHeader  middleware.RequestID
	resultHeader  middleware.RequestID

	// request is the caller-provided goal-request buffer bound to this
	// slot at server registration.
	request any

	client *Client
	server *Server
}

// Status returns the goal's current protocol state.
func (g *GoalHandle) Status() middleware.GoalStatus { return g.status }

// Accepted reports whether the server accepted the goal.
func (g *GoalHandle) Accepted() bool { return g.accepted }

// Request returns the goal-request buffer bound to this server-side slot.
// Nil on client-side handles.
func (g *GoalHandle) Request() any { return g.request }

// reset clears everything except the slot identity, the list link and the
// slot's client, server and request bindings.
func (g *GoalHandle) reset() {
	idx, next := g.idx, g.next
	client, server, request := g.client, g.server, g.request
	*g = GoalHandle{}
	g.idx, g.next = idx, next
	g.client, g.server, g.request = client, server, request
}

// pool is a fixed arena of goal handles with intrusive free/used lists.
// The used list is in most-recently-acquired-first order; iteration order
// over in-flight goals is not part of any contract.
type pool struct {
	slots []GoalHandle
	free  int
	used  int
}

func newPool(size int) *pool {
	p := &pool{
		slots: make([]GoalHandle, size),
		free:  0,
		used:  noIndex,
	}
	for i := range p.slots {
		p.slots[i].idx = i
		p.slots[i].next = i + 1
	}
	p.slots[size-1].next = noIndex
	return p
}

// acquire moves a slot from the free list to the used list. Returns nil
// when the pool is exhausted.
func (p *pool) acquire() *GoalHandle {
	if p.free == noIndex {
		return nil
	}
	i := p.free
	g := &p.slots[i]
	p.free = g.next
	g.next = p.used
	p.used = i
	return g
}

// release returns a slot to the free list and resets its state. Releasing
// a slot that is not on the used list is a no-op.
func (p *pool) release(g *GoalHandle) {
	prev := noIndex
	for i := p.used; i != noIndex; i = p.slots[i].next {
		if i == g.idx {
			if prev == noIndex {
				p.used = g.next
			} else {
				p.slots[prev].next = g.next
			}
			g.next = p.free
			p.free = g.idx
			g.reset()
			return
		}
		prev = i
	}
}

// freeCount returns the number of available slots.
func (p *pool) freeCount() int {
	n := 0
	for i := p.free; i != noIndex; i = p.slots[i].next {
		n++
	}
	return n
}

// first returns the first used handle satisfying pred, or nil.
func (p *pool) first(pred func(*GoalHandle) bool) *GoalHandle {
	for i := p.used; i != noIndex; i = p.slots[i].next {
		if pred(&p.slots[i]) {
			return &p.slots[i]
		}
	}
	return nil
}

// each calls fn for every used handle. fn must not release handles; use a
// first-loop for release-while-iterating patterns.
func (p *pool) each(fn func(*GoalHandle)) {
	for i := p.used; i != noIndex; i = p.slots[i].next {
		fn(&p.slots[i])
	}
}

// byID returns the used handle with the given goal UUID, or nil.
func (p *pool) byID(id middleware.GoalID) *GoalHandle {
	return p.first(func(g *GoalHandle) bool { return g.ID == id })
}

package testutil

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/spindle/internal/middleware"
)

// FixedGoalIDs returns predetermined goal UUIDs for deterministic tests.
//
// Panics when exhausted; a test issuing more goals than it declared is
// misconfigured and should fail fast.
type FixedGoalIDs struct {
	mu  sync.Mutex
	ids []middleware.GoalID
	idx int
}

// NewFixedGoalIDs creates a generator over the given UUID strings.
// Invalid strings panic at construction, not at use.
func NewFixedGoalIDs(ids ...string) *FixedGoalIDs {
	parsed := make([]middleware.GoalID, len(ids))
	for i, s := range ids {
		parsed[i] = uuid.MustParse(s)
	}
	return &FixedGoalIDs{ids: parsed}
}

// GoalID builds a deterministic UUID from a small integer, for tests
// that only need distinct identities.
func GoalID(n byte) middleware.GoalID {
	var id middleware.GoalID
	id[15] = n
	return id
}

// Generate returns the next predetermined UUID.
func (g *FixedGoalIDs) Generate() middleware.GoalID {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedGoalIDs: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

package mem

import (
	"fmt"
)

// GuardCondition is a manually triggerable readiness source. A trigger is
// latched until the wait that observes it, which consumes it.
type GuardCondition struct {
	t         *Transport
	triggered bool
}

// NewGuardCondition creates an untriggered guard condition.
func (t *Transport) NewGuardCondition() (*GuardCondition, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.valid {
		return nil, fmt.Errorf("transport is shut down")
	}
	return &GuardCondition{t: t}, nil
}

// Trigger implements middleware.GuardCondition: latches the trigger and
// wakes blocked wait-sets. Safe from any goroutine.
func (g *GuardCondition) Trigger() {
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	g.triggered = true
	g.t.pokeAll()
}

// consume reads and clears the trigger. Caller holds t.mu.
func (g *GuardCondition) consume() bool {
	v := g.triggered
	g.triggered = false
	return v
}

// pending reports the trigger without consuming it. Caller holds t.mu.
func (g *GuardCondition) pending() bool { return g.triggered }

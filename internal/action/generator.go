package action

import (
	"github.com/google/uuid"

	"github.com/roach88/spindle/internal/middleware"
)

// GoalIDGenerator mints UUIDs for newly issued goals.
// Implemented by RandomGoalIDs (production) and testutil.FixedGoalIDs.
type GoalIDGenerator interface {
	Generate() middleware.GoalID
}

// RandomGoalIDs generates random (v4) goal UUIDs.
//
// Thread-safety: stateless, safe for concurrent use.
type RandomGoalIDs struct{}

// Generate returns a new random goal UUID.
func (RandomGoalIDs) Generate() middleware.GoalID {
	return uuid.New()
}

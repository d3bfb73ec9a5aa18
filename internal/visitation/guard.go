package visitation

import (
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/interval"
)

// Candidate is a proposed event span to validate against a child's existing
// events. ExcludeID, when non-nil, names the event being updated so it does
// not collide with itself.
type Candidate struct {
	ChildID   uuid.UUID
	Start     time.Time
	End       time.Time
	ExcludeID *uuid.UUID
}

// FindConflict returns the first existing event whose stored [Start, End)
// interval overlaps the candidate's, or nil when the candidate is clear.
// Only events for the same child can conflict; touching endpoints are
// permitted. Recurrence expansion never participates here: the guard
// evaluates stored base intervals only.
func FindConflict(existing []Event, c Candidate) *Event {
	for i := range existing {
		ev := &existing[i]
		if ev.ChildID != c.ChildID {
			continue
		}
		if c.ExcludeID != nil && ev.ID == *c.ExcludeID {
			continue
		}
		if interval.Overlaps(ev.Start, ev.End, c.Start, c.End) {
			return ev
		}
	}
	return nil
}

package rotation

import (
	"github.com/custodia-app/custodia/internal/dateutil"
)

// Span is a rotation's date span. End nil means open-ended: the rotation
// occupies every day from Start onward.
type Span struct {
	Start dateutil.Date
	End   *dateutil.Date
}

// Conflicts reports whether two rotation spans overlap. Rotation spans are
// date-granular and closed on both ends, so two rotations that share even a
// single day conflict; the strict half-open rule used for timed visitation
// events does not apply here.
func (s Span) Conflicts(other Span) bool {
	// An open-ended span occupies all future time, so it collides with any
	// other span regardless of that span's dates.
	if s.End == nil || other.End == nil {
		return true
	}

	// Both bounded: closed-interval overlap on inclusive date comparison.
	// Covers partial overlap from either side and full containment.
	startsInside := !other.Start.Before(s.Start) && !other.Start.After(*s.End)
	endsInside := !other.End.Before(s.Start) && !other.End.After(*s.End)
	contains := other.Start.Before(s.Start) && other.End.After(*s.End)
	return startsInside || endsInside || contains
}

// SpanConflicts reports whether the candidate span for a new rotation would
// collide with any existing active rotation span. Callers must pass only
// active rotations; soft-deleted ones never block new rotations.
func SpanConflicts(existing []Span, candidate Span) bool {
	for _, s := range existing {
		if s.Conflicts(candidate) {
			return true
		}
	}
	return false
}

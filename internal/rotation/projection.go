package rotation

import (
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/dateutil"
)

// MaxProjectedEvents bounds how many virtual events a single projection may
// emit. A pathologically large query window returns a truncated result, not
// an error.
const MaxProjectedEvents = 1000

// VirtualEvent is one projected day of a rotation. Virtual events exist only
// in memory for the duration of a request and are recomputed on demand.
type VirtualEvent struct {
	Date         dateutil.Date `json:"date"`
	ParentID     uuid.UUID     `json:"parent_id"`
	ParentName   string        `json:"parent_name"`
	DayOfCycle   int           `json:"day_of_cycle"`
	RotationID   uuid.UUID     `json:"rotation_id"`
	RotationName string        `json:"rotation_name"`
}

// StartUTC returns the instant the virtual event's day begins.
func (v VirtualEvent) StartUTC() time.Time { return v.Date.StartOfDayUTC() }

// EndUTC returns the instant the virtual event's day ends.
func (v VirtualEvent) EndUTC() time.Time { return v.Date.EndOfDayUTC() }

// Project expands a rotation into per-day parent assignments for the
// inclusive window [rangeStart, rangeEnd]. Days outside the rotation's own
// active span are skipped; if the span and the window don't intersect the
// result is empty. Pure function of its inputs, safe for concurrent use.
func Project(r Rotation, rangeStart, rangeEnd dateutil.Date) ([]VirtualEvent, error) {
	pattern, err := LookupPattern(r.Pattern)
	if err != nil {
		return nil, err
	}

	start := dateutil.Max(r.Start, rangeStart)
	end := rangeEnd
	if r.End != nil {
		end = dateutil.Min(*r.End, rangeEnd)
	}
	if start.After(end) {
		return nil, nil
	}

	events := make([]VirtualEvent, 0, min(dateutil.DaysBetween(start, end)+1, MaxProjectedEvents))
	for d := start; !d.After(end); d = d.AddDays(1) {
		if len(events) >= MaxProjectedEvents {
			break
		}
		// d >= r.Start always holds here, so the modulus is non-negative.
		dayOfCycle := dateutil.DaysBetween(r.Start, d) % pattern.CycleLength
		parentID, parentName := r.ParentFor(pattern.Sequence[dayOfCycle])
		events = append(events, VirtualEvent{
			Date:         d,
			ParentID:     parentID,
			ParentName:   parentName,
			DayOfCycle:   dayOfCycle,
			RotationID:   r.ID,
			RotationName: r.Name,
		})
	}
	return events, nil
}

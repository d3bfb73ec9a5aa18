// Package visitation implements persisted, concretely-timed custody events
// for individual children: the event model, recurrence expansion for the
// calendar view, and the overlap guard that keeps one child's events
// temporally disjoint.
package visitation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/custodia-app/custodia/internal/constants"
)

// Frequency is the repeat cadence of a recurring event.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// IsValid reports whether f names a supported cadence.
func (f Frequency) IsValid() bool {
	return f == FrequencyDaily || f == FrequencyWeekly || f == FrequencyMonthly
}

// Recurrence is the structured repeat rule attached to recurring events.
// Exactly one of Until and Count may bound the rule; both zero means the
// rule repeats indefinitely (the expansion window bounds it in practice).
type Recurrence struct {
	Frequency Frequency      `json:"frequency"`
	Interval  int            `json:"interval"`
	Weekdays  []time.Weekday `json:"weekdays,omitempty"`
	Until     *time.Time     `json:"until,omitempty"`
	Count     int            `json:"count,omitempty"`
}

// Validate checks the rule's internal consistency.
func (r Recurrence) Validate() error {
	if !r.Frequency.IsValid() {
		return fmt.Errorf("invalid recurrence frequency %q", r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("recurrence interval must be at least 1, got %d", r.Interval)
	}
	if r.Until != nil && r.Count > 0 {
		return fmt.Errorf("recurrence may set until or count, not both")
	}
	if len(r.Weekdays) > 0 && r.Frequency != FrequencyWeekly {
		return fmt.Errorf("weekday list only applies to weekly recurrence")
	}
	for _, wd := range r.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("invalid weekday %d", wd)
		}
	}
	return nil
}

// rule compiles the recurrence into an rrule anchored at the event's start.
func (r Recurrence) rule(dtstart time.Time) (*rrule.RRule, error) {
	opts := rrule.ROption{
		Interval: r.Interval,
		Dtstart:  dtstart,
	}
	switch r.Frequency {
	case FrequencyDaily:
		opts.Freq = rrule.DAILY
	case FrequencyWeekly:
		opts.Freq = rrule.WEEKLY
	case FrequencyMonthly:
		opts.Freq = rrule.MONTHLY
	default:
		return nil, fmt.Errorf("invalid recurrence frequency %q", r.Frequency)
	}
	for _, wd := range r.Weekdays {
		opts.Byweekday = append(opts.Byweekday, weekdayToRRule(wd))
	}
	if r.Until != nil {
		opts.Until = r.Until.UTC()
	}
	if r.Count > 0 {
		opts.Count = r.Count
	}
	return rrule.NewRRule(opts)
}

func weekdayToRRule(wd time.Weekday) rrule.Weekday {
	switch wd {
	case time.Monday:
		return rrule.MO
	case time.Tuesday:
		return rrule.TU
	case time.Wednesday:
		return rrule.WE
	case time.Thursday:
		return rrule.TH
	case time.Friday:
		return rrule.FR
	case time.Saturday:
		return rrule.SA
	default:
		return rrule.SU
	}
}

// Event is a persisted visitation event: one child, one assigned parent,
// a concrete instant span.
type Event struct {
	ID               uuid.UUID
	FamilyID         uuid.UUID
	ChildID          uuid.UUID
	ParentID         uuid.UUID
	Start            time.Time
	End              time.Time
	Recurring        bool
	Recurrence       *Recurrence
	HolidayException bool
	Notes            string
	CreatedBy        uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks the event's field-level invariants, independent of any
// stored state.
func (e Event) Validate() error {
	if !e.End.After(e.Start) {
		return fmt.Errorf("event end %s must be after start %s", e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
	}
	if len(e.Notes) > constants.MaxNotesLength {
		return fmt.Errorf("notes exceed %d characters", constants.MaxNotesLength)
	}
	if e.Recurring && e.Recurrence == nil {
		return fmt.Errorf("recurring event requires a recurrence rule")
	}
	if !e.Recurring && e.Recurrence != nil {
		return fmt.Errorf("recurrence rule set on a non-recurring event")
	}
	if e.Recurrence != nil {
		if err := e.Recurrence.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Occurrence is one concrete instance of an event inside a query window.
// Non-recurring events yield at most one occurrence; recurring events yield
// one per rule hit.
type Occurrence struct {
	Event *Event
	Start time.Time
	End   time.Time
}

// Occurrences expands the event into concrete instances whose spans
// intersect [windowStart, windowEnd). Expansion is display-only: conflict
// checks always run against the stored base interval.
func (e *Event) Occurrences(windowStart, windowEnd time.Time) ([]Occurrence, error) {
	if !e.Recurring {
		if e.Start.Before(windowEnd) && windowStart.Before(e.End) {
			return []Occurrence{{Event: e, Start: e.Start, End: e.End}}, nil
		}
		return nil, nil
	}

	r, err := e.Recurrence.rule(e.Start.UTC())
	if err != nil {
		return nil, fmt.Errorf("compiling recurrence for event %s: %w", e.ID, err)
	}

	duration := e.End.Sub(e.Start)
	// Pull the window start back by the duration so occurrences that begin
	// before the window but spill into it are still found.
	starts := r.Between(windowStart.UTC().Add(-duration), windowEnd.UTC(), true)
	if len(starts) > constants.MaxRecurrenceOccurrences {
		starts = starts[:constants.MaxRecurrenceOccurrences]
	}

	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		end := s.Add(duration)
		if s.Before(windowEnd) && windowStart.Before(end) {
			out = append(out, Occurrence{Event: e, Start: s, End: end})
		}
	}
	return out, nil
}

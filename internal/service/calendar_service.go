package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/apperrors"
	"github.com/custodia-app/custodia/internal/constants"
	"github.com/custodia-app/custodia/internal/dateutil"
	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/rotation"
)

// Entry kinds for the merged calendar view.
const (
	EntryManual   = "manual"
	EntryRotation = "rotation"
)

// CalendarEntry is one line of the merged family calendar: either a concrete
// occurrence of a persisted visitation event or one projected rotation day.
type CalendarEntry struct {
	Kind       string     `json:"kind"`
	Start      time.Time  `json:"start"`
	End        time.Time  `json:"end"`
	ParentID   uuid.UUID  `json:"parent_id"`
	ParentName string     `json:"parent_name,omitempty"`
	ChildID    *uuid.UUID `json:"child_id,omitempty"`
	EventID    *uuid.UUID `json:"event_id,omitempty"`
	RotationID *uuid.UUID `json:"rotation_id,omitempty"`
	Title      string     `json:"title"`
	Notes      string     `json:"notes,omitempty"`
	DayOfCycle *int       `json:"day_of_cycle,omitempty"`
}

// CalendarService builds the merged family calendar from persisted events
// and rotation projections.
type CalendarService struct {
	rotations RotationStoreInterface
	events    EventStoreInterface
	families  FamilyStoreInterface
	settings  SettingsStoreInterface
	logger    zerolog.Logger
}

// NewCalendarService creates a new calendar service
func NewCalendarService(rotations RotationStoreInterface, events EventStoreInterface, families FamilyStoreInterface, settings SettingsStoreInterface) *CalendarService {
	return &CalendarService{
		rotations: rotations,
		events:    events,
		families:  families,
		settings:  settings,
		logger:    logging.GetLogger("calendar-service"),
	}
}

// MergedCalendar returns the family's calendar inside the window around
// center: recurring and one-off visitation events expanded to occurrences,
// plus every active rotation projected day by day. No deduplication happens;
// a day covered by both a rotation and a manual event shows both entries.
// An empty center uses today; window size comes from the settings table.
func (s *CalendarService) MergedCalendar(ctx context.Context, callerID, familyID uuid.UUID, center string) ([]CalendarEntry, error) {
	member, err := s.families.IsMember(ctx, callerID, familyID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check membership")
	}
	if !member {
		return nil, apperrors.Permission("caller is not a member of the family")
	}

	window, err := s.resolveWindow(ctx, center)
	if err != nil {
		return nil, err
	}

	entries, err := s.buildEntries(ctx, familyID, window)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})
	return entries, nil
}

// ICalFeed renders the merged calendar as an iCalendar document for
// subscription in external calendar apps.
func (s *CalendarService) ICalFeed(ctx context.Context, callerID, familyID uuid.UUID) (string, error) {
	entries, err := s.MergedCalendar(ctx, callerID, familyID, "")
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//" + constants.AppIdentifier + "//EN")
	now := time.Now().UTC()

	for i, entry := range entries {
		uid := fmt.Sprintf("%s-%d@custodia", entryUIDBase(entry), i)
		ev := cal.AddEvent(uid)
		ev.SetDtStampTime(now)
		ev.SetSummary(entry.Title)
		if entry.Notes != "" {
			ev.SetDescription(entry.Notes)
		}
		if entry.Kind == EntryRotation {
			// Rotation days are whole-day entries.
			ev.SetAllDayStartAt(entry.Start)
			ev.SetAllDayEndAt(entry.Start.Add(24 * time.Hour))
		} else {
			ev.SetStartAt(entry.Start)
			ev.SetEndAt(entry.End)
		}
	}
	return cal.Serialize(), nil
}

func entryUIDBase(e CalendarEntry) string {
	if e.EventID != nil {
		return e.EventID.String()
	}
	if e.RotationID != nil {
		return e.RotationID.String()
	}
	return "entry"
}

func (s *CalendarService) resolveWindow(ctx context.Context, center string) (dateutil.Window, error) {
	centerDate := dateutil.Today()
	if center != "" {
		parsed, err := dateutil.ParseDate(center)
		if err != nil {
			return dateutil.Window{}, apperrors.Validation("invalid center date %q", center)
		}
		centerDate = parsed
	}

	monthsBack, monthsForward, err := s.settings.GetCalendarWindow(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Falling back to default calendar window")
		return dateutil.DefaultWindowAround(centerDate), nil
	}
	return dateutil.WindowAround(centerDate, monthsBack, monthsForward), nil
}

func (s *CalendarService) buildEntries(ctx context.Context, familyID uuid.UUID, window dateutil.Window) ([]CalendarEntry, error) {
	windowStart := window.Start.StartOfDayUTC()
	windowEnd := window.End.EndOfDayUTC()

	events, err := s.events.ByFamilyWindow(ctx, familyID, windowStart, windowEnd)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load events")
	}

	var entries []CalendarEntry
	for i := range events {
		ev := &events[i]
		occurrences, err := ev.Occurrences(windowStart, windowEnd)
		if err != nil {
			s.logger.Warn().Err(err).Str("event_id", ev.ID.String()).Msg("Skipping event with bad recurrence rule")
			continue
		}
		for _, occ := range occurrences {
			childID := ev.ChildID
			eventID := ev.ID
			entries = append(entries, CalendarEntry{
				Kind:     EntryManual,
				Start:    occ.Start,
				End:      occ.End,
				ParentID: ev.ParentID,
				ChildID:  &childID,
				EventID:  &eventID,
				Title:    "Visitation",
				Notes:    ev.Notes,
			})
		}
	}

	rotations, err := s.rotations.ActiveByFamily(ctx, familyID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load rotations")
	}
	for _, rot := range rotations {
		virtual, err := rotation.Project(rot, window.Start, window.End)
		if err != nil {
			s.logger.Warn().Err(err).Str("rotation_id", rot.ID.String()).Msg("Skipping unprojectable rotation")
			continue
		}
		for _, v := range virtual {
			rotationID := v.RotationID
			dayOfCycle := v.DayOfCycle
			entries = append(entries, CalendarEntry{
				Kind:       EntryRotation,
				Start:      v.StartUTC(),
				End:        v.EndUTC(),
				ParentID:   v.ParentID,
				ParentName: v.ParentName,
				RotationID: &rotationID,
				Title:      v.RotationName,
				DayOfCycle: &dayOfCycle,
			})
		}
	}
	return entries, nil
}

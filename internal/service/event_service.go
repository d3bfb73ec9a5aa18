package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/apperrors"
	"github.com/custodia-app/custodia/internal/interval"
	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/signals"
	"github.com/custodia-app/custodia/internal/visitation"
)

// EventService implements visitation event creation, update and deletion.
type EventService struct {
	events   EventStoreInterface
	families FamilyStoreInterface
	logger   zerolog.Logger
}

// NewEventService creates a new event service
func NewEventService(events EventStoreInterface, families FamilyStoreInterface) *EventService {
	return &EventService{
		events:   events,
		families: families,
		logger:   logging.GetLogger("event-service"),
	}
}

// EventParams carries the raw input for creating or updating an event.
// Instants arrive as RFC3339 strings.
type EventParams struct {
	FamilyID         uuid.UUID
	ChildID          uuid.UUID
	ParentID         uuid.UUID
	Start            string
	End              string
	Recurrence       *visitation.Recurrence
	HolidayException bool
	Notes            string
}

// Create validates, permission-checks and stores a new visitation event. The
// same-child overlap guard runs inside the store transaction.
func (s *EventService) Create(ctx context.Context, callerID uuid.UUID, p EventParams) (*visitation.Event, error) {
	start, end, err := s.validateTimes(p.Start, p.End)
	if err != nil {
		return nil, err
	}

	if err := s.checkEditRights(ctx, callerID, p.FamilyID); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, p); err != nil {
		return nil, err
	}

	ev := &visitation.Event{
		ID:               uuid.New(),
		FamilyID:         p.FamilyID,
		ChildID:          p.ChildID,
		ParentID:         p.ParentID,
		Start:            start,
		End:              end,
		Recurring:        p.Recurrence != nil,
		Recurrence:       p.Recurrence,
		HolidayException: p.HolidayException,
		Notes:            p.Notes,
		CreatedBy:        callerID,
	}
	if err := ev.Validate(); err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	err = s.events.CreateChecked(ctx, ev, s.overlapCheck(visitation.Candidate{
		ChildID: ev.ChildID,
		Start:   ev.Start,
		End:     ev.End,
	}))
	if err != nil {
		return nil, s.classifyStoreErr(err, "failed to store event")
	}

	s.logger.Info().
		Str("event_id", ev.ID.String()).
		Str("child_id", ev.ChildID.String()).
		Msg("Visitation event created")
	signals.EmitEventChanged(ctx, ev.FamilyID, ev.ID, ev.ChildID, false)
	return ev, nil
}

// Update rewrites an existing event. The overlap guard re-runs whenever the
// child or the time span changes; it evaluates the child's other events, so
// an event can always move within its own old span.
func (s *EventService) Update(ctx context.Context, callerID, eventID uuid.UUID, p EventParams) (*visitation.Event, error) {
	start, end, err := s.validateTimes(p.Start, p.End)
	if err != nil {
		return nil, err
	}

	current, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load event")
	}
	if current == nil {
		return nil, apperrors.NotFound("event %s not found", eventID)
	}

	if err := s.checkEditRights(ctx, callerID, current.FamilyID); err != nil {
		return nil, err
	}
	if p.ChildID != current.ChildID || p.ParentID != current.ParentID {
		if err := s.checkReferences(ctx, EventParams{FamilyID: current.FamilyID, ChildID: p.ChildID, ParentID: p.ParentID}); err != nil {
			return nil, err
		}
	}

	updated := *current
	updated.ChildID = p.ChildID
	updated.ParentID = p.ParentID
	updated.Start = start
	updated.End = end
	updated.Recurring = p.Recurrence != nil
	updated.Recurrence = p.Recurrence
	updated.HolidayException = p.HolidayException
	updated.Notes = p.Notes
	if err := updated.Validate(); err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	err = s.events.UpdateChecked(ctx, &updated, s.overlapCheck(visitation.Candidate{
		ChildID:   updated.ChildID,
		Start:     updated.Start,
		End:       updated.End,
		ExcludeID: &updated.ID,
	}))
	if err != nil {
		return nil, s.classifyStoreErr(err, "failed to update event")
	}

	s.logger.Info().Str("event_id", eventID.String()).Msg("Visitation event updated")
	signals.EmitEventChanged(ctx, updated.FamilyID, updated.ID, updated.ChildID, false)
	return &updated, nil
}

// Delete removes an event permanently, along with its swap requests.
func (s *EventService) Delete(ctx context.Context, callerID, eventID uuid.UUID) error {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return apperrors.Internal(err, "failed to load event")
	}
	if ev == nil {
		return apperrors.NotFound("event %s not found", eventID)
	}

	if err := s.checkEditRights(ctx, callerID, ev.FamilyID); err != nil {
		return err
	}

	ok, err := s.events.Delete(ctx, eventID)
	if err != nil {
		return apperrors.Internal(err, "failed to delete event")
	}
	if !ok {
		return apperrors.NotFound("event %s not found", eventID)
	}

	s.logger.Info().Str("event_id", eventID.String()).Msg("Visitation event deleted")
	signals.EmitEventChanged(ctx, ev.FamilyID, ev.ID, ev.ChildID, true)
	return nil
}

// ListEvents returns events across the caller's families whose stored
// interval intersects the half-open [start, end) window, optionally filtered
// to one child.
func (s *EventService) ListEvents(ctx context.Context, callerID uuid.UUID, startStr, endStr string, childID *uuid.UUID) ([]visitation.Event, error) {
	start, end, err := s.validateTimes(startStr, endStr)
	if err != nil {
		return nil, err
	}

	if childID != nil {
		return s.listChildEvents(ctx, callerID, *childID, start, end)
	}

	families, err := s.families.FamiliesFor(ctx, callerID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list caller families")
	}

	var out []visitation.Event
	for _, f := range families {
		events, err := s.events.ByFamilyWindow(ctx, f.ID, start, end)
		if err != nil {
			return nil, apperrors.Internal(err, "failed to list events")
		}
		for _, ev := range events {
			// ByFamilyWindow also returns recurring bases outside the window
			// for the calendar view; the listing reports stored intervals only.
			if !interval.Overlaps(ev.Start, ev.End, start, end) {
				continue
			}
			out = append(out, ev)
		}
	}
	return out, nil
}

// listChildEvents serves the child-filtered listing from the child's own
// rows rather than scanning every family the caller belongs to. Unknown
// children and children outside the caller's families both come back empty.
func (s *EventService) listChildEvents(ctx context.Context, callerID, childID uuid.UUID, start, end time.Time) ([]visitation.Event, error) {
	child, err := s.families.GetChild(ctx, childID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load child")
	}
	if child == nil {
		return nil, nil
	}
	member, err := s.families.IsMember(ctx, callerID, child.FamilyID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check family membership")
	}
	if !member {
		return nil, nil
	}

	events, err := s.events.ByChild(ctx, childID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list events")
	}
	var out []visitation.Event
	for _, ev := range events {
		if !interval.Overlaps(ev.Start, ev.End, start, end) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *EventService) validateTimes(startStr, endStr string) (time.Time, time.Time, error) {
	var result *multierror.Error

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		result = multierror.Append(result, apperrors.Validation("invalid start time %q", startStr))
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		result = multierror.Append(result, apperrors.Validation("invalid end time %q", endStr))
	}
	if err := result.ErrorOrNil(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, apperrors.Constraint("event end must be after start")
	}
	return start.UTC(), end.UTC(), nil
}

func (s *EventService) checkEditRights(ctx context.Context, callerID, familyID uuid.UUID) error {
	canEdit, err := s.families.CanEdit(ctx, callerID, familyID)
	if err != nil {
		return apperrors.Internal(err, "failed to check edit rights")
	}
	if !canEdit {
		return apperrors.Permission("caller may not edit this family's schedule")
	}
	return nil
}

func (s *EventService) checkReferences(ctx context.Context, p EventParams) error {
	child, err := s.families.GetChild(ctx, p.ChildID)
	if err != nil {
		return apperrors.Internal(err, "failed to load child")
	}
	if child == nil || child.FamilyID != p.FamilyID {
		return apperrors.NotFound("child %s not found in family", p.ChildID)
	}

	role, found, err := s.families.MemberRole(ctx, p.ParentID, p.FamilyID)
	if err != nil {
		return apperrors.Internal(err, "failed to check parent membership")
	}
	if !found {
		return apperrors.Constraint("parent %s is not a member of the family", p.ParentID)
	}
	if !role.IsParenting() {
		return apperrors.Constraint("member %s has role %s and cannot hold custody", p.ParentID, role)
	}
	return nil
}

// overlapCheck builds the guard callback the store runs inside its
// transaction.
func (s *EventService) overlapCheck(c visitation.Candidate) func([]visitation.Event) error {
	return func(existing []visitation.Event) error {
		if conflict := visitation.FindConflict(existing, c); conflict != nil {
			return apperrors.Conflict(conflict.Start, conflict.End,
				"event overlaps existing event for the same child")
		}
		return nil
	}
}

func (s *EventService) classifyStoreErr(err error, msg string) error {
	if apperrors.IsKind(err, apperrors.KindConflict) {
		return err
	}
	s.logger.Error().Err(err).Msg(msg)
	return apperrors.Internal(err, "%s", msg)
}

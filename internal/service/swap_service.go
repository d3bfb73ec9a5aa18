package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/apperrors"
	"github.com/custodia-app/custodia/internal/database"
	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/signals"
	"github.com/custodia-app/custodia/internal/visitation"
)

// SwapService implements swap request creation and resolution.
type SwapService struct {
	swaps    SwapStoreInterface
	events   EventStoreInterface
	families FamilyStoreInterface
	logger   zerolog.Logger
}

// NewSwapService creates a new swap service
func NewSwapService(swaps SwapStoreInterface, events EventStoreInterface, families FamilyStoreInterface) *SwapService {
	return &SwapService{
		swaps:    swaps,
		events:   events,
		families: families,
		logger:   logging.GetLogger("swap-service"),
	}
}

// SwapParams carries the raw input for a swap request.
type SwapParams struct {
	EventID       uuid.UUID
	ProposedStart string
	ProposedEnd   string
	Reason        string
}

// Create stores a pending swap request for an existing event. Any family
// member may request; resolution requires edit rights.
func (s *SwapService) Create(ctx context.Context, callerID uuid.UUID, p SwapParams) (*visitation.SwapRequest, error) {
	start, end, err := s.validateTimes(p.ProposedStart, p.ProposedEnd)
	if err != nil {
		return nil, err
	}

	ev, err := s.events.GetByID(ctx, p.EventID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load event")
	}
	if ev == nil {
		return nil, apperrors.NotFound("event %s not found", p.EventID)
	}

	member, err := s.families.IsMember(ctx, callerID, ev.FamilyID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check membership")
	}
	if !member {
		return nil, apperrors.Permission("caller is not a member of the event's family")
	}

	req := &visitation.SwapRequest{
		ID:            uuid.New(),
		FamilyID:      ev.FamilyID,
		EventID:       ev.ID,
		RequestedBy:   callerID,
		ProposedStart: start,
		ProposedEnd:   end,
		Reason:        p.Reason,
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation("%v", err)
	}

	if err := s.swaps.Create(ctx, req); err != nil {
		return nil, apperrors.Internal(err, "failed to store swap request")
	}

	s.logger.Info().
		Str("swap_id", req.ID.String()).
		Str("event_id", ev.ID.String()).
		Msg("Swap request created")
	return req, nil
}

// Approve resolves a pending swap and moves its event to the proposed span.
// The visitation guard re-runs against the moved event inside the store
// transaction; a conflict leaves both the event and the request untouched.
func (s *SwapService) Approve(ctx context.Context, callerID, swapID uuid.UUID) (*visitation.Event, error) {
	req, err := s.loadForResolution(ctx, callerID, swapID)
	if err != nil {
		return nil, err
	}

	moved, err := s.swaps.Approve(ctx, swapID, callerID, func(moved visitation.Event, others []visitation.Event) error {
		conflict := visitation.FindConflict(others, visitation.Candidate{
			ChildID: moved.ChildID,
			Start:   moved.Start,
			End:     moved.End,
		})
		if conflict != nil {
			return apperrors.Conflict(conflict.Start, conflict.End,
				"proposed span overlaps an existing event for the same child")
		}
		return nil
	})
	if err != nil {
		switch {
		case apperrors.IsKind(err, apperrors.KindConflict):
			return nil, err
		case errors.Is(err, database.ErrSwapResolved):
			return nil, apperrors.Constraint("swap request %s is already resolved", swapID)
		default:
			return nil, apperrors.Internal(err, "failed to approve swap request")
		}
	}

	s.logger.Info().Str("swap_id", swapID.String()).Msg("Swap request approved")
	signals.EmitSwapResolved(ctx, req.FamilyID, swapID, true)
	return moved, nil
}

// Reject resolves a pending swap without touching its event.
func (s *SwapService) Reject(ctx context.Context, callerID, swapID uuid.UUID) error {
	req, err := s.loadForResolution(ctx, callerID, swapID)
	if err != nil {
		return err
	}

	if err := s.swaps.Reject(ctx, swapID, callerID); err != nil {
		if errors.Is(err, database.ErrSwapResolved) {
			return apperrors.Constraint("swap request %s is already resolved", swapID)
		}
		return apperrors.Internal(err, "failed to reject swap request")
	}

	s.logger.Info().Str("swap_id", swapID.String()).Msg("Swap request rejected")
	signals.EmitSwapResolved(ctx, req.FamilyID, swapID, false)
	return nil
}

// List returns a family's swap requests for its members.
func (s *SwapService) List(ctx context.Context, callerID, familyID uuid.UUID) ([]visitation.SwapRequest, error) {
	member, err := s.families.IsMember(ctx, callerID, familyID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check membership")
	}
	if !member {
		return nil, apperrors.Permission("caller is not a member of the family")
	}

	swaps, err := s.swaps.ByFamily(ctx, familyID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list swap requests")
	}
	return swaps, nil
}

func (s *SwapService) loadForResolution(ctx context.Context, callerID, swapID uuid.UUID) (*visitation.SwapRequest, error) {
	req, err := s.swaps.GetByID(ctx, swapID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load swap request")
	}
	if req == nil {
		return nil, apperrors.NotFound("swap request %s not found", swapID)
	}

	canEdit, err := s.families.CanEdit(ctx, callerID, req.FamilyID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check edit rights")
	}
	if !canEdit {
		return nil, apperrors.Permission("caller may not resolve swap requests for this family")
	}
	if !req.Pending() {
		return nil, apperrors.Constraint("swap request %s is already resolved", swapID)
	}
	return req, nil
}

func (s *SwapService) validateTimes(startStr, endStr string) (time.Time, time.Time, error) {
	var result *multierror.Error

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		result = multierror.Append(result, apperrors.Validation("invalid proposed start time %q", startStr))
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		result = multierror.Append(result, apperrors.Validation("invalid proposed end time %q", endStr))
	}
	if err := result.ErrorOrNil(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, apperrors.Constraint("proposed end must be after start")
	}
	return start.UTC(), end.UTC(), nil
}

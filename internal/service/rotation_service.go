package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/custodia-app/custodia/internal/apperrors"
	"github.com/custodia-app/custodia/internal/constants"
	"github.com/custodia-app/custodia/internal/dateutil"
	"github.com/custodia-app/custodia/internal/logging"
	"github.com/custodia-app/custodia/internal/rotation"
	"github.com/custodia-app/custodia/internal/signals"
)

// RotationService implements rotation creation, listing and deactivation.
type RotationService struct {
	rotations RotationStoreInterface
	families  FamilyStoreInterface
	logger    zerolog.Logger
}

// NewRotationService creates a new rotation service
func NewRotationService(rotations RotationStoreInterface, families FamilyStoreInterface) *RotationService {
	return &RotationService{
		rotations: rotations,
		families:  families,
		logger:    logging.GetLogger("rotation-service"),
	}
}

// CreateRotationParams carries the raw creation input. Dates arrive as
// YYYY-MM-DD strings so every malformed value surfaces as a validation
// error, not a transport-level one.
type CreateRotationParams struct {
	FamilyID          uuid.UUID
	Name              string
	Pattern           string
	StartDate         string
	EndDate           *string
	PrimaryParentID   uuid.UUID
	SecondaryParentID uuid.UUID
}

// Create validates, permission-checks and stores a new rotation. The overlap
// guard runs inside the store transaction, so two concurrent creations for
// the same family cannot both pass it.
func (s *RotationService) Create(ctx context.Context, callerID uuid.UUID, p CreateRotationParams) (*rotation.Rotation, error) {
	start, end, err := s.validateCreate(p)
	if err != nil {
		return nil, err
	}

	if err := s.checkCreatePermissions(ctx, callerID, p); err != nil {
		return nil, err
	}

	rot := &rotation.Rotation{
		ID:                uuid.New(),
		FamilyID:          p.FamilyID,
		Name:              p.Name,
		Pattern:           rotation.PatternType(p.Pattern),
		Start:             start,
		End:               end,
		PrimaryParentID:   p.PrimaryParentID,
		SecondaryParentID: p.SecondaryParentID,
		Active:            true,
		CreatedBy:         callerID,
	}

	err = s.rotations.CreateChecked(ctx, rot, func(existing []rotation.Rotation) error {
		candidate := rot.Span()
		for _, other := range existing {
			if other.Span().Conflicts(candidate) {
				conflictEnd := other.Start.EndOfDayUTC()
				if other.End != nil {
					conflictEnd = other.End.EndOfDayUTC()
				}
				return apperrors.Conflict(other.Start.StartOfDayUTC(), conflictEnd,
					"rotation overlaps existing rotation %q", other.Name)
			}
		}
		return nil
	})
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindConflict) {
			s.logger.Info().Str("family_id", p.FamilyID.String()).Msg("Rotation rejected by overlap guard")
			return nil, err
		}
		s.logger.Error().Err(err).Str("family_id", p.FamilyID.String()).Msg("Failed to store rotation")
		return nil, apperrors.Internal(err, "failed to store rotation")
	}

	s.logger.Info().
		Str("rotation_id", rot.ID.String()).
		Str("family_id", rot.FamilyID.String()).
		Str("pattern", p.Pattern).
		Msg("Rotation created")
	signals.EmitRotationCreated(ctx, rot.FamilyID, rot.ID, p.Pattern)
	return rot, nil
}

func (s *RotationService) validateCreate(p CreateRotationParams) (dateutil.Date, *dateutil.Date, error) {
	var result *multierror.Error

	if p.Name == "" {
		result = multierror.Append(result, apperrors.Validation("rotation name is required"))
	}
	if len(p.Name) > constants.MaxNameLength {
		result = multierror.Append(result, apperrors.Validation("rotation name exceeds %d characters", constants.MaxNameLength))
	}
	if !rotation.IsValidPattern(rotation.PatternType(p.Pattern)) {
		result = multierror.Append(result, apperrors.Validation("unknown rotation pattern %q", p.Pattern))
	}

	start, err := dateutil.ParseDate(p.StartDate)
	if err != nil {
		result = multierror.Append(result, apperrors.Validation("invalid start date %q", p.StartDate))
	}

	var end *dateutil.Date
	if p.EndDate != nil {
		e, err := dateutil.ParseDate(*p.EndDate)
		if err != nil {
			result = multierror.Append(result, apperrors.Validation("invalid end date %q", *p.EndDate))
		} else {
			end = &e
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return dateutil.Date{}, nil, err
	}

	if end != nil && !end.After(start) {
		return dateutil.Date{}, nil, apperrors.Constraint("rotation end date must be after start date")
	}
	return start, end, nil
}

func (s *RotationService) checkCreatePermissions(ctx context.Context, callerID uuid.UUID, p CreateRotationParams) error {
	canEdit, err := s.families.CanEdit(ctx, callerID, p.FamilyID)
	if err != nil {
		return apperrors.Internal(err, "failed to check edit rights")
	}
	if !canEdit {
		return apperrors.Permission("caller may not edit this family's schedule")
	}

	if p.PrimaryParentID == p.SecondaryParentID {
		return apperrors.Constraint("primary and secondary parent must differ")
	}
	for _, parentID := range []uuid.UUID{p.PrimaryParentID, p.SecondaryParentID} {
		role, found, err := s.families.MemberRole(ctx, parentID, p.FamilyID)
		if err != nil {
			return apperrors.Internal(err, "failed to check parent membership")
		}
		if !found {
			return apperrors.Constraint("parent %s is not a member of the family", parentID)
		}
		if !role.IsParenting() {
			return apperrors.Constraint("member %s has role %s and cannot hold custody", parentID, role)
		}
	}
	return nil
}

// List returns the active rotations across every family the caller belongs
// to.
func (s *RotationService) List(ctx context.Context, callerID uuid.UUID) ([]rotation.Rotation, error) {
	families, err := s.families.FamiliesFor(ctx, callerID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list caller families")
	}
	ids := make([]uuid.UUID, 0, len(families))
	for _, f := range families {
		ids = append(ids, f.ID)
	}
	rotations, err := s.rotations.ActiveByFamilies(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list rotations")
	}
	return rotations, nil
}

// Delete soft-deletes a rotation. The row stays for audit; only the active
// flag changes, so past projections remain reconstructible.
func (s *RotationService) Delete(ctx context.Context, callerID, rotationID uuid.UUID) error {
	rot, err := s.rotations.GetByID(ctx, rotationID)
	if err != nil {
		return apperrors.Internal(err, "failed to load rotation")
	}
	if rot == nil {
		return apperrors.NotFound("rotation %s not found", rotationID)
	}

	canEdit, err := s.families.CanEdit(ctx, callerID, rot.FamilyID)
	if err != nil {
		return apperrors.Internal(err, "failed to check edit rights")
	}
	if !canEdit {
		return apperrors.Permission("caller may not edit this family's schedule")
	}

	if !rot.Active {
		return apperrors.NotFound("rotation %s is already deactivated", rotationID)
	}

	ok, err := s.rotations.Deactivate(ctx, rotationID)
	if err != nil {
		return apperrors.Internal(err, "failed to deactivate rotation")
	}
	if !ok {
		return apperrors.NotFound("rotation %s not found", rotationID)
	}

	s.logger.Info().Str("rotation_id", rotationID.String()).Msg("Rotation deactivated")
	signals.EmitRotationDeactivated(ctx, rot.FamilyID, rotationID)
	return nil
}

// CalendarEvents projects one rotation into per-day parent assignments for
// the inclusive date range. An unknown rotation id yields an empty slice,
// not an error, so callers can render a calendar without existence checks.
func (s *RotationService) CalendarEvents(ctx context.Context, callerID, rotationID uuid.UUID, startDate, endDate string) ([]rotation.VirtualEvent, error) {
	var result *multierror.Error
	start, err := dateutil.ParseDate(startDate)
	if err != nil {
		result = multierror.Append(result, apperrors.Validation("invalid start date %q", startDate))
	}
	end, err := dateutil.ParseDate(endDate)
	if err != nil {
		result = multierror.Append(result, apperrors.Validation("invalid end date %q", endDate))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, apperrors.Constraint("range end before start")
	}

	rot, err := s.rotations.GetByID(ctx, rotationID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load rotation")
	}
	if rot == nil {
		return []rotation.VirtualEvent{}, nil
	}

	member, err := s.families.IsMember(ctx, callerID, rot.FamilyID)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to check membership")
	}
	if !member {
		return nil, apperrors.Permission("caller is not a member of the rotation's family")
	}

	events, err := rotation.Project(*rot, start, end)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to project rotation")
	}
	if events == nil {
		events = []rotation.VirtualEvent{}
	}
	return events, nil
}

package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-app/custodia/internal/apperrors"
	"github.com/custodia-app/custodia/internal/rotation"
)

func rotationParams(w *world, name, start string, end *string) CreateRotationParams {
	return CreateRotationParams{
		FamilyID:          w.FamilyID,
		Name:              name,
		Pattern:           string(rotation.PatternTwoTwoThree),
		StartDate:         start,
		EndDate:           end,
		PrimaryParentID:   w.ParentA,
		SecondaryParentID: w.ParentB,
	}
}

func TestCreateRotation(t *testing.T) {
	w := newWorld()
	svc := NewRotationService(NewMockRotationStore(), w.Families)
	ctx := context.Background()

	rot, err := svc.Create(ctx, w.ParentA, rotationParams(w, "School year", "2025-09-01", strPtr("2026-06-30")))
	require.NoError(t, err)
	assert.Equal(t, "School year", rot.Name)
	assert.True(t, rot.Active)
	assert.Equal(t, w.ParentA, rot.CreatedBy)

	listed, err := svc.List(ctx, w.ParentA)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, rot.ID, listed[0].ID)
}

func TestCreateRotationValidation(t *testing.T) {
	w := newWorld()
	svc := NewRotationService(NewMockRotationStore(), w.Families)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateRotationParams)
		kind   apperrors.Kind
	}{
		{"empty name", func(p *CreateRotationParams) { p.Name = "" }, apperrors.KindValidation},
		{"unknown pattern", func(p *CreateRotationParams) { p.Pattern = "4-4-4" }, apperrors.KindValidation},
		{"bad start date", func(p *CreateRotationParams) { p.StartDate = "2025-13-01" }, apperrors.KindValidation},
		{"bad end date", func(p *CreateRotationParams) { p.EndDate = strPtr("not-a-date") }, apperrors.KindValidation},
		{"end before start", func(p *CreateRotationParams) { p.EndDate = strPtr("2025-01-01") }, apperrors.KindConstraint},
		{"same parents", func(p *CreateRotationParams) { p.SecondaryParentID = p.PrimaryParentID }, apperrors.KindConstraint},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := rotationParams(w, "Plan", "2025-09-01", strPtr("2026-06-30"))
			tc.mutate(&p)
			_, err := svc.Create(ctx, w.ParentA, p)
			require.Error(t, err)
			assert.Equal(t, tc.kind, apperrors.KindOf(err))
		})
	}
}

func TestCreateRotationPermissions(t *testing.T) {
	w := newWorld()
	svc := NewRotationService(NewMockRotationStore(), w.Families)
	ctx := context.Background()
	p := rotationParams(w, "Plan", "2025-09-01", strPtr("2026-06-30"))

	_, err := svc.Create(ctx, w.Viewer, p)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "viewer cannot create rotations")

	_, err = svc.Create(ctx, w.Outsider, p)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission), "outsider cannot create rotations")

	// A viewer cannot be assigned custody either.
	p.SecondaryParentID = w.Viewer
	_, err = svc.Create(ctx, w.ParentA, p)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConstraint))

	p.SecondaryParentID = w.Outsider
	_, err = svc.Create(ctx, w.ParentA, p)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConstraint))
}

func TestCreateRotationOverlapRejected(t *testing.T) {
	w := newWorld()
	svc := NewRotationService(NewMockRotationStore(), w.Families)
	ctx := context.Background()

	_, err := svc.Create(ctx, w.ParentA, rotationParams(w, "First", "2025-01-01", strPtr("2025-06-30")))
	require.NoError(t, err)

	_, err = svc.Create(ctx, w.ParentA, rotationParams(w, "Overlapping", "2025-06-30", strPtr("2025-12-31")))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict), "shared boundary day conflicts")

	// Adjacent (next day) is fine.
	_, err = svc.Create(ctx, w.ParentA, rotationParams(w, "Following", "2025-07-01", strPtr("2025-12-31")))
	assert.NoError(t, err)

	// Open-ended candidate collides with anything present.
	_, err = svc.Create(ctx, w.ParentA, rotationParams(w, "Forever", "2026-01-01", nil))
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestDeleteRotation(t *testing.T) {
	w := newWorld()
	store := NewMockRotationStore()
	svc := NewRotationService(store, w.Families)
	ctx := context.Background()

	rot, err := svc.Create(ctx, w.ParentA, rotationParams(w, "Plan", "2025-09-01", strPtr("2026-06-30")))
	require.NoError(t, err)

	err = svc.Delete(ctx, w.Viewer, rot.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	require.NoError(t, svc.Delete(ctx, w.ParentB, rot.ID))

	listed, err := svc.List(ctx, w.ParentA)
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Soft delete keeps the row.
	stored, err := store.GetByID(ctx, rot.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.Active)

	// Deleting again reports not found.
	err = svc.Delete(ctx, w.ParentB, rot.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	err = svc.Delete(ctx, w.ParentB, uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestDeletedRotationFreesItsSpan(t *testing.T) {
	w := newWorld()
	svc := NewRotationService(NewMockRotationStore(), w.Families)
	ctx := context.Background()

	rot, err := svc.Create(ctx, w.ParentA, rotationParams(w, "Old", "2025-01-01", strPtr("2025-12-31")))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, w.ParentA, rot.ID))

	_, err = svc.Create(ctx, w.ParentA, rotationParams(w, "Replacement", "2025-01-01", strPtr("2025-12-31")))
	assert.NoError(t, err, "soft-deleted rotations never block new ones")
}

func TestRotationCalendarEvents(t *testing.T) {
	w := newWorld()
	svc := NewRotationService(NewMockRotationStore(), w.Families)
	ctx := context.Background()

	rot, err := svc.Create(ctx, w.ParentA, rotationParams(w, "2-2-3", "2025-01-06", nil))
	require.NoError(t, err)

	events, err := svc.CalendarEvents(ctx, w.ParentB, rot.ID, "2025-01-06", "2025-01-12")
	require.NoError(t, err)
	require.Len(t, events, 7)
	assert.Equal(t, 0, events[0].DayOfCycle)
	assert.Equal(t, rot.ID, events[0].RotationID)

	// Unknown rotation id yields an empty slice, not an error.
	events, err = svc.CalendarEvents(ctx, w.ParentB, uuid.New(), "2025-01-06", "2025-01-12")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)

	// Non-members cannot project a real rotation.
	_, err = svc.CalendarEvents(ctx, w.Outsider, rot.ID, "2025-01-06", "2025-01-12")
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	_, err = svc.CalendarEvents(ctx, w.ParentA, rot.ID, "bad-date", "2025-01-12")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

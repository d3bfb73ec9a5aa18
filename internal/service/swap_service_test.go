package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-app/custodia/internal/apperrors"
	"github.com/custodia-app/custodia/internal/visitation"
)

// swapWorld wires the event and swap services over a shared event store.
type swapWorld struct {
	*world
	Events  *EventService
	Swaps   *SwapService
	BaseEvt *visitation.Event
}

func newSwapWorld(t *testing.T) *swapWorld {
	t.Helper()
	w := newWorld()
	eventStore := NewMockEventStore()
	sw := &swapWorld{
		world:  w,
		Events: NewEventService(eventStore, w.Families),
		Swaps:  NewSwapService(NewMockSwapStore(eventStore), eventStore, w.Families),
	}

	ev, err := sw.Events.Create(context.Background(), w.ParentA,
		eventParams(w, "2025-07-04T09:00:00Z", "2025-07-04T17:00:00Z"))
	require.NoError(t, err)
	sw.BaseEvt = ev
	return sw
}

func swapParams(eventID uuid.UUID, start, end string) SwapParams {
	return SwapParams{
		EventID:       eventID,
		ProposedStart: start,
		ProposedEnd:   end,
		Reason:        "work trip",
	}
}

func TestCreateSwap(t *testing.T) {
	sw := newSwapWorld(t)
	ctx := context.Background()

	req, err := sw.Swaps.Create(ctx, sw.ParentB, swapParams(sw.BaseEvt.ID, "2025-07-05T09:00:00Z", "2025-07-05T17:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, visitation.SwapPending, req.Status)
	assert.Equal(t, sw.ParentB, req.RequestedBy)

	// Viewers are members, so they may request swaps.
	_, err = sw.Swaps.Create(ctx, sw.Viewer, swapParams(sw.BaseEvt.ID, "2025-07-06T09:00:00Z", "2025-07-06T17:00:00Z"))
	assert.NoError(t, err)

	_, err = sw.Swaps.Create(ctx, sw.Outsider, swapParams(sw.BaseEvt.ID, "2025-07-07T09:00:00Z", "2025-07-07T17:00:00Z"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	_, err = sw.Swaps.Create(ctx, sw.ParentB, swapParams(uuid.New(), "2025-07-05T09:00:00Z", "2025-07-05T17:00:00Z"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = sw.Swaps.Create(ctx, sw.ParentB, swapParams(sw.BaseEvt.ID, "2025-07-05T17:00:00Z", "2025-07-05T09:00:00Z"))
	assert.True(t, apperrors.IsKind(err, apperrors.KindConstraint))
}

func TestApproveSwap(t *testing.T) {
	sw := newSwapWorld(t)
	ctx := context.Background()

	req, err := sw.Swaps.Create(ctx, sw.ParentB, swapParams(sw.BaseEvt.ID, "2025-07-05T09:00:00Z", "2025-07-05T17:00:00Z"))
	require.NoError(t, err)

	// Viewers cannot resolve.
	_, err = sw.Swaps.Approve(ctx, sw.Viewer, req.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))

	moved, err := sw.Swaps.Approve(ctx, sw.ParentA, req.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 5, 9, 0, 0, 0, time.UTC), moved.Start)

	listed, err := sw.Swaps.List(ctx, sw.ParentA, sw.FamilyID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, visitation.SwapApproved, listed[0].Status)

	// Already resolved.
	_, err = sw.Swaps.Approve(ctx, sw.ParentA, req.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConstraint))
}

func TestApproveSwapConflict(t *testing.T) {
	sw := newSwapWorld(t)
	ctx := context.Background()

	// A second event occupies the proposed target span.
	_, err := sw.Events.Create(ctx, sw.ParentA, eventParams(sw.world, "2025-07-05T09:00:00Z", "2025-07-05T17:00:00Z"))
	require.NoError(t, err)

	req, err := sw.Swaps.Create(ctx, sw.ParentB, swapParams(sw.BaseEvt.ID, "2025-07-05T12:00:00Z", "2025-07-05T20:00:00Z"))
	require.NoError(t, err)

	_, err = sw.Swaps.Approve(ctx, sw.ParentA, req.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	// Event untouched and request still pending after the rejection.
	ev, err := sw.Events.ListEvents(ctx, sw.ParentA, "2025-07-04T00:00:00Z", "2025-07-05T00:00:00Z", nil)
	require.NoError(t, err)
	require.Len(t, ev, 1)
	assert.Equal(t, sw.BaseEvt.Start, ev[0].Start)

	listed, err := sw.Swaps.List(ctx, sw.ParentA, sw.FamilyID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, visitation.SwapPending, listed[0].Status)
}

func TestRejectSwap(t *testing.T) {
	sw := newSwapWorld(t)
	ctx := context.Background()

	req, err := sw.Swaps.Create(ctx, sw.ParentB, swapParams(sw.BaseEvt.ID, "2025-07-05T09:00:00Z", "2025-07-05T17:00:00Z"))
	require.NoError(t, err)

	require.NoError(t, sw.Swaps.Reject(ctx, sw.ParentA, req.ID))

	listed, err := sw.Swaps.List(ctx, sw.ParentB, sw.FamilyID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, visitation.SwapRejected, listed[0].Status)

	// The event kept its original span.
	ev, err := sw.Events.ListEvents(ctx, sw.ParentA, "2025-07-04T00:00:00Z", "2025-07-05T00:00:00Z", nil)
	require.NoError(t, err)
	require.Len(t, ev, 1)
	assert.Equal(t, sw.BaseEvt.Start, ev[0].Start)

	err = sw.Swaps.Reject(ctx, sw.ParentA, req.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConstraint))

	err = sw.Swaps.Reject(ctx, sw.ParentA, uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestListSwapsPermission(t *testing.T) {
	sw := newSwapWorld(t)
	_, err := sw.Swaps.List(context.Background(), sw.Outsider, sw.FamilyID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindPermission))
}

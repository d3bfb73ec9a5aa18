// Package signals defines the in-process events the scheduling services
// emit when calendar-affecting state changes. Listeners are registered at
// startup; emission is fire-and-forget.
package signals

import (
	"context"

	"github.com/google/uuid"
	"github.com/maniartech/signals"
)

// RotationCreatedData contains data associated with rotation creation signals
type RotationCreatedData struct {
	FamilyID   uuid.UUID
	RotationID uuid.UUID
	Pattern    string
}

// RotationDeactivatedData contains data associated with rotation soft-delete signals
type RotationDeactivatedData struct {
	FamilyID   uuid.UUID
	RotationID uuid.UUID
}

// EventChangedData contains data associated with visitation event signals
type EventChangedData struct {
	FamilyID uuid.UUID
	EventID  uuid.UUID
	ChildID  uuid.UUID
	Deleted  bool
}

// SwapResolvedData contains data associated with swap resolution signals
type SwapResolvedData struct {
	FamilyID uuid.UUID
	SwapID   uuid.UUID
	Approved bool
}

// Signal definitions using generics
var RotationCreated = signals.New[RotationCreatedData]()
var RotationDeactivated = signals.New[RotationDeactivatedData]()
var EventChanged = signals.New[EventChangedData]()
var SwapResolved = signals.New[SwapResolvedData]()

// EmitRotationCreated emits a signal when a rotation is created
func EmitRotationCreated(ctx context.Context, familyID, rotationID uuid.UUID, pattern string) {
	RotationCreated.Emit(ctx, RotationCreatedData{
		FamilyID:   familyID,
		RotationID: rotationID,
		Pattern:    pattern,
	})
}

// EmitRotationDeactivated emits a signal when a rotation is soft-deleted
func EmitRotationDeactivated(ctx context.Context, familyID, rotationID uuid.UUID) {
	RotationDeactivated.Emit(ctx, RotationDeactivatedData{
		FamilyID:   familyID,
		RotationID: rotationID,
	})
}

// EmitEventChanged emits a signal when a visitation event is written or removed
func EmitEventChanged(ctx context.Context, familyID, eventID, childID uuid.UUID, deleted bool) {
	EventChanged.Emit(ctx, EventChangedData{
		FamilyID: familyID,
		EventID:  eventID,
		ChildID:  childID,
		Deleted:  deleted,
	})
}

// EmitSwapResolved emits a signal when a swap request is approved or rejected
func EmitSwapResolved(ctx context.Context, familyID, swapID uuid.UUID, approved bool) {
	SwapResolved.Emit(ctx, SwapResolvedData{
		FamilyID: familyID,
		SwapID:   swapID,
		Approved: approved,
	})
}

// OnRotationCreated registers a handler for rotation creation events
func OnRotationCreated(handler func(ctx context.Context, data RotationCreatedData), key ...string) {
	if len(key) > 0 {
		RotationCreated.AddListener(handler, key[0])
	} else {
		RotationCreated.AddListener(handler)
	}
}

// OnRotationDeactivated registers a handler for rotation soft-delete events
func OnRotationDeactivated(handler func(ctx context.Context, data RotationDeactivatedData), key ...string) {
	if len(key) > 0 {
		RotationDeactivated.AddListener(handler, key[0])
	} else {
		RotationDeactivated.AddListener(handler)
	}
}

// OnEventChanged registers a handler for visitation event changes
func OnEventChanged(handler func(ctx context.Context, data EventChangedData), key ...string) {
	if len(key) > 0 {
		EventChanged.AddListener(handler, key[0])
	} else {
		EventChanged.AddListener(handler)
	}
}

// OnSwapResolved registers a handler for swap resolution events
func OnSwapResolved(handler func(ctx context.Context, data SwapResolvedData), key ...string) {
	if len(key) > 0 {
		SwapResolved.AddListener(handler, key[0])
	} else {
		SwapResolved.AddListener(handler)
	}
}

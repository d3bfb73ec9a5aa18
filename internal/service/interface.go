// Package service implements the application operations on top of the
// storage layer: permission checks, overlap guards, calendar merging. Every
// operation takes the caller's resolved user id; handlers do token
// verification before calling in here.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-app/custodia/internal/constants"
	"github.com/custodia-app/custodia/internal/database"
	"github.com/custodia-app/custodia/internal/rotation"
	"github.com/custodia-app/custodia/internal/visitation"
)

// RotationStoreInterface defines the rotation storage operations
type RotationStoreInterface interface {
	// CreateChecked inserts a rotation after running check against the
	// family's active rotations inside one transaction
	CreateChecked(ctx context.Context, rot *rotation.Rotation, check func(existing []rotation.Rotation) error) error

	// ActiveByFamily returns the family's active rotations
	ActiveByFamily(ctx context.Context, familyID uuid.UUID) ([]rotation.Rotation, error)

	// ActiveByFamilies returns active rotations across several families
	ActiveByFamilies(ctx context.Context, familyIDs []uuid.UUID) ([]rotation.Rotation, error)

	// GetByID returns one rotation, or nil when absent
	GetByID(ctx context.Context, id uuid.UUID) (*rotation.Rotation, error)

	// Deactivate soft-deletes a rotation
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

// EventStoreInterface defines the visitation event storage operations
type EventStoreInterface interface {
	// CreateChecked inserts an event after running check against the child's
	// existing events inside one transaction
	CreateChecked(ctx context.Context, ev *visitation.Event, check func(existing []visitation.Event) error) error

	// UpdateChecked rewrites an event after running check against the child's
	// other events inside one transaction
	UpdateChecked(ctx context.Context, ev *visitation.Event, check func(existing []visitation.Event) error) error

	// GetByID returns one event, or nil when absent
	GetByID(ctx context.Context, id uuid.UUID) (*visitation.Event, error)

	// ByChild returns every stored event for one child
	ByChild(ctx context.Context, childID uuid.UUID) ([]visitation.Event, error)

	// ByFamilyWindow returns the family's events intersecting the window
	ByFamilyWindow(ctx context.Context, familyID uuid.UUID, windowStart, windowEnd time.Time) ([]visitation.Event, error)

	// Delete hard-deletes an event
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// SwapStoreInterface defines the swap request storage operations
type SwapStoreInterface interface {
	// Create inserts a pending swap request
	Create(ctx context.Context, req *visitation.SwapRequest) error

	// GetByID returns one swap request, or nil when absent
	GetByID(ctx context.Context, id uuid.UUID) (*visitation.SwapRequest, error)

	// ByFamily returns the family's swap requests
	ByFamily(ctx context.Context, familyID uuid.UUID) ([]visitation.SwapRequest, error)

	// Approve resolves a pending swap and moves its event, atomically
	Approve(ctx context.Context, swapID, resolvedBy uuid.UUID, check func(moved visitation.Event, others []visitation.Event) error) (*visitation.Event, error)

	// Reject resolves a pending swap without touching its event
	Reject(ctx context.Context, swapID, resolvedBy uuid.UUID) error
}

// FamilyStoreInterface defines the family and membership storage operations
type FamilyStoreInterface interface {
	// IsMember reports whether the user belongs to the family
	IsMember(ctx context.Context, userID, familyID uuid.UUID) (bool, error)

	// CanEdit reports whether the user may change the family's schedule
	CanEdit(ctx context.Context, userID, familyID uuid.UUID) (bool, error)

	// MemberRole returns the user's role in the family
	MemberRole(ctx context.Context, userID, familyID uuid.UUID) (constants.MemberRole, bool, error)

	// FamiliesFor returns the families the user belongs to
	FamiliesFor(ctx context.Context, userID uuid.UUID) ([]database.Family, error)

	// GetChild returns one child, or nil when absent
	GetChild(ctx context.Context, childID uuid.UUID) (*database.Child, error)
}

// SettingsStoreInterface defines the runtime settings storage operations
type SettingsStoreInterface interface {
	// GetCalendarWindow retrieves the merged-calendar default window in months
	GetCalendarWindow(ctx context.Context) (monthsBack, monthsForward int, err error)

	// SetCalendarWindow saves the merged-calendar default window
	SetCalendarWindow(ctx context.Context, monthsBack, monthsForward int) error
}

// Ensure the SQLite stores implement the interfaces
var _ RotationStoreInterface = (*database.RotationStore)(nil)
var _ EventStoreInterface = (*database.EventStore)(nil)
var _ SwapStoreInterface = (*database.SwapStore)(nil)
var _ FamilyStoreInterface = (*database.FamilyStore)(nil)
var _ SettingsStoreInterface = (*database.SettingsStore)(nil)
